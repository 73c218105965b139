package services

import (
	"fmt"
	"time"

	"econudge-dashboard/metrics"
	"econudge-dashboard/models"

	"go.uber.org/zap"
)

// Forecaster runs one interaction: load the model if needed, predict,
// then classify the prediction.
type Forecaster struct {
	source ModelSource
	logger *zap.Logger
	now    func() time.Time
}

func NewForecaster(source ModelSource, logger *zap.Logger) *Forecaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forecaster{source: source, logger: logger, now: time.Now}
}

// ModelInfo loads the model if needed and describes it.
func (f *Forecaster) ModelInfo() (models.ModelInfo, error) {
	model, err := f.source.Load()
	if err != nil {
		return models.ModelInfo{}, err
	}
	return model.Info(), nil
}

// Forecast returns a *ModelLoadError when no model is available, in which
// case nothing was predicted, and a *PredictionError when the record or the
// model output is unusable.
func (f *Forecaster) Forecast(rec models.FeatureRecord) (models.Forecast, error) {
	model, err := f.source.Load()
	if err != nil {
		return models.Forecast{}, err
	}

	if err := rec.Validate(); err != nil {
		metrics.PredictionsFailed.Inc()
		return models.Forecast{}, &PredictionError{Err: fmt.Errorf("%w: %w", ErrInvalidFeatures, err)}
	}

	kva, err := model.Predict(rec)
	if err != nil {
		metrics.PredictionsFailed.Inc()
		f.logger.Warn("prediction failed", zap.Any("features", rec), zap.Error(err))
		return models.Forecast{}, &PredictionError{Err: err}
	}
	if !isFinite(kva) {
		metrics.PredictionsFailed.Inc()
		return models.Forecast{}, &PredictionError{Err: ErrNonFiniteOutput}
	}

	nudge := Evaluate(kva)
	metrics.ForecastsComputed.Inc()
	metrics.Nudges.WithLabelValues(string(nudge.State)).Inc()

	if nudge.Triggered() {
		f.logger.Info("nudge triggered",
			zap.Float64("predicted_kva", kva),
			zap.Float64("overage_kva", nudge.Overage),
		)
	}

	return models.Forecast{
		TS:         f.now().UTC().Truncate(time.Second),
		Features:   rec,
		Prediction: models.PredictionResult{KVA: kva},
		Nudge:      nudge,
		Model:      model.Info(),
	}, nil
}
