package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ForecastsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econudge_forecasts_computed_total",
		Help: "Total number of forecasts computed.",
	})
	PredictionsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econudge_predictions_failed_total",
		Help: "Total number of prediction failures.",
	})
	ModelLoadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econudge_model_loads_failed_total",
		Help: "Total number of failed model artifact loads.",
	})
	ModelLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "econudge_model_load_duration_seconds",
		Help:    "Duration of a model artifact load.",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0},
	})
	Nudges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "econudge_nudges_total",
		Help: "Total number of nudge evaluations by resulting state.",
	}, []string{"state"})
	ForecastsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econudge_forecasts_published_total",
		Help: "Total number of forecasts published to the live channel.",
	})
	FeedMessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econudge_feed_messages_received_total",
		Help: "Total number of MQTT condition messages received by the feed.",
	})
	FeedMessagesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "econudge_feed_messages_failed_total",
		Help: "Total number of condition messages rejected or failed to evaluate.",
	})
)
