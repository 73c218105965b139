package services

import (
	"fmt"
	"os"
	"sync"
	"time"

	"econudge-dashboard/metrics"

	"go.uber.org/zap"
)

// ModelSource hands out the process-wide model, loading it on first use.
type ModelSource interface {
	Load() (Model, error)
}

// ModelProvider owns the single model handle for the process. A successful
// load is kept until restart; a failed load is not remembered, so the next
// interaction reads the artifact again.
type ModelProvider struct {
	path     string
	memoSize int
	logger   *zap.Logger

	mu    sync.Mutex
	model Model
}

func NewModelProvider(path string, memoSize int, logger *zap.Logger) *ModelProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelProvider{path: path, memoSize: memoSize, logger: logger}
}

func (p *ModelProvider) Path() string { return p.path }

func (p *ModelProvider) Load() (Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != nil {
		return p.model, nil
	}

	start := time.Now()
	model, err := p.read()
	metrics.ModelLoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ModelLoadsFailed.Inc()
		p.logger.Error("model load failed", zap.String("path", p.path), zap.Error(err))
		return nil, err
	}

	if p.memoSize > 0 {
		model, err = NewMemoModel(model, p.memoSize)
		if err != nil {
			return nil, &ModelLoadError{Path: p.path, Err: err}
		}
	}

	info := model.Info()
	p.logger.Info("model loaded",
		zap.String("path", p.path),
		zap.String("name", info.Name),
		zap.String("version", info.Version),
		zap.String("type", info.Type),
		zap.Duration("took", time.Since(start)),
	)
	p.model = model
	return model, nil
}

func (p *ModelProvider) read() (Model, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, &ModelLoadError{Path: p.path, Err: err}
	}
	defer f.Close()

	model, err := DecodeArtifact(f)
	if err != nil {
		return nil, &ModelLoadError{Path: p.path, Err: fmt.Errorf("artifact: %w", err)}
	}
	return model, nil
}
