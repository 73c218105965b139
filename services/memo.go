package services

import (
	"econudge-dashboard/models"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoModel remembers predictions of a deterministic model. Errors are not
// remembered.
type MemoModel struct {
	inner Model
	cache *lru.Cache[models.FeatureRecord, float64]
}

func NewMemoModel(inner Model, size int) (*MemoModel, error) {
	cache, err := lru.New[models.FeatureRecord, float64](size)
	if err != nil {
		return nil, err
	}
	return &MemoModel{inner: inner, cache: cache}, nil
}

func (m *MemoModel) Predict(rec models.FeatureRecord) (float64, error) {
	if y, ok := m.cache.Get(rec); ok {
		return y, nil
	}
	y, err := m.inner.Predict(rec)
	if err != nil {
		return 0, err
	}
	m.cache.Add(rec, y)
	return y, nil
}

func (m *MemoModel) Info() models.ModelInfo { return m.inner.Info() }

func (m *MemoModel) Len() int { return m.cache.Len() }
