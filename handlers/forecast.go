package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"econudge-dashboard/models"
	"econudge-dashboard/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ForecastHandler struct {
	forecaster *services.Forecaster
	cache      *services.CacheService
	ttl        time.Duration
	logger     *zap.Logger
}

func NewForecastHandler(forecaster *services.Forecaster, cache *services.CacheService, ttl time.Duration, logger *zap.Logger) *ForecastHandler {
	return &ForecastHandler{forecaster: forecaster, cache: cache, ttl: ttl, logger: logger}
}

// Create runs one forecast for the posted FeatureRecord. Unlike the
// dashboard form, the API does not clamp or fill in defaults: incomplete or
// out-of-range input is rejected.
func (h *ForecastHandler) Create(c *gin.Context) {
	var in models.FeatureInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := in.Record()
	if err != nil {
		respondForecastError(c, &services.PredictionError{Err: fmt.Errorf("%w: %w", services.ErrInvalidFeatures, err)})
		return
	}

	info, err := h.forecaster.ModelInfo()
	if err != nil {
		respondForecastError(c, err)
		return
	}

	cacheKey := services.ForecastKey(info, rec)

	var cached models.Forecast
	if found, err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && found {
		go publishForecast(h.cache, cached, h.logger)
		c.JSON(http.StatusOK, cached)
		return
	}

	forecast, err := h.forecaster.Forecast(rec)
	if err != nil {
		respondForecastError(c, err)
		return
	}

	go h.cache.Set(context.Background(), cacheKey, forecast, h.ttl)
	go publishForecast(h.cache, forecast, h.logger)

	c.JSON(http.StatusOK, forecast)
}

func respondForecastError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case services.IsModelLoadError(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model unavailable", "detail": err.Error()})
	case services.IsPredictionError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "prediction failed", "detail": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "forecast failed"})
	}
}
