package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"econudge-dashboard/metrics"
	"econudge-dashboard/models"
	"econudge-dashboard/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveWebSocket relays forecasts from the live channel to the client.
func LiveWebSocket(cache *services.CacheService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cache.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live stream unavailable"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// Read pump: detect client disconnect
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		pubsub := cache.Subscribe(ctx, services.LiveChannel)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				err := conn.WriteJSON(gin.H{
					"type": "forecast",
					"data": json.RawMessage(msg.Payload),
				})
				if err != nil {
					logger.Debug("ws write error", zap.Error(err))
					return
				}
			}
		}
	}
}

func publishForecast(cache *services.CacheService, forecast models.Forecast, logger *zap.Logger) {
	if !cache.Available() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cache.Publish(ctx, services.LiveChannel, forecast); err != nil {
		logger.Warn("live publish failed", zap.Error(err))
		return
	}
	metrics.ForecastsPublished.Inc()
}
