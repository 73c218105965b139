package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"econudge-dashboard/config"
	"econudge-dashboard/handlers"
	"econudge-dashboard/logging"
	"econudge-dashboard/middleware"
	"econudge-dashboard/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Model handle: loaded lazily, shared by every request
	provider := services.NewModelProvider(cfg.Model.Path, cfg.Model.MemoSize, logger)
	if cfg.Model.Warmup {
		if _, err := provider.Load(); err != nil {
			logger.Warn("model warm-up failed, dashboard will report it per request", zap.Error(err))
		}
	}
	forecaster := services.NewForecaster(provider, logger)
	history := services.NewHistoryGenerator(cfg.History, nil)

	// Redis is optional: without it there is no response cache and no live stream
	cache, err := services.NewCacheService(cfg.Redis, logger)
	switch {
	case errors.Is(err, services.ErrCacheDisabled):
		logger.Info("redis not configured, cache and live stream disabled")
	case err != nil:
		logger.Warn("redis unavailable, cache and live stream disabled", zap.Error(err))
	default:
		logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	defer cache.Close()

	router, err := newRouter(cfg, forecaster, history, cache, logger)
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", addr), zap.String("model", cfg.Model.Path))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, forecaster *services.Forecaster, history *services.HistoryGenerator, cache *services.CacheService, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)

	tmpl, err := handlers.LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.SetupCORS(cfg.CORS))
	router.SetHTMLTemplate(tmpl)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "UP",
			"message": "EcoNudge dashboard is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	dashboard := handlers.NewDashboardHandler(forecaster, history, cache, logger)
	router.GET("/", dashboard.Show)

	forecasts := handlers.NewForecastHandler(forecaster, cache, time.Duration(cfg.Cache.ForecastTTLSec)*time.Second, logger)
	historyHandler := handlers.NewHistoryHandler(history)

	api := router.Group("/api/v1")
	api.GET("/controls", handlers.GetControls)
	api.GET("/history", historyHandler.GetHistory)
	api.POST("/forecasts", forecasts.Create)

	router.GET("/ws/live", handlers.LiveWebSocket(cache, logger))

	return router, nil
}
