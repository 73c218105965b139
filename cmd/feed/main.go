package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"econudge-dashboard/config"
	"econudge-dashboard/logging"
	"econudge-dashboard/metrics"
	"econudge-dashboard/models"
	"econudge-dashboard/services"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ConditionsPayload is one set of simulated conditions published by another
// tool. All five features are required.
type ConditionsPayload struct {
	TS     string `json:"ts"`
	Source string `json:"source"`
	models.FeatureInput
}

type feed struct {
	forecaster *services.Forecaster
	cache      *services.CacheService
	logger     *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.MQTT.URL == "" {
		logger.Fatal("MQTT_URL is required for the conditions feed")
	}

	provider := services.NewModelProvider(cfg.Model.Path, cfg.Model.MemoSize, logger)
	if _, err := provider.Load(); err != nil {
		logger.Fatal("model load failed", zap.Error(err))
	}

	cache, err := services.NewCacheService(cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, forecasts will only be logged", zap.Error(err))
	}
	defer cache.Close()

	f := &feed{
		forecaster: services.NewForecaster(provider, logger),
		cache:      cache,
		logger:     logger,
	}

	go serveHTTP(cfg.Server.MetricsAddr, logger)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.URL)
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.MQTT.ClientID, time.Now().Format("20060102150405")))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetDefaultPublishHandler(func(client mqtt.Client, message mqtt.Message) {
		f.processMessage(ctx, message.Payload())
	})
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(cfg.MQTT.Topic, 0, nil)
		token.Wait()
		if token.Error() != nil {
			logger.Error("mqtt subscribe error", zap.Error(token.Error()))
			return
		}
		logger.Info("feed subscribed", zap.String("topic", cfg.MQTT.Topic))
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		logger.Fatal("mqtt connection failed", zap.Error(token.Error()))
	}

	logger.Info("feed running", zap.String("mqtt", cfg.MQTT.URL), zap.String("metrics", cfg.Server.MetricsAddr))

	<-ctx.Done()
	logger.Info("feed shutting down")
	client.Disconnect(250)
}

// processMessage treats each message as an independent interaction and
// returns the forecast it published, if any.
func (f *feed) processMessage(ctx context.Context, raw []byte) (models.Forecast, bool) {
	metrics.FeedMessagesReceived.Inc()

	var payload ConditionsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		metrics.FeedMessagesFailed.Inc()
		f.logger.Warn("invalid payload", zap.Error(err))
		return models.Forecast{}, false
	}

	rec, err := payload.Record()
	if err != nil {
		metrics.FeedMessagesFailed.Inc()
		f.logger.Warn("rejected payload", zap.String("source", payload.Source), zap.Error(err))
		return models.Forecast{}, false
	}

	forecast, err := f.forecaster.Forecast(rec)
	if err != nil {
		metrics.FeedMessagesFailed.Inc()
		f.logger.Warn("forecast failed", zap.String("source", payload.Source), zap.Error(err))
		return models.Forecast{}, false
	}

	forecast.Source = payload.Source
	if payload.TS != "" {
		if ts, err := time.Parse(time.RFC3339, payload.TS); err == nil {
			forecast.TS = ts.UTC()
		}
	}

	f.logger.Info("conditions evaluated",
		zap.String("source", forecast.Source),
		zap.Float64("predicted_kva", forecast.Prediction.KVA),
		zap.String("nudge", string(forecast.Nudge.State)),
	)

	if err := f.cache.Publish(ctx, services.LiveChannel, forecast); err != nil {
		f.logger.Warn("live publish failed", zap.Error(err))
	} else if f.cache.Available() {
		metrics.ForecastsPublished.Inc()
	}
	return forecast, true
}

func serveHTTP(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("metrics server failed", zap.Error(err))
	}
}
