package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"econudge-dashboard/config"
	"econudge-dashboard/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LiveChannel carries every computed forecast as JSON.
const LiveChannel = "econudge:live"

var ErrCacheDisabled = errors.New("redis cache disabled")

// CacheService is a thin Redis wrapper. With a nil client every write is a
// no-op and every read is a miss, so callers never branch on availability.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(cfg config.RedisConfig, logger *zap.Logger) (*CacheService, error) {
	if !cfg.Enabled() {
		return &CacheService{}, ErrCacheDisabled
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for i := 0; i < cfg.ConnectAttempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return &CacheService{client: client}, nil
		}
		logger.Warn("redis ping failed",
			zap.Int("attempt", i+1),
			zap.Int("of", cfg.ConnectAttempts),
			zap.Error(lastErr),
		)
		if i+1 < cfg.ConnectAttempts {
			time.Sleep(2 * time.Second)
		}
	}

	_ = client.Close()
	return &CacheService{}, fmt.Errorf("redis ping failed after %d attempts: %w", cfg.ConnectAttempts, lastErr)
}

// NewCacheServiceWithClient wraps an existing client, e.g. one pointed at a
// test server.
func NewCacheServiceWithClient(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func (s *CacheService) Available() bool {
	return s != nil && s.client != nil
}

// Get decodes the value at key into dest and reports whether it was found.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Available() {
		return false, nil
	}
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Available() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Publish(ctx context.Context, channel string, message interface{}) error {
	if !s.Available() {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

// Subscribe returns nil when the cache is unavailable.
func (s *CacheService) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if !s.Available() {
		return nil
	}
	return s.client.Subscribe(ctx, channel)
}

func (s *CacheService) Close() error {
	if !s.Available() {
		return nil
	}
	return s.client.Close()
}

// ForecastKey is stable for a given model and record; predictions are
// deterministic so a hit is never stale.
func ForecastKey(info models.ModelInfo, rec models.FeatureRecord) string {
	return fmt.Sprintf("forecast:%s@%s:%g:%g:%g:%d:%d",
		info.Name, info.Version,
		rec.ApparentTemperature, rec.RelativeHumidity, rec.WindSpeed,
		rec.Hour, rec.DayOfWeek,
	)
}
