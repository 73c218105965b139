package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	History HistoryConfig `yaml:"history"`
	Redis   RedisConfig   `yaml:"redis"`
	Cache   CacheConfig   `yaml:"cache"`
	CORS    CORSConfig    `yaml:"cors"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	Mode        string `yaml:"mode"`
	MetricsAddr string `yaml:"metrics_addr"`
}

type ModelConfig struct {
	Path     string `yaml:"path"`
	Warmup   bool   `yaml:"warmup"`
	MemoSize int    `yaml:"memo_size"`
}

// HistoryConfig shapes the synthetic demand chart. It never reads real data.
type HistoryConfig struct {
	Seed     uint64  `yaml:"seed"`
	Baseline float64 `yaml:"baseline"`
	StdDev   float64 `yaml:"stddev"`
	Points   int     `yaml:"points"`
}

type RedisConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	ConnectAttempts int    `yaml:"connect_attempts"`
}

// Enabled reports whether a Redis host was configured at all.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type CacheConfig struct {
	ForecastTTLSec int `yaml:"forecast_ttl_sec"`
}

type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins"`
}

type MQTTConfig struct {
	URL      string `yaml:"url"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Mode:        "release",
			MetricsAddr: ":9090",
		},
		Model: ModelConfig{
			Path:     "artifacts/econudge_model.json",
			Warmup:   true,
			MemoSize: 1024,
		},
		History: HistoryConfig{
			Seed:     42,
			Baseline: 2600,
			StdDev:   50,
			Points:   100,
		},
		Redis: RedisConfig{
			Port:            6379,
			ConnectAttempts: 3,
		},
		Cache: CacheConfig{
			ForecastTTLSec: 300,
		},
		CORS: CORSConfig{
			AllowedOrigins: "*",
		},
		MQTT: MQTTConfig{
			Topic:    "econudge/conditions/+",
			ClientID: "econudge-feed",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// LoadConfig layers defaults, the optional YAML file named by CONFIG_FILE,
// and environment variables, in that order.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var err error

	if cfg.Server.Port, err = getIntEnv("SERVER_PORT", cfg.Server.Port); err != nil {
		return fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Mode = getEnv("GIN_MODE", cfg.Server.Mode)
	cfg.Server.MetricsAddr = getEnv("METRICS_ADDR", cfg.Server.MetricsAddr)

	cfg.Model.Path = getEnv("MODEL_PATH", cfg.Model.Path)
	if cfg.Model.Warmup, err = getBoolEnv("MODEL_WARMUP", cfg.Model.Warmup); err != nil {
		return fmt.Errorf("invalid MODEL_WARMUP: %w", err)
	}
	if cfg.Model.MemoSize, err = getIntEnv("MODEL_MEMO_SIZE", cfg.Model.MemoSize); err != nil {
		return fmt.Errorf("invalid MODEL_MEMO_SIZE: %w", err)
	}

	if cfg.History.Seed, err = getUintEnv("HISTORY_SEED", cfg.History.Seed); err != nil {
		return fmt.Errorf("invalid HISTORY_SEED: %w", err)
	}
	if cfg.History.Baseline, err = getFloatEnv("HISTORY_BASELINE", cfg.History.Baseline); err != nil {
		return fmt.Errorf("invalid HISTORY_BASELINE: %w", err)
	}
	if cfg.History.StdDev, err = getFloatEnv("HISTORY_STDDEV", cfg.History.StdDev); err != nil {
		return fmt.Errorf("invalid HISTORY_STDDEV: %w", err)
	}
	if cfg.History.Points, err = getIntEnv("HISTORY_POINTS", cfg.History.Points); err != nil {
		return fmt.Errorf("invalid HISTORY_POINTS: %w", err)
	}

	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	if cfg.Redis.Port, err = getIntEnv("REDIS_PORT", cfg.Redis.Port); err != nil {
		return fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	if cfg.Redis.DB, err = getIntEnv("REDIS_DB", cfg.Redis.DB); err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.Redis.ConnectAttempts, err = getIntEnv("REDIS_CONNECT_ATTEMPTS", cfg.Redis.ConnectAttempts); err != nil {
		return fmt.Errorf("invalid REDIS_CONNECT_ATTEMPTS: %w", err)
	}

	if cfg.Cache.ForecastTTLSec, err = getIntEnv("CACHE_FORECAST_TTL_SEC", cfg.Cache.ForecastTTLSec); err != nil {
		return fmt.Errorf("invalid CACHE_FORECAST_TTL_SEC: %w", err)
	}

	cfg.CORS.AllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)

	cfg.MQTT.URL = getEnv("MQTT_URL", cfg.MQTT.URL)
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", cfg.MQTT.Topic)
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", cfg.MQTT.ClientID)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	if cfg.Log.MaxSizeMB, err = getIntEnv("LOG_MAX_SIZE_MB", cfg.Log.MaxSizeMB); err != nil {
		return fmt.Errorf("invalid LOG_MAX_SIZE_MB: %w", err)
	}
	if cfg.Log.MaxBackups, err = getIntEnv("LOG_MAX_BACKUPS", cfg.Log.MaxBackups); err != nil {
		return fmt.Errorf("invalid LOG_MAX_BACKUPS: %w", err)
	}

	return nil
}

func (c *Config) validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model path must not be empty")
	}
	if c.Model.MemoSize < 0 {
		return fmt.Errorf("model memo size must be >= 0, got %d", c.Model.MemoSize)
	}
	if c.History.Points <= 0 {
		return fmt.Errorf("history points must be positive, got %d", c.History.Points)
	}
	if math.IsNaN(c.History.Baseline) || math.IsInf(c.History.Baseline, 0) {
		return fmt.Errorf("history baseline must be finite, got %v", c.History.Baseline)
	}
	if math.IsNaN(c.History.StdDev) || math.IsInf(c.History.StdDev, 0) || c.History.StdDev < 0 {
		return fmt.Errorf("history stddev must be finite and >= 0, got %v", c.History.StdDev)
	}
	if c.Redis.ConnectAttempts < 1 {
		c.Redis.ConnectAttempts = 1
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getUintEnv(key string, fallback uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseUint(value, 10, 64)
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getBoolEnv(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}
