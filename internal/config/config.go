// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr       string `env:"ADDR" envDefault:":8090"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogConsole bool   `env:"LOG_CONSOLE" envDefault:"false"`

	ContentPath     string `env:"CONTENT_PATH" envDefault:"data/content.json"`
	AnalyticsDBPath string `env:"ANALYTICS_DB_PATH" envDefault:"data/analytics.db"`

	// Cloudflare R2 holds the map-layer bucket.
	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2Bucket          string `env:"R2_BUCKET" envDefault:"atlas-layers"`
	// R2Endpoint overrides the account endpoint, for MinIO in dev.
	R2Endpoint string `env:"R2_ENDPOINT"`

	// Supabase Storage holds the image buckets.
	SupabaseURL         string `env:"SUPABASE_URL"`
	SupabaseServiceKey  string `env:"SUPABASE_SERVICE_KEY"`
	SupabaseImageBucket string `env:"SUPABASE_IMAGE_BUCKET" envDefault:"images"`

	// RedisAddr empty means style configs are kept in memory only.
	RedisAddr string `env:"REDIS_ADDR"`

	InvalidationEnabled bool   `env:"INVALIDATION_ENABLED" envDefault:"false"`
	KafkaBrokers        string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaTopic          string `env:"KAFKA_TOPIC" envDefault:"layer-invalidation"`
	KafkaGroupID        string `env:"KAFKA_GROUP_ID" envDefault:"atlas-layer-invalidator"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"false"`
	MetricsAddr    string `env:"METRICS_ADDR" envDefault:":9090"`
	MetricsPath    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
