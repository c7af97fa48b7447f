package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deltakaart/atlas/internal/analytics"
	"github.com/deltakaart/atlas/internal/api"
	"github.com/deltakaart/atlas/internal/config"
	"github.com/deltakaart/atlas/internal/content"
	"github.com/deltakaart/atlas/internal/health"
	"github.com/deltakaart/atlas/internal/invalidation/kafkaconsumer"
	"github.com/deltakaart/atlas/internal/layers"
	"github.com/deltakaart/atlas/internal/logger"
	"github.com/deltakaart/atlas/internal/observability"
	"github.com/deltakaart/atlas/internal/server"
	"github.com/deltakaart/atlas/internal/storage"
	"github.com/deltakaart/atlas/internal/storage/s3store"
	"github.com/deltakaart/atlas/internal/storage/supabase"
	"github.com/deltakaart/atlas/internal/styles"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	addrFlag := flag.String("addr", "", "listen address, overrides ADDR")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	if *addrFlag != "" {
		cfg.Addr = strings.TrimSpace(*addrFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "atlas-server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting atlas",
		"addr", cfg.Addr,
		"version", Version,
		"bucket", cfg.R2Bucket)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	layerStore, err := buildLayerStore(ctx, cfg)
	if err != nil {
		appLog.Error("layer store setup failed", "err", err)
		return 1
	}
	layerSvc, err := layers.NewService(layerStore, appLog)
	if err != nil {
		appLog.Error("layer service setup failed", "err", err)
		return 1
	}

	sb, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
	if err != nil {
		appLog.Error("supabase setup failed", "err", err)
		return 1
	}
	imageBucket := cfg.SupabaseImageBucket

	contentStore, err := content.NewStore(cfg.ContentPath)
	if err != nil {
		appLog.Error("content store setup failed", "err", err)
		return 1
	}

	analyticsStore, err := analytics.Open(cfg.AnalyticsDBPath)
	if err != nil {
		appLog.Error("analytics store setup failed", "err", err)
		return 1
	}
	defer func() { _ = analyticsStore.Close() }()

	var styleStore styles.Store
	var checks []health.Check
	if cfg.RedisAddr != "" {
		rs, err := styles.NewRedisStore(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis setup failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rs.Close() }()
		styleStore = rs
		checks = append(checks, health.Check{Name: "redis", Probe: rs.Ping})
	} else {
		appLog.Warn("REDIS_ADDR not set, style configs will not survive restarts")
		styleStore = styles.NewMemoryStore()
	}
	checks = append(checks, health.Check{
		Name: "layer-store",
		Probe: func(ctx context.Context) error {
			_, err := layerStore.List(ctx, layers.Prefix)
			return err
		},
	})

	if cfg.InvalidationEnabled {
		consumer := kafkaconsumer.New(
			kafkaconsumer.NewConfig(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID),
			appLog, layerSvc, styleStore,
		)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("invalidation consumer stopped", "err", err)
			}
		}()
	}

	if cfg.MetricsEnabled {
		startMetricsListener(ctx, cfg, appLog)
	}

	h := &api.Handlers{
		Logger:    appLog,
		Content:   contentStore,
		Layers:    layerSvc,
		Styles:    styleStore,
		Images:    sb.Bucket(imageBucket),
		Analytics: analyticsStore,
		ImageURL: func(key string) string {
			return sb.PublicURL(imageBucket, key)
		},
	}

	if err := server.Run(ctx, cfg, appLog, h, checks...); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

// buildLayerStore connects to R2, or to any S3-compatible endpoint when
// R2_ENDPOINT points elsewhere (MinIO in dev).
func buildLayerStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, error) {
	if cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" {
		return nil, errors.New("R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY are required")
	}

	if cfg.R2Endpoint != "" {
		c, err := s3store.NewClient(ctx, s3store.ClientConfig{
			Region:       "auto",
			Endpoint:     cfg.R2Endpoint,
			UsePathStyle: true,
			Credentials:  credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, ""),
		})
		if err != nil {
			return nil, err
		}
		return s3store.New(c, cfg.R2Bucket)
	}

	if cfg.R2AccountID == "" {
		return nil, errors.New("R2_ACCOUNT_ID is required")
	}
	c, err := s3store.NewR2Client(ctx, cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2SecretAccessKey)
	if err != nil {
		return nil, err
	}
	return s3store.New(c, cfg.R2Bucket)
}

// startMetricsListener serves /metrics on its own port for deployments
// where the API port is not scraped directly.
func startMetricsListener(ctx context.Context, cfg config.Config, appLog *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.MetricsPath, promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("metrics: listening on %s%s", cfg.MetricsAddr, cfg.MetricsPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("metrics server exited", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
