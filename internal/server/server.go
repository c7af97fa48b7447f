// Package server wires the chi router and runs the HTTP listener.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deltakaart/atlas/internal/api"
	"github.com/deltakaart/atlas/internal/config"
	"github.com/deltakaart/atlas/internal/health"
)

// Routes builds the full router; split out so handler tests can mount
// it without a listener.
func Routes(logger *slog.Logger, h *api.Handlers, checks ...health.Check) chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer())
	r.Use(logging(logger))
	r.Use(metrics())
	r.Use(cors())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(checks...))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/content", h.GetContent)
		r.Post("/content", h.SaveContent)

		r.Get("/images/{category}", h.ListImages)

		r.Route("/map-layers", func(r chi.Router) {
			r.Get("/", h.ListLayers)
			r.Get("/download/{layerID}", h.DownloadLayer)
			r.Put("/bulk-order", h.BulkReorderLayers)
			r.Delete("/{layerID}", h.DeleteLayer)
			r.Get("/{layerID}/style", h.GetStyle)
			r.Put("/{layerID}/style", h.SetStyle)
			r.Delete("/{layerID}/style", h.DeleteStyle)
			r.Put("/{layerID}/order", h.ReorderLayer)
		})

		r.Get("/map-tiles/debug/{layerID}", h.InspectTiles)

		r.Post("/analytics/events", h.RecordEvent)
		r.Get("/analytics/summary", h.AnalyticsSummary)
	})
	return r
}

// Run sets up routing and serves until ctx is canceled.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, h *api.Handlers, checks ...health.Check) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           Routes(logger, h, checks...),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
