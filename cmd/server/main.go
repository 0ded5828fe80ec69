package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sportsuid/internal/app"
	"sportsuid/internal/platform/config"
	"sportsuid/internal/platform/httpserver"
	"sportsuid/internal/platform/logger"
	httpmetrics "sportsuid/internal/platform/metrics"
	uidhandler "sportsuid/internal/uid/handler"
	"sportsuid/pkg/platform/httputil"
	"sportsuid/pkg/platform/middleware/metadata"
	"sportsuid/pkg/platform/middleware/requesttime"
)

// main wires configuration, stores, and the router, then serves until
// SIGINT or SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.Build(ctx, cfg, log, app.WithRegistry(reg))
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to release resources", "error", err)
		}
	}()

	if a.Kafka != nil {
		if err := a.Kafka.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure events topic", "topic", cfg.Kafka.Topic, "error", err)
		}
	}

	router := newRouter(a, log, httpmetrics.NewWithRegistry(reg), reg)
	srv := httpserver.New(cfg.Addr, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting sportsuid", "addr", cfg.Addr, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func newRouter(a *app.App, log *slog.Logger, m *httpmetrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metadata.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.AccessLog(log))
	r.Use(m.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Health(ctx); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	uidhandler.New(a.Service, log).Register(r)
	return r
}
