// Command labcore runs the lab-pipeline service with its observability
// endpoints. Storage and blob backends are selected via LABCORE_* environment
// variables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"labcore/internal/blob"
	"labcore/internal/core"
	"labcore/internal/registry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", ":9090", "listen address for metrics and health endpoints")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	engine := core.DefaultRulesEngine()
	store, err := core.OpenPersistentStore(engine)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	artifacts, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("open blob storage: %w", err)
	}
	logger.Info("storage ready",
		zap.String("blob_driver", string(artifacts.Driver())))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	var metrics core.MetricsRecorder
	switch backend := os.Getenv("LABCORE_METRICS"); backend {
	case "expvar":
		// Served by the expvar handler on /debug/vars.
		rec := core.NewExpvarMetricsRecorder("labcore_service")
		logger.Info("metrics backend", zap.String("backend", backend), zap.String("expvar_name", rec.Name()))
		metrics = rec
	case "", "prometheus":
		rec, err := core.NewPrometheusMetricsRecorder(reg)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		metrics = rec
	default:
		return fmt.Errorf("unknown LABCORE_METRICS backend %q", backend)
	}

	service := core.NewService(store, registry.New(),
		core.WithLogger(logger),
		core.WithMetrics(metrics),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/plates", func(w http.ResponseWriter, r *http.Request) {
		plates, err := service.SearchPlates(r.Context(), core.PlateSearchQuery{
			NotesSubstring: r.URL.Query().Get("notes"),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(plates); err != nil {
			logger.Warn("encode plates", zap.Error(err))
		}
	})

	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
