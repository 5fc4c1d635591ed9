package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deusflow/aqibot/internal/app"
	"github.com/deusflow/aqibot/internal/config"
	"github.com/deusflow/aqibot/internal/logger"
	"github.com/deusflow/aqibot/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		logger.Logger.Error("aqibot failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		logger.Init(false, "text")
		return err
	}
	log := logger.Init(cfg.Debug, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()
	if cfg.MonitoringEnabled {
		srv := startMonitoringServer(cfg.MonitoringPort, m, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	a, closeHistory, err := app.FromConfig(ctx, cfg, m, log, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeHistory(); err != nil {
			log.Warn("failed to close history", "error", err)
		}
	}()

	log.Info("starting run", "stations", len(cfg.Stations), "live", cfg.Live, "history", cfg.HistoryBackend)
	return a.Run(ctx)
}

func startMonitoringServer(port string, m *metrics.Metrics, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(m))
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("starting monitoring server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("monitoring server error", "error", err)
		}
	}()
	return srv
}

func healthHandler(m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := m.GetStats()

		status := "ok"
		code := http.StatusOK
		if !m.Healthy() {
			status = "error"
			code = http.StatusServiceUnavailable
		}

		response := map[string]interface{}{
			"status":     status,
			"last_run":   stats["last_run_time"],
			"last_error": stats["last_error"],
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(response)
	}
}
