package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"

	"github.com/arloliu/keepalive"
	"github.com/arloliu/keepalive/natsconn"
)

func run(_ *cli.Context) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := keepalive.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	hooks := &keepalive.Hooks{
		OnProbeFailed: func(_ context.Context, connID string, err error) error {
			logger.Warn("probe failed, connection may be dead", "conn", connID, "error", err)
			return nil
		},
	}

	sched, err := keepalive.NewScheduler(cfg,
		keepalive.WithLogger(logger),
		keepalive.WithMetrics(keepalive.NewPrometheusMetrics(reg, "keepalive")),
		keepalive.WithHooks(hooks),
	)
	if err != nil {
		return err
	}

	nc, err := nats.Connect(natsURL, nats.Name("keepalive-probe"), nats.MaxReconnects(-1))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", natsURL, err)
	}
	defer nc.Close()

	conn := natsconn.New(nc, natsconn.Config{
		KeepAliveInterval: interval,
		SkipOnTraffic:     skipTraffic,
	})
	if err := sched.Init(conn); err != nil {
		return err
	}
	conn.BindLifecycle(sched, logger)

	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	var srv *http.Server
	if metricsAddr != "" {
		srv = serveMetrics(reg, logger)
	}

	logger.Info("keep-alive running", "url", nc.ConnectedUrl(), "conn", conn.ID(), "interval", interval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("metrics server shutdown failed", "error", err)
		}
	}

	return nil
}

// loadConfig reads --config if given; probes always re-arm so the command
// keeps the connection alive on its own.
func loadConfig() (*keepalive.Config, error) {
	cfg := keepalive.DefaultConfig()
	if configPath != "" {
		loaded, err := keepalive.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	cfg.RearmOnFire = true

	return &cfg, nil
}

func serveMetrics(reg *prometheus.Registry, logger keepalive.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return srv
}
