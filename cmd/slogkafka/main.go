// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Command slogkafka reads lines from stdin and publishes each one to Kafka
// as a log record.
//
// Configuration comes from the environment and, if present, a .env file:
//
//	SLOGKAFKA_TOPIC=app-logs
//	SLOGKAFKA_APPNAME=billing
//	SLOGKAFKA_PRODUCER_CONFIG=bootstrap.servers=localhost:9092;acks=all
//	SLOGKAFKA_INCLUDE_CONTEXT=true
//	SLOGKAFKA_FLUSH_TIMEOUT=60s
//	SLOGKAFKA_LEVEL=INFO
//	SLOGKAFKA_LOGGER_NAME=stdin
//	SLOGKAFKA_METRICS_ADDR=:9090
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/plugin/kslog"
	"github.com/xmidt-org/slogkafka"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "slogkafka: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.LookupEnv, ".env")
	if err != nil {
		return err
	}

	diag := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.Handler.Logger = kslog.New(diag)

	if cfg.MetricsAddr != "" {
		metrics := slogkafka.NewMetrics("")
		registry := prometheus.NewRegistry()
		registry.MustRegister(metrics)
		cfg.Handler.DeliveryListeners = append(cfg.Handler.DeliveryListeners, metrics.Observe)

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				diag.Error("metrics server stopped", "error", err)
			}
		}()
	}

	handler, err := slogkafka.NewHandler(cfg.Handler)
	if err != nil {
		return err
	}
	defer handler.Close(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(handler)
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			logger.Log(ctx, cfg.Level, line)
		}
	}
}
