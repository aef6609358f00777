// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package slogkafka provides a log/slog handler that ships log records to an
// Apache Kafka topic as Logstash-style JSON documents.
//
// # Overview
//
// Each record handled by a Handler is converted into an ordered document
// (see Format), serialized to JSON and handed to a Lifecycle, which owns the
// single franz-go producer of the process. The producer is created lazily on
// the first record and released by Close.
//
// # Quick Start
//
//	handler, err := slogkafka.NewHandler(slogkafka.HandlerOptions{
//	    Topic:          "app-logs",
//	    AppName:        "billing",
//	    IncludeContext: true,
//	    ProducerConfig: []slogkafka.ProducerConfigEntry{
//	        {Key: "bootstrap.servers", Value: "localhost:9092"},
//	        {Key: "compression.type", Value: "snappy"},
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer handler.Close(context.Background())
//
//	logger := slog.New(handler)
//	logger.Info("hello", "logger", "billing.api", "request_id", "abc")
//
// The record above is published as:
//
//	{"version":1,"@timestamp":"2025-01-02T03:04:05.678Z","appname":"billing",
//	 "HOSTNAME":"10.0.0.7","thread_name":"","level":"INFO",
//	 "logger_name":"billing.api","message":"hello","request_id":"abc"}
//
// Records logged with a context carrying an OpenTelemetry span also get
// trace_id and span_id when IncludeContext is set.
//
// # Delivery
//
// Publishing never blocks the caller and delivery failures are never
// retried or returned: log shipping is best effort. Every outcome is
// reported as a DeliveryReport to the delivery listeners; the built-in
// listener writes one line to the diagnostic kgo.Logger. Metrics adapts the
// reports to Prometheus:
//
//	metrics := slogkafka.NewMetrics("billing")
//	prometheus.MustRegister(metrics)
//	opts.DeliveryListeners = []func(*slogkafka.DeliveryReport){metrics.Observe}
//
// # Producer Configuration
//
// ProducerConfig takes librdkafka-style properties (bootstrap.servers, acks,
// compression.type, linger.ms, security.protocol, sasl.* and others) and
// translates them to franz-go options. Unknown properties are rejected with
// ErrConfiguration when the handler is created.
//
// # Thread Safety
//
// Handler and Lifecycle are safe for concurrent use by multiple goroutines.
package slogkafka
