// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a set of Prometheus collectors fed by delivery reports.
// Register it with a prometheus.Registerer and add Metrics.Observe as a
// delivery listener.
type Metrics struct {
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

var _ prometheus.Collector = (*Metrics)(nil)

// NewMetrics creates the collectors under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		delivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "slogkafka",
				Name:      "delivered_total",
				Help:      "Log events acknowledged by Kafka.",
			},
			[]string{"topic"},
		),
		failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "slogkafka",
				Name:      "failed_total",
				Help:      "Log events that could not be delivered to Kafka.",
			},
			[]string{"topic", "error_type"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "slogkafka",
				Name:      "delivery_duration_seconds",
				Help:      "Time from submission to delivery outcome.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"topic"},
		),
	}
}

// Observe records one delivery report.
func (m *Metrics) Observe(r *DeliveryReport) {
	if r.Delivered() {
		m.delivered.WithLabelValues(r.Topic).Inc()
	} else {
		m.failed.WithLabelValues(r.Topic, r.ErrorType).Inc()
	}
	m.latency.WithLabelValues(r.Topic).Observe(r.Duration.Seconds())
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.delivered.Describe(ch)
	m.failed.Describe(ch)
	m.latency.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.delivered.Collect(ch)
	m.failed.Collect(ch)
	m.latency.Collect(ch)
}
