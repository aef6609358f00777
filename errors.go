// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"context"
	"errors"

	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	// ErrConfiguration indicates the producer configuration is missing or invalid.
	// Returned before any network activity takes place.
	ErrConfiguration = &metricError{
		metric:  "configuration_error",
		message: "invalid producer configuration",
	}

	// ErrLifecycle indicates a publish was attempted after Shutdown.
	ErrLifecycle = &metricError{
		metric:  "lifecycle_error",
		message: "publisher is closed",
	}

	// ErrDelivery indicates the broker client failed to deliver a record.
	// Delivery failures are only ever reported to listeners, never returned.
	ErrDelivery = &metricError{
		metric:  "delivery_error",
		message: "delivery failed",
	}

	// ErrBufferFull indicates the client's produce buffer was at capacity.
	ErrBufferFull = &metricError{
		metric:  "buffer_full",
		message: "buffer full",
	}

	// ErrBroker indicates the Kafka broker rejected the record.
	ErrBroker = &metricError{
		metric:  "broker_error",
		message: "broker error",
	}

	// ErrTimeout indicates a record or flush timed out.
	ErrTimeout = &metricError{
		metric:  "timeout",
		message: "timeout",
	}

	// ErrEncoding indicates the formatted event could not be serialized.
	ErrEncoding = &metricError{
		metric:  "encoding_error",
		message: "encoding failed",
	}
)

// metricError is an internal error type that wraps errors with a type classification
// for metrics and observability.
type metricError struct {
	metric  string // Type classification for metrics (e.g., "encoding_error")
	message string // Human-readable message
}

// Error implements the error interface.
func (e *metricError) Error() string {
	return e.message
}

func (e *metricError) Metric() string {
	return e.metric
}

func (e *metricError) Is(target error) bool {
	if t, ok := target.(*metricError); ok {
		return e.message == t.message
	}
	return false
}

// errorType extracts the error type string for metrics classification.
// Walks the error chain to find metricError types.
func errorType(err error) string {
	if err == nil {
		return ""
	}

	var me *metricError
	if errors.As(err, &me) {
		return me.Metric()
	}

	return "unknown"
}

// classifyDelivery tags an error returned by a franz-go promise with the
// matching sentinel so listeners can group failures. The most specific
// sentinel comes first so errorType reports it.
func classifyDelivery(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, kgo.ErrMaxBuffered):
		return errors.Join(ErrBufferFull, ErrDelivery, err)
	case errors.Is(err, kgo.ErrRecordTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrTimeout, ErrDelivery, err)
	case errors.Is(err, kgo.ErrClientClosed),
		errors.Is(err, context.Canceled):
		return errors.Join(ErrDelivery, err)
	}

	return errors.Join(ErrBroker, ErrDelivery, err)
}
