// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DeliveryReport describes the outcome of one asynchronous delivery.
type DeliveryReport struct {
	// Topic is the Kafka topic the record was published to (or attempted to publish to).
	Topic string

	// Key is the generated record key.
	Key []byte

	// Value is the serialized event.
	Value []byte

	// Partition and Offset are set only for successful deliveries.
	Partition int32
	Offset    int64

	// Error is nil for successful deliveries.
	Error error

	// ErrorType is the error classification (empty for successful deliveries).
	// Values: "buffer_full", "timeout", "broker_error", "delivery_error".
	ErrorType string

	// Duration is the time taken from submission to completion.
	Duration time.Duration
}

func newDeliveryReport(r *kgo.Record, err error, since time.Time) *DeliveryReport {
	report := DeliveryReport{
		Topic:    r.Topic,
		Key:      r.Key,
		Value:    r.Value,
		Duration: time.Since(since),
	}

	if err != nil {
		report.Error = classifyDelivery(err)
		report.ErrorType = errorType(report.Error)
		report.Partition = -1
		report.Offset = -1
		return &report
	}

	report.Partition = r.Partition
	report.Offset = r.Offset
	return &report
}

// Delivered reports whether the broker acknowledged the record.
func (r *DeliveryReport) Delivered() bool {
	return r.Error == nil
}

// String returns the single-line diagnostic form of the report. Successful
// and failed deliveries have distinct shapes; only failures carry a reason.
func (r *DeliveryReport) String() string {
	if r.Delivered() {
		return fmt.Sprintf("Delivered '%s' to: %s [%d] @%d", r.Value, r.Topic, r.Partition, r.Offset)
	}
	return fmt.Sprintf("Delivery of '%s' to: %s failed: %v", r.Value, r.Topic, r.Error)
}
