// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestObserver(t *testing.T) {
	t.Parallel()

	meta := kgo.BrokerMetadata{NodeID: 1, Host: "kafka-1", Port: 9092}

	t.Run("client errors are logged", func(t *testing.T) {
		t.Parallel()
		logger := &captureLogger{}
		o := &observer{logger: logger}

		o.OnBrokerConnect(meta, time.Millisecond, nil, nil)
		o.OnBrokerWrite(meta, 0, 10, 0, 0, nil)
		assert.Empty(t, logger.all())

		o.OnBrokerConnect(meta, time.Millisecond, nil, errors.New("connection refused"))
		o.OnBrokerWrite(meta, 0, 10, 0, 0, errors.New("broken pipe"))

		lines := logger.all()
		require.Len(t, lines, 2)
		assert.Equal(t, kgo.LogLevelError, lines[0].level)
		assert.Contains(t, lines[0].msg, "slogkafka error: [ Broker:kafka-1:9092")
		assert.Contains(t, lines[0].msg, "Reason:connection refused ]")
		assert.Contains(t, lines[1].msg, "Reason:broken pipe ]")
	})

	t.Run("statistics", func(t *testing.T) {
		t.Parallel()
		o := &observer{logger: NopLogger()}
		o.OnProduceBatchWritten(meta, "app-logs", 0, kgo.ProduceBatchMetrics{NumRecords: 3, CompressedBytes: 120})
		o.OnProduceBatchWritten(meta, "app-logs", 1, kgo.ProduceBatchMetrics{NumRecords: 2, CompressedBytes: 80})
		o.OnBrokerConnect(meta, 0, nil, errors.New("x"))

		assert.Equal(t,
			"slogkafka statistics: buffered_records=0 buffered_bytes=0 batches_written=2 records_written=5 bytes_written=200 connect_errors=1 write_errors=0",
			o.statistics(nil))
	})

	t.Run("statistics loop stops", func(t *testing.T) {
		t.Parallel()
		logger := &captureLogger{}
		o := &observer{logger: logger}
		stop := make(chan struct{})
		done := make(chan struct{})

		go o.runStatistics(nil, time.Millisecond, stop, done)
		assert.Eventually(t, func() bool { return len(logger.all()) > 0 }, time.Second, time.Millisecond)

		close(stop)
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("statistics loop did not stop")
		}
	})
}
