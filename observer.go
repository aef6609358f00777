// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// observer receives franz-go client hooks and routes client errors to the
// diagnostic logger. It also accumulates the counters reported by the
// statistics loop.
type observer struct {
	logger kgo.Logger

	connectErrors atomic.Int64
	writeErrors   atomic.Int64
	batches       atomic.Int64
	records       atomic.Int64
	bytes         atomic.Int64
}

var (
	_ kgo.HookBrokerConnect       = (*observer)(nil)
	_ kgo.HookBrokerWrite         = (*observer)(nil)
	_ kgo.HookProduceBatchWritten = (*observer)(nil)
)

// OnBrokerConnect implements kgo.HookBrokerConnect.
func (o *observer) OnBrokerConnect(meta kgo.BrokerMetadata, _ time.Duration, _ net.Conn, err error) {
	if err == nil {
		return
	}
	o.connectErrors.Add(1)
	o.logger.Log(kgo.LogLevelError, fmt.Sprintf("slogkafka error: [ Broker:%s IsBrokerError:false IsLocalError:true Reason:%v ]",
		brokerAddr(meta), err))
}

// OnBrokerWrite implements kgo.HookBrokerWrite.
func (o *observer) OnBrokerWrite(meta kgo.BrokerMetadata, key int16, _ int, _, _ time.Duration, err error) {
	if err == nil {
		return
	}
	o.writeErrors.Add(1)
	o.logger.Log(kgo.LogLevelError, fmt.Sprintf("slogkafka error: [ Broker:%s RequestKey:%d IsBrokerError:true IsLocalError:false Reason:%v ]",
		brokerAddr(meta), key, err))
}

// OnProduceBatchWritten implements kgo.HookProduceBatchWritten.
func (o *observer) OnProduceBatchWritten(_ kgo.BrokerMetadata, _ string, _ int32, m kgo.ProduceBatchMetrics) {
	o.batches.Add(1)
	o.records.Add(int64(m.NumRecords))
	o.bytes.Add(int64(m.CompressedBytes))
}

// statistics renders the counters together with the client's buffer usage.
func (o *observer) statistics(client kafkaClient) string {
	var bufferedRecords, bufferedBytes int64
	if client != nil {
		bufferedRecords = client.BufferedProduceRecords()
		bufferedBytes = client.BufferedProduceBytes()
	}
	return fmt.Sprintf("slogkafka statistics: buffered_records=%d buffered_bytes=%d batches_written=%d records_written=%d bytes_written=%d connect_errors=%d write_errors=%d",
		bufferedRecords,
		bufferedBytes,
		o.batches.Load(),
		o.records.Load(),
		o.bytes.Load(),
		o.connectErrors.Load(),
		o.writeErrors.Load(),
	)
}

// runStatistics logs statistics every interval until stop is closed.
func (o *observer) runStatistics(client kafkaClient, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.logger.Log(kgo.LogLevelInfo, o.statistics(client))
		case <-stop:
			return
		}
	}
}

func brokerAddr(meta kgo.BrokerMetadata) string {
	return net.JoinHostPort(meta.Host, fmt.Sprint(meta.Port))
}
