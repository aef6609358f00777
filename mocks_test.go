// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/twmb/franz-go/pkg/kgo"
)

// mockKafkaClient is a mock implementation of kafkaClient for testing.
type mockKafkaClient struct {
	mock.Mock
}

func (m *mockKafkaClient) TryProduce(ctx context.Context, r *kgo.Record, cb func(*kgo.Record, error)) {
	m.Called(ctx, r, cb)
}

func (m *mockKafkaClient) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockKafkaClient) Close() {
	m.Called()
}

func (m *mockKafkaClient) BufferedProduceRecords() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *mockKafkaClient) BufferedProduceBytes() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

// deliver returns a mock Run function that completes the produce promise
// with the given partition, offset and error.
func deliver(partition int32, offset int64, err error) func(mock.Arguments) {
	return func(args mock.Arguments) {
		r := args.Get(1).(*kgo.Record)
		cb := args.Get(2).(func(*kgo.Record, error))
		if err == nil {
			r.Partition = partition
			r.Offset = offset
		}
		cb(r, err)
	}
}

type logLine struct {
	level kgo.LogLevel
	msg   string
}

// captureLogger is a kgo.Logger that records every line.
type captureLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (c *captureLogger) Level() kgo.LogLevel { return kgo.LogLevelDebug }

func (c *captureLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	if len(keyvals) > 0 {
		msg = msg + " " + fmt.Sprint(keyvals...)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, logLine{level: level, msg: msg})
}

func (c *captureLogger) all() []logLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]logLine(nil), c.lines...)
}

// find returns the first line containing substr.
func (c *captureLogger) find(substr string) (logLine, bool) {
	for _, line := range c.all() {
		if strings.Contains(line.msg, substr) {
			return line, true
		}
	}
	return logLine{}, false
}
