// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"log/slog"
	"os"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kslog"
)

// nopLogger drops everything.
type nopLogger struct{}

func (*nopLogger) Level() kgo.LogLevel { return kgo.LogLevelNone }
func (*nopLogger) Log(kgo.LogLevel, string, ...any) {
}

// NopLogger returns a diagnostic logger that discards all output.
func NopLogger() kgo.Logger {
	return &nopLogger{}
}

// defaultLogger writes single-line text records to stderr. It must never be
// a logger backed by a Handler from this package, or every diagnostic line
// would be published back to Kafka.
func defaultLogger() kgo.Logger {
	return kslog.New(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}
