// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/time/rate"
)

// dropLogInterval is the minimum gap between two dropped-record warnings of
// the same error type.
const dropLogInterval = 10 * time.Second

// dropReporter logs records a Handler could not publish. The first drop of
// each error type is logged, later ones at most once per dropLogInterval.
type dropReporter struct {
	logger kgo.Logger

	mu     sync.Mutex
	byType map[string]*rate.Sometimes
}

func newDropReporter(logger kgo.Logger) *dropReporter {
	return &dropReporter{
		logger: logger,
		byType: make(map[string]*rate.Sometimes),
	}
}

func (d *dropReporter) report(sequence uint64, err error) {
	kind := errorType(err)

	d.mu.Lock()
	s, ok := d.byType[kind]
	if !ok {
		s = &rate.Sometimes{First: 1, Interval: dropLogInterval}
		d.byType[kind] = s
	}
	d.mu.Unlock()

	s.Do(func() {
		d.logger.Log(kgo.LogLevelWarn, fmt.Sprintf("slogkafka dropped record %d: %v", sequence, err))
	})
}
