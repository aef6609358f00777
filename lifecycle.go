// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/xmidt-org/eventor"
)

// DefaultFlushTimeout is the flush bound used by Shutdown when FlushTimeout is zero.
const DefaultFlushTimeout = 60 * time.Second

// Lifecycle owns the single Kafka producer handle of a process.
//
// The handle is created lazily by the first EnsureReady or Publish call and
// released by Shutdown. States move Uninitialized -> Ready -> Closed; a
// closed Lifecycle never reopens.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type Lifecycle struct {
	// --- STATIC CONFIGURATION (set before first use, immutable after) ---

	// ProducerConfig is the ordered list of producer properties.
	// Required. Must not be empty and must contain bootstrap.servers.
	ProducerConfig []ProducerConfigEntry

	// FlushTimeout bounds the wait for buffered records during Shutdown when
	// the caller's context has no deadline.
	// Zero means DefaultFlushTimeout; negative values mean no timeout.
	FlushTimeout time.Duration

	// Logger receives delivery reports, client errors, client logs and
	// statistics. Optional. If nil, single-line text is written to stderr.
	Logger kgo.Logger

	// InitialDeliveryListeners are registered when the producer handle is
	// created. Optional.
	InitialDeliveryListeners []func(*DeliveryReport)

	// --- INTERNAL FIELDS (not for user configuration) ---

	// clientFactory creates Kafka clients, can be overridden for mocking in tests.
	clientFactory clientFactory

	// keyFunc generates record keys, can be overridden in tests.
	keyFunc func() []byte

	// mu protects client and the state transitions.
	mu     sync.Mutex
	state  atomic.Int32
	client kafkaClient

	logger   kgo.Logger
	observer *observer

	statsStop chan struct{}
	statsDone chan struct{}

	deliveryListeners eventor.Eventor[func(*DeliveryReport)]
	registerOnce      sync.Once
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

// AddDeliveryListener adds a listener for delivery reports. The returned
// function removes the listener.
//
// Listeners are called from franz-go goroutines, in no particular order
// across records, and must be thread-safe.
func (l *Lifecycle) AddDeliveryListener(fn func(*DeliveryReport)) func() {
	return l.deliveryListeners.Add(fn)
}

// EnsureReady creates the producer handle if it does not exist yet.
//
// Returns an error if:
//   - The producer configuration is empty or invalid (ErrConfiguration)
//   - The Lifecycle was shut down (ErrLifecycle)
//   - The client rejected the options (ErrConfiguration)
func (l *Lifecycle) EnsureReady() error {
	if l.State() == Ready {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.State() {
	case Ready:
		return nil
	case Closed:
		return ErrLifecycle
	}

	settings, err := parseProducerConfig(l.ProducerConfig)
	if err != nil {
		return err
	}

	opts, err := settings.toKgoOpts()
	if err != nil {
		return err
	}

	l.setDefaults()

	opts = append(opts,
		kgo.WithLogger(l.logger),
		kgo.WithHooks(l.observer),
	)

	// kgo.NewClient only fails on option validation.
	client, err := l.clientFactory(opts...)
	if err != nil {
		return errors.Join(ErrConfiguration, fmt.Errorf("failed to create Kafka client: %w", err))
	}
	l.client = client

	if settings.statsInterval > 0 {
		l.statsStop = make(chan struct{})
		l.statsDone = make(chan struct{})
		go l.observer.runStatistics(client, settings.statsInterval, l.statsStop, l.statsDone)
	}

	l.state.Store(int32(Ready))
	l.logger.Log(kgo.LogLevelInfo, fmt.Sprintf("slogkafka producer created for %v", settings.brokers))

	return nil
}

// setDefaults fills in the internal collaborators. Called with mu held.
func (l *Lifecycle) setDefaults() {
	if l.clientFactory == nil {
		l.clientFactory = defaultClientFactory
	}

	if l.keyFunc == nil {
		l.keyFunc = newRecordKey
	}

	logger := l.Logger
	if logger == nil {
		logger = defaultLogger()
	}
	l.logger = logger
	l.observer = &observer{logger: logger}

	l.registerOnce.Do(func() {
		l.deliveryListeners.Add(l.logDelivery)
		for _, listener := range l.InitialDeliveryListeners {
			l.deliveryListeners.Add(listener)
		}
	})
}

// Publish submits value to topic without waiting for the broker.
//
// An empty value is ignored. The outcome of the delivery is reported to the
// delivery listeners; delivery failures are never retried here and never
// returned. The record is not bound to ctx cancellation.
//
// Returns an error only if the producer cannot be made ready
// (ErrConfiguration, ErrLifecycle) or topic is empty.
func (l *Lifecycle) Publish(ctx context.Context, topic string, value []byte, headers ...kgo.RecordHeader) error {
	if len(value) == 0 {
		return nil
	}

	if topic == "" {
		return errors.Join(ErrConfiguration, fmt.Errorf("topic is required"))
	}

	if err := l.EnsureReady(); err != nil {
		return err
	}

	// Get client reference while holding lock (brief hold)
	l.mu.Lock()
	client := l.client
	l.mu.Unlock()

	if client == nil {
		return ErrLifecycle
	}

	record := &kgo.Record{
		Topic:   topic,
		Key:     l.keyFunc(),
		Value:   value,
		Headers: headers,
	}

	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	client.TryProduce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		l.dispatch(newDeliveryReport(r, err, start))
	})

	return nil
}

// Shutdown flushes buffered records and releases the producer handle.
//
// FlushTimeout is applied only if ctx has no deadline. The Lifecycle is
// Closed when Shutdown returns, whether or not the flush completed.
// Safe to call multiple times (idempotent).
func (l *Lifecycle) Shutdown(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	l.mu.Lock()
	prev := l.State()
	l.state.Store(int32(Closed))
	client := l.client
	l.client = nil
	stop, done := l.statsStop, l.statsDone
	l.statsStop, l.statsDone = nil, nil
	l.mu.Unlock()

	if prev != Ready || client == nil {
		return
	}

	if stop != nil {
		close(stop)
		<-done
	}

	l.logger.Log(kgo.LogLevelInfo, "slogkafka stopping producer, flushing buffered messages")

	timeout := l.FlushTimeout
	if timeout == 0 {
		timeout = DefaultFlushTimeout
	}
	if timeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
	}

	if err := client.Flush(ctx); err != nil {
		l.logger.Log(kgo.LogLevelWarn, fmt.Sprintf("slogkafka flush incomplete during shutdown: %v", err))
	}

	client.Close()

	l.logger.Log(kgo.LogLevelInfo, "slogkafka producer stopped")
}

// BufferedRecords returns the number of records and bytes currently buffered.
// Returns zeros if the producer handle does not exist.
func (l *Lifecycle) BufferedRecords() (records, bytes int64) {
	l.mu.Lock()
	client := l.client
	l.mu.Unlock()

	if client == nil {
		return 0, 0
	}

	return client.BufferedProduceRecords(), client.BufferedProduceBytes()
}

// dispatch dispatches a DeliveryReport to all registered listeners.
func (l *Lifecycle) dispatch(report *DeliveryReport) {
	l.deliveryListeners.Visit(func(listener func(*DeliveryReport)) {
		listener(report)
	})
}

// logDelivery is the default listener; it writes one line per outcome.
func (l *Lifecycle) logDelivery(report *DeliveryReport) {
	if report.Delivered() {
		l.logger.Log(kgo.LogLevelInfo, report.String())
		return
	}
	l.logger.Log(kgo.LogLevelWarn, report.String())
}
