// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/trace"
)

// DefaultLoggerNameKey is the attribute key that names the logger of a record.
const DefaultLoggerNameKey = "logger"

// Context keys added for records logged within a valid span.
const (
	TraceIDKey = "trace_id"
	SpanIDKey  = "span_id"
)

// sequence numbers every record handled in the process.
var sequence atomic.Uint64

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	// Topic is the Kafka topic every record is published to. Required.
	Topic string

	// AppName is written to the appname field. Required.
	AppName string

	// IncludeContext merges record and handler attributes into each document.
	// Attributes never overwrite the fixed fields.
	IncludeContext bool

	// ProducerConfig is the ordered list of producer properties.
	// Required. Must contain bootstrap.servers.
	ProducerConfig []ProducerConfigEntry

	// FlushTimeout bounds the flush in Close. Zero means DefaultFlushTimeout.
	FlushTimeout time.Duration

	// Logger receives diagnostics: delivery reports, client errors, client logs,
	// statistics and dropped records. Optional, defaults to text on stderr.
	// It must not write back into a Handler of this package.
	Logger kgo.Logger

	// Level is the minimum level handled. Optional, defaults to slog.LevelInfo.
	Level slog.Leveler

	// LevelNames overrides the level names written to the level field.
	// Levels that are not present use slog.Level.String().
	LevelNames map[slog.Level]string

	// LoggerName is the default logger_name. An attribute named LoggerNameKey
	// overrides it.
	LoggerName string

	// LoggerNameKey is the attribute key holding the logger name.
	// Optional, defaults to DefaultLoggerNameKey.
	LoggerNameKey string

	// AddSource adds the class, method and line_number fields.
	AddSource bool

	// Headers defines Kafka record headers. Values are literals or
	// "event.<field>" references to fields of the document.
	// Optional. Multiple values per key are supported.
	Headers map[string][]string

	// HostAddress overrides the HOSTNAME field. Optional; by default the
	// local address is resolved once when the handler is created.
	HostAddress string

	// DeliveryListeners receive every delivery report. Optional.
	DeliveryListeners []func(*DeliveryReport)
}

// Handler is a slog.Handler that publishes every record to Kafka as a JSON
// document. Handlers derived with WithAttrs and WithGroup share one
// Lifecycle, and therefore one producer handle.
type Handler struct {
	opts      *HandlerOptions
	lifecycle *Lifecycle
	logger    kgo.Logger
	drops     *dropReporter
	host      string

	loggerName string
	prefix     string
	attrs      []ContextPair
	exception  *Exception
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler validates opts and creates a Handler. No connection is made
// until the first record is handled.
func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Topic == "" {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("topic is required"))
	}
	if opts.AppName == "" {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("app name is required"))
	}
	if err := checkProducerConfig(opts.ProducerConfig); err != nil {
		return nil, err
	}
	if err := validateHeaders(opts.Headers); err != nil {
		return nil, err
	}

	if opts.LoggerNameKey == "" {
		opts.LoggerNameKey = DefaultLoggerNameKey
	}

	logger := opts.Logger
	if logger == nil {
		logger = defaultLogger()
	}

	host := opts.HostAddress
	if host == "" {
		host = lookupHostAddress()
	}

	h := Handler{
		opts:   &opts,
		logger: logger,
		drops:  newDropReporter(logger),
		host:   host,
		lifecycle: &Lifecycle{
			ProducerConfig:           slices.Clone(opts.ProducerConfig),
			FlushTimeout:             opts.FlushTimeout,
			Logger:                   logger,
			InitialDeliveryListeners: opts.DeliveryListeners,
		},
		loggerName: opts.LoggerName,
	}

	return &h, nil
}

// Lifecycle returns the producer lifecycle shared by this handler.
func (h *Handler) Lifecycle() *Lifecycle {
	return h.lifecycle
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle implements slog.Handler. Formatting problems never fail a record;
// the only errors returned come from the producer lifecycle.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	c := collector{
		loggerNameKey: h.opts.LoggerNameKey,
		loggerName:    h.loggerName,
		pairs:         slices.Clone(h.attrs),
		exception:     h.exception,
	}
	r.Attrs(func(a slog.Attr) bool {
		c.collect(h.prefix, a)
		return true
	})

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		c.pairs = append(c.pairs,
			ContextPair{Key: TraceIDKey, Value: sc.TraceID().String()},
			ContextPair{Key: SpanIDKey, Value: sc.SpanID().String()},
		)
	}

	event := LogEvent{
		Sequence:   sequence.Add(1),
		Time:       r.Time,
		Level:      h.levelName(r.Level),
		LoggerName: c.loggerName,
		Message:    r.Message,
		Exception:  c.exception,
		Context:    c.pairs,
	}

	if h.opts.AddSource && r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := frames.Next()
		event.Source = &Source{
			Function: f.Function,
			File:     f.File,
			Line:     f.Line,
		}
	}

	fe := Format(event, h.opts.AppName, h.host, threadName(ctx), h.opts.IncludeContext)

	data, err := encode(fe)
	if err != nil {
		h.drops.report(event.Sequence, err)
		return nil
	}

	err = h.lifecycle.Publish(ctx, h.opts.Topic, data, buildHeaders(h.opts.Headers, fe)...)
	if err != nil {
		h.drops.report(event.Sequence, err)
	}
	return err
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := collector{
		loggerNameKey: h.opts.LoggerNameKey,
		loggerName:    h.loggerName,
		pairs:         slices.Clone(h.attrs),
		exception:     h.exception,
	}
	for _, a := range attrs {
		c.collect(h.prefix, a)
	}

	h2 := *h
	h2.loggerName = c.loggerName
	h2.attrs = c.pairs
	h2.exception = c.exception
	return &h2
}

// WithGroup implements slog.Handler. Attributes inside a group are flattened
// to dotted keys.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// Close flushes buffered records and releases the producer. Closing any
// handler derived from the same NewHandler call closes all of them.
func (h *Handler) Close(ctx context.Context) {
	h.lifecycle.Shutdown(ctx)
}

func (h *Handler) levelName(level slog.Level) string {
	if name, ok := h.opts.LevelNames[level]; ok {
		return name
	}
	return level.String()
}

// collector gathers the context pairs, logger name and exception of a record.
type collector struct {
	loggerNameKey string
	loggerName    string
	pairs         []ContextPair
	exception     *Exception
}

func (c *collector) collect(prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range group {
			c.collect(prefix, ga)
		}
		return
	}

	if prefix == "" && a.Key == c.loggerNameKey {
		c.loggerName = a.Value.String()
		return
	}

	if a.Value.Kind() == slog.KindAny && c.exception == nil {
		if err, ok := a.Value.Any().(error); ok {
			c.exception = newException(err)
		}
	}

	c.pairs = append(c.pairs, ContextPair{
		Key:   prefix + a.Key,
		Value: a.Value.String(),
	})
}

// newException describes err. The stack trace is the verbose form of err when
// it has one, otherwise the caller's stack above slog and this package.
func newException(err error) *Exception {
	msg := safeError(err)
	stack := fmt.Sprintf("%+v", err)
	if stack == msg {
		stack = callerStack()
	}
	return &Exception{
		Message:    msg,
		StackTrace: stack,
	}
}

const maxStackDepth = 32

// callerStack renders the calling goroutine's stack, dropping the leading
// frames that belong to log/slog or this package.
func callerStack() string {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	leading := true
	for {
		f, more := frames.Next()
		if leading && internalFrame(f.Function) {
			if !more {
				break
			}
			continue
		}
		leading = false
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return b.String()
}

func internalFrame(function string) bool {
	return strings.HasPrefix(function, "log/slog.") ||
		strings.HasPrefix(function, packagePath+".")
}

// packagePath is the import path of this package, as it prefixes function
// names in stack frames.
var packagePath = reflect.TypeOf(Handler{}).PkgPath()

// safeError returns err.Error(), recovering from errors that panic.
func safeError(err error) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("%v", err)
		}
	}()
	return err.Error()
}

type threadNameKey struct{}

// WithThreadName returns a context whose records carry name in the
// thread_name field.
func WithThreadName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, threadNameKey{}, name)
}

func threadName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(threadNameKey{}).(string)
	return name
}
