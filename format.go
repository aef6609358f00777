// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"bytes"
	"errors"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
)

// TimestampLayout is the layout of the @timestamp field: UTC, millisecond
// precision, literal Z suffix.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Field names of the outbound JSON document.
const (
	FieldVersion    = "version"
	FieldTimestamp  = "@timestamp"
	FieldAppName    = "appname"
	FieldHostname   = "HOSTNAME"
	FieldThreadName = "thread_name"
	FieldLevel      = "level"
	FieldLoggerName = "logger_name"
	FieldMessage    = "message"
	FieldStackTrace = "stack_trace"
	FieldClass      = "class"
	FieldMethod     = "method"
	FieldLineNumber = "line_number"
)

// noStackTrace stands in for an exception that carries neither a stack
// trace nor a message.
const noStackTrace = "(no stack trace)"

var jsonAPI = sonic.ConfigStd

// LogEvent is a single structured log event handed over by the host pipeline.
type LogEvent struct {
	// Sequence is the process-wide sequence id of the event.
	Sequence uint64

	// Time is when the event was logged. The zero value means now.
	Time time.Time

	Level      string
	LoggerName string
	Message    string

	// Exception is optional.
	Exception *Exception

	// Source is the optional call site of the log statement.
	Source *Source

	// Context holds the contextual key/value pairs, in the order they were added.
	Context []ContextPair
}

// Exception is the error attached to a log event.
type Exception struct {
	Message    string
	StackTrace string
}

// Source is the location of the log statement.
type Source struct {
	Function string
	File     string
	Line     int
}

// ContextPair is one contextual key/value pair.
type ContextPair struct {
	Key   string
	Value string
}

// field is one entry of a FormattedEvent. Value is a string, an int64, a
// uint64 or nil.
type field struct {
	key   string
	value any
}

// FormattedEvent is an ordered mapping of field names to values. It
// marshals to a JSON object in insertion order.
type FormattedEvent struct {
	fields []field
	index  map[string]int
}

func newFormattedEvent(size int) *FormattedEvent {
	return &FormattedEvent{
		fields: make([]field, 0, size),
		index:  make(map[string]int, size),
	}
}

// Set sets key to value, appending the key if it is not present.
func (fe *FormattedEvent) Set(key string, value any) {
	if i, ok := fe.index[key]; ok {
		fe.fields[i].value = value
		return
	}
	fe.index[key] = len(fe.fields)
	fe.fields = append(fe.fields, field{key: key, value: value})
}

// Add sets key to value only if the key is not present. It reports whether
// the value was added.
func (fe *FormattedEvent) Add(key string, value any) bool {
	if _, ok := fe.index[key]; ok {
		return false
	}
	fe.Set(key, value)
	return true
}

// Get returns the value stored under key.
func (fe *FormattedEvent) Get(key string) (any, bool) {
	i, ok := fe.index[key]
	if !ok {
		return nil, false
	}
	return fe.fields[i].value, true
}

// String returns the value stored under key rendered as a string, or "" if the
// key is absent or nil.
func (fe *FormattedEvent) String(key string) string {
	v, _ := fe.Get(key)
	switch v := v.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	return ""
}

// Keys returns the field names in insertion order.
func (fe *FormattedEvent) Keys() []string {
	keys := make([]string, len(fe.fields))
	for i, f := range fe.fields {
		keys[i] = f.key
	}
	return keys
}

// Len returns the number of fields.
func (fe *FormattedEvent) Len() int {
	return len(fe.fields)
}

// MarshalJSON implements json.Marshaler.
func (fe *FormattedEvent) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fe.fields {
		if i > 0 {
			buf.WriteByte(',')
		}

		k, err := jsonAPI.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v, err := jsonAPI.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Format converts a log event into the document published to Kafka.
//
// The message field is overwritten with the exception message when the event
// carries an exception; the formatted message is discarded in that case.
// Context pairs never overwrite a field that is already present.
func Format(event LogEvent, appName, hostAddress, threadName string, includeContext bool) *FormattedEvent {
	fe := newFormattedEvent(11 + len(event.Context))

	ts := event.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	fe.Set(FieldVersion, event.Sequence)
	fe.Set(FieldTimestamp, ts.UTC().Format(TimestampLayout))
	fe.Set(FieldAppName, appName)
	fe.Set(FieldHostname, hostAddress)
	fe.Set(FieldThreadName, threadName)
	fe.Set(FieldLevel, event.Level)
	fe.Set(FieldLoggerName, event.LoggerName)
	fe.Set(FieldMessage, event.Message)

	if ex := event.Exception; ex != nil {
		fe.Set(FieldMessage, ex.Message)

		trace := ex.StackTrace
		if trace == "" {
			trace = ex.Message
		}
		if trace == "" {
			trace = noStackTrace
		}
		fe.Set(FieldStackTrace, trace)
	}

	if src := event.Source; src != nil {
		fe.Set(FieldClass, src.File)
		fe.Set(FieldMethod, src.Function)
		fe.Set(FieldLineNumber, strconv.Itoa(src.Line))
	}

	if includeContext {
		for _, pair := range event.Context {
			fe.Add(pair.Key, pair.Value)
		}
	}

	return fe
}

// encode serializes a formatted event.
func encode(fe *FormattedEvent) ([]byte, error) {
	data, err := fe.MarshalJSON()
	if err != nil {
		return nil, errors.Join(ErrEncoding, err)
	}
	return data, nil
}
