// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// headerFieldPrefix marks a header value that references a formatted event field.
const headerFieldPrefix = "event."

// validateHeaders checks the configured record headers.
// Values are either literals or "event.<field>" references; a reference
// must name a field (for example "event.level" or "event.appname").
func validateHeaders(headers map[string][]string) error {
	for key, values := range headers {
		if key == "" {
			return errors.Join(ErrConfiguration, fmt.Errorf("header key must not be empty"))
		}
		if len(values) == 0 {
			return errors.Join(ErrConfiguration, fmt.Errorf("header %q must have at least one value", key))
		}
		for _, value := range values {
			if value == headerFieldPrefix {
				return errors.Join(ErrConfiguration, fmt.Errorf("header %q has an empty event field reference", key))
			}
		}
	}
	return nil
}

// buildHeaders builds the Kafka record headers for one formatted event.
// References to fields that are absent or empty produce no header.
// Header keys are emitted in sorted order so records are reproducible.
func buildHeaders(headers map[string][]string, fe *FormattedEvent) []kgo.RecordHeader {
	if len(headers) == 0 {
		return nil
	}

	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]kgo.RecordHeader, 0, len(headers))
	for _, key := range keys {
		for _, value := range headers[key] {
			if name, ok := strings.CutPrefix(value, headerFieldPrefix); ok {
				value = fe.String(name)
				if value == "" {
					continue
				}
			}
			out = append(out, kgo.RecordHeader{
				Key:   key,
				Value: []byte(value),
			})
		}
	}

	return out
}
