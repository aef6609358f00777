// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// KeyPrefix is prepended to every generated record key.
const KeyPrefix = "Multiple."

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newRecordKey returns a time-sortable record key. Keys only affect
// partition routing, so uniqueness is best effort.
func newRecordKey() []byte {
	entropyMu.Lock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()

	if err != nil {
		// The monotonic entropy source overflows only after 2^80 keys in a
		// single millisecond; fall back to a fresh random id.
		id = ulid.Make()
	}

	key := make([]byte, 0, len(KeyPrefix)+ulid.EncodedSize)
	key = append(key, KeyPrefix...)
	return append(key, id.String()...)
}
