// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Acks specifies the broker acknowledgment requirements, using the
// librdkafka spelling of the "acks" producer property.
type Acks string

const (
	// AcksAll requires all ISR replicas to acknowledge (strongest durability).
	AcksAll Acks = "all"

	// AcksAllNumeric is the numeric alias of AcksAll.
	AcksAllNumeric Acks = "-1"

	// AcksLeader requires only the leader replica to acknowledge.
	AcksLeader Acks = "1"

	// AcksNone requires no acknowledgment (fire-and-forget).
	AcksNone Acks = "0"
)

var acksTypes = map[Acks]kgo.Acks{
	AcksAll:        kgo.AllISRAcks(),
	AcksAllNumeric: kgo.AllISRAcks(),
	AcksLeader:     kgo.LeaderAck(),
	AcksNone:       kgo.NoAck(),
}

var acksList = []string{
	string(AcksAll),
	string(AcksAllNumeric),
	string(AcksLeader),
	string(AcksNone),
}

// parseAcks converts an acks property value to franz-go acks.
// The second return value reports whether the value is AcksAll, which is
// the only setting franz-go allows with idempotent writes.
func parseAcks(value string) (kgo.Acks, bool, error) {
	acks := Acks(strings.ToLower(strings.TrimSpace(value)))

	got, ok := acksTypes[acks]
	if ok {
		return got, acks == AcksAll || acks == AcksAllNumeric, nil
	}

	list := strings.Join(acksList, "', '")
	list = "'" + list + "'"
	return kgo.Acks{}, false, errors.Join(ErrConfiguration,
		fmt.Errorf("acks '%s' is invalid: must be %s", value, list))
}
