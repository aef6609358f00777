// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

// State is the lifecycle state of a publisher.
type State int32

const (
	// Uninitialized means no producer handle has been created yet.
	Uninitialized State = iota

	// Ready means the producer handle exists and accepts records.
	Ready

	// Closed means the producer handle was released. A closed publisher
	// never becomes Ready again.
	Closed
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Ready:
		return "Ready"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}
