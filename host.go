// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"net"
	"os"
)

// lookupHostAddress returns the first textual address of the local host, the
// host name if it cannot be resolved, or "" if neither is available. It may
// block on DNS, so callers resolve it once and cache the result.
func lookupHostAddress() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}

	addrs, err := net.LookupHost(name)
	if err != nil || len(addrs) == 0 {
		return name
	}

	// Prefer IPv4 to match the dotted-decimal form most consumers expect.
	for _, addr := range addrs {
		if ip := net.ParseIP(addr); ip != nil && ip.To4() != nil {
			return addr
		}
	}
	return addrs[0]
}
