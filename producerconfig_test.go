// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func entries(kv ...string) []ProducerConfigEntry {
	out := make([]ProducerConfigEntry, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, ProducerConfigEntry{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

// TestParseProducerConfig tests validation of producer properties.
func TestParseProducerConfig(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		ps, err := parseProducerConfig(entries(
			KeyBootstrapServers, " a:9092, b:9092 ,",
			KeyClientID, "billing",
			KeyAcks, "1",
			KeyCompressionType, "SNAPPY",
			KeyLingerMs, "5",
			KeyQueueMaxMessages, "1000",
			KeyQueueMaxKBytes, "64",
			KeyBatchSize, "16384",
			KeyMessageMaxBytes, "1048576",
			KeyRequestTimeoutMs, "3000",
			KeyRetries, "2",
			KeyRetryBackoffMs, "100",
			KeyAllowAutoCreateTopics, "true",
			KeyStatisticsIntervalMs, "60000",
		))
		require.NoError(t, err)

		assert.Equal(t, []string{"a:9092", "b:9092"}, ps.brokers)
		assert.Equal(t, "billing", ps.clientID)
		assert.False(t, ps.acksAll)
		assert.NotNil(t, ps.acks)
		assert.NotNil(t, ps.compression)
		assert.Equal(t, 5*time.Millisecond, ps.linger)
		assert.Equal(t, 1000, ps.maxBufferedRecords)
		assert.Equal(t, 64*1024, ps.maxBufferedBytes)
		assert.Equal(t, int32(16384), ps.batchMaxBytes)
		assert.Equal(t, int32(1048576), ps.maxWriteBytes)
		assert.Equal(t, 3*time.Second, ps.requestTimeout)
		assert.True(t, ps.retriesSet)
		assert.Equal(t, 2, ps.retries)
		assert.Equal(t, 100*time.Millisecond, ps.retryBackoff)
		assert.True(t, ps.autoCreateTopics)
		assert.Equal(t, time.Minute, ps.statsInterval)
		assert.Equal(t, "PLAINTEXT", ps.securityProtocol)
	})

	t.Run("later entries override earlier ones", func(t *testing.T) {
		t.Parallel()
		ps, err := parseProducerConfig(entries(
			KeyBootstrapServers, "a:9092",
			KeyLingerMs, "5",
			KeyBootstrapServers, "c:9092",
			KeyLingerMs, "50",
		))
		require.NoError(t, err)
		assert.Equal(t, []string{"c:9092"}, ps.brokers)
		assert.Equal(t, 50*time.Millisecond, ps.linger)
	})

	t.Run("aliases", func(t *testing.T) {
		t.Parallel()
		ps, err := parseProducerConfig(entries(
			KeyBootstrapServers, "a:9092",
			KeyRequestRequiredAcks, "-1",
			KeyCompressionCodec, "zstd",
			KeyMessageSendMaxRetries, "0",
		))
		require.NoError(t, err)
		assert.True(t, ps.acksAll)
		assert.NotNil(t, ps.compression)
		assert.True(t, ps.retriesSet)
		assert.Equal(t, 0, ps.retries)
	})

	errorTests := []struct {
		name    string
		entries []ProducerConfigEntry
	}{
		{"nil list", nil},
		{"empty list", []ProducerConfigEntry{}},
		{"empty key", entries(KeyBootstrapServers, "a:9092", " ", "x")},
		{"unknown key", entries(KeyBootstrapServers, "a:9092", "socket.keepalive.enable", "true")},
		{"missing bootstrap servers", entries(KeyClientID, "x")},
		{"blank bootstrap servers", entries(KeyBootstrapServers, " , ")},
		{"invalid acks", entries(KeyBootstrapServers, "a:9092", KeyAcks, "2")},
		{"invalid compression", entries(KeyBootstrapServers, "a:9092", KeyCompressionType, "brotli")},
		{"invalid linger", entries(KeyBootstrapServers, "a:9092", KeyLingerMs, "soon")},
		{"negative linger", entries(KeyBootstrapServers, "a:9092", KeyLingerMs, "-1")},
		{"zero queue size", entries(KeyBootstrapServers, "a:9092", KeyQueueMaxMessages, "0")},
		{"batch size overflow", entries(KeyBootstrapServers, "a:9092", KeyBatchSize, "4294967296")},
		{"invalid bool", entries(KeyBootstrapServers, "a:9092", KeyEnableIdempotence, "yes please")},
		{"idempotence without acks all", entries(KeyBootstrapServers, "a:9092", KeyEnableIdempotence, "true", KeyAcks, "1")},
		{"unknown security protocol", entries(KeyBootstrapServers, "a:9092", KeySecurityProtocol, "KERBEROS")},
		{"sasl without username", entries(KeyBootstrapServers, "a:9092", KeySecurityProtocol, "SASL_SSL")},
		{"unknown sasl mechanism", entries(KeyBootstrapServers, "a:9092", KeySecurityProtocol, "SASL_PLAINTEXT",
			KeySASLUsername, "u", KeySASLMechanism, "GSSAPI")},
	}

	for _, tt := range errorTests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ps, err := parseProducerConfig(tt.entries)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Nil(t, ps)
		})
	}
}

// TestToKgoOpts tests that validated settings produce a usable client.
func TestToKgoOpts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []ProducerConfigEntry
	}{
		{"minimal", entries(KeyBootstrapServers, "localhost:9092")},
		{"acks leader disables idempotence", entries(KeyBootstrapServers, "localhost:9092", KeyAcks, "1")},
		{"acks none", entries(KeyBootstrapServers, "localhost:9092", KeyAcks, "0")},
		{"idempotent", entries(KeyBootstrapServers, "localhost:9092", KeyAcks, "all", KeyEnableIdempotence, "true")},
		{"tuned", entries(
			KeyBootstrapServers, "localhost:9092",
			KeyClientID, "test",
			KeyCompressionType, "lz4",
			KeyLingerMs, "10",
			KeyQueueMaxMessages, "100",
			KeyQueueMaxKBytes, "1024",
			KeyMessageMaxBytes, "2097152",
			KeyBatchSize, "1048576",
			KeyRequestTimeoutMs, "5000",
			KeyRetries, "-1",
			KeyRetryBackoffMs, "50",
			KeyAllowAutoCreateTopics, "true",
		)},
		{"sasl plain over tls", entries(
			KeyBootstrapServers, "localhost:9093",
			KeySecurityProtocol, "sasl_ssl",
			KeySASLMechanism, "plain",
			KeySASLUsername, "user",
			KeySASLPassword, "secret",
		)},
		{"scram", entries(
			KeyBootstrapServers, "localhost:9093",
			KeySecurityProtocol, "SASL_PLAINTEXT",
			KeySASLMechanism, "SCRAM-SHA-512",
			KeySASLUsername, "user",
		)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ps, err := parseProducerConfig(tt.entries)
			require.NoError(t, err)

			opts, err := ps.toKgoOpts()
			require.NoError(t, err)

			client, err := kgo.NewClient(opts...)
			require.NoError(t, err)
			client.Close()
		})
	}

	t.Run("tls ca errors", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		bad := filepath.Join(dir, "ca.pem")
		require.NoError(t, os.WriteFile(bad, []byte("not a certificate"), 0o600))

		for _, location := range []string{bad, filepath.Join(dir, "missing.pem")} {
			ps, err := parseProducerConfig(entries(
				KeyBootstrapServers, "localhost:9093",
				KeySecurityProtocol, "SSL",
				KeySSLCALocation, location,
			))
			require.NoError(t, err)

			_, err = ps.toKgoOpts()
			assert.ErrorIs(t, err, ErrConfiguration)
		}
	})
}

// TestParseAcks tests acknowledgement parsing.
func TestParseAcks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		all     bool
		wantErr bool
	}{
		{"all", true, false},
		{"ALL", true, false},
		{"-1", true, false},
		{"1", false, false},
		{" 0 ", false, false},
		{"2", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			_, all, err := parseAcks(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.all, all)
		})
	}
}

// TestParseCompression tests compression codec parsing.
func TestParseCompression(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"snappy", "gzip", "lz4", "zstd", "none", "Snappy"} {
		_, err := parseCompression(name)
		assert.NoError(t, err, name)
	}

	_, err := parseCompression("brotli")
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "'snappy', 'gzip', 'lz4', 'zstd', 'none'")
}

// TestCheckProducerConfig tests validation against the client's own option rules.
func TestCheckProducerConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	badCA := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(badCA, []byte("not a certificate"), 0o600))

	tests := []struct {
		name    string
		entries []ProducerConfigEntry
		wantErr bool
	}{
		{"minimal", entries(KeyBootstrapServers, "localhost:9092"), false},
		{"librdkafka default message max bytes", entries(KeyBootstrapServers, "localhost:9092", KeyMessageMaxBytes, "1000000"), false},
		{"small message max bytes caps batches", entries(KeyBootstrapServers, "localhost:9092", KeyMessageMaxBytes, "2048"), false},
		{"explicit batch within message max bytes", entries(KeyBootstrapServers, "localhost:9092",
			KeyMessageMaxBytes, "1000000", KeyBatchSize, "16384"), false},
		{"parse error", entries(KeyClientID, "x"), true},
		{"batch size below minimum", entries(KeyBootstrapServers, "localhost:9092", KeyBatchSize, "100"), true},
		{"batch size above message max bytes", entries(KeyBootstrapServers, "localhost:9092",
			KeyMessageMaxBytes, "1000000", KeyBatchSize, "2000000"), true},
		{"message max bytes below minimum", entries(KeyBootstrapServers, "localhost:9092", KeyMessageMaxBytes, "100"), true},
		{"missing ca file", entries(KeyBootstrapServers, "localhost:9093",
			KeySecurityProtocol, "SSL", KeySSLCALocation, filepath.Join(dir, "missing.pem")), true},
		{"invalid ca file", entries(KeyBootstrapServers, "localhost:9093",
			KeySecurityProtocol, "SSL", KeySSLCALocation, badCA), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := checkProducerConfig(tt.entries)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
				return
			}
			assert.NoError(t, err)
		})
	}
}
