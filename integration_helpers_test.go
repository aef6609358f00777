// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package slogkafka_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/xmidt-org/slogkafka"
)

const (
	messageConsumeWait = 10 * time.Second
	kafkaImage         = "confluentinc/confluent-local:7.8.0"
)

// setupKafka starts a single-node Kafka and returns its broker address.
// The container is terminated when the test completes.
func setupKafka(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// KRaft mode requires a cluster id and a versioned image tag.
	container, err := kafka.Run(ctx, kafkaImage, kafka.WithClusterID("slogkafka-test"))
	require.NoError(t, err, "Failed to start Kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "Failed to get Kafka brokers")
	require.NotEmpty(t, brokers, "No Kafka brokers available")

	require.NoError(t, pingKafka(ctx, brokers[0]), "Kafka did not become ready")
	return brokers[0]
}

// pingKafka retries a broker ping until it succeeds or 30s pass.
func pingKafka(ctx context.Context, broker string) error {
	client, err := kgo.NewClient(kgo.SeedBrokers(broker))
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for {
		attemptCtx, attemptCancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(attemptCtx)
		attemptCancel()
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Second):
		}
	}
}

// createTestHandler creates a Handler with test configuration.
func createTestHandler(t *testing.T, broker, topic string, opts slogkafka.HandlerOptions) *slogkafka.Handler {
	t.Helper()

	opts.Topic = topic
	if opts.AppName == "" {
		opts.AppName = "integration"
	}
	opts.ProducerConfig = append([]slogkafka.ProducerConfigEntry{
		{Key: "bootstrap.servers", Value: broker},
		{Key: "allow.auto.create.topics", Value: "true"}, // Enable for integration tests
	}, opts.ProducerConfig...)

	h, err := slogkafka.NewHandler(opts)
	require.NoError(t, err)
	return h
}

// consumeMessages reads topic from the start until want records arrived or
// timeout passed, and returns what it read.
func consumeMessages(t *testing.T, broker, topic string, want int, timeout time.Duration) []*kgo.Record {
	t.Helper()

	client, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err, "Failed to create Kafka consumer")
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var records []*kgo.Record
	for len(records) < want {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			t.Logf("Fetch error on %s[%d]: %v", topic, partition, err)
		})
		records = append(records, fetches.Records()...)
	}

	return records
}

// decodeEvent decodes a JSON log document from a Kafka record.
func decodeEvent(t *testing.T, record *kgo.Record) map[string]any {
	t.Helper()

	var doc map[string]any
	err := sonic.ConfigStd.Unmarshal(record.Value, &doc)
	require.NoError(t, err, "Failed to decode log document")

	return doc
}

// verifyEvent verifies the fixed fields of a published log document.
func verifyEvent(t *testing.T, record *kgo.Record, level, message string) map[string]any {
	t.Helper()

	doc := decodeEvent(t, record)

	require.Equal(t, level, doc["level"], "Level mismatch")
	require.Equal(t, message, doc["message"], "Message mismatch")
	require.Equal(t, "integration", doc["appname"], "App name mismatch")
	require.Contains(t, doc, "@timestamp")
	require.Contains(t, doc, "version")
	require.True(t, strings.HasPrefix(string(record.Key), slogkafka.KeyPrefix), "Key should carry the record key prefix")

	return doc
}
