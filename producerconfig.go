// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"
)

// ProducerConfigEntry is one broker-client configuration option. Keys use
// the librdkafka property names (for example "bootstrap.servers").
type ProducerConfigEntry struct {
	Key   string
	Value string
}

// Recognized producer configuration keys.
const (
	KeyBootstrapServers      = "bootstrap.servers"
	KeyClientID              = "client.id"
	KeyAcks                  = "acks"
	KeyRequestRequiredAcks   = "request.required.acks"
	KeyCompressionType       = "compression.type"
	KeyCompressionCodec      = "compression.codec"
	KeyLingerMs              = "linger.ms"
	KeyQueueMaxMessages      = "queue.buffering.max.messages"
	KeyQueueMaxKBytes        = "queue.buffering.max.kbytes"
	KeyBatchSize             = "batch.size"
	KeyMessageMaxBytes       = "message.max.bytes"
	KeyRequestTimeoutMs      = "request.timeout.ms"
	KeyMessageSendMaxRetries = "message.send.max.retries"
	KeyRetries               = "retries"
	KeyRetryBackoffMs        = "retry.backoff.ms"
	KeyEnableIdempotence     = "enable.idempotence"
	KeyAllowAutoCreateTopics = "allow.auto.create.topics"
	KeySecurityProtocol      = "security.protocol"
	KeySSLCALocation         = "ssl.ca.location"
	KeySASLMechanism         = "sasl.mechanism"
	KeySASLUsername          = "sasl.username"
	KeySASLPassword          = "sasl.password"
	KeyStatisticsIntervalMs  = "statistics.interval.ms"
)

// defaultBatchMaxBytes is the franz-go default for kgo.ProducerBatchMaxBytes.
const defaultBatchMaxBytes = 1000012

// producerSettings is the validated form of a producer configuration list.
type producerSettings struct {
	brokers            []string
	clientID           string
	acks               *kgo.Acks
	acksAll            bool
	compression        *kgo.CompressionCodec
	linger             time.Duration
	maxBufferedRecords int
	maxBufferedBytes   int
	batchMaxBytes      int32
	maxWriteBytes      int32
	requestTimeout     time.Duration
	retries            int
	retriesSet         bool
	retryBackoff       time.Duration
	idempotence        *bool
	autoCreateTopics   bool
	securityProtocol   string
	caLocation         string
	saslMechanism      string
	saslUsername       string
	saslPassword       string
	statsInterval      time.Duration
}

// parseProducerConfig validates the configuration list. It performs no
// network activity. Later entries override earlier entries with the same key.
func parseProducerConfig(entries []ProducerConfigEntry) (*producerSettings, error) {
	if len(entries) == 0 {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("producer configuration list is empty"))
	}

	ps := producerSettings{
		securityProtocol: "PLAINTEXT",
	}

	for i, entry := range entries {
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			return nil, errors.Join(ErrConfiguration, fmt.Errorf("producer config entry %d has an empty key", i))
		}
		if err := ps.set(key, strings.TrimSpace(entry.Value)); err != nil {
			return nil, fmt.Errorf("producer config entry %d (%s): %w", i, key, err)
		}
	}

	if err := ps.validate(); err != nil {
		return nil, err
	}

	return &ps, nil
}

// checkProducerConfig validates entries and the franz-go options built from
// them. The client built for the check is closed before it dials anything.
func checkProducerConfig(entries []ProducerConfigEntry) error {
	ps, err := parseProducerConfig(entries)
	if err != nil {
		return err
	}

	opts, err := ps.toKgoOpts()
	if err != nil {
		return err
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return errors.Join(ErrConfiguration, err)
	}
	client.Close()

	return nil
}

func (ps *producerSettings) set(key, value string) error {
	var err error

	switch key {
	case KeyBootstrapServers:
		ps.brokers = ps.brokers[:0]
		for _, broker := range strings.Split(value, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				ps.brokers = append(ps.brokers, broker)
			}
		}
	case KeyClientID:
		ps.clientID = value
	case KeyAcks, KeyRequestRequiredAcks:
		var acks kgo.Acks
		acks, ps.acksAll, err = parseAcks(value)
		ps.acks = &acks
	case KeyCompressionType, KeyCompressionCodec:
		var codec kgo.CompressionCodec
		codec, err = parseCompression(value)
		ps.compression = &codec
	case KeyLingerMs:
		ps.linger, err = parseMillis(value)
	case KeyQueueMaxMessages:
		ps.maxBufferedRecords, err = parsePositive(value)
	case KeyQueueMaxKBytes:
		var kb int
		kb, err = parsePositive(value)
		ps.maxBufferedBytes = kb * 1024
	case KeyBatchSize:
		ps.batchMaxBytes, err = parseInt32(value)
	case KeyMessageMaxBytes:
		ps.maxWriteBytes, err = parseInt32(value)
	case KeyRequestTimeoutMs:
		ps.requestTimeout, err = parseMillis(value)
	case KeyMessageSendMaxRetries, KeyRetries:
		ps.retries, err = strconv.Atoi(value)
		ps.retriesSet = true
	case KeyRetryBackoffMs:
		ps.retryBackoff, err = parseMillis(value)
	case KeyEnableIdempotence:
		var b bool
		b, err = strconv.ParseBool(value)
		ps.idempotence = &b
	case KeyAllowAutoCreateTopics:
		ps.autoCreateTopics, err = strconv.ParseBool(value)
	case KeySecurityProtocol:
		ps.securityProtocol = strings.ToUpper(value)
	case KeySSLCALocation:
		ps.caLocation = value
	case KeySASLMechanism:
		ps.saslMechanism = strings.ToUpper(value)
	case KeySASLUsername:
		ps.saslUsername = value
	case KeySASLPassword:
		ps.saslPassword = value
	case KeyStatisticsIntervalMs:
		ps.statsInterval, err = parseMillis(value)
	default:
		return errors.Join(ErrConfiguration, fmt.Errorf("unsupported producer property"))
	}

	if err != nil && !errors.Is(err, ErrConfiguration) {
		err = errors.Join(ErrConfiguration, err)
	}
	return err
}

func (ps *producerSettings) validate() error {
	if len(ps.brokers) == 0 {
		return errors.Join(ErrConfiguration, fmt.Errorf("%s is required", KeyBootstrapServers))
	}

	switch ps.securityProtocol {
	case "PLAINTEXT", "SSL":
	case "SASL_PLAINTEXT", "SASL_SSL":
		if ps.saslUsername == "" {
			return errors.Join(ErrConfiguration,
				fmt.Errorf("%s is required for %s", KeySASLUsername, ps.securityProtocol))
		}
		switch ps.saslMechanism {
		case "", "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
		default:
			return errors.Join(ErrConfiguration,
				fmt.Errorf("sasl mechanism '%s' is invalid: must be 'PLAIN', 'SCRAM-SHA-256' or 'SCRAM-SHA-512'", ps.saslMechanism))
		}
	default:
		return errors.Join(ErrConfiguration,
			fmt.Errorf("security protocol '%s' is invalid", ps.securityProtocol))
	}

	if ps.idempotence != nil && *ps.idempotence && ps.acks != nil && !ps.acksAll {
		return errors.Join(ErrConfiguration,
			fmt.Errorf("%s requires acks=all", KeyEnableIdempotence))
	}

	return nil
}

func (ps *producerSettings) usesTLS() bool {
	return ps.securityProtocol == "SSL" || ps.securityProtocol == "SASL_SSL"
}

func (ps *producerSettings) usesSASL() bool {
	return strings.HasPrefix(ps.securityProtocol, "SASL_")
}

func (ps *producerSettings) mechanism() sasl.Mechanism {
	switch ps.saslMechanism {
	case "SCRAM-SHA-256":
		return scram.Auth{User: ps.saslUsername, Pass: ps.saslPassword}.AsSha256Mechanism()
	case "SCRAM-SHA-512":
		return scram.Auth{User: ps.saslUsername, Pass: ps.saslPassword}.AsSha512Mechanism()
	}
	return plain.Auth{User: ps.saslUsername, Pass: ps.saslPassword}.AsMechanism()
}

func (ps *producerSettings) tlsConfig() (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if ps.caLocation == "" {
		return cfg, nil
	}

	pem, err := os.ReadFile(ps.caLocation)
	if err != nil {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("reading %s: %w", KeySSLCALocation, err))
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("%s contains no certificates", KeySSLCALocation))
	}
	cfg.RootCAs = pool

	return cfg, nil
}

// toKgoOpts converts the validated settings to franz-go client options.
func (ps *producerSettings) toKgoOpts() ([]kgo.Opt, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(ps.brokers...),
	}

	if ps.clientID != "" {
		opts = append(opts, kgo.ClientID(ps.clientID))
	}

	if ps.acks != nil {
		opts = append(opts, kgo.RequiredAcks(*ps.acks))
	}

	// franz-go only permits idempotent writes with acks=all.
	if (ps.idempotence != nil && !*ps.idempotence) || (ps.acks != nil && !ps.acksAll) {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}

	if ps.compression != nil {
		opts = append(opts, kgo.ProducerBatchCompression(*ps.compression))
	}

	if ps.linger > 0 {
		opts = append(opts, kgo.ProducerLinger(ps.linger))
	}

	if ps.maxBufferedRecords > 0 {
		opts = append(opts, kgo.MaxBufferedRecords(ps.maxBufferedRecords))
	}

	if ps.maxBufferedBytes > 0 {
		opts = append(opts, kgo.MaxBufferedBytes(ps.maxBufferedBytes))
	}

	// A message.max.bytes below the default batch size caps batches too.
	batchMaxBytes := ps.batchMaxBytes
	if batchMaxBytes == 0 && ps.maxWriteBytes > 0 && ps.maxWriteBytes < defaultBatchMaxBytes {
		batchMaxBytes = ps.maxWriteBytes
	}
	if batchMaxBytes > 0 {
		opts = append(opts, kgo.ProducerBatchMaxBytes(batchMaxBytes))
	}

	if ps.maxWriteBytes > 0 {
		opts = append(opts, kgo.BrokerMaxWriteBytes(ps.maxWriteBytes))
	}

	if ps.requestTimeout > 0 {
		opts = append(opts, kgo.ProduceRequestTimeout(ps.requestTimeout))
	}

	// <=0 = no retries (fail fast), N = retry N times
	if ps.retriesSet {
		opts = append(opts, kgo.RecordRetries(max(ps.retries, 0)))
	}

	if ps.retryBackoff > 0 {
		backoff := ps.retryBackoff
		opts = append(opts, kgo.RetryBackoffFn(func(int) time.Duration { return backoff }))
	}

	if ps.autoCreateTopics {
		opts = append(opts, kgo.AllowAutoTopicCreation())
	}

	if ps.usesTLS() {
		cfg, err := ps.tlsConfig()
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.DialTLSConfig(cfg))
	}

	if ps.usesSASL() {
		opts = append(opts, kgo.SASL(ps.mechanism()))
	}

	return opts, nil
}

func parseMillis(value string) (time.Duration, error) {
	ms, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return 0, fmt.Errorf("value %d must not be negative", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parsePositive(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("value %d must be positive", n)
	}
	return n, nil
}

func parseInt32(value string) (int32, error) {
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("value %d must be positive", n)
	}
	return int32(n), nil
}
