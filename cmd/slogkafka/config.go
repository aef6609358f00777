// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/xmidt-org/slogkafka"
)

// Environment variables read by the command.
const (
	envTopic          = "SLOGKAFKA_TOPIC"
	envAppName        = "SLOGKAFKA_APPNAME"
	envIncludeContext = "SLOGKAFKA_INCLUDE_CONTEXT"
	envProducerConfig = "SLOGKAFKA_PRODUCER_CONFIG"
	envFlushTimeout   = "SLOGKAFKA_FLUSH_TIMEOUT"
	envLevel          = "SLOGKAFKA_LEVEL"
	envLoggerName     = "SLOGKAFKA_LOGGER_NAME"
	envMetricsAddr    = "SLOGKAFKA_METRICS_ADDR"
)

type config struct {
	Handler     slogkafka.HandlerOptions
	Level       slog.Level
	MetricsAddr string
}

// loadConfig reads the configuration through lookup. Values missing from
// lookup are taken from envFiles; missing files are ignored and earlier files
// win over later ones.
func loadConfig(lookup func(string) (string, bool), envFiles ...string) (*config, error) {
	fileVals := make(map[string]string)
	for _, file := range envFiles {
		vals, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("loading %s: %w", file, err)
		}
		for k, v := range vals {
			if _, ok := fileVals[k]; !ok {
				fileVals[k] = v
			}
		}
	}

	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		if v := fileVals[key]; v != "" {
			return v
		}
		return def
	}

	includeContext, err := strconv.ParseBool(get(envIncludeContext, "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envIncludeContext, err)
	}

	flushTimeout, err := time.ParseDuration(get(envFlushTimeout, "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envFlushTimeout, err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(get(envLevel, "INFO"))); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envLevel, err)
	}

	entries, err := parseEntries(get(envProducerConfig, ""))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envProducerConfig, err)
	}

	cfg := config{
		Handler: slogkafka.HandlerOptions{
			Topic:          get(envTopic, ""),
			AppName:        get(envAppName, "slogkafka"),
			IncludeContext: includeContext,
			ProducerConfig: entries,
			FlushTimeout:   flushTimeout,
			LoggerName:     get(envLoggerName, "stdin"),
		},
		Level:       level,
		MetricsAddr: get(envMetricsAddr, ""),
	}
	cfg.Handler.Level = cfg.Level

	return &cfg, nil
}

// parseEntries parses "key=value;key=value" into producer config entries,
// keeping their order.
func parseEntries(s string) ([]slogkafka.ProducerConfigEntry, error) {
	var entries []slogkafka.ProducerConfigEntry
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q is not key=value", part)
		}
		entries = append(entries, slogkafka.ProducerConfigEntry{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	return entries, nil
}
