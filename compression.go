// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package slogkafka

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Compression specifies the message compression algorithm.
type Compression string

const (
	// CompressionSnappy uses Snappy compression (good balance, recommended).
	CompressionSnappy Compression = "snappy"

	// CompressionGzip uses Gzip compression.
	CompressionGzip Compression = "gzip"

	// CompressionLz4 uses LZ4 compression.
	CompressionLz4 Compression = "lz4"

	// CompressionZstd uses Zstandard compression.
	CompressionZstd Compression = "zstd"

	// CompressionNone disables compression.
	CompressionNone Compression = "none"
)

var compressionTypes map[Compression]kgo.CompressionCodec
var compressionList []string

func init() {
	list := []struct {
		name  Compression
		codec kgo.CompressionCodec
	}{
		{CompressionSnappy, kgo.SnappyCompression()},
		{CompressionGzip, kgo.GzipCompression()},
		{CompressionLz4, kgo.Lz4Compression()},
		{CompressionZstd, kgo.ZstdCompression()},
		{CompressionNone, kgo.NoCompression()},
	}

	compressionTypes = make(map[Compression]kgo.CompressionCodec)
	for _, c := range list {
		compressionTypes[c.name] = c.codec
		compressionList = append(compressionList, string(c.name))
	}
}

// parseCompression converts a compression.type property value to a codec.
func parseCompression(value string) (kgo.CompressionCodec, error) {
	codec, ok := compressionTypes[Compression(strings.ToLower(strings.TrimSpace(value)))]
	if ok {
		return codec, nil
	}

	list := strings.Join(compressionList, "', '")
	list = "'" + list + "'"
	return kgo.CompressionCodec{}, errors.Join(ErrConfiguration,
		fmt.Errorf("compression codec '%s' is invalid: must be %s", value, list))
}
