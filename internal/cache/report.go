// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// reportKeyPrefix is the Valkey key prefix for rendered reports.
	reportKeyPrefix = "report:"

	// reportGenKey counts invalidations. It sits outside reportKeyPrefix so
	// the prefix scan never removes it.
	reportGenKey = "report_gen"

	// DefaultReportTTL is how long a rendered report stays cached.
	DefaultReportTTL = 5 * time.Minute
)

// ReportCache stores rendered report bodies in Valkey. Errors are logged
// and treated as misses; the cache never fails an export.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a report cache backed by the given Valkey client.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl == 0 {
		ttl = DefaultReportTTL
	}
	return &ReportCache{client: client, ttl: ttl}
}

// ReportKey builds the cache key for one subject, format and criteria
// fingerprint at an invalidation generation. A render that began before a
// write stores under the old generation, which no later lookup reads.
func ReportKey(subject, format string, generation int64, fingerprint string) string {
	return subject + ":" + format + ":g" + strconv.FormatInt(generation, 10) + ":" + fingerprint
}

// Generation returns the current invalidation generation. ok is false when
// the counter cannot be read, in which case the cache must not be used.
func (rc *ReportCache) Generation(ctx context.Context) (int64, bool) {
	n, err := rc.client.Get(ctx, reportGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		slog.Warn("report cache generation error", "error", err)
		return 0, false
	}
	return n, true
}

// Get retrieves a cached report body.
func (rc *ReportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := rc.client.Get(ctx, reportKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("report cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("report cache hit", "key", key)
	return val, true
}

// Set stores a report body with the configured TTL.
func (rc *ReportCache) Set(ctx context.Context, key string, body []byte) {
	if err := rc.client.Set(ctx, reportKeyPrefix+key, body, rc.ttl).Err(); err != nil {
		slog.Warn("report cache set error", "key", key, "error", err)
	}
}

// InvalidateAll advances the generation and removes every cached report.
// Any review or record write can change any report.
func (rc *ReportCache) InvalidateAll(ctx context.Context) {
	if err := rc.client.Incr(ctx, reportGenKey).Err(); err != nil {
		slog.Warn("report cache generation bump error", "error", err)
	}

	var cursor uint64
	var deleted int
	for {
		keys, next, err := rc.client.Scan(ctx, cursor, reportKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("report cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("report cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("report cache cleared", "deleted", deleted)
	}
}
