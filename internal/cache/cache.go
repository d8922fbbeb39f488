// Package cache is the read path's cache-aside component. It caches exactly
// one thing, serialized campaign lists, and its only invalidation primitive
// is EvictAll: every successful write clears every cached list for every
// user. That coarse policy is deliberate; do not narrow it to per-user keys.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwkim-lab/revisit/pkg/metrics"
)

const keyPrefix = "campaigns:"

// StatusAll is the status sentinel for unfiltered list reads.
const StatusAll = "all"

// Sort is a canonicalized sort specification. Canonical form keeps cache
// keys stable across equivalent requests.
type Sort struct {
	Field     string
	Direction string
}

// DefaultSort orders newest first, matching the unfiltered list query.
var DefaultSort = Sort{Field: "createdAt", Direction: "desc"}

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"deadline":  "deadline",
	"visitDate": "visit_date",
}

// ParseSort canonicalizes a "field,direction" query token. Anything it does
// not recognize falls back to the default rather than failing the read.
func ParseSort(s string) Sort {
	field, dir, _ := strings.Cut(s, ",")
	if _, ok := sortColumns[field]; !ok {
		return DefaultSort
	}
	dir = strings.ToLower(dir)
	if dir != "asc" && dir != "desc" {
		dir = "asc"
	}
	return Sort{Field: field, Direction: dir}
}

// Column resolves the sort field to its SQL column. The map lookup doubles
// as an allowlist, so the result is safe to interpolate.
func (s Sort) Column() string { return sortColumns[s.Field] }

func (s Sort) String() string { return s.Field + ":" + s.Direction }

// Key derives the cache key for a list read. statusFilter is either a
// Status string or StatusAll.
func Key(userID int64, statusFilter string, sort Sort) string {
	return fmt.Sprintf("%suser:%d:status:%s:order:%s", keyPrefix, userID, statusFilter, sort)
}

// Store is the narrow cache contract the service consumes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	EvictAll(ctx context.Context) error
}

// Redis implements Store over a go-redis client.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Redis{client: client, ttl: ttl}
}

// TTL is the bounded lifetime applied by Set callers that take the default.
func (r *Redis) TTL() time.Duration { return r.ttl }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.CacheMissesTotal.Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	metrics.CacheHitsTotal.Inc()
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}

// EvictAll removes every key under the campaigns prefix via SCAN+DEL.
// Nothing else may live under the prefix.
func (r *Redis) EvictAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			metrics.CacheEvictionsTotal.Add(float64(len(keys)))
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

var _ Store = (*Redis)(nil)
