package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"hirocks/internal/middleware"
	"hirocks/internal/observability"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	dataPrefix = "hirocks:q:"
	genPrefix  = "hirocks:gen:"
)

// Query is a read-through cache for query results. Entries are addressed by
// Key plus the generation counters of the key's family and scope, so bumping
// a counter makes every older entry unreachable. Identical concurrent misses
// share one fetch.
type Query struct {
	client *redis.Client
	group  singleflight.Group

	mu    sync.Mutex
	local map[string]uint64
}

// NewQuery returns a query cache. With a nil client nothing is stored but
// in-flight fetches are still shared.
func NewQuery(client *redis.Client) *Query {
	return &Query{client: client, local: make(map[string]uint64)}
}

func genKeys(k Key) []string {
	family := genPrefix + string(k.Family)
	if k.Scope == "" {
		return []string{family}
	}
	return []string{family, family + ":" + k.Scope}
}

// generations returns the current generation tag of k and whether it came
// from Redis (and so may be used to store entries).
func (q *Query) generations(ctx context.Context, k Key) (string, bool) {
	keys := genKeys(k)
	if q.client != nil {
		vals, err := q.client.MGet(ctx, keys...).Result()
		if err == nil {
			parts := make([]string, len(vals))
			for i, v := range vals {
				s, ok := v.(string)
				if !ok {
					s = "0"
				}
				parts[i] = s
			}
			return strings.Join(parts, "."), true
		}
		middleware.Logger.WarnContext(ctx, "cache generation lookup failed", "key", k.String(), "error", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = strconv.FormatUint(q.local[key], 10)
	}
	return "local." + strings.Join(parts, "."), false
}

// Invalidate bumps the generation of each key. A key without Scope
// invalidates its whole family.
func (q *Query) Invalidate(ctx context.Context, keys ...Key) {
	for _, k := range keys {
		gk := genKeys(k)
		target := gk[len(gk)-1]

		q.mu.Lock()
		q.local[target]++
		q.mu.Unlock()

		observability.CacheInvalidations.WithLabelValues(string(k.Family)).Inc()

		if q.client == nil {
			continue
		}
		if err := q.client.Incr(ctx, target).Err(); err != nil {
			middleware.Logger.WarnContext(ctx, "cache invalidation failed", "key", k.String(), "error", err)
		}
	}
}

func (q *Query) load(ctx context.Context, key Key, storeKey string) ([]byte, bool) {
	data, err := q.client.Get(ctx, storeKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "cache read failed", "key", key.String(), "error", err)
		}
		return nil, false
	}
	return data, true
}

func (q *Query) store(ctx context.Context, key Key, gen, storeKey string, payload []byte) {
	current, shared := q.generations(ctx, key)
	if !shared || current != gen {
		observability.CacheRequests.WithLabelValues(string(key.Family), "stale_write_skipped").Inc()
		return
	}
	if err := q.client.Set(ctx, storeKey, payload, key.Family.TTL()).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", "key", key.String(), "error", err)
	}
}

// Fetch returns the cached value of key or runs fetch to produce it. A result
// whose key was invalidated while fetch ran is returned but not stored.
// Every caller receives its own decoded copy.
func Fetch[T any](ctx context.Context, q *Query, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	var out T

	gen, shared := q.generations(ctx, key)
	storeKey := dataPrefix + key.String() + "@" + gen

	if shared {
		if data, ok := q.load(ctx, key, storeKey); ok {
			if err := json.Unmarshal(data, &out); err == nil {
				observability.CacheRequests.WithLabelValues(string(key.Family), "hit").Inc()
				return out, nil
			}
			var zero T
			out = zero
		}
	}
	observability.CacheRequests.WithLabelValues(string(key.Family), "miss").Inc()

	v, err, _ := q.group.Do(storeKey, func() (interface{}, error) {
		fctx := context.WithoutCancel(ctx)
		result, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		if shared {
			q.store(fctx, key, gen, storeKey, payload)
		}
		return payload, nil
	})
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(v.([]byte), &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}
