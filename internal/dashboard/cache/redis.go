package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"electionhub/internal/realtime/events"
)

const (
	indexKeyPrefix      = "dashboard:index:"
	generationKeyPrefix = "dashboard:gen:"
)

func indexKey(scope events.Scope) string {
	return indexKeyPrefix + strings.ToLower(string(scope))
}

func generationKey(scope events.Scope) string {
	return generationKeyPrefix + strings.ToLower(string(scope))
}

// generationKeys are the counters a document of scope depends on.
func generationKeys(scope events.Scope) []string {
	scope = normalizeScope(scope)
	if scope == events.ScopeAll {
		return []string{generationKey(events.ScopeAll)}
	}
	return []string{generationKey(events.ScopeAll), generationKey(scope)}
}

// Redis is a Cache shared by every instance pointing at the same server.
// Each document is stored with SET EX and its key is recorded in the index
// set of its scope and in the ALL index. Generations are INCR counters; Put
// WATCHes them so an invalidation landing mid-write aborts the write.
type Redis struct {
	client  *redis.Client
	metrics *Metrics
}

// RedisOption configures a Redis cache.
type RedisOption func(*Redis)

// WithRedisMetrics attaches cache metrics.
func WithRedisMetrics(m *Metrics) RedisOption {
	return func(c *Redis) {
		c.metrics = m
	}
}

// NewRedis builds a Redis cache. The client lifecycle is managed by the caller.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	c := &Redis{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Redis) Get(ctx context.Context, key Key) (Document, bool, error) {
	b, err := c.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.miss(string(key.Scope))
		return nil, false, nil
	}
	if err != nil {
		c.metrics.failed("get")
		return nil, false, fmt.Errorf("get dashboard %s: %w", key, err)
	}
	c.metrics.hit(string(key.Scope))
	return Document(b), true, nil
}

func (c *Redis) Generation(ctx context.Context, scope events.Scope) (Generation, error) {
	gen, err := readGeneration(ctx, c.client, scope)
	if err != nil {
		c.metrics.failed("generation")
		return 0, fmt.Errorf("read dashboard generation %s: %w", scope, err)
	}
	return gen, nil
}

func readGeneration(ctx context.Context, r redis.Cmdable, scope events.Scope) (Generation, error) {
	vals, err := r.MGet(ctx, generationKeys(scope)...).Result()
	if err != nil {
		return 0, err
	}
	var gen Generation
	for _, v := range vals {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return 0, fmt.Errorf("unexpected generation value %v", v)
		}
		n, err := strconv.ParseUint(str, 10, 64)
		if err != nil {
			return 0, err
		}
		gen += Generation(n)
	}
	return gen, nil
}

func (c *Redis) Put(ctx context.Context, key Key, doc Document, ttl time.Duration, gen Generation) error {
	if ttl <= 0 {
		return nil
	}
	k := key.String()
	stale := false
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, key.Scope)
		if err != nil {
			return err
		}
		if current != gen {
			stale = true
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, []byte(doc), ttl)
			pipe.SAdd(ctx, indexKey(key.Scope), k)
			pipe.SAdd(ctx, indexKey(events.ScopeAll), k)
			return nil
		})
		return err
	}, generationKeys(key.Scope)...)
	if errors.Is(err, redis.TxFailedErr) {
		stale, err = true, nil
	}
	if err != nil {
		c.metrics.failed("put")
		return fmt.Errorf("put dashboard %s: %w", k, err)
	}
	if stale {
		c.metrics.stale(string(key.Scope))
	}
	return nil
}

func (c *Redis) Invalidate(ctx context.Context, scope events.Scope) error {
	scope = normalizeScope(scope)
	idx := indexKey(scope)

	// Bumping first means any Put that commits after this point is rejected,
	// and any Put that committed before it is already in the index read below.
	if err := c.client.Incr(ctx, generationKey(scope)).Err(); err != nil {
		c.metrics.failed("invalidate")
		return fmt.Errorf("bump dashboard generation %s: %w", scope, err)
	}

	keys, err := c.client.SMembers(ctx, idx).Result()
	if err != nil {
		c.metrics.failed("invalidate")
		return fmt.Errorf("read dashboard index %s: %w", scope, err)
	}

	pipe := c.client.Pipeline()
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	if scope == events.ScopeAll {
		pipe.Del(ctx,
			indexKey(events.ScopeAll),
			indexKey(events.ScopePersonal),
			indexKey(events.ScopeSupervisor),
			indexKey(events.ScopeAdmin),
		)
	} else {
		pipe.Del(ctx, idx)
		if len(keys) > 0 {
			members := make([]any, len(keys))
			for i, k := range keys {
				members[i] = k
			}
			pipe.SRem(ctx, indexKey(events.ScopeAll), members...)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.metrics.failed("invalidate")
		return fmt.Errorf("invalidate dashboards %s: %w", scope, err)
	}
	c.metrics.invalidated(string(scope))
	return nil
}
