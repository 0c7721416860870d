package cache

import (
	"bytes"
	"context"
	"sync"
	"time"

	"electionhub/internal/realtime/events"
)

// sweepEvery is how many puts pass between scans for expired entries.
const sweepEvery = 64

type memoryEntry struct {
	doc       Document
	scope     events.Scope
	expiresAt time.Time
}

// Memory is a process-local Cache. Expired entries are skipped on read and
// removed by a sweep that runs every sweepEvery puts, or by an invalidation
// touching them.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	index   map[events.Scope]map[string]struct{}
	gens    map[events.Scope]uint64
	puts    int
	metrics *Metrics
	now     func() time.Time
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithMemoryMetrics attaches cache metrics.
func WithMemoryMetrics(m *Metrics) MemoryOption {
	return func(c *Memory) {
		c.metrics = m
	}
}

// WithMemoryClock overrides the clock used for TTL checks.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(c *Memory) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemory builds an empty Memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	c := &Memory{
		entries: make(map[string]memoryEntry),
		index:   make(map[events.Scope]map[string]struct{}),
		gens:    make(map[events.Scope]uint64),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Memory) Get(_ context.Context, key Key) (Document, bool, error) {
	k := key.String()
	c.mu.RLock()
	entry, ok := c.entries[k]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expiresAt) {
		c.metrics.miss(string(key.Scope))
		return nil, false, nil
	}
	c.metrics.hit(string(key.Scope))
	return entry.doc, true, nil
}

func (c *Memory) Generation(_ context.Context, scope events.Scope) (Generation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generationLocked(scope), nil
}

func (c *Memory) generationLocked(scope events.Scope) Generation {
	scope = normalizeScope(scope)
	if scope == events.ScopeAll {
		return Generation(c.gens[events.ScopeAll])
	}
	return Generation(c.gens[events.ScopeAll] + c.gens[scope])
}

// Put stores a private copy of doc so later changes by the caller are not
// visible to readers. The write is dropped when key's scope has moved past gen.
func (c *Memory) Put(_ context.Context, key Key, doc Document, ttl time.Duration, gen Generation) error {
	if ttl <= 0 {
		return nil
	}
	k := key.String()
	entry := memoryEntry{
		doc:       Document(bytes.Clone(doc)),
		scope:     key.Scope,
		expiresAt: c.now().Add(ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generationLocked(key.Scope) != gen {
		c.metrics.stale(string(key.Scope))
		return nil
	}
	c.puts++
	if c.puts%sweepEvery == 0 {
		c.sweepLocked()
	}
	c.entries[k] = entry
	keys, ok := c.index[key.Scope]
	if !ok {
		keys = make(map[string]struct{})
		c.index[key.Scope] = keys
	}
	keys[k] = struct{}{}
	return nil
}

func (c *Memory) Invalidate(_ context.Context, scope events.Scope) error {
	scope = normalizeScope(scope)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[scope]++
	if scope == events.ScopeAll {
		c.entries = make(map[string]memoryEntry)
		c.index = make(map[events.Scope]map[string]struct{})
	} else {
		for k := range c.index[scope] {
			delete(c.entries, k)
		}
		delete(c.index, scope)
	}
	c.metrics.invalidated(string(scope))
	return nil
}

// Len returns the number of live entries.
func (c *Memory) Len() int {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

func (c *Memory) stored() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Memory) sweepLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.Before(e.expiresAt) {
			continue
		}
		delete(c.entries, k)
		if keys, ok := c.index[e.scope]; ok {
			delete(keys, k)
			if len(keys) == 0 {
				delete(c.index, e.scope)
			}
		}
	}
}
