// Package cache stores rendered dashboard aggregates keyed by scope, principal
// and a request fingerprint. Every entry is indexed under its scope so that a
// scope can be invalidated without knowing its keys.
package cache

import (
	"context"
	"strings"
	"time"

	"electionhub/internal/realtime/events"
	id "electionhub/pkg/domain"
)

// Document is a rendered dashboard body. Documents handed out by a cache must
// not be modified.
type Document []byte

// Key identifies one cached dashboard. PrincipalID is nil for dashboards
// shared by every caller of the scope.
type Key struct {
	Scope       events.Scope
	PrincipalID *id.PrincipalID
	Fingerprint string
}

// String renders the key as a flat storage key.
func (k Key) String() string {
	owner := "-"
	if k.PrincipalID != nil {
		owner = k.PrincipalID.String()
	}
	var b strings.Builder
	b.WriteString("dashboard:")
	b.WriteString(strings.ToLower(string(k.Scope)))
	b.WriteByte(':')
	b.WriteString(owner)
	if k.Fingerprint != "" {
		b.WriteByte(':')
		b.WriteString(k.Fingerprint)
	}
	return b.String()
}

// Generation counts the invalidations that reached a scope, including those
// of ALL. It only ever grows.
type Generation uint64

// Cache is the contract shared by the memory and Redis implementations.
// A miss is (nil, false, nil). Errors are advisory: callers recompute.
//
// Writers read Generation before computing a document and hand it to Put.
// Put drops the document when the scope has been invalidated since, so a
// recompute racing a mutation never outlives the invalidation.
type Cache interface {
	Get(ctx context.Context, key Key) (Document, bool, error)
	Generation(ctx context.Context, scope events.Scope) (Generation, error)
	Put(ctx context.Context, key Key, doc Document, ttl time.Duration, gen Generation) error
	Invalidate(ctx context.Context, scope events.Scope) error
}

// normalizeScope maps the empty scope to ALL so an unscoped invalidation
// never silently drops nothing.
func normalizeScope(scope events.Scope) events.Scope {
	if scope == events.ScopeNone {
		return events.ScopeAll
	}
	return scope
}
