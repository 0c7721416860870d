// Package requestcontext carries request-scoped values through context so
// services and the event emitter can read them without importing net/http.
//
// Middleware writes the values; everything below the handlers only reads:
//
//	actor := requestcontext.PrincipalID(ctx)
//	now := requestcontext.Now(ctx)
//
// Bulk imports and restores mark their context so the emitter stays quiet:
//
//	ctx = requestcontext.WithEventsSuppressed(ctx)
package requestcontext

import (
	"context"
	"time"

	id "electionhub/pkg/domain"
)

type key int

const (
	principalIDKey key = iota
	clientIPKey
	userAgentKey
	requestIDKey
	nowKey
	eventsSuppressedKey
)

func value[T any](ctx context.Context, k key) T {
	v, _ := ctx.Value(k).(T)
	return v
}

// PrincipalID is the authenticated actor, or the nil ID for anonymous and
// background work.
func PrincipalID(ctx context.Context) id.PrincipalID {
	return value[id.PrincipalID](ctx, principalIDKey)
}

func WithPrincipalID(ctx context.Context, principalID id.PrincipalID) context.Context {
	return context.WithValue(ctx, principalIDKey, principalID)
}

func ClientIP(ctx context.Context) string { return value[string](ctx, clientIPKey) }

func UserAgent(ctx context.Context) string { return value[string](ctx, userAgentKey) }

// WithClientMetadata records where the request came from.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func RequestID(ctx context.Context) string { return value[string](ctx, requestIDKey) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now is the instant the request started. Outside a request (workers, the
// CLI, tests) it is the current UTC time.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(nowKey).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}

// WithTime pins Now for everything downstream of ctx.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, nowKey, t)
}

// WithEventsSuppressed marks a bulk or raw load. Mutations carried under this
// context produce no domain events and invalidate no dashboards.
func WithEventsSuppressed(ctx context.Context) context.Context {
	return context.WithValue(ctx, eventsSuppressedKey, true)
}

func EventsSuppressed(ctx context.Context) bool {
	return value[bool](ctx, eventsSuppressedKey)
}
