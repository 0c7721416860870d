// Package emitter turns committed domain mutations into events on the bus and
// invalidates cached dashboards. It is best effort: failures are logged and
// counted, never returned to the mutating request.
package emitter

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"electionhub/internal/election/models"
	"electionhub/internal/platform/metrics"
	"electionhub/internal/platform/tracing"
	"electionhub/internal/realtime/events"
	id "electionhub/pkg/domain"
	"electionhub/pkg/requestcontext"
)

// Publisher accepts events for asynchronous fan-out.
type Publisher interface {
	Publish(ctx context.Context, group string, e events.Event) error
}

// Invalidator drops cached dashboards.
type Invalidator interface {
	Invalidate(ctx context.Context, scope events.Scope) error
}

// Emitter publishes one event per committed mutation. Calls are serialized so
// publish order and timestamps follow call order.
type Emitter struct {
	bus     Publisher
	cache   Invalidator
	group   string
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithGroup overrides the target group.
func WithGroup(group string) Option {
	return func(e *Emitter) {
		if group != "" {
			e.group = group
		}
	}
}

// WithMetrics attaches fabric metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Emitter) {
		e.metrics = m
	}
}

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Emitter) {
		if now != nil {
			e.now = now
		}
	}
}

// New builds an Emitter. cache may be nil.
func New(bus Publisher, cache Invalidator, logger *slog.Logger, opts ...Option) *Emitter {
	e := &Emitter{
		bus:    bus,
		cache:  cache,
		group:  events.DefaultGroup,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *Emitter) GuaranteeCreated(ctx context.Context, g models.Guarantee) {
	e.emit(ctx, guaranteeEvent(events.ActionCreated, g, projectGuarantee(g)), events.ScopeAll)
}

func (e *Emitter) GuaranteeUpdated(ctx context.Context, g models.Guarantee) {
	e.emit(ctx, guaranteeEvent(events.ActionUpdated, g, projectGuarantee(g)), events.ScopeAll)
}

func (e *Emitter) GuaranteeDeleted(ctx context.Context, g models.Guarantee) {
	e.emit(ctx, guaranteeEvent(events.ActionDeleted, g, projectDeletedGuarantee(g)), events.ScopeAll)
}

// AttendanceSaved reports an insert (created) or update of an attendance mark.
func (e *Emitter) AttendanceSaved(ctx context.Context, a models.Attendance, created bool) {
	affected := appendUnique([]id.PrincipalID{a.MarkedBy}, a.GuaranteedBy...)
	e.emit(ctx, events.Event{
		Kind:               events.KindAttendance,
		Action:             createdOrUpdated(created),
		Payload:            projectAttendance(a),
		AffectedPrincipals: affected,
		OwnerID:            a.MarkedBy,
		EntityID:           a.ID.String(),
	}, events.ScopeAll)
}

// VoteCountSaved reports an insert (created) or update of a vote tally.
func (e *Emitter) VoteCountSaved(ctx context.Context, vc models.VoteCount, created bool) {
	e.emit(ctx, events.Event{
		Kind:     events.KindVoting,
		Action:   createdOrUpdated(created),
		Payload:  projectVoteCount(vc),
		EntityID: vc.ID.String(),
	}, events.ScopeAll)
}

// ResultsSaved reports generated (created) or regenerated election results.
func (e *Emitter) ResultsSaved(ctx context.Context, r models.ElectionResults, created bool) {
	action, actionType := events.ActionResultsUpdated, "updated"
	if created {
		action, actionType = events.ActionResultsGenerated, "generated"
	}
	e.emit(ctx, events.Event{
		Kind:     events.KindVoting,
		Action:   action,
		Payload:  projectResults(r, actionType),
		EntityID: r.ID.String(),
	}, events.ScopeAll)
}

// DashboardInvalidated announces that dashboards of scope were dropped and
// drops them.
func (e *Emitter) DashboardInvalidated(ctx context.Context, scope events.Scope) {
	if scope == events.ScopeNone {
		scope = events.ScopeAll
	}
	e.emit(ctx, events.Event{
		Kind:     events.KindDashboard,
		Action:   events.ActionCacheInvalidated,
		Scope:    scope,
		Payload:  dashboardPayload{Scope: string(scope), Message: "dashboard data changed"},
		EntityID: "dashboard:" + string(scope),
	}, scope)
}

func (e *Emitter) emit(ctx context.Context, ev events.Event, invalidate events.Scope) {
	if requestcontext.EventsSuppressed(ctx) {
		return
	}

	ctx, span := tracing.Start(ctx, "emitter", "emit",
		attribute.String("event.kind", string(ev.Kind)),
		attribute.String("event.action", string(ev.Action)),
		attribute.String("entity.id", ev.EntityID),
	)
	defer span.End()

	e.mu.Lock()
	ts := e.now()
	if ts.Before(e.last) {
		ts = e.last
	}
	e.last = ts
	ev.Timestamp = ts
	err := e.bus.Publish(ctx, e.group, ev)
	e.mu.Unlock()

	if err != nil {
		tracing.Fail(span, err)
		e.metrics.IncEmitterFailures(string(ev.Kind))
		e.logger.ErrorContext(ctx, "failed to publish domain event",
			"event_kind", ev.Kind,
			"event_action", ev.Action,
			"entity_id", ev.EntityID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}

	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, invalidate); err != nil {
		tracing.Fail(span, err)
		e.logger.ErrorContext(ctx, "failed to invalidate dashboard cache",
			"scope", invalidate,
			"event_kind", ev.Kind,
			"entity_id", ev.EntityID,
			"error", err,
		)
	}
}

func guaranteeEvent(action events.Action, g models.Guarantee, payload any) events.Event {
	return events.Event{
		Kind:               events.KindGuarantee,
		Action:             action,
		Payload:            payload,
		AffectedPrincipals: []id.PrincipalID{g.OwnerID},
		OwnerID:            g.OwnerID,
		EntityID:           g.ID.String(),
	}
}

func createdOrUpdated(created bool) events.Action {
	if created {
		return events.ActionCreated
	}
	return events.ActionUpdated
}

func appendUnique(dst []id.PrincipalID, more ...id.PrincipalID) []id.PrincipalID {
	for _, p := range more {
		if !p.IsNil() && !slices.Contains(dst, p) {
			dst = append(dst, p)
		}
	}
	return dst
}
