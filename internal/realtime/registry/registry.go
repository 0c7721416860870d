// Package registry owns the table of open sessions and their group
// memberships, and is the only writer to client sockets.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"electionhub/internal/platform/metrics"
	"electionhub/internal/principal/models"
	"electionhub/internal/realtime/events"
	id "electionhub/pkg/domain"
	"electionhub/pkg/platform/sentinel"
)

var (
	// ErrUnknownSession is returned when an operation names a session that is
	// not registered (never was, or already dropped).
	ErrUnknownSession = errors.New("unknown session")
	// ErrDuplicateSession is returned when a session id is registered twice.
	ErrDuplicateSession = errors.New("session already registered")
	// ErrSlowConsumer is returned by Enqueue when the frame overflowed the
	// session queue and the session was dropped.
	ErrSlowConsumer = errors.New("slow consumer")
)

// Policy decides whether a principal may read an event.
type Policy func(p *models.Principal, e events.Event) bool

// Registry tracks sessions. The session table is guarded by one RWMutex; each
// group has its own lock; the connection count is atomic.
type Registry struct {
	policy       Policy
	maxQueue     int
	writeTimeout time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics

	mu       sync.RWMutex
	sessions map[id.SessionID]*Session
	cancels  map[id.SessionID]context.CancelFunc
	closed   bool

	groupsMu sync.Mutex
	groups   map[string]*group

	count   atomic.Int64
	writers sync.WaitGroup
}

type group struct {
	mu      sync.RWMutex
	members map[id.SessionID]struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxQueue sets the per-session frame backlog.
func WithMaxQueue(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxQueue = n
		}
	}
}

// WithWriteTimeout bounds each socket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.writeTimeout = d
		}
	}
}

// WithMetrics attaches fabric metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// New constructs a Registry that filters deliveries through policy.
func New(policy Policy, logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		policy:       policy,
		maxQueue:     256,
		writeTimeout: 10 * time.Second,
		logger:       logger,
		sessions:     make(map[id.SessionID]*Session),
		cancels:      make(map[id.SessionID]context.CancelFunc),
		groups:       make(map[string]*group),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register adds s to the table and starts its writer. The session is not a
// member of any group yet.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return sentinel.ErrClosed
	}
	if _, exists := r.sessions[s.ID]; exists {
		r.mu.Unlock()
		return ErrDuplicateSession
	}
	s.queue = make(chan []byte, r.maxQueue)
	ctx, cancel := context.WithCancel(context.Background())
	r.sessions[s.ID] = s
	r.cancels[s.ID] = cancel
	r.count.Add(1)
	r.writers.Add(1)
	r.mu.Unlock()

	r.metrics.SessionOpened()
	go r.runWriter(ctx, s)
	return nil
}

// Drop removes the session from the table and every group, stops its writer
// and closes its sink in the background. Dropping an unknown or already
// dropped session is a no-op that returns false.
func (r *Registry) Drop(sessionID id.SessionID, code CloseCode, reason string) bool {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, sessionID)
	cancel := r.cancels[sessionID]
	delete(r.cancels, sessionID)
	r.mu.Unlock()

	groups, first := s.markDropped(code, reason)
	if !first {
		return false
	}
	for _, name := range groups {
		r.removeMember(name, sessionID)
	}
	cancel()
	r.count.Add(-1)
	r.metrics.SessionClosed(code.String())

	go func() {
		_ = s.sink.Close(code, reason)
	}()
	return true
}

// Get returns a registered session.
func (r *Registry) Get(sessionID id.SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	return int(r.count.Load())
}

// Join adds a session to a group, creating the group on first use.
// Joining twice is harmless.
func (r *Registry) Join(name string, sessionID id.SessionID) error {
	s, ok := r.Get(sessionID)
	if !ok {
		return ErrUnknownSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return ErrUnknownSession
	}
	g := r.group(name, true)
	g.mu.Lock()
	g.members[sessionID] = struct{}{}
	g.mu.Unlock()
	s.groups[name] = struct{}{}
	return nil
}

// Leave removes a session from a group. Leaving a group the session is not
// in is harmless.
func (r *Registry) Leave(name string, sessionID id.SessionID) {
	if s, ok := r.Get(sessionID); ok {
		s.mu.Lock()
		delete(s.groups, name)
		s.mu.Unlock()
	}
	r.removeMember(name, sessionID)
}

// Members returns a snapshot of a group's sessions.
func (r *Registry) Members(name string) []id.SessionID {
	g := r.group(name, false)
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]id.SessionID, 0, len(g.members))
	for sid := range g.members {
		out = append(out, sid)
	}
	return out
}

// Deliver applies the policy and queues the frame for the session's writer.
// Denied events are discarded silently. A full queue drops the session as a
// slow consumer.
func (r *Registry) Deliver(sessionID id.SessionID, env events.Envelope) {
	s, ok := r.Get(sessionID)
	if !ok {
		return
	}
	if !r.policy(s.Principal, env.Event) {
		r.metrics.IncPolicyDenied(string(env.Event.Kind))
		return
	}
	if !s.enqueue(env.Frame) {
		r.logger.Error("dropping slow consumer",
			"session_id", sessionID.String(),
			"principal_id", s.Principal.ID.String(),
			"queue_depth", r.maxQueue,
			"event_kind", env.Event.Kind,
		)
		r.Drop(sessionID, CloseTryAgainLater, "slow consumer")
	}
}

// Enqueue queues a frame that bypasses the policy, used for direct replies to
// the session's own client.
func (r *Registry) Enqueue(sessionID id.SessionID, frame []byte) error {
	s, ok := r.Get(sessionID)
	if !ok {
		return ErrUnknownSession
	}
	if !s.enqueue(frame) {
		r.logger.Error("dropping slow consumer",
			"session_id", sessionID.String(),
			"queue_depth", r.maxQueue,
		)
		r.Drop(sessionID, CloseTryAgainLater, "slow consumer")
		return ErrSlowConsumer
	}
	return nil
}

// Close drops every session with 1001 and waits for their writers to exit.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	ids := make([]id.SessionID, 0, len(r.sessions))
	for sid := range r.sessions {
		ids = append(ids, sid)
	}
	r.mu.Unlock()

	for _, sid := range ids {
		r.Drop(sid, CloseGoingAway, "server shutting down")
	}
	r.writers.Wait()
}

func (r *Registry) runWriter(ctx context.Context, s *Session) {
	defer r.writers.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-s.queue:
			wctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
			err := s.sink.WriteFrame(wctx, frame)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Error("websocket write failed",
					"session_id", s.ID.String(),
					"principal_id", s.Principal.ID.String(),
					"error", err,
				)
				r.Drop(s.ID, CloseInternalError, "write failure")
				return
			}
			r.metrics.IncFramesSent()
		}
	}
}

func (r *Registry) group(name string, create bool) *group {
	r.groupsMu.Lock()
	defer r.groupsMu.Unlock()
	g, ok := r.groups[name]
	if !ok && create {
		g = &group{members: make(map[id.SessionID]struct{})}
		r.groups[name] = g
	}
	return g
}

func (r *Registry) removeMember(name string, sessionID id.SessionID) {
	g := r.group(name, false)
	if g == nil {
		return
	}
	g.mu.Lock()
	delete(g.members, sessionID)
	g.mu.Unlock()
}
