package registry

import (
	"context"
	"sync"
	"time"

	"electionhub/internal/principal/models"
	id "electionhub/pkg/domain"
	"electionhub/pkg/platform/middleware/metadata"
)

// CloseCode is a WebSocket close status.
type CloseCode int

const (
	CloseNormal        CloseCode = 1000
	CloseGoingAway     CloseCode = 1001
	CloseInternalError CloseCode = 1011
	CloseTryAgainLater CloseCode = 1013
	CloseUnauthorized  CloseCode = 4001
	CloseAuthError     CloseCode = 4002
)

// Reason labels used in logs and metrics.
func (c CloseCode) String() string {
	switch c {
	case CloseNormal:
		return "normal"
	case CloseGoingAway:
		return "going_away"
	case CloseInternalError:
		return "write_failure"
	case CloseTryAgainLater:
		return "slow_consumer"
	case CloseUnauthorized:
		return "unauthorized"
	case CloseAuthError:
		return "auth_error"
	default:
		return "other"
	}
}

// Sink is the write side of one client connection.
type Sink interface {
	WriteFrame(ctx context.Context, frame []byte) error
	Close(code CloseCode, reason string) error
}

// ClientInfo describes the remote end for logging.
type ClientInfo struct {
	IP    string
	Agent metadata.ClientAgent
}

// Session is one authenticated connection. Its principal is frozen at
// handshake time.
type Session struct {
	ID        id.SessionID
	Principal *models.Principal
	JoinedAt  time.Time
	Client    ClientInfo

	sink  Sink
	queue chan []byte
	done  chan struct{}

	mu      sync.Mutex
	groups  map[string]struct{}
	dropped bool
	code    CloseCode
	reason  string
}

// NewSession builds an unregistered session. The principal is cloned so later
// mutations by the caller are not observed.
func NewSession(p *models.Principal, sink Sink, client ClientInfo) *Session {
	return &Session{
		ID:        id.NewSessionID(),
		Principal: p.Clone(),
		JoinedAt:  time.Now(),
		Client:    client,
		sink:      sink,
		done:      make(chan struct{}),
		groups:    make(map[string]struct{}),
	}
}

// Done is closed once the session has been dropped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// CloseStatus returns the code and reason the session was dropped with.
func (s *Session) CloseStatus() (CloseCode, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code, s.reason
}

// Groups returns a snapshot of the session's group names.
func (s *Session) Groups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.groups))
	for g := range s.groups {
		out = append(out, g)
	}
	return out
}

// enqueue offers frame to the writer without blocking. It returns false when
// the queue is full; a dropped session accepts and discards.
func (s *Session) enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.queue <- frame:
		return true
	default:
		return false
	}
}

// markDropped flips the session to dropped and returns its groups, or false
// if it was already dropped.
func (s *Session) markDropped(code CloseCode, reason string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped {
		return nil, false
	}
	s.dropped = true
	s.code = code
	s.reason = reason
	groups := make([]string, 0, len(s.groups))
	for g := range s.groups {
		groups = append(groups, g)
	}
	s.groups = nil
	close(s.done)
	return groups, true
}
