// Package events defines the domain events fanned out to operator sessions
// and the wire frames they render to.
package events

import (
	"fmt"
	"slices"
	"strings"
	"time"

	id "electionhub/pkg/domain"
)

// DefaultGroup is the group every session joins on connect.
const DefaultGroup = "election_updates"

type Kind string

const (
	KindGuarantee  Kind = "GUARANTEE_UPDATE"
	KindAttendance Kind = "ATTENDANCE_UPDATE"
	KindVoting     Kind = "VOTING_UPDATE"
	KindDashboard  Kind = "DASHBOARD_UPDATE"
)

type Action string

const (
	ActionCreated          Action = "CREATED"
	ActionUpdated          Action = "UPDATED"
	ActionDeleted          Action = "DELETED"
	ActionCacheInvalidated Action = "CACHE_INVALIDATED"
	ActionResultsGenerated Action = "RESULTS_GENERATED"
	ActionResultsUpdated   Action = "RESULTS_UPDATED"
)

// Scope names a dashboard class. The zero value means no scope.
type Scope string

const (
	ScopeNone       Scope = ""
	ScopePersonal   Scope = "PERSONAL"
	ScopeSupervisor Scope = "SUPERVISOR"
	ScopeAdmin      Scope = "ADMIN"
	ScopeAll        Scope = "ALL"
)

// ParseScope accepts the lower- or upper-case dashboard class names.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToUpper(strings.TrimSpace(s))) {
	case ScopePersonal:
		return ScopePersonal, nil
	case ScopeSupervisor:
		return ScopeSupervisor, nil
	case ScopeAdmin:
		return ScopeAdmin, nil
	case ScopeAll:
		return ScopeAll, nil
	}
	return ScopeNone, fmt.Errorf("unknown dashboard scope %q", s)
}

// Event is one domain mutation as seen by subscribers. Payload must be a
// self-contained snapshot: rendering it never touches storage.
type Event struct {
	Kind      Kind
	Action    Action
	Payload   any
	Timestamp time.Time
	Scope     Scope
	// AffectedPrincipals scopes delivery; empty means unscoped.
	AffectedPrincipals []id.PrincipalID
	// OwnerID is the principal that owns the payload entity, if any.
	OwnerID id.PrincipalID
	// EntityID identifies the mutated entity in logs and the mirror feed.
	EntityID string
}

// Affects reports whether p is listed in AffectedPrincipals.
func (e Event) Affects(p id.PrincipalID) bool {
	return slices.Contains(e.AffectedPrincipals, p)
}

// Validate checks the structural invariants every published event must hold.
func (e Event) Validate() error {
	if e.Kind == "" || e.Action == "" {
		return fmt.Errorf("%w: kind and action are required", ErrInvalidEvent)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEvent)
	}
	return nil
}

// Envelope pairs an event with its pre-rendered frame so fan-out serializes
// each event once.
type Envelope struct {
	Event Event
	Frame []byte
}
