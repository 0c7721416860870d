package store

import (
	"context"
	"sync"

	"electionhub/internal/principal/models"
	id "electionhub/pkg/domain"
	"electionhub/pkg/platform/strings"
)

// InMemory keeps principals in a map. Used for development (seeded from YAML)
// and tests.
type InMemory struct {
	mu         sync.RWMutex
	principals map[id.PrincipalID]models.Principal
}

func NewInMemory() *InMemory {
	return &InMemory{principals: make(map[id.PrincipalID]models.Principal)}
}

// Save inserts or replaces a principal.
func (s *InMemory) Save(_ context.Context, p models.Principal) error {
	p.Committees = strings.CommitteeCodes(p.Committees)
	p.Supervisees = nil
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[p.ID] = p
	return nil
}

func (s *InMemory) FindActive(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.principals[principalID]
	if !ok || !p.Active {
		return nil, ErrNotFound
	}
	found := p.Clone()
	for _, other := range s.principals {
		if other.SupervisorID != nil && *other.SupervisorID == principalID {
			found.Supervisees = append(found.Supervisees, other.ID)
		}
	}
	return found, nil
}

// List returns every stored principal, active or not.
func (s *InMemory) List(_ context.Context) []models.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Principal, 0, len(s.principals))
	for _, p := range s.principals {
		out = append(out, *p.Clone())
	}
	return out
}
