// Package store keeps election records in memory. Persistence schema is owned
// by another service; this store backs the collaborator endpoints and tests.
package store

import (
	"context"
	"slices"
	"sync"

	"electionhub/internal/election/models"
	id "electionhub/pkg/domain"
	"electionhub/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)

type voteKey struct {
	election  id.ElectionID
	committee id.CommitteeID
	candidate id.CandidateID
}

// InMemory holds guarantees, attendance marks, vote counts and results.
type InMemory struct {
	mu         sync.RWMutex
	guarantees map[id.GuaranteeID]models.Guarantee
	attendance map[id.ElectorID]models.Attendance
	votes      map[voteKey]models.VoteCount
	results    map[id.ElectionID]models.ElectionResults
}

func NewInMemory() *InMemory {
	return &InMemory{
		guarantees: make(map[id.GuaranteeID]models.Guarantee),
		attendance: make(map[id.ElectorID]models.Attendance),
		votes:      make(map[voteKey]models.VoteCount),
		results:    make(map[id.ElectionID]models.ElectionResults),
	}
}

// CreateGuarantee inserts g. An owner may guarantee an elector only once.
func (s *InMemory) CreateGuarantee(_ context.Context, g models.Guarantee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guarantees[g.ID]; ok {
		return ErrConflict
	}
	for _, existing := range s.guarantees {
		if existing.ElectorID == g.ElectorID && existing.OwnerID == g.OwnerID {
			return ErrConflict
		}
	}
	s.guarantees[g.ID] = g
	return nil
}

func (s *InMemory) FindGuarantee(_ context.Context, guaranteeID id.GuaranteeID) (models.Guarantee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guarantees[guaranteeID]
	if !ok {
		return models.Guarantee{}, ErrNotFound
	}
	return g, nil
}

// UpdateGuarantee replaces an existing guarantee.
func (s *InMemory) UpdateGuarantee(_ context.Context, g models.Guarantee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guarantees[g.ID]; !ok {
		return ErrNotFound
	}
	s.guarantees[g.ID] = g
	return nil
}

// DeleteGuarantee removes a guarantee and returns the removed record.
func (s *InMemory) DeleteGuarantee(_ context.Context, guaranteeID id.GuaranteeID) (models.Guarantee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guarantees[guaranteeID]
	if !ok {
		return models.Guarantee{}, ErrNotFound
	}
	delete(s.guarantees, guaranteeID)
	return g, nil
}

// ListGuarantees returns guarantees owned by any of owners, or every
// guarantee when owners is empty.
func (s *InMemory) ListGuarantees(_ context.Context, owners ...id.PrincipalID) ([]models.Guarantee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Guarantee, 0, len(s.guarantees))
	for _, g := range s.guarantees {
		if len(owners) == 0 || slices.Contains(owners, g.OwnerID) {
			out = append(out, g)
		}
	}
	return out, nil
}

// GuarantorsOf returns the owners of every guarantee for elector.
func (s *InMemory) GuarantorsOf(_ context.Context, elector id.ElectorID) ([]id.PrincipalID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var owners []id.PrincipalID
	for _, g := range s.guarantees {
		if g.ElectorID == elector && !slices.Contains(owners, g.OwnerID) {
			owners = append(owners, g.OwnerID)
		}
	}
	return owners, nil
}

// SaveAttendance upserts the attendance mark of a.ElectorID. It reports
// whether a new mark was created; an update keeps the original ID.
func (s *InMemory) SaveAttendance(_ context.Context, a models.Attendance) (models.Attendance, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.attendance[a.ElectorID]
	if ok {
		a.ID = existing.ID
	}
	a.GuaranteedBy = slices.Clone(a.GuaranteedBy)
	s.attendance[a.ElectorID] = a
	return a, !ok, nil
}

// AttendedElectors returns the set of electors with an attendance mark.
func (s *InMemory) AttendedElectors(_ context.Context) (map[id.ElectorID]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.ElectorID]struct{}, len(s.attendance))
	for elector := range s.attendance {
		out[elector] = struct{}{}
	}
	return out, nil
}

// UpsertVoteCount stores the tally for (election, committee, candidate). It
// reports whether a new tally was created; an update keeps the original ID.
func (s *InMemory) UpsertVoteCount(_ context.Context, vc models.VoteCount) (models.VoteCount, bool, error) {
	key := voteKey{election: vc.ElectionID, committee: vc.CommitteeID, candidate: vc.CandidateID}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.votes[key]
	if ok {
		vc.ID = existing.ID
	}
	s.votes[key] = vc
	return vc, !ok, nil
}

// VoteCounts returns every tally of an election.
func (s *InMemory) VoteCounts(_ context.Context, election id.ElectionID) ([]models.VoteCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.VoteCount
	for k, vc := range s.votes {
		if k.election == election {
			out = append(out, vc)
		}
	}
	return out, nil
}

// SaveResults stores the results of r.ElectionID, replacing earlier ones. It
// reports whether the election had no results before.
func (s *InMemory) SaveResults(_ context.Context, r models.ElectionResults) (models.ElectionResults, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.results[r.ElectionID]
	if ok {
		r.ID = existing.ID
	}
	r.Totals = slices.Clone(r.Totals)
	s.results[r.ElectionID] = r
	return r, !ok, nil
}

func (s *InMemory) FindResults(_ context.Context, election id.ElectionID) (models.ElectionResults, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[election]
	if !ok {
		return models.ElectionResults{}, ErrNotFound
	}
	return r, nil
}
