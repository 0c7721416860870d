// Package service applies election mutations and reports each committed
// change to the event sink. Event delivery never affects the outcome of a
// mutation.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"electionhub/internal/election/models"
	principal "electionhub/internal/principal/models"
	id "electionhub/pkg/domain"
	dErrors "electionhub/pkg/domain-errors"
	"electionhub/pkg/platform/sentinel"
	pstrings "electionhub/pkg/platform/strings"
	"electionhub/pkg/requestcontext"
)

// Service orchestrates guarantee, attendance and vote entry.
type Service struct {
	store  Store
	sink   EventSink
	logger *slog.Logger
	locks  entityShards
}

type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(store Store, sink EventSink, opts ...Option) *Service {
	s := &Service{
		store:  store,
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GuaranteeInput describes a new guarantee owned by the caller.
type GuaranteeInput struct {
	ElectorID     id.ElectorID
	CommitteeCode string
	Status        models.GuaranteeStatus
	Notes         string
}

// GuaranteePatch holds the fields an owner may change.
type GuaranteePatch struct {
	Status *models.GuaranteeStatus
	Notes  *string
}

// BulkGuarantee is one row of an administrative import.
type BulkGuarantee struct {
	OwnerID id.PrincipalID
	GuaranteeInput
}

// BulkResult reports how many rows were imported.
type BulkResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// AttendanceInput marks an elector as having voted.
type AttendanceInput struct {
	ElectorID     id.ElectorID
	CommitteeCode string
	Notes         string
}

// VoteCountInput is a tally entered for one candidate at one committee.
type VoteCountInput struct {
	ElectionID  id.ElectionID
	CommitteeID id.CommitteeID
	CandidateID id.CandidateID
	Votes       int
}

func (s *Service) CreateGuarantee(ctx context.Context, actor *principal.Principal, in GuaranteeInput) (models.Guarantee, error) {
	if err := requireActor(actor); err != nil {
		return models.Guarantee{}, err
	}
	g, err := newGuarantee(ctx, actor.ID, in)
	if err != nil {
		return models.Guarantee{}, err
	}
	if err := requireCommittee(actor, g.CommitteeCode); err != nil {
		return models.Guarantee{}, err
	}
	if err := s.store.CreateGuarantee(ctx, g); err != nil {
		return models.Guarantee{}, wrapStoreErr(err, "guarantee")
	}
	s.sink.GuaranteeCreated(ctx, g)
	return g, nil
}

func (s *Service) UpdateGuarantee(ctx context.Context, actor *principal.Principal, guaranteeID id.GuaranteeID, patch GuaranteePatch) (models.Guarantee, error) {
	if err := requireActor(actor); err != nil {
		return models.Guarantee{}, err
	}
	defer s.locks.lock("guarantee:" + guaranteeID.String())()

	g, err := s.store.FindGuarantee(ctx, guaranteeID)
	if err != nil {
		return models.Guarantee{}, wrapStoreErr(err, "guarantee")
	}
	if !canManage(actor, g.OwnerID) {
		return models.Guarantee{}, dErrors.New(dErrors.CodeForbidden, "not allowed to modify this guarantee")
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return models.Guarantee{}, dErrors.New(dErrors.CodeValidation, "unknown guarantee status")
		}
		g.Status = *patch.Status
	}
	if patch.Notes != nil {
		g.Notes = strings.TrimSpace(*patch.Notes)
	}
	g.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.UpdateGuarantee(ctx, g); err != nil {
		return models.Guarantee{}, wrapStoreErr(err, "guarantee")
	}
	s.sink.GuaranteeUpdated(ctx, g)
	return g, nil
}

func (s *Service) DeleteGuarantee(ctx context.Context, actor *principal.Principal, guaranteeID id.GuaranteeID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	defer s.locks.lock("guarantee:" + guaranteeID.String())()

	g, err := s.store.FindGuarantee(ctx, guaranteeID)
	if err != nil {
		return wrapStoreErr(err, "guarantee")
	}
	if !canManage(actor, g.OwnerID) {
		return dErrors.New(dErrors.CodeForbidden, "not allowed to delete this guarantee")
	}
	deleted, err := s.store.DeleteGuarantee(ctx, guaranteeID)
	if err != nil {
		return wrapStoreErr(err, "guarantee")
	}
	s.sink.GuaranteeDeleted(ctx, deleted)
	return nil
}

// BulkImport loads guarantees without emitting events or invalidating
// dashboards. Rows that collide with existing guarantees are skipped.
func (s *Service) BulkImport(ctx context.Context, actor *principal.Principal, rows []BulkGuarantee) (BulkResult, error) {
	if err := requireAdmin(actor); err != nil {
		return BulkResult{}, err
	}
	ctx = requestcontext.WithEventsSuppressed(ctx)

	var res BulkResult
	for i, row := range rows {
		if row.OwnerID.IsNil() {
			return res, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("row %d: owner_id is required", i))
		}
		g, err := newGuarantee(ctx, row.OwnerID, row.GuaranteeInput)
		if err != nil {
			return res, err
		}
		if err := s.store.CreateGuarantee(ctx, g); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				res.Skipped++
				continue
			}
			return res, wrapStoreErr(err, "guarantee")
		}
		s.sink.GuaranteeCreated(ctx, g)
		res.Imported++
	}
	s.logger.InfoContext(ctx, "bulk guarantee import finished",
		"imported", res.Imported,
		"skipped", res.Skipped,
		"request_id", requestcontext.RequestID(ctx),
	)
	return res, nil
}

// MarkAttendance records or updates the attendance of an elector. Owners of
// guarantees for the elector are captured on the mark.
func (s *Service) MarkAttendance(ctx context.Context, actor *principal.Principal, in AttendanceInput) (models.Attendance, error) {
	if err := requireActor(actor); err != nil {
		return models.Attendance{}, err
	}
	if in.ElectorID.IsNil() {
		return models.Attendance{}, dErrors.New(dErrors.CodeValidation, "elector_id is required")
	}
	code := pstrings.CommitteeCode(in.CommitteeCode)
	if err := requireCommittee(actor, code); err != nil {
		return models.Attendance{}, err
	}
	defer s.locks.lock("attendance:" + in.ElectorID.String())()

	guarantors, err := s.store.GuarantorsOf(ctx, in.ElectorID)
	if err != nil {
		return models.Attendance{}, wrapStoreErr(err, "guarantee")
	}

	a, created, err := s.store.SaveAttendance(ctx, models.Attendance{
		ID:            id.NewAttendanceID(),
		ElectorID:     in.ElectorID,
		CommitteeCode: code,
		MarkedBy:      actor.ID,
		MarkedAt:      requestcontext.Now(ctx),
		Notes:         strings.TrimSpace(in.Notes),
		GuaranteedBy:  guarantors,
	})
	if err != nil {
		return models.Attendance{}, wrapStoreErr(err, "attendance")
	}
	s.sink.AttendanceSaved(ctx, a, created)
	return a, nil
}

// SaveVoteCount upserts a committee tally. Only supervisors and admins enter
// votes.
func (s *Service) SaveVoteCount(ctx context.Context, actor *principal.Principal, in VoteCountInput) (models.VoteCount, bool, error) {
	if err := requireActor(actor); err != nil {
		return models.VoteCount{}, false, err
	}
	if actor.Role != principal.RoleSupervisor && !actor.Role.IsAdmin() {
		return models.VoteCount{}, false, dErrors.New(dErrors.CodeForbidden, "vote entry requires supervisor or admin role")
	}
	if in.ElectionID.IsNil() || in.CommitteeID.IsNil() || in.CandidateID.IsNil() {
		return models.VoteCount{}, false, dErrors.New(dErrors.CodeValidation, "election_id, committee_id and candidate_id are required")
	}
	if in.Votes < 0 {
		return models.VoteCount{}, false, dErrors.New(dErrors.CodeValidation, "votes must not be negative")
	}

	defer s.locks.lock("votes:" + in.ElectionID.String() + ":" + in.CommitteeID.String() + ":" + in.CandidateID.String())()

	vc, created, err := s.store.UpsertVoteCount(ctx, models.VoteCount{
		ID:          id.NewVoteCountID(),
		ElectionID:  in.ElectionID,
		CommitteeID: in.CommitteeID,
		CandidateID: in.CandidateID,
		Votes:       in.Votes,
		EnteredBy:   actor.ID,
		UpdatedAt:   requestcontext.Now(ctx),
	})
	if err != nil {
		return models.VoteCount{}, false, wrapStoreErr(err, "vote count")
	}
	s.sink.VoteCountSaved(ctx, vc, created)
	return vc, created, nil
}

// GenerateResults aggregates every tally of an election. Running it again
// replaces the previous results.
func (s *Service) GenerateResults(ctx context.Context, actor *principal.Principal, election id.ElectionID) (models.ElectionResults, bool, error) {
	if err := requireAdmin(actor); err != nil {
		return models.ElectionResults{}, false, err
	}
	defer s.locks.lock("results:" + election.String())()

	counts, err := s.store.VoteCounts(ctx, election)
	if err != nil {
		return models.ElectionResults{}, false, wrapStoreErr(err, "vote count")
	}

	r := tally(counts)
	r.ID = id.NewResultsID()
	r.ElectionID = election
	r.GeneratedBy = actor.ID
	r.GeneratedAt = requestcontext.Now(ctx)

	saved, created, err := s.store.SaveResults(ctx, r)
	if err != nil {
		return models.ElectionResults{}, false, wrapStoreErr(err, "results")
	}
	s.sink.ResultsSaved(ctx, saved, created)
	return saved, created, nil
}

func tally(counts []models.VoteCount) models.ElectionResults {
	byCandidate := make(map[id.CandidateID]int)
	committees := make(map[id.CommitteeID]struct{})
	var r models.ElectionResults
	for _, vc := range counts {
		byCandidate[vc.CandidateID] += vc.Votes
		committees[vc.CommitteeID] = struct{}{}
		r.TotalVotes += vc.Votes
	}
	for candidate, votes := range byCandidate {
		r.Totals = append(r.Totals, models.CandidateTotal{CandidateID: candidate, Votes: votes})
	}
	slices.SortFunc(r.Totals, func(a, b models.CandidateTotal) int {
		if c := cmp.Compare(b.Votes, a.Votes); c != 0 {
			return c
		}
		return strings.Compare(a.CandidateID.String(), b.CandidateID.String())
	})
	r.CommitteesReporting = len(committees)
	return r
}
