package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"electionhub/internal/election/models"
	"electionhub/internal/election/service/mocks"
	"electionhub/internal/election/store"
	principal "electionhub/internal/principal/models"
	"electionhub/internal/realtime/emitter"
	"electionhub/internal/realtime/events"
	id "electionhub/pkg/domain"
	dErrors "electionhub/pkg/domain-errors"
	"electionhub/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	sink    *mocks.MockEventSink
	store   *store.InMemory
	service *Service

	admin      *principal.Principal
	supervisor *principal.Principal
	user       *principal.Principal
	stranger   *principal.Principal
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sink = mocks.NewMockEventSink(s.ctrl)
	s.store = store.NewInMemory()
	s.service = New(s.store, s.sink, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	s.user = &principal.Principal{ID: id.NewPrincipalID(), Role: principal.RoleUser, Committees: []string{"A1"}, Active: true}
	s.supervisor = &principal.Principal{ID: id.NewPrincipalID(), Role: principal.RoleSupervisor, Active: true, Supervisees: []id.PrincipalID{s.user.ID}}
	s.admin = &principal.Principal{ID: id.NewPrincipalID(), Role: principal.RoleAdmin, Active: true}
	s.stranger = &principal.Principal{ID: id.NewPrincipalID(), Role: principal.RoleUser, Active: true}
}

func (s *ServiceSuite) createGuarantee(owner *principal.Principal) models.Guarantee {
	s.sink.EXPECT().GuaranteeCreated(gomock.Any(), gomock.Any()).Times(1)
	g, err := s.service.CreateGuarantee(context.Background(), owner, GuaranteeInput{
		ElectorID:     id.NewElectorID(),
		CommitteeCode: "a1",
		Status:        models.GuaranteeMedium,
	})
	s.Require().NoError(err)
	return g
}

func (s *ServiceSuite) TestCreateGuarantee() {
	ctx := context.Background()

	s.Run("owned by caller and reported once", func() {
		var reported models.Guarantee
		s.sink.EXPECT().GuaranteeCreated(gomock.Any(), gomock.Any()).
			Do(func(_ context.Context, g models.Guarantee) { reported = g }).
			Times(1)

		g, err := s.service.CreateGuarantee(ctx, s.user, GuaranteeInput{ElectorID: id.NewElectorID(), CommitteeCode: " a1 "})
		s.Require().NoError(err)
		s.Equal(s.user.ID, g.OwnerID)
		s.Equal("A1", g.CommitteeCode)
		s.Equal(models.GuaranteePending, g.Status)
		s.Equal(g, reported)
	})

	s.Run("committee outside assignment is forbidden", func() {
		_, err := s.service.CreateGuarantee(ctx, s.user, GuaranteeInput{ElectorID: id.NewElectorID(), CommitteeCode: "B7"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("validation errors emit nothing", func() {
		_, err := s.service.CreateGuarantee(ctx, s.user, GuaranteeInput{CommitteeCode: "A1"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.CreateGuarantee(ctx, s.user, GuaranteeInput{ElectorID: id.NewElectorID(), CommitteeCode: "A1", Status: "MAYBE"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate guarantee conflicts", func() {
		g := s.createGuarantee(s.stranger)
		_, err := s.service.CreateGuarantee(ctx, s.stranger, GuaranteeInput{ElectorID: g.ElectorID, CommitteeCode: "A1"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("anonymous caller rejected", func() {
		_, err := s.service.CreateGuarantee(ctx, nil, GuaranteeInput{})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestUpdateAndDeleteGuarantee() {
	ctx := context.Background()
	strong := models.GuaranteeStrong

	s.Run("owner, supervisor and admin may update", func() {
		g := s.createGuarantee(s.user)
		for _, actor := range []*principal.Principal{s.user, s.supervisor, s.admin} {
			s.sink.EXPECT().GuaranteeUpdated(gomock.Any(), gomock.Any()).Times(1)
			updated, err := s.service.UpdateGuarantee(ctx, actor, g.ID, GuaranteePatch{Status: &strong})
			s.Require().NoError(err)
			s.Equal(models.GuaranteeStrong, updated.Status)
		}
	})

	s.Run("unrelated user is forbidden", func() {
		g := s.createGuarantee(s.user)
		_, err := s.service.UpdateGuarantee(ctx, s.stranger, g.ID, GuaranteePatch{Status: &strong})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.True(dErrors.HasCode(s.service.DeleteGuarantee(ctx, s.stranger, g.ID), dErrors.CodeForbidden))
	})

	s.Run("delete reports the removed guarantee", func() {
		g := s.createGuarantee(s.user)
		s.sink.EXPECT().GuaranteeDeleted(gomock.Any(), g).Times(1)
		s.Require().NoError(s.service.DeleteGuarantee(ctx, s.user, g.ID))

		err := s.service.DeleteGuarantee(ctx, s.user, g.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

type suppressedCtx struct{}

func (suppressedCtx) Matches(x any) bool {
	ctx, ok := x.(context.Context)
	return ok && requestcontext.EventsSuppressed(ctx)
}

func (suppressedCtx) String() string { return "context with events suppressed" }

func (s *ServiceSuite) TestBulkImport() {
	ctx := context.Background()
	rows := []BulkGuarantee{
		{OwnerID: s.user.ID, GuaranteeInput: GuaranteeInput{ElectorID: id.NewElectorID(), CommitteeCode: "A1"}},
		{OwnerID: s.user.ID, GuaranteeInput: GuaranteeInput{ElectorID: id.NewElectorID(), CommitteeCode: "A2"}},
	}
	rows = append(rows, rows[0])

	s.Run("requires admin", func() {
		_, err := s.service.BulkImport(ctx, s.supervisor, rows)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("imports under a suppressed context", func() {
		s.sink.EXPECT().GuaranteeCreated(suppressedCtx{}, gomock.Any()).Times(2)
		res, err := s.service.BulkImport(ctx, s.admin, rows)
		s.Require().NoError(err)
		s.Equal(BulkResult{Imported: 2, Skipped: 1}, res)
	})
}

func (s *ServiceSuite) TestMarkAttendance() {
	ctx := context.Background()
	g := s.createGuarantee(s.user)

	var first models.Attendance
	s.sink.EXPECT().AttendanceSaved(gomock.Any(), gomock.Any(), true).
		Do(func(_ context.Context, a models.Attendance, _ bool) { first = a }).
		Times(1)
	a, err := s.service.MarkAttendance(ctx, s.supervisor, AttendanceInput{ElectorID: g.ElectorID, CommitteeCode: "A1"})
	s.Require().NoError(err)
	s.Equal(s.supervisor.ID, a.MarkedBy)
	s.Equal([]id.PrincipalID{s.user.ID}, first.GuaranteedBy)

	s.sink.EXPECT().AttendanceSaved(gomock.Any(), gomock.Any(), false).Times(1)
	again, err := s.service.MarkAttendance(ctx, s.supervisor, AttendanceInput{ElectorID: g.ElectorID, CommitteeCode: "A1", Notes: "corrected"})
	s.Require().NoError(err)
	s.Equal(a.ID, again.ID)
}

func (s *ServiceSuite) TestVotesAndResults() {
	ctx := context.Background()
	election := id.NewElectionID()
	alice, bob := id.NewCandidateID(), id.NewCandidateID()
	c1, c2 := id.NewCommitteeID(), id.NewCommitteeID()

	s.Run("users cannot enter votes", func() {
		_, _, err := s.service.SaveVoteCount(ctx, s.user, VoteCountInput{ElectionID: election, CommitteeID: c1, CandidateID: alice, Votes: 1})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("negative votes rejected", func() {
		_, _, err := s.service.SaveVoteCount(ctx, s.admin, VoteCountInput{ElectionID: election, CommitteeID: c1, CandidateID: alice, Votes: -1})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("upsert reports created then updated", func() {
		s.sink.EXPECT().VoteCountSaved(gomock.Any(), gomock.Any(), true).Times(3)
		s.sink.EXPECT().VoteCountSaved(gomock.Any(), gomock.Any(), false).Times(1)
		for _, in := range []VoteCountInput{
			{ElectionID: election, CommitteeID: c1, CandidateID: alice, Votes: 10},
			{ElectionID: election, CommitteeID: c1, CandidateID: bob, Votes: 4},
			{ElectionID: election, CommitteeID: c2, CandidateID: bob, Votes: 3},
			{ElectionID: election, CommitteeID: c2, CandidateID: bob, Votes: 9},
		} {
			_, _, err := s.service.SaveVoteCount(ctx, s.supervisor, in)
			s.Require().NoError(err)
		}
	})

	s.Run("results generated then regenerated", func() {
		s.sink.EXPECT().ResultsSaved(gomock.Any(), gomock.Any(), true).Times(1)
		r, created, err := s.service.GenerateResults(ctx, s.admin, election)
		s.Require().NoError(err)
		s.True(created)
		s.Equal(23, r.TotalVotes)
		s.Equal(2, r.CommitteesReporting)
		s.Equal([]models.CandidateTotal{{CandidateID: bob, Votes: 13}, {CandidateID: alice, Votes: 10}}, r.Totals)

		s.sink.EXPECT().ResultsSaved(gomock.Any(), gomock.Any(), false).Times(1)
		again, created, err := s.service.GenerateResults(ctx, s.admin, election)
		s.Require().NoError(err)
		s.False(created)
		s.Equal(r.ID, again.ID)
	})

	s.Run("results require admin", func() {
		_, _, err := s.service.GenerateResults(ctx, s.supervisor, election)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// countingBus counts events that reach the bus through a real emitter.
type countingBus struct {
	mu    sync.Mutex
	kinds []string
}

func (b *countingBus) Publish(_ context.Context, _ string, e events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kinds = append(b.kinds, fmt.Sprintf("%s/%s", e.Kind, e.Action))
	return nil
}

func TestService_EventsThroughEmitter(t *testing.T) {
	ctx := context.Background()
	bus := &countingBus{}
	svc := New(store.NewInMemory(), emitter.New(bus, nil, slog.New(slog.NewTextHandler(io.Discard, nil))))
	admin := &principal.Principal{ID: id.NewPrincipalID(), Role: principal.RoleAdmin, Active: true}

	rows := make([]BulkGuarantee, 50)
	for i := range rows {
		rows[i] = BulkGuarantee{OwnerID: admin.ID, GuaranteeInput: GuaranteeInput{ElectorID: id.NewElectorID(), CommitteeCode: "A1"}}
	}
	_, err := svc.BulkImport(ctx, admin, rows)
	if err != nil {
		t.Fatalf("bulk import: %v", err)
	}
	if len(bus.kinds) != 0 {
		t.Fatalf("bulk import published %d events, want 0", len(bus.kinds))
	}

	g, err := svc.CreateGuarantee(ctx, admin, GuaranteeInput{ElectorID: id.NewElectorID(), CommitteeCode: "A1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateGuarantee(ctx, admin, g.ID, GuaranteePatch{}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.DeleteGuarantee(ctx, admin, g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{
		"GUARANTEE_UPDATE/CREATED",
		"GUARANTEE_UPDATE/UPDATED",
		"GUARANTEE_UPDATE/DELETED",
	}
	if fmt.Sprint(bus.kinds) != fmt.Sprint(want) {
		t.Fatalf("published %v, want %v", bus.kinds, want)
	}
}

// recordingSink keeps guarantee events in the order the service emitted them.
type recordingSink struct {
	mu     sync.Mutex
	events []guaranteeEvent
}

type guaranteeEvent struct {
	action string
	g      models.Guarantee
}

func (r *recordingSink) record(action string, g models.Guarantee) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, guaranteeEvent{action: action, g: g})
}

func (r *recordingSink) GuaranteeCreated(_ context.Context, g models.Guarantee) {
	r.record("created", g)
}
func (r *recordingSink) GuaranteeUpdated(_ context.Context, g models.Guarantee) {
	r.record("updated", g)
}
func (r *recordingSink) GuaranteeDeleted(_ context.Context, g models.Guarantee) {
	r.record("deleted", g)
}
func (r *recordingSink) AttendanceSaved(context.Context, models.Attendance, bool)   {}
func (r *recordingSink) VoteCountSaved(context.Context, models.VoteCount, bool)     {}
func (r *recordingSink) ResultsSaved(context.Context, models.ElectionResults, bool) {}

func TestService_ConcurrentGuaranteeMutations(t *testing.T) {
	const writers = 32

	tests := []struct {
		name       string
		withDelete bool
	}{
		{name: "patches of different fields are never lost"},
		{name: "delete is the last event for the guarantee", withDelete: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := store.NewInMemory()
			sink := &recordingSink{}
			svc := New(st, sink, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
			owner := &principal.Principal{ID: id.NewPrincipalID(), Role: principal.RoleAdmin, Active: true}

			g, err := svc.CreateGuarantee(ctx, owner, GuaranteeInput{ElectorID: id.NewElectorID(), CommitteeCode: "A1"})
			require.NoError(t, err)

			start := make(chan struct{})
			var wg sync.WaitGroup
			for i := range writers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					var patch GuaranteePatch
					if i == writers/2 {
						strong := models.GuaranteeStrong
						patch.Status = &strong
					} else {
						note := fmt.Sprintf("note-%d", i)
						patch.Notes = &note
					}
					_, _ = svc.UpdateGuarantee(ctx, owner, g.ID, patch)
				}()
			}
			if tt.withDelete {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					assert.NoError(t, svc.DeleteGuarantee(ctx, owner, g.ID))
				}()
			}
			close(start)
			wg.Wait()

			evs := sink.events[1:]
			require.NotEmpty(t, evs)

			strongSeen := false
			for i, ev := range evs {
				if ev.action == "deleted" {
					assert.Equal(t, len(evs)-1, i, "no event may follow the delete")
					continue
				}
				if ev.g.Status == models.GuaranteeStrong {
					strongSeen = true
				}
				if strongSeen {
					assert.Equal(t, models.GuaranteeStrong, ev.g.Status, "event %d reverted the status", i)
				}
			}

			last := evs[len(evs)-1]
			if tt.withDelete {
				assert.Equal(t, "deleted", last.action)
				_, err := st.FindGuarantee(ctx, g.ID)
				assert.ErrorIs(t, err, store.ErrNotFound)
				return
			}
			require.Len(t, evs, writers)
			assert.True(t, strongSeen)
			stored, err := st.FindGuarantee(ctx, g.ID)
			require.NoError(t, err)
			assert.Equal(t, last.g, stored, "stored guarantee matches the last event")
		})
	}
}
