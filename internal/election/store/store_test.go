package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electionhub/internal/election/models"
	id "electionhub/pkg/domain"
)

func newGuarantee(owner id.PrincipalID, elector id.ElectorID) models.Guarantee {
	return models.Guarantee{
		ID:        id.NewGuaranteeID(),
		ElectorID: elector,
		OwnerID:   owner,
		Status:    models.GuaranteePending,
		CreatedAt: time.Now(),
	}
}

func TestGuaranteeLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	owner := id.NewPrincipalID()
	g := newGuarantee(owner, id.NewElectorID())

	require.NoError(t, s.CreateGuarantee(ctx, g))
	assert.ErrorIs(t, s.CreateGuarantee(ctx, newGuarantee(owner, g.ElectorID)), ErrConflict)

	g.Status = models.GuaranteeStrong
	require.NoError(t, s.UpdateGuarantee(ctx, g))
	found, err := s.FindGuarantee(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GuaranteeStrong, found.Status)

	deleted, err := s.DeleteGuarantee(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, deleted.ID)

	_, err = s.FindGuarantee(ctx, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.DeleteGuarantee(ctx, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateGuarantee(ctx, g), ErrNotFound)
}

func TestListGuaranteesAndGuarantors(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	alice, bob := id.NewPrincipalID(), id.NewPrincipalID()
	elector := id.NewElectorID()

	require.NoError(t, s.CreateGuarantee(ctx, newGuarantee(alice, elector)))
	require.NoError(t, s.CreateGuarantee(ctx, newGuarantee(bob, elector)))
	require.NoError(t, s.CreateGuarantee(ctx, newGuarantee(alice, id.NewElectorID())))

	all, err := s.ListGuarantees(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := s.ListGuarantees(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	owners, err := s.GuarantorsOf(ctx, elector)
	require.NoError(t, err)
	assert.ElementsMatch(t, []id.PrincipalID{alice, bob}, owners)
}

func TestUpserts(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	t.Run("attendance keeps first id", func(t *testing.T) {
		elector := id.NewElectorID()
		first, created, err := s.SaveAttendance(ctx, models.Attendance{ID: id.NewAttendanceID(), ElectorID: elector})
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := s.SaveAttendance(ctx, models.Attendance{ID: id.NewAttendanceID(), ElectorID: elector, Notes: "late"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)

		attended, err := s.AttendedElectors(ctx)
		require.NoError(t, err)
		assert.Contains(t, attended, elector)
	})

	t.Run("vote count keyed by committee and candidate", func(t *testing.T) {
		vc := models.VoteCount{ID: id.NewVoteCountID(), ElectionID: id.NewElectionID(), CommitteeID: id.NewCommitteeID(), CandidateID: id.NewCandidateID(), Votes: 3}
		_, created, err := s.UpsertVoteCount(ctx, vc)
		require.NoError(t, err)
		assert.True(t, created)

		vc2 := vc
		vc2.ID = id.NewVoteCountID()
		vc2.Votes = 5
		saved, created, err := s.UpsertVoteCount(ctx, vc2)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, vc.ID, saved.ID)

		counts, err := s.VoteCounts(ctx, vc.ElectionID)
		require.NoError(t, err)
		require.Len(t, counts, 1)
		assert.Equal(t, 5, counts[0].Votes)
	})

	t.Run("results replace earlier results", func(t *testing.T) {
		election := id.NewElectionID()
		_, created, err := s.SaveResults(ctx, models.ElectionResults{ID: id.NewResultsID(), ElectionID: election, TotalVotes: 1})
		require.NoError(t, err)
		assert.True(t, created)
		_, created, err = s.SaveResults(ctx, models.ElectionResults{ID: id.NewResultsID(), ElectionID: election, TotalVotes: 9})
		require.NoError(t, err)
		assert.False(t, created)

		r, err := s.FindResults(ctx, election)
		require.NoError(t, err)
		assert.Equal(t, 9, r.TotalVotes)
	})
}
