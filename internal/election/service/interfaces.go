package service

import (
	"context"

	"electionhub/internal/election/models"
	id "electionhub/pkg/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

// Store persists election records.
type Store interface {
	CreateGuarantee(ctx context.Context, g models.Guarantee) error
	FindGuarantee(ctx context.Context, guaranteeID id.GuaranteeID) (models.Guarantee, error)
	UpdateGuarantee(ctx context.Context, g models.Guarantee) error
	DeleteGuarantee(ctx context.Context, guaranteeID id.GuaranteeID) (models.Guarantee, error)
	GuarantorsOf(ctx context.Context, elector id.ElectorID) ([]id.PrincipalID, error)
	SaveAttendance(ctx context.Context, a models.Attendance) (models.Attendance, bool, error)
	UpsertVoteCount(ctx context.Context, vc models.VoteCount) (models.VoteCount, bool, error)
	VoteCounts(ctx context.Context, election id.ElectionID) ([]models.VoteCount, error)
	SaveResults(ctx context.Context, r models.ElectionResults) (models.ElectionResults, bool, error)
}

// EventSink receives committed mutations. Implementations must not block
// and must not fail the caller.
type EventSink interface {
	GuaranteeCreated(ctx context.Context, g models.Guarantee)
	GuaranteeUpdated(ctx context.Context, g models.Guarantee)
	GuaranteeDeleted(ctx context.Context, g models.Guarantee)
	AttendanceSaved(ctx context.Context, a models.Attendance, created bool)
	VoteCountSaved(ctx context.Context, vc models.VoteCount, created bool)
	ResultsSaved(ctx context.Context, r models.ElectionResults, created bool)
}
