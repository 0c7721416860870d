package service

import (
	"context"
	"errors"
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

func newGuarantee(ctx context.Context, owner id.PrincipalID, in GuaranteeInput) (models.Guarantee, error) {
	if in.ElectorID.IsNil() {
		return models.Guarantee{}, dErrors.New(dErrors.CodeValidation, "elector_id is required")
	}
	status := in.Status
	if status == "" {
		status = models.GuaranteePending
	}
	if !status.IsValid() {
		return models.Guarantee{}, dErrors.New(dErrors.CodeValidation, "unknown guarantee status")
	}
	code := pstrings.CommitteeCode(in.CommitteeCode)
	if code == "" {
		return models.Guarantee{}, dErrors.New(dErrors.CodeValidation, "committee_code is required")
	}
	now := requestcontext.Now(ctx)
	return models.Guarantee{
		ID:            id.NewGuaranteeID(),
		ElectorID:     in.ElectorID,
		OwnerID:       owner,
		CommitteeCode: code,
		Status:        status,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func requireActor(actor *principal.Principal) error {
	if actor == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

func requireAdmin(actor *principal.Principal) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.Role.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}

// requireCommittee checks that a non-admin works in the committee. Admins and
// principals without committee assignments are not restricted.
func requireCommittee(actor *principal.Principal, code string) error {
	if actor.Role.IsAdmin() || len(actor.Committees) == 0 || code == "" {
		return nil
	}
	if !slices.Contains(actor.Committees, code) {
		return dErrors.New(dErrors.CodeForbidden, "not assigned to committee "+code)
	}
	return nil
}

// canManage reports whether actor may change records owned by owner.
func canManage(actor *principal.Principal, owner id.PrincipalID) bool {
	if actor.Role.IsAdmin() || actor.ID == owner {
		return true
	}
	return actor.Role == principal.RoleSupervisor && actor.Supervises(owner)
}

func wrapStoreErr(err error, entity string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, entity+" already exists")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request cancelled")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store "+entity)
	}
}
