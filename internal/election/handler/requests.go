package handler

import (
	"strings"

	"electionhub/internal/election/models"
	"electionhub/internal/election/service"
	id "electionhub/pkg/domain"
	dErrors "electionhub/pkg/domain-errors"
)

const maxNotesLength = 500

// CreateGuaranteeRequest is the body of POST /api/guarantees/.
type CreateGuaranteeRequest struct {
	ElectorID     id.ElectorID `json:"elector_id"`
	CommitteeCode string       `json:"committee_code"`
	Status        string       `json:"status"`
	Notes         string       `json:"notes"`
}

func (r *CreateGuaranteeRequest) Validate() error {
	if r.ElectorID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "elector_id is required")
	}
	if strings.TrimSpace(r.CommitteeCode) == "" {
		return dErrors.New(dErrors.CodeValidation, "committee_code is required")
	}
	if len(r.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes must be at most 500 characters")
	}
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	return nil
}

func (r *CreateGuaranteeRequest) input() service.GuaranteeInput {
	return service.GuaranteeInput{
		ElectorID:     r.ElectorID,
		CommitteeCode: r.CommitteeCode,
		Status:        models.GuaranteeStatus(r.Status),
		Notes:         r.Notes,
	}
}

// UpdateGuaranteeRequest is the body of PATCH /api/guarantees/{id}/.
type UpdateGuaranteeRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

func (r *UpdateGuaranteeRequest) Validate() error {
	if r.Status == nil && r.Notes == nil {
		return dErrors.New(dErrors.CodeValidation, "status or notes is required")
	}
	if r.Notes != nil && len(*r.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes must be at most 500 characters")
	}
	return nil
}

func (r *UpdateGuaranteeRequest) patch() service.GuaranteePatch {
	var p service.GuaranteePatch
	if r.Status != nil {
		status := models.GuaranteeStatus(strings.ToUpper(strings.TrimSpace(*r.Status)))
		p.Status = &status
	}
	p.Notes = r.Notes
	return p
}

// BulkImportRequest is the body of POST /api/guarantees/bulk/.
type BulkImportRequest struct {
	Guarantees []BulkGuaranteeRow `json:"guarantees"`
}

// BulkGuaranteeRow is one imported guarantee.
type BulkGuaranteeRow struct {
	OwnerID id.PrincipalID `json:"owner_id"`
	CreateGuaranteeRequest
}

func (r *BulkImportRequest) Validate() error {
	if len(r.Guarantees) == 0 {
		return dErrors.New(dErrors.CodeValidation, "guarantees must not be empty")
	}
	for i := range r.Guarantees {
		if err := r.Guarantees[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *BulkImportRequest) rows() []service.BulkGuarantee {
	out := make([]service.BulkGuarantee, 0, len(r.Guarantees))
	for _, row := range r.Guarantees {
		out = append(out, service.BulkGuarantee{OwnerID: row.OwnerID, GuaranteeInput: row.input()})
	}
	return out
}

// AttendanceRequest is the body of POST /api/attendance/.
type AttendanceRequest struct {
	ElectorID     id.ElectorID `json:"elector_id"`
	CommitteeCode string       `json:"committee_code"`
	Notes         string       `json:"notes"`
}

func (r *AttendanceRequest) Validate() error {
	if r.ElectorID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "elector_id is required")
	}
	if len(r.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes must be at most 500 characters")
	}
	return nil
}

// VoteCountRequest is the body of PUT /api/vote-counts/.
type VoteCountRequest struct {
	ElectionID  id.ElectionID  `json:"election_id"`
	CommitteeID id.CommitteeID `json:"committee_id"`
	CandidateID id.CandidateID `json:"candidate_id"`
	Votes       int            `json:"votes"`
}

func (r *VoteCountRequest) Validate() error {
	if r.ElectionID.IsNil() || r.CommitteeID.IsNil() || r.CandidateID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "election_id, committee_id and candidate_id are required")
	}
	if r.Votes < 0 {
		return dErrors.New(dErrors.CodeValidation, "votes must not be negative")
	}
	return nil
}
