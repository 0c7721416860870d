package handler

import (
	"time"

	"electionhub/internal/election/models"
	id "electionhub/pkg/domain"
)

type guaranteeResponse struct {
	ID            id.GuaranteeID `json:"id"`
	ElectorID     id.ElectorID   `json:"elector_id"`
	OwnerID       id.PrincipalID `json:"owner_id"`
	CommitteeCode string         `json:"committee_code"`
	Status        string         `json:"status"`
	Notes         string         `json:"notes,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func toGuaranteeResponse(g models.Guarantee) guaranteeResponse {
	return guaranteeResponse{
		ID:            g.ID,
		ElectorID:     g.ElectorID,
		OwnerID:       g.OwnerID,
		CommitteeCode: g.CommitteeCode,
		Status:        string(g.Status),
		Notes:         g.Notes,
		CreatedAt:     g.CreatedAt.UTC(),
		UpdatedAt:     g.UpdatedAt.UTC(),
	}
}

type attendanceResponse struct {
	ID            id.AttendanceID `json:"id"`
	ElectorID     id.ElectorID    `json:"elector_id"`
	CommitteeCode string          `json:"committee_code"`
	MarkedBy      id.PrincipalID  `json:"marked_by"`
	MarkedAt      time.Time       `json:"marked_at"`
	Notes         string          `json:"notes,omitempty"`
}

func toAttendanceResponse(a models.Attendance) attendanceResponse {
	return attendanceResponse{
		ID:            a.ID,
		ElectorID:     a.ElectorID,
		CommitteeCode: a.CommitteeCode,
		MarkedBy:      a.MarkedBy,
		MarkedAt:      a.MarkedAt.UTC(),
		Notes:         a.Notes,
	}
}

type voteCountResponse struct {
	ID          id.VoteCountID `json:"id"`
	ElectionID  id.ElectionID  `json:"election_id"`
	CommitteeID id.CommitteeID `json:"committee_id"`
	CandidateID id.CandidateID `json:"candidate_id"`
	Votes       int            `json:"votes"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func toVoteCountResponse(vc models.VoteCount) voteCountResponse {
	return voteCountResponse{
		ID:          vc.ID,
		ElectionID:  vc.ElectionID,
		CommitteeID: vc.CommitteeID,
		CandidateID: vc.CandidateID,
		Votes:       vc.Votes,
		UpdatedAt:   vc.UpdatedAt.UTC(),
	}
}

type candidateTotalResponse struct {
	CandidateID id.CandidateID `json:"candidate_id"`
	Votes       int            `json:"votes"`
}

type resultsResponse struct {
	ID                  id.ResultsID             `json:"id"`
	ElectionID          id.ElectionID            `json:"election_id"`
	Totals              []candidateTotalResponse `json:"totals"`
	TotalVotes          int                      `json:"total_votes"`
	CommitteesReporting int                      `json:"committees_reporting"`
	GeneratedAt         time.Time                `json:"generated_at"`
}

func toResultsResponse(r models.ElectionResults) resultsResponse {
	totals := make([]candidateTotalResponse, 0, len(r.Totals))
	for _, t := range r.Totals {
		totals = append(totals, candidateTotalResponse{CandidateID: t.CandidateID, Votes: t.Votes})
	}
	return resultsResponse{
		ID:                  r.ID,
		ElectionID:          r.ElectionID,
		Totals:              totals,
		TotalVotes:          r.TotalVotes,
		CommitteesReporting: r.CommitteesReporting,
		GeneratedAt:         r.GeneratedAt.UTC(),
	}
}
