package emitter

import (
	"electionhub/internal/election/models"
	"electionhub/internal/realtime/events"
	id "electionhub/pkg/domain"
)

// Projections turn committed entities into wire payloads. They only read the
// values they are given.

type guaranteePayload struct {
	ID            id.GuaranteeID `json:"id"`
	ElectorID     id.ElectorID   `json:"elector_id"`
	OwnerID       id.PrincipalID `json:"owner_id"`
	CommitteeCode string         `json:"committee_code"`
	Status        string         `json:"status"`
	Notes         string         `json:"notes,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

type deletedGuaranteePayload struct {
	ID        id.GuaranteeID `json:"id"`
	ElectorID id.ElectorID   `json:"elector_id"`
	OwnerID   id.PrincipalID `json:"owner_id"`
}

type attendancePayload struct {
	ID            id.AttendanceID `json:"id"`
	ElectorID     id.ElectorID    `json:"elector_id"`
	CommitteeCode string          `json:"committee_code"`
	MarkedBy      id.PrincipalID  `json:"marked_by"`
	MarkedAt      string          `json:"marked_at"`
	Notes         string          `json:"notes,omitempty"`
}

type voteCountPayload struct {
	ID          id.VoteCountID `json:"id"`
	ElectionID  id.ElectionID  `json:"election_id"`
	CandidateID id.CandidateID `json:"candidate_id"`
	Votes       int            `json:"votes"`
	EnteredBy   id.PrincipalID `json:"entered_by"`
	UpdatedAt   string         `json:"updated_at"`
}

type votingPayload struct {
	VoteCount   voteCountPayload `json:"vote_count"`
	CommitteeID id.CommitteeID   `json:"committee_id"`
}

type candidateTotalPayload struct {
	CandidateID id.CandidateID `json:"candidate_id"`
	Votes       int            `json:"votes"`
}

type resultsSummaryPayload struct {
	ID                  id.ResultsID            `json:"id"`
	Totals              []candidateTotalPayload `json:"totals"`
	TotalVotes          int                     `json:"total_votes"`
	CommitteesReporting int                     `json:"committees_reporting"`
	GeneratedAt         string                  `json:"generated_at"`
}

type resultsPayload struct {
	Results    resultsSummaryPayload `json:"results"`
	ActionType string                `json:"action_type"`
	ElectionID id.ElectionID         `json:"election_id"`
}

type dashboardPayload struct {
	Scope   string `json:"scope"`
	Message string `json:"message"`
}

func projectGuarantee(g models.Guarantee) guaranteePayload {
	return guaranteePayload{
		ID:            g.ID,
		ElectorID:     g.ElectorID,
		OwnerID:       g.OwnerID,
		CommitteeCode: g.CommitteeCode,
		Status:        string(g.Status),
		Notes:         g.Notes,
		CreatedAt:     events.FormatTimestamp(g.CreatedAt),
		UpdatedAt:     events.FormatTimestamp(g.UpdatedAt),
	}
}

func projectDeletedGuarantee(g models.Guarantee) deletedGuaranteePayload {
	return deletedGuaranteePayload{ID: g.ID, ElectorID: g.ElectorID, OwnerID: g.OwnerID}
}

func projectAttendance(a models.Attendance) attendancePayload {
	return attendancePayload{
		ID:            a.ID,
		ElectorID:     a.ElectorID,
		CommitteeCode: a.CommitteeCode,
		MarkedBy:      a.MarkedBy,
		MarkedAt:      events.FormatTimestamp(a.MarkedAt),
		Notes:         a.Notes,
	}
}

func projectVoteCount(vc models.VoteCount) votingPayload {
	return votingPayload{
		VoteCount: voteCountPayload{
			ID:          vc.ID,
			ElectionID:  vc.ElectionID,
			CandidateID: vc.CandidateID,
			Votes:       vc.Votes,
			EnteredBy:   vc.EnteredBy,
			UpdatedAt:   events.FormatTimestamp(vc.UpdatedAt),
		},
		CommitteeID: vc.CommitteeID,
	}
}

func projectResults(r models.ElectionResults, actionType string) resultsPayload {
	totals := make([]candidateTotalPayload, 0, len(r.Totals))
	for _, t := range r.Totals {
		totals = append(totals, candidateTotalPayload{CandidateID: t.CandidateID, Votes: t.Votes})
	}
	return resultsPayload{
		Results: resultsSummaryPayload{
			ID:                  r.ID,
			Totals:              totals,
			TotalVotes:          r.TotalVotes,
			CommitteesReporting: r.CommitteesReporting,
			GeneratedAt:         events.FormatTimestamp(r.GeneratedAt),
		},
		ActionType: actionType,
		ElectionID: r.ElectionID,
	}
}
