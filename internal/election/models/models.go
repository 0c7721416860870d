package models

import (
	"time"

	id "electionhub/pkg/domain"
)

// GuaranteeStatus is how firmly an elector has pledged their vote.
type GuaranteeStatus string

const (
	GuaranteeStrong  GuaranteeStatus = "STRONG"
	GuaranteeMedium  GuaranteeStatus = "MEDIUM"
	GuaranteeWeak    GuaranteeStatus = "WEAK"
	GuaranteePending GuaranteeStatus = "PENDING"
)

// IsValid reports whether s is a known status.
func (s GuaranteeStatus) IsValid() bool {
	switch s {
	case GuaranteeStrong, GuaranteeMedium, GuaranteeWeak, GuaranteePending:
		return true
	}
	return false
}

// Guarantee records that an operator (the owner) secured an elector's pledge.
type Guarantee struct {
	ID            id.GuaranteeID
	ElectorID     id.ElectorID
	OwnerID       id.PrincipalID
	CommitteeCode string
	Status        GuaranteeStatus
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Attendance marks an elector as having voted on election day.
type Attendance struct {
	ID            id.AttendanceID
	ElectorID     id.ElectorID
	CommitteeCode string
	MarkedBy      id.PrincipalID
	MarkedAt      time.Time
	Notes         string
	// GuaranteedBy lists owners of guarantees for this elector, captured
	// when the attendance is saved.
	GuaranteedBy []id.PrincipalID
}

// VoteCount is the tally entered for one candidate at one committee.
type VoteCount struct {
	ID          id.VoteCountID
	ElectionID  id.ElectionID
	CommitteeID id.CommitteeID
	CandidateID id.CandidateID
	Votes       int
	EnteredBy   id.PrincipalID
	UpdatedAt   time.Time
}

// CandidateTotal is a candidate's aggregated vote count.
type CandidateTotal struct {
	CandidateID id.CandidateID
	Votes       int
}

// ElectionResults aggregates every vote count of an election.
type ElectionResults struct {
	ID                  id.ResultsID
	ElectionID          id.ElectionID
	Totals              []CandidateTotal
	TotalVotes          int
	CommitteesReporting int
	GeneratedBy         id.PrincipalID
	GeneratedAt         time.Time
}
