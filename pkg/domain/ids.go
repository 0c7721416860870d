package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "electionhub/pkg/domain-errors"
)

// Typed identifiers keep principals, sessions, and election entities from being
// swapped at call sites. All are UUIDs on the wire.
//
// Construct from external input with the Parse* functions; they reject empty,
// malformed, and nil UUIDs.

type PrincipalID uuid.UUID

// NewPrincipalID returns a random PrincipalID.
func NewPrincipalID() PrincipalID { return PrincipalID(uuid.New()) }

// ParsePrincipalID validates s as a non-nil UUID.
func ParsePrincipalID(s string) (PrincipalID, error) {
	u, err := parseUUID(s, "principal_id")
	return PrincipalID(u), err
}

func (id PrincipalID) String() string { return uuid.UUID(id).String() }
func (id PrincipalID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id PrincipalID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *PrincipalID) UnmarshalText(b []byte) error {
	parsed, err := ParsePrincipalID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type SessionID uuid.UUID

// NewSessionID returns a random SessionID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// ParseSessionID validates s as a non-nil UUID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session_id")
	return SessionID(u), err
}

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id SessionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *SessionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSessionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type GuaranteeID uuid.UUID

// NewGuaranteeID returns a random GuaranteeID.
func NewGuaranteeID() GuaranteeID { return GuaranteeID(uuid.New()) }

// ParseGuaranteeID validates s as a non-nil UUID.
func ParseGuaranteeID(s string) (GuaranteeID, error) {
	u, err := parseUUID(s, "guarantee_id")
	return GuaranteeID(u), err
}

func (id GuaranteeID) String() string { return uuid.UUID(id).String() }
func (id GuaranteeID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id GuaranteeID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *GuaranteeID) UnmarshalText(b []byte) error {
	parsed, err := ParseGuaranteeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type ElectorID uuid.UUID

// NewElectorID returns a random ElectorID.
func NewElectorID() ElectorID { return ElectorID(uuid.New()) }

// ParseElectorID validates s as a non-nil UUID.
func ParseElectorID(s string) (ElectorID, error) {
	u, err := parseUUID(s, "elector_id")
	return ElectorID(u), err
}

func (id ElectorID) String() string { return uuid.UUID(id).String() }
func (id ElectorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id ElectorID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ElectorID) UnmarshalText(b []byte) error {
	parsed, err := ParseElectorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type AttendanceID uuid.UUID

// NewAttendanceID returns a random AttendanceID.
func NewAttendanceID() AttendanceID { return AttendanceID(uuid.New()) }

// ParseAttendanceID validates s as a non-nil UUID.
func ParseAttendanceID(s string) (AttendanceID, error) {
	u, err := parseUUID(s, "attendance_id")
	return AttendanceID(u), err
}

func (id AttendanceID) String() string { return uuid.UUID(id).String() }
func (id AttendanceID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id AttendanceID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *AttendanceID) UnmarshalText(b []byte) error {
	parsed, err := ParseAttendanceID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type CommitteeID uuid.UUID

// NewCommitteeID returns a random CommitteeID.
func NewCommitteeID() CommitteeID { return CommitteeID(uuid.New()) }

// ParseCommitteeID validates s as a non-nil UUID.
func ParseCommitteeID(s string) (CommitteeID, error) {
	u, err := parseUUID(s, "committee_id")
	return CommitteeID(u), err
}

func (id CommitteeID) String() string { return uuid.UUID(id).String() }
func (id CommitteeID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id CommitteeID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *CommitteeID) UnmarshalText(b []byte) error {
	parsed, err := ParseCommitteeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type CandidateID uuid.UUID

// NewCandidateID returns a random CandidateID.
func NewCandidateID() CandidateID { return CandidateID(uuid.New()) }

// ParseCandidateID validates s as a non-nil UUID.
func ParseCandidateID(s string) (CandidateID, error) {
	u, err := parseUUID(s, "candidate_id")
	return CandidateID(u), err
}

func (id CandidateID) String() string { return uuid.UUID(id).String() }
func (id CandidateID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id CandidateID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *CandidateID) UnmarshalText(b []byte) error {
	parsed, err := ParseCandidateID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type VoteCountID uuid.UUID

// NewVoteCountID returns a random VoteCountID.
func NewVoteCountID() VoteCountID { return VoteCountID(uuid.New()) }

// ParseVoteCountID validates s as a non-nil UUID.
func ParseVoteCountID(s string) (VoteCountID, error) {
	u, err := parseUUID(s, "vote_count_id")
	return VoteCountID(u), err
}

func (id VoteCountID) String() string { return uuid.UUID(id).String() }
func (id VoteCountID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id VoteCountID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *VoteCountID) UnmarshalText(b []byte) error {
	parsed, err := ParseVoteCountID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type ElectionID uuid.UUID

// NewElectionID returns a random ElectionID.
func NewElectionID() ElectionID { return ElectionID(uuid.New()) }

// ParseElectionID validates s as a non-nil UUID.
func ParseElectionID(s string) (ElectionID, error) {
	u, err := parseUUID(s, "election_id")
	return ElectionID(u), err
}

func (id ElectionID) String() string { return uuid.UUID(id).String() }
func (id ElectionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id ElectionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ElectionID) UnmarshalText(b []byte) error {
	parsed, err := ParseElectionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type ResultsID uuid.UUID

// NewResultsID returns a random ResultsID.
func NewResultsID() ResultsID { return ResultsID(uuid.New()) }

// ParseResultsID validates s as a non-nil UUID.
func ParseResultsID(s string) (ResultsID, error) {
	u, err := parseUUID(s, "results_id")
	return ResultsID(u), err
}

func (id ResultsID) String() string { return uuid.UUID(id).String() }
func (id ResultsID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id ResultsID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ResultsID) UnmarshalText(b []byte) error {
	parsed, err := ParseResultsID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	return u, nil
}
