package models

import (
	"slices"

	id "electionhub/pkg/domain"
)

// Role determines what a principal may see on the update channel.
type Role string

const (
	RoleUser       Role = "USER"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleSupervisor, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether r sees every event.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Principal is an operator account. It is created and edited elsewhere and is
// read-only here.
type Principal struct {
	ID           id.PrincipalID
	Email        string
	Role         Role
	SupervisorID *id.PrincipalID
	// Committees holds the committee codes the principal may access.
	Committees []string
	Active     bool
	// Supervisees are the principals whose supervisor is this one, resolved
	// when the principal is loaded.
	Supervisees []id.PrincipalID
}

// Supervises reports whether other reports to p.
func (p *Principal) Supervises(other id.PrincipalID) bool {
	return slices.Contains(p.Supervisees, other)
}

// Clone returns a deep copy so callers can freeze a snapshot.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	c := *p
	if p.SupervisorID != nil {
		sup := *p.SupervisorID
		c.SupervisorID = &sup
	}
	c.Committees = slices.Clone(p.Committees)
	c.Supervisees = slices.Clone(p.Supervisees)
	return &c
}
