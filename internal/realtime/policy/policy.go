// Package policy decides which principals may read which domain events.
package policy

import (
	"slices"

	"electionhub/internal/principal/models"
	"electionhub/internal/realtime/events"
)

// MayReceive reports whether p may see e. It is pure and never blocks.
//
// An event with no affected principals and no scope reaches admins only.
func MayReceive(p *models.Principal, e events.Event) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case models.RoleAdmin, models.RoleSuperAdmin:
		return true
	case models.RoleSupervisor:
		if e.Kind == events.KindDashboard && (e.Scope == events.ScopeSupervisor || e.Scope == events.ScopeAll) {
			return true
		}
		if e.Affects(p.ID) {
			return true
		}
		return slices.ContainsFunc(e.AffectedPrincipals, p.Supervises)
	case models.RoleUser:
		if e.Affects(p.ID) {
			return true
		}
		if len(e.AffectedPrincipals) > 0 {
			return false
		}
		return (e.Kind == events.KindGuarantee || e.Kind == events.KindAttendance) && e.OwnerID == p.ID
	default:
		return false
	}
}
