package testutil

import (
	"net/http"

	"electionhub/internal/platform/middleware"
	"electionhub/internal/principal/models"
	id "electionhub/pkg/domain"
)

// WithPrincipal attaches an authenticated principal to the request context.
// This simulates what RequireAuth does after a successful lookup.
func WithPrincipal(req *http.Request, p *models.Principal) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), p))
}

// NewPrincipal builds an active principal with a fresh ID.
func NewPrincipal(role models.Role, committees ...string) *models.Principal {
	return &models.Principal{
		ID:         id.NewPrincipalID(),
		Email:      string(role) + "@example.test",
		Role:       role,
		Committees: committees,
		Active:     true,
	}
}
