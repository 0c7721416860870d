// Package store provides principal lookups for authentication.
package store

import (
	"context"

	"electionhub/internal/principal/models"
	id "electionhub/pkg/domain"
	"electionhub/pkg/platform/sentinel"
)

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

// ErrNotFound is returned for missing and inactive principals alike.
var ErrNotFound = sentinel.ErrNotFound

// Store looks up active principals. Implementations must honour ctx so a
// handshake deadline bounds the lookup.
type Store interface {
	FindActive(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error)
}
