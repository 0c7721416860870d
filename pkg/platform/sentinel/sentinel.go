package sentinel

import "errors"

// Infrastructure facts. Stores, caches, and the bus return these (optionally
// wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: record does not exist, or a principal is inactive
//   - ErrConflict: write collides with existing state
//   - ErrExpired: cached entry outlived its TTL
//   - ErrUnavailable: backend temporarily unreachable (redis, postgres, kafka)
//   - ErrClosed: component has been shut down
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
	ErrClosed      = errors.New("closed")
)
