package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electionhub/internal/principal/models"
	id "electionhub/pkg/domain"
	"electionhub/pkg/platform/sentinel"
)

func TestInMemory_FindActive(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	supervisorID := id.NewPrincipalID()
	userID := id.NewPrincipalID()
	inactiveID := id.NewPrincipalID()

	require.NoError(t, s.Save(ctx, models.Principal{ID: supervisorID, Role: models.RoleSupervisor, Active: true, Committees: []string{" a1", "A1", "b2"}}))
	require.NoError(t, s.Save(ctx, models.Principal{ID: userID, Role: models.RoleUser, Active: true, SupervisorID: &supervisorID}))
	require.NoError(t, s.Save(ctx, models.Principal{ID: inactiveID, Role: models.RoleUser, Active: false}))

	t.Run("resolves supervisees", func(t *testing.T) {
		p, err := s.FindActive(ctx, supervisorID)
		require.NoError(t, err)
		assert.Equal(t, []id.PrincipalID{userID}, p.Supervisees)
		assert.True(t, p.Supervises(userID))
		assert.Equal(t, []string{"A1", "B2"}, p.Committees)
	})

	t.Run("inactive is indistinguishable from absent", func(t *testing.T) {
		_, err := s.FindActive(ctx, inactiveID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		_, err = s.FindActive(ctx, id.NewPrincipalID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("returned principal is a copy", func(t *testing.T) {
		p, err := s.FindActive(ctx, supervisorID)
		require.NoError(t, err)
		p.Committees[0] = "ZZ"

		again, err := s.FindActive(ctx, supervisorID)
		require.NoError(t, err)
		assert.Equal(t, "A1", again.Committees[0])
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.FindActive(cctx, userID)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDecodeSeed(t *testing.T) {
	adminID := id.NewPrincipalID()
	userID := id.NewPrincipalID()
	doc := `
principals:
  - id: ` + adminID.String() + `
    email: admin@example.org
    role: ADMIN
  - id: ` + userID.String() + `
    email: user@example.org
    role: USER
    supervisor_id: ` + adminID.String() + `
    committees: [c1]
    active: false
`
	principals, err := DecodeSeed(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, principals, 2)

	assert.Equal(t, models.RoleAdmin, principals[0].Role)
	assert.True(t, principals[0].Active, "active defaults to true")
	assert.False(t, principals[1].Active)
	require.NotNil(t, principals[1].SupervisorID)
	assert.Equal(t, adminID, *principals[1].SupervisorID)

	t.Run("rejects unknown roles", func(t *testing.T) {
		_, err := DecodeSeed(strings.NewReader("principals:\n  - id: " + userID.String() + "\n    role: OWNER\n"))
		assert.Error(t, err)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := DecodeSeed(strings.NewReader("principals:\n  - id: " + userID.String() + "\n    role: USER\n    password: x\n"))
		assert.Error(t, err)
	})
}
