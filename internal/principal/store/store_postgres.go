package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"electionhub/internal/principal/models"
	id "electionhub/pkg/domain"
	pstrings "electionhub/pkg/platform/strings"
	"electionhub/pkg/platform/tx"
)

// Postgres reads principals from the operator directory tables. The schema is
// owned by the account service; only SELECTs are issued here.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) conn(ctx context.Context) queryer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// FindActive loads the principal and its direct supervisees from one
// snapshot so a concurrent reassignment is never half observed.
func (s *Postgres) FindActive(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error) {
	var found *models.Principal
	err := tx.ReadOnly(ctx, s.db, func(ctx context.Context) error {
		p, err := s.findActive(ctx, principalID)
		if err != nil {
			return err
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Postgres) findActive(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error) {
	q := s.conn(ctx)

	var (
		p            models.Principal
		rawID        string
		role         string
		supervisorID sql.NullString
		committees   []string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, email, role, supervisor_id, committee_codes, active
		FROM principals
		WHERE id = $1 AND active
	`, principalID.String()).Scan(&rawID, &p.Email, &role, &supervisorID, pq.Array(&committees), &p.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find principal: %w", err)
	}

	p.ID = principalID
	p.Role = models.Role(role)
	p.Committees = pstrings.CommitteeCodes(committees)
	if supervisorID.Valid {
		sup, err := id.ParsePrincipalID(supervisorID.String)
		if err != nil {
			return nil, fmt.Errorf("find principal: supervisor id: %w", err)
		}
		p.SupervisorID = &sup
	}

	rows, err := q.QueryContext(ctx, `SELECT id FROM principals WHERE supervisor_id = $1`, principalID.String())
	if err != nil {
		return nil, fmt.Errorf("find supervisees: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan supervisee: %w", err)
		}
		supervisee, err := id.ParsePrincipalID(raw)
		if err != nil {
			return nil, fmt.Errorf("scan supervisee: %w", err)
		}
		p.Supervisees = append(p.Supervisees, supervisee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find supervisees: %w", err)
	}
	return &p, nil
}
