package store

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"electionhub/internal/principal/models"
	id "electionhub/pkg/domain"
)

type seedFile struct {
	Principals []seedPrincipal `yaml:"principals"`
}

type seedPrincipal struct {
	ID           string   `yaml:"id"`
	Email        string   `yaml:"email"`
	Role         string   `yaml:"role"`
	SupervisorID string   `yaml:"supervisor_id"`
	Committees   []string `yaml:"committees"`
	Active       *bool    `yaml:"active"`
}

// DecodeSeed parses a YAML principal directory. Principals are active unless
// the document says otherwise.
func DecodeSeed(r io.Reader) ([]models.Principal, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc seedFile
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	out := make([]models.Principal, 0, len(doc.Principals))
	for i, sp := range doc.Principals {
		pid, err := id.ParsePrincipalID(sp.ID)
		if err != nil {
			return nil, fmt.Errorf("seed principal %d: %w", i, err)
		}
		role := models.Role(sp.Role)
		if !role.IsValid() {
			return nil, fmt.Errorf("seed principal %d: unknown role %q", i, sp.Role)
		}
		p := models.Principal{
			ID:         pid,
			Email:      sp.Email,
			Role:       role,
			Committees: sp.Committees,
			Active:     sp.Active == nil || *sp.Active,
		}
		if sp.SupervisorID != "" {
			sup, err := id.ParsePrincipalID(sp.SupervisorID)
			if err != nil {
				return nil, fmt.Errorf("seed principal %d: %w", i, err)
			}
			p.SupervisorID = &sup
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadSeedFile reads path and saves every principal into s.
func LoadSeedFile(ctx context.Context, s *InMemory, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	principals, err := DecodeSeed(f)
	if err != nil {
		return 0, err
	}
	for _, p := range principals {
		if err := s.Save(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(principals), nil
}
