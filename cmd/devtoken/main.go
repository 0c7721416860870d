// Command devtoken issues signed credentials for local development against a
// seeded principal store.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	jwttoken "electionhub/internal/jwt_token"
	"electionhub/internal/platform/config"
	"electionhub/internal/principal/store"
	id "electionhub/pkg/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		principalID string
		email       string
		seedFile    string
		ttl         time.Duration
	)

	cmd := &cobra.Command{
		Use:          "devtoken",
		Short:        "Issue a development credential for a principal",
		Long:         "Signs a credential with JWT_SIGNING_KEY, JWT_ISSUER and JWT_AUDIENCE from the environment.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			pid, err := resolvePrincipal(cmd, principalID, email, seedFile)
			if err != nil {
				return err
			}

			verifier := jwttoken.NewVerifier(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
			token, err := verifier.Issue(pid, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&principalID, "principal", "", "Principal id to issue the credential for")
	cmd.Flags().StringVar(&email, "email", "", "Look the principal up by email in the seed file")
	cmd.Flags().StringVar(&seedFile, "seed", os.Getenv("SEED_FILE"), "Seed file used with --email")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Credential lifetime")
	cmd.MarkFlagsMutuallyExclusive("principal", "email")
	cmd.MarkFlagsOneRequired("principal", "email")

	return cmd
}

func resolvePrincipal(cmd *cobra.Command, principalID, email, seedFile string) (id.PrincipalID, error) {
	if principalID != "" {
		return id.ParsePrincipalID(principalID)
	}
	if seedFile == "" {
		return id.PrincipalID{}, fmt.Errorf("--email requires --seed or SEED_FILE")
	}

	f, err := os.Open(seedFile)
	if err != nil {
		return id.PrincipalID{}, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	principals, err := store.DecodeSeed(f)
	if err != nil {
		return id.PrincipalID{}, err
	}
	for _, p := range principals {
		if strings.EqualFold(p.Email, email) {
			if !p.Active {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s is inactive; the credential will be rejected\n", p.Email)
			}
			return p.ID, nil
		}
	}
	return id.PrincipalID{}, fmt.Errorf("no principal with email %q in %s", email, seedFile)
}
