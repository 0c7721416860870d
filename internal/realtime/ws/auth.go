package ws

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	jwttoken "electionhub/internal/jwt_token"
	"electionhub/internal/platform/tracing"
	"electionhub/internal/principal/models"
	"electionhub/internal/realtime/registry"
	"electionhub/pkg/platform/sentinel"
)

// rejection explains why a handshake did not reach OPEN.
type rejection struct {
	code   registry.CloseCode
	reason string
	label  string
	err    error
}

type authResult struct {
	principal *models.Principal
	rejection *rejection
}

// authenticate verifies the credential and loads the principal. The lookup
// runs in its own goroutine so the handshake deadline holds even when the
// store does not honour ctx.
func (h *Handler) authenticate(ctx context.Context, token string) (*models.Principal, *rejection) {
	ctx, span := tracing.Start(ctx, "ws", "handshake")
	defer span.End()

	if token == "" {
		return nil, &rejection{code: registry.CloseUnauthorized, reason: "authentication required", label: "missing_token"}
	}

	done := make(chan authResult, 1)
	go func() {
		p, rej := h.resolve(ctx, token)
		done <- authResult{principal: p, rejection: rej}
	}()

	select {
	case res := <-done:
		if res.rejection != nil {
			tracing.Fail(span, res.rejection.err)
			return nil, res.rejection
		}
		span.SetAttributes(attribute.String("principal.id", res.principal.ID.String()))
		return res.principal, nil
	case <-ctx.Done():
		tracing.Fail(span, ctx.Err())
		return nil, &rejection{code: registry.CloseAuthError, reason: "authentication timed out", label: "timeout", err: ctx.Err()}
	}
}

func (h *Handler) resolve(ctx context.Context, token string) (*models.Principal, *rejection) {
	identity, err := h.verifier.Verify(token)
	if err != nil {
		label := "invalid_token"
		if reason, ok := jwttoken.ReasonOf(err); ok {
			label = strings.ToLower(string(reason))
		}
		return nil, &rejection{code: registry.CloseUnauthorized, reason: "invalid credentials", label: label, err: err}
	}

	p, err := h.principals.FindActive(ctx, identity.PrincipalID)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, &rejection{code: registry.CloseUnauthorized, reason: "invalid credentials", label: "unknown_principal", err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return nil, &rejection{code: registry.CloseAuthError, reason: "authentication timed out", label: "timeout", err: err}
	default:
		return nil, &rejection{code: registry.CloseAuthError, reason: "authentication unavailable", label: "store_error", err: err}
	}
}
