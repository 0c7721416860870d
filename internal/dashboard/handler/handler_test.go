package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"electionhub/internal/dashboard"
	"electionhub/internal/dashboard/cache"
	"electionhub/internal/election/store"
	principal "electionhub/internal/principal/models"
	"electionhub/internal/realtime/events"
	"electionhub/pkg/testutil"
)

type notifier struct{ scopes []events.Scope }

func (n *notifier) DashboardInvalidated(_ context.Context, scope events.Scope) {
	n.scopes = append(n.scopes, scope)
}

func newRouter(n *notifier) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := dashboard.NewService(store.NewInMemory(), cache.NewMemory(), n, time.Minute, logger)
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func TestDashboardEndpoints(t *testing.T) {
	router := newRouter(&notifier{})
	user := testutil.NewPrincipal(principal.RoleUser)
	admin := testutil.NewPrincipal(principal.RoleAdmin)

	tests := []struct {
		name   string
		path   string
		actor  *principal.Principal
		status int
	}{
		{"personal for user", "/api/dashboard/personal/", user, http.StatusOK},
		{"supervisor for user", "/api/dashboard/supervisor/", user, http.StatusForbidden},
		{"supervisor for admin", "/api/dashboard/supervisor/", admin, http.StatusOK},
		{"admin for user", "/api/dashboard/admin/", user, http.StatusForbidden},
		{"admin for admin", "/api/dashboard/admin/", admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithPrincipal(testutil.NewRequest(t, http.MethodGet, tt.path), tt.actor)
			rr := testutil.DoRequest(router, req)
			testutil.AssertStatus(t, rr, tt.status)
			if tt.status == http.StatusOK {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
				testutil.AssertJSONHasKey(t, rr, "generated_at")
			}
		})
	}
}

func TestPersonalDashboardShape(t *testing.T) {
	router := newRouter(&notifier{})
	user := testutil.NewPrincipal(principal.RoleUser)

	rr := testutil.DoRequest(router, testutil.WithPrincipal(testutil.NewRequest(t, http.MethodGet, "/api/dashboard/personal/"), user))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "principal_id", user.ID.String())
}

func TestInvalidateEndpoint(t *testing.T) {
	n := &notifier{}
	router := newRouter(n)
	admin := testutil.NewPrincipal(principal.RoleAdmin)

	rr := testutil.DoRequest(router, testutil.WithPrincipal(
		testutil.NewJSONRequest(t, http.MethodPost, "/api/dashboard/invalidate/", map[string]string{"scope": "supervisor"}), admin))
	testutil.AssertStatus(t, rr, http.StatusAccepted)

	rr = testutil.DoRequest(router, testutil.WithPrincipal(
		testutil.NewJSONRequest(t, http.MethodPost, "/api/dashboard/invalidate/", map[string]string{}), admin))
	testutil.AssertStatus(t, rr, http.StatusAccepted)

	rr = testutil.DoRequest(router, testutil.WithPrincipal(
		testutil.NewJSONRequest(t, http.MethodPost, "/api/dashboard/invalidate/", map[string]string{"scope": "everyone"}), admin))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")

	rr = testutil.DoRequest(router, testutil.WithPrincipal(
		testutil.NewJSONRequest(t, http.MethodPost, "/api/dashboard/invalidate/", map[string]string{}), testutil.NewPrincipal(principal.RoleUser)))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	assert.Equal(t, []events.Scope{events.ScopeSupervisor, events.ScopeAll}, n.scopes)
}
