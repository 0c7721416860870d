package admin

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electionhub/internal/platform/middleware"
	principal "electionhub/internal/principal/models"
	"electionhub/pkg/testutil"
)

type stubLayer struct {
	configured bool
	kind       string
}

func (l stubLayer) Configured() bool { return l.configured }
func (l stubLayer) Type() string     { return l.kind }

type stubCounter int

func (c stubCounter) Count() int { return int(c) }

func newRouter(layer ChannelLayer, count int) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(logger, principal.RoleAdmin, principal.RoleSuperAdmin))
		New(layer, stubCounter(count), logger).Register(r)
	})
	return r
}

func healthRequest(t *testing.T, actor *principal.Principal) *http.Request {
	return testutil.WithPrincipal(testutil.NewRequest(t, http.MethodGet, "/api/utils/websocket/health/"), actor)
}

func TestWebSocketHealth(t *testing.T) {
	admin := testutil.NewPrincipal(principal.RoleAdmin)

	t.Run("configured layer reports 200", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(stubLayer{configured: true, kind: "InMemoryEventBus"}, 3), healthRequest(t, admin))

		testutil.AssertStatusOK(t, rr)
		var body WebSocketHealthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, WebSocketHealthResponse{
			ChannelLayerConfigured: true,
			ChannelLayerType:       "InMemoryEventBus",
			ConnectionCount:        3,
		}, body)
	})

	t.Run("closed layer reports 503 with the same shape", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(stubLayer{kind: "InMemoryEventBus"}, 0), healthRequest(t, admin))

		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		testutil.AssertJSONContains(t, rr, "channel_layer_configured", false)
		testutil.AssertJSONContains(t, rr, "connection_count", float64(0))
	})

	t.Run("missing layer reports 503", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(nil, 0), healthRequest(t, admin))

		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		testutil.AssertJSONContains(t, rr, "channel_layer_type", "")
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		supervisor := testutil.NewPrincipal(principal.RoleSupervisor)
		rr := testutil.DoRequest(newRouter(stubLayer{configured: true}, 0), healthRequest(t, supervisor))

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}
