// Package admin serves operator-only diagnostics.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"electionhub/internal/platform/middleware"
	"electionhub/pkg/platform/httputil"
	"electionhub/pkg/requestcontext"
)

// ChannelLayer is the event bus as seen by the health check.
type ChannelLayer interface {
	Configured() bool
	Type() string
}

// ConnectionCounter reports how many sessions are registered.
type ConnectionCounter interface {
	Count() int
}

// Handler serves admin diagnostics. Routes expect RequireAuth and
// RequireRole(admin) to have run.
type Handler struct {
	layer       ChannelLayer
	connections ConnectionCounter
	logger      *slog.Logger
}

func New(layer ChannelLayer, connections ConnectionCounter, logger *slog.Logger) *Handler {
	return &Handler{layer: layer, connections: connections, logger: logger}
}

// Register mounts admin endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/utils/websocket/health/", h.HandleWebSocketHealth)
}

// HandleWebSocketHealth answers 200 when the channel layer accepts events and
// 503 otherwise. The body has the same shape either way.
func (h *Handler) HandleWebSocketHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res := WebSocketHealthResponse{
		ChannelLayerConfigured: h.layer != nil && h.layer.Configured(),
		ConnectionCount:        h.connections.Count(),
	}
	if h.layer != nil {
		res.ChannelLayerType = h.layer.Type()
	}

	status := http.StatusOK
	if !res.ChannelLayerConfigured {
		status = http.StatusServiceUnavailable
		attrs := []any{
			"connection_count", res.ConnectionCount,
			"request_id", requestcontext.RequestID(ctx),
		}
		if p := middleware.PrincipalFromContext(ctx); p != nil {
			attrs = append(attrs, "principal_id", p.ID.String())
		}
		h.logger.WarnContext(ctx, "websocket health check failed: channel layer not configured", attrs...)
	}
	httputil.WriteJSON(w, status, res)
}
