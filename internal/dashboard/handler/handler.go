package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"electionhub/internal/dashboard/cache"
	"electionhub/internal/platform/middleware"
	principal "electionhub/internal/principal/models"
	"electionhub/internal/realtime/events"
	dErrors "electionhub/pkg/domain-errors"
	"electionhub/pkg/platform/httputil"
	"electionhub/pkg/requestcontext"
)

// Service defines the dashboard operations exposed over HTTP.
type Service interface {
	Personal(ctx context.Context, actor *principal.Principal) (cache.Document, error)
	Supervisor(ctx context.Context, actor *principal.Principal) (cache.Document, error)
	Admin(ctx context.Context, actor *principal.Principal) (cache.Document, error)
	Invalidate(ctx context.Context, actor *principal.Principal, scope events.Scope) error
}

// Handler serves cached dashboards. Routes expect RequireAuth to have run.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts dashboard endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/dashboard/personal/", h.document(Service.Personal))
	r.Get("/api/dashboard/supervisor/", h.document(Service.Supervisor))
	r.Get("/api/dashboard/admin/", h.document(Service.Admin))
	r.Post("/api/dashboard/invalidate/", h.HandleInvalidate)
}

func (h *Handler) document(get func(Service, context.Context, *principal.Principal) (cache.Document, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		doc, err := get(h.service, ctx, middleware.PrincipalFromContext(ctx))
		if err != nil {
			h.fail(ctx, w, "failed to serve dashboard", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc)
	}
}

// InvalidateRequest is the body of POST /api/dashboard/invalidate/. An empty
// scope invalidates every dashboard.
type InvalidateRequest struct {
	Scope string `json:"scope"`

	parsed events.Scope
}

func (r *InvalidateRequest) Validate() error {
	if strings.TrimSpace(r.Scope) == "" {
		r.parsed = events.ScopeAll
		return nil
	}
	scope, err := events.ParseScope(r.Scope)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "scope must be one of personal, supervisor, admin, all")
	}
	r.parsed = scope
	return nil
}

func (h *Handler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InvalidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.service.Invalidate(ctx, middleware.PrincipalFromContext(ctx), req.parsed); err != nil {
		h.fail(ctx, w, "failed to invalidate dashboards", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"scope": string(req.parsed)})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"principal_id", requestcontext.PrincipalID(ctx).String(),
		"error", err,
	)
	httputil.WriteError(w, err)
}
