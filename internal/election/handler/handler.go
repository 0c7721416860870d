package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"electionhub/internal/election/models"
	"electionhub/internal/election/service"
	"electionhub/internal/platform/middleware"
	principal "electionhub/internal/principal/models"
	id "electionhub/pkg/domain"
	dErrors "electionhub/pkg/domain-errors"
	"electionhub/pkg/platform/httputil"
	"electionhub/pkg/requestcontext"
)

// Service defines the election operations exposed over HTTP.
type Service interface {
	CreateGuarantee(ctx context.Context, actor *principal.Principal, in service.GuaranteeInput) (models.Guarantee, error)
	UpdateGuarantee(ctx context.Context, actor *principal.Principal, guaranteeID id.GuaranteeID, patch service.GuaranteePatch) (models.Guarantee, error)
	DeleteGuarantee(ctx context.Context, actor *principal.Principal, guaranteeID id.GuaranteeID) error
	BulkImport(ctx context.Context, actor *principal.Principal, rows []service.BulkGuarantee) (service.BulkResult, error)
	MarkAttendance(ctx context.Context, actor *principal.Principal, in service.AttendanceInput) (models.Attendance, error)
	SaveVoteCount(ctx context.Context, actor *principal.Principal, in service.VoteCountInput) (models.VoteCount, bool, error)
	GenerateResults(ctx context.Context, actor *principal.Principal, election id.ElectionID) (models.ElectionResults, bool, error)
}

// Handler serves the election collaborator endpoints. Routes expect
// RequireAuth to have run.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts election endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/guarantees/", h.HandleCreateGuarantee)
	r.Post("/api/guarantees/bulk/", h.HandleBulkImport)
	r.Patch("/api/guarantees/{id}/", h.HandleUpdateGuarantee)
	r.Delete("/api/guarantees/{id}/", h.HandleDeleteGuarantee)
	r.Post("/api/attendance/", h.HandleMarkAttendance)
	r.Put("/api/vote-counts/", h.HandleSaveVoteCount)
	r.Post("/api/elections/{id}/results/", h.HandleGenerateResults)
}

func (h *Handler) HandleCreateGuarantee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateGuaranteeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	g, err := h.service.CreateGuarantee(ctx, middleware.PrincipalFromContext(ctx), req.input())
	if err != nil {
		h.fail(ctx, w, "failed to create guarantee", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toGuaranteeResponse(g))
}

func (h *Handler) HandleUpdateGuarantee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	guaranteeID, err := id.ParseGuaranteeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid guarantee id"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateGuaranteeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	g, err := h.service.UpdateGuarantee(ctx, middleware.PrincipalFromContext(ctx), guaranteeID, req.patch())
	if err != nil {
		h.fail(ctx, w, "failed to update guarantee", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toGuaranteeResponse(g))
}

func (h *Handler) HandleDeleteGuarantee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guaranteeID, err := id.ParseGuaranteeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid guarantee id"))
		return
	}
	if err := h.service.DeleteGuarantee(ctx, middleware.PrincipalFromContext(ctx), guaranteeID); err != nil {
		h.fail(ctx, w, "failed to delete guarantee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleBulkImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BulkImportRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.BulkImport(ctx, middleware.PrincipalFromContext(ctx), req.rows())
	if err != nil {
		h.fail(ctx, w, "failed to import guarantees", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AttendanceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	a, err := h.service.MarkAttendance(ctx, middleware.PrincipalFromContext(ctx), service.AttendanceInput{
		ElectorID:     req.ElectorID,
		CommitteeCode: req.CommitteeCode,
		Notes:         req.Notes,
	})
	if err != nil {
		h.fail(ctx, w, "failed to mark attendance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAttendanceResponse(a))
}

func (h *Handler) HandleSaveVoteCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VoteCountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	vc, created, err := h.service.SaveVoteCount(ctx, middleware.PrincipalFromContext(ctx), service.VoteCountInput{
		ElectionID:  req.ElectionID,
		CommitteeID: req.CommitteeID,
		CandidateID: req.CandidateID,
		Votes:       req.Votes,
	})
	if err != nil {
		h.fail(ctx, w, "failed to save vote count", err)
		return
	}
	httputil.WriteJSON(w, createdStatus(created), toVoteCountResponse(vc))
}

func (h *Handler) HandleGenerateResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	electionID, err := id.ParseElectionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election id"))
		return
	}
	res, created, err := h.service.GenerateResults(ctx, middleware.PrincipalFromContext(ctx), electionID)
	if err != nil {
		h.fail(ctx, w, "failed to generate results", err)
		return
	}
	httputil.WriteJSON(w, createdStatus(created), toResultsResponse(res))
}

// fail logs client errors at WARN and everything else at ERROR before
// writing the error envelope.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"principal_id", requestcontext.PrincipalID(ctx).String(),
		"error", err,
	}
	if dErrors.HTTPStatus(dErrors.CodeOf(err)) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, attrs...)
	} else {
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
