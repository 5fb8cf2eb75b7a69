// Package handler exposes the booker registry over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bookerregistry/internal/booker/models"
	dErrors "bookerregistry/pkg/domain-errors"
	audit "bookerregistry/pkg/platform/audit"
	"bookerregistry/pkg/platform/httputil"
	"bookerregistry/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the part of the booker service the HTTP surface needs.
type Service interface {
	AuthenticateBooker(ctx context.Context, detail models.AuthDetail) (*models.Booker, error)
	SearchBookers(ctx context.Context, email string) ([]*models.Booker, error)
	RegisterPrisoner(ctx context.Context, bookerRef, prisonerID, prisonCode string) (*models.PermittedPrisoner, error)
	UpdatePrisonerPrisonCode(ctx context.Context, bookerRef, prisonerID, prisonCode string) (*models.PermittedPrisoner, error)
	SetPrisonerActive(ctx context.Context, bookerRef, prisonerID string, active bool) error
	LinkVisitor(ctx context.Context, bookerRef, prisonerID string, visitorID int64) (*models.PermittedVisitor, bool, error)
	SetVisitorActive(ctx context.Context, bookerRef, prisonerID string, visitorID int64, active bool) error
	ListPrisoners(ctx context.Context, bookerRef string) ([]*models.PermittedPrisoner, error)
	ListVisitors(ctx context.Context, bookerRef, prisonerID string) ([]*models.PermittedVisitor, error)
	ClearBookerDetails(ctx context.Context, bookerRef string) error
	GetBookerAudit(ctx context.Context, bookerRef string) ([]audit.Event, error)
	SubmitVisitorRequest(ctx context.Context, bookerRef, prisonerID string, candidate models.Candidate) (*models.VisitorRequest, error)
	ListActiveVisitorRequests(ctx context.Context, bookerRef string) ([]*models.VisitorRequest, error)
	GetVisitorRequest(ctx context.Context, ref string) (*models.VisitorRequest, error)
	ListVisitorRequestsForPrison(ctx context.Context, prisonCode string) ([]*models.VisitorRequest, error)
	ApproveVisitorRequest(ctx context.Context, ref string, visitorID int64) (*models.VisitorRequest, error)
	RejectVisitorRequest(ctx context.Context, ref string, reason string) (*models.VisitorRequest, error)
}

// Handler serves the public booker routes and the staff configuration routes.
type Handler struct {
	service Service
	logger  *slog.Logger
	staff   []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithStaffMiddleware guards the /booker/config and /visitor-requests routes.
func WithStaffMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.staff = append(h.staff, mw...)
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts every booker route on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/public/booker", func(r chi.Router) {
		r.Post("/register/auth", h.handleAuthenticate)
		r.Get("/{bookerRef}/permitted/prisoners", h.handleListPrisoners)
		r.Get("/{bookerRef}/permitted/prisoners/{prisonerId}/permitted/visitors", h.handleListVisitors)
		r.Post("/{bookerRef}/permitted/prisoners/{prisonerId}/permitted/visitors/request", h.handleSubmitVisitorRequest)
		r.Get("/{bookerRef}/permitted/visitors/requests", h.handleListActiveVisitorRequests)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.staff...)

		r.Get("/booker/config/search", h.handleSearchBookers)
		r.Route("/booker/config/{bookerRef}", func(r chi.Router) {
			r.Delete("/", h.handleClearBookerDetails)
			r.Get("/audit", h.handleGetBookerAudit)
			r.Post("/prisoner", h.handleRegisterPrisoner)
			r.Put("/prisoner/{prisonerId}/prison", h.handleUpdatePrisonCode)
			r.Put("/prisoner/{prisonerId}/activate", h.handleSetPrisonerActive(true))
			r.Put("/prisoner/{prisonerId}/deactivate", h.handleSetPrisonerActive(false))
			r.Post("/prisoner/{prisonerId}/visitor", h.handleLinkVisitor)
			r.Put("/prisoner/{prisonerId}/visitor/{visitorId}/activate", h.handleSetVisitorActive(true))
			r.Put("/prisoner/{prisonerId}/visitor/{visitorId}/deactivate", h.handleSetVisitorActive(false))
		})

		r.Get("/visitor-requests/prison/{prisonCode}", h.handleListForPrison)
		r.Get("/visitor-requests/{ref}", h.handleGetVisitorRequest)
		r.Put("/visitor-requests/{ref}/approve", h.handleApprove)
		r.Put("/visitor-requests/{ref}/reject", h.handleReject)
	})
}

func (h *Handler) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req AuthDetailRequest
	if !h.decode(w, r, &req) {
		return
	}
	booker, err := h.service.AuthenticateBooker(r.Context(), models.AuthDetail{
		AuthReference: req.OneLoginSub,
		Email:         req.Email,
		Phone:         req.PhoneNumber,
	})
	if err != nil {
		h.fail(w, r, "authenticate booker", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBookerResponse(booker))
}

func (h *Handler) handleSearchBookers(w http.ResponseWriter, r *http.Request) {
	bookers, err := h.service.SearchBookers(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.fail(w, r, "search bookers", err)
		return
	}
	out := make([]BookerResponse, 0, len(bookers))
	for _, b := range bookers {
		out = append(out, toBookerResponse(b))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListPrisoners(w http.ResponseWriter, r *http.Request) {
	prisoners, err := h.service.ListPrisoners(r.Context(), chi.URLParam(r, "bookerRef"))
	if err != nil {
		h.fail(w, r, "list prisoners", err)
		return
	}
	out := make([]PrisonerResponse, 0, len(prisoners))
	for _, p := range prisoners {
		out = append(out, toPrisonerResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListVisitors(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.service.ListVisitors(r.Context(), chi.URLParam(r, "bookerRef"), chi.URLParam(r, "prisonerId"))
	if err != nil {
		h.fail(w, r, "list visitors", err)
		return
	}
	out := make([]VisitorResponse, 0, len(visitors))
	for _, v := range visitors {
		out = append(out, toVisitorResponse(v))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSubmitVisitorRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitVisitorRequest
	if !h.decode(w, r, &req) {
		return
	}
	candidate, err := req.toCandidate()
	if err != nil {
		h.fail(w, r, "submit visitor request", err)
		return
	}
	created, err := h.service.SubmitVisitorRequest(r.Context(), chi.URLParam(r, "bookerRef"), chi.URLParam(r, "prisonerId"), candidate)
	if err != nil {
		h.fail(w, r, "submit visitor request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVisitorRequestResponse(created))
}

func (h *Handler) handleListActiveVisitorRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.ListActiveVisitorRequests(r.Context(), chi.URLParam(r, "bookerRef"))
	if err != nil {
		h.fail(w, r, "list visitor requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVisitorRequestResponses(reqs))
}

func (h *Handler) handleRegisterPrisoner(w http.ResponseWriter, r *http.Request) {
	var req RegisterPrisonerRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.service.RegisterPrisoner(r.Context(), chi.URLParam(r, "bookerRef"), req.PrisonerID, req.PrisonCode)
	if err != nil {
		h.fail(w, r, "register prisoner", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPrisonerResponse(p))
}

func (h *Handler) handleUpdatePrisonCode(w http.ResponseWriter, r *http.Request) {
	var req UpdatePrisonCodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.service.UpdatePrisonerPrisonCode(r.Context(), chi.URLParam(r, "bookerRef"), chi.URLParam(r, "prisonerId"), req.PrisonCode)
	if err != nil {
		h.fail(w, r, "update prison code", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPrisonerResponse(p))
}

func (h *Handler) handleSetPrisonerActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.service.SetPrisonerActive(r.Context(), chi.URLParam(r, "bookerRef"), chi.URLParam(r, "prisonerId"), active)
		if err != nil {
			h.fail(w, r, "set prisoner active", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleLinkVisitor(w http.ResponseWriter, r *http.Request) {
	var req LinkVisitorRequest
	if !h.decode(w, r, &req) {
		return
	}
	v, created, err := h.service.LinkVisitor(r.Context(), chi.URLParam(r, "bookerRef"), chi.URLParam(r, "prisonerId"), req.VisitorID)
	if err != nil {
		h.fail(w, r, "link visitor", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, toVisitorResponse(v))
}

func (h *Handler) handleSetVisitorActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitorID, err := strconv.ParseInt(chi.URLParam(r, "visitorId"), 10, 64)
		if err != nil {
			h.fail(w, r, "set visitor active", dErrors.New(dErrors.CodeBadRequest, "visitorId must be a number"))
			return
		}
		err = h.service.SetVisitorActive(r.Context(), chi.URLParam(r, "bookerRef"), chi.URLParam(r, "prisonerId"), visitorID, active)
		if err != nil {
			h.fail(w, r, "set visitor active", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleClearBookerDetails(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearBookerDetails(r.Context(), chi.URLParam(r, "bookerRef")); err != nil {
		h.fail(w, r, "clear booker details", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetBookerAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetBookerAudit(r.Context(), chi.URLParam(r, "bookerRef"))
	if err != nil {
		h.fail(w, r, "get booker audit", err)
		return
	}
	out := make([]AuditResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetVisitorRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.GetVisitorRequest(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.fail(w, r, "get visitor request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVisitorRequestResponse(req))
}

func (h *Handler) handleListForPrison(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.ListVisitorRequestsForPrison(r.Context(), chi.URLParam(r, "prisonCode"))
	if err != nil {
		h.fail(w, r, "list visitor requests for prison", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVisitorRequestResponses(reqs))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req ApproveVisitorRequest
	if !h.decode(w, r, &req) {
		return
	}
	approved, err := h.service.ApproveVisitorRequest(r.Context(), chi.URLParam(r, "ref"), req.VisitorID)
	if err != nil {
		h.fail(w, r, "approve visitor request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVisitorRequestResponse(approved))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var req RejectVisitorRequest
	if !h.decode(w, r, &req) {
		return
	}
	rejected, err := h.service.RejectVisitorRequest(r.Context(), chi.URLParam(r, "ref"), req.RejectionReason)
	if err != nil {
		h.fail(w, r, "reject visitor request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVisitorRequestResponse(rejected))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"path", r.URL.Path,
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	sanitize(v)
	return true
}

// fail writes err. Client errors are logged at warn, everything else at error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, "failed to "+op,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	default:
		h.logger.WarnContext(ctx, op+" rejected",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
