package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"homeloan/internal/application/models"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
	"homeloan/pkg/platform/httputil"
	"homeloan/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type Service interface {
	Submit(ctx context.Context, p models.SubmitParams) (*models.LoanApplication, error)
	Get(ctx context.Context, appID id.ApplicationID, viewer requestcontext.Principal) (*models.LoanApplication, error)
	List(ctx context.Context, viewer requestcontext.Principal, filter models.ListFilter) ([]*models.LoanApplication, error)
	BeginReview(ctx context.Context, appID id.ApplicationID, reviewer models.Reviewer) (*models.LoanApplication, error)
	Decide(ctx context.Context, appID id.ApplicationID, p models.DecideParams) (*models.LoanApplication, error)
	Withdraw(ctx context.Context, appID id.ApplicationID, buyer id.UserID) (*models.LoanApplication, error)
	AttachDocuments(ctx context.Context, appID id.ApplicationID, buyer id.UserID, docs []models.Document) (*models.LoanApplication, error)
	Resubmit(ctx context.Context, appID id.ApplicationID, buyer id.UserID, docs []models.Document) (*models.LoanApplication, error)
}

// Handler exposes the application workflow over HTTP. Routes expect the
// caller to be authenticated upstream.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/applications", func(r chi.Router) {
		r.Post("/", h.HandleSubmit)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/review", h.HandleBeginReview)
		r.Post("/{id}/decision", h.HandleDecide)
		r.Post("/{id}/withdraw", h.HandleWithdraw)
		r.Post("/{id}/documents", h.HandleAttachDocuments)
		r.Post("/{id}/resubmit", h.HandleResubmit)
	})
}

// HandleSubmit handles POST /applications.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := h.requireRole(w, ctx, id.RoleBuyer)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Submit(ctx, req.Params(actor.UserID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromApplication(app))
}

// HandleList handles GET /applications.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireRole(w, ctx)
	if !ok {
		return
	}
	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	apps, err := h.service.List(ctx, actor, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplications(apps))
}

// HandleGet handles GET /applications/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireRole(w, ctx)
	if !ok {
		return
	}
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	app, err := h.service.Get(ctx, appID, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleBeginReview handles POST /applications/{id}/review.
func (h *Handler) HandleBeginReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireRole(w, ctx, id.RoleReviewer)
	if !ok {
		return
	}
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	app, err := h.service.BeginReview(ctx, appID, models.Reviewer{ID: actor.UserID, BankID: actor.BankID})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleDecide handles POST /applications/{id}/decision.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := h.requireRole(w, ctx, id.RoleReviewer)
	if !ok {
		return
	}
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Decide(ctx, appID, req.Params(models.Reviewer{ID: actor.UserID, BankID: actor.BankID}))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleWithdraw handles POST /applications/{id}/withdraw.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireRole(w, ctx, id.RoleBuyer)
	if !ok {
		return
	}
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	app, err := h.service.Withdraw(ctx, appID, actor.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleAttachDocuments handles POST /applications/{id}/documents.
func (h *Handler) HandleAttachDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := h.requireRole(w, ctx, id.RoleBuyer)
	if !ok {
		return
	}
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DocumentsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	app, err := h.service.AttachDocuments(ctx, appID, actor.UserID, toDocuments(req.Documents))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleResubmit handles POST /applications/{id}/resubmit. The body is optional.
func (h *Handler) HandleResubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := h.requireRole(w, ctx, id.RoleBuyer)
	if !ok {
		return
	}
	appID, ok := applicationID(w, r)
	if !ok {
		return
	}
	var docs []models.Document
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeAndPrepare[ResubmitRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		docs = toDocuments(req.Documents)
	}
	app, err := h.service.Resubmit(ctx, appID, actor.UserID, docs)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// requireRole returns the caller, writing 401 when unauthenticated and 403
// when roles is non-empty and the caller holds none of them.
func (h *Handler) requireRole(w http.ResponseWriter, ctx context.Context, roles ...id.Role) (requestcontext.Principal, bool) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return actor, false
	}
	if len(roles) == 0 {
		return actor, true
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, true
		}
	}
	h.logger.WarnContext(ctx, "role not permitted",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", actor.UserID,
		"role", actor.Role,
	)
	httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "role not permitted for this operation"))
	return actor, false
}

func applicationID(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return appID, false
	}
	return appID, true
}
