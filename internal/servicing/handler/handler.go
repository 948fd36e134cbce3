package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"homeloan/internal/servicing/models"
	"homeloan/internal/servicing/service"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
	"homeloan/pkg/platform/httputil"
	"homeloan/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type Service interface {
	Get(ctx context.Context, mortgageID id.MortgageID, viewer requestcontext.Principal) (*models.Mortgage, error)
	List(ctx context.Context, viewer requestcontext.Principal, filter models.ListFilter) ([]*models.Mortgage, error)
	Schedule(ctx context.Context, mortgageID id.MortgageID, viewer requestcontext.Principal) ([]models.PaymentRecord, error)
	Cancel(ctx context.Context, mortgageID id.MortgageID, reason string) (*models.Mortgage, error)
	SetAutoPay(ctx context.Context, mortgageID id.MortgageID, enabled bool, actor requestcontext.Principal) (*models.Mortgage, error)
	RecordPayment(ctx context.Context, mortgageID id.MortgageID, p models.PaymentParams) (*service.PaymentResult, error)
}

// Handler exposes mortgages to authenticated callers and accepts payment
// confirmations from the gateway adapter.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the mortgage routes. Callers must be authenticated upstream.
func (h *Handler) Register(r chi.Router) {
	r.Route("/mortgages", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Get("/{id}/schedule", h.HandleSchedule)
		r.Post("/{id}/cancel", h.HandleCancel)
		r.Post("/{id}/autopay", h.HandleAutoPay)
	})
}

// RegisterPayments mounts the gateway-facing confirmation route.
func (h *Handler) RegisterPayments(r chi.Router) {
	r.Post("/payments/confirmed", h.HandlePaymentConfirmed)
}

// HandleList handles GET /mortgages.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, ctx)
	if !ok {
		return
	}
	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ms, err := h.service.List(ctx, actor, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromMortgages(ms))
}

// HandleGet handles GET /mortgages/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, ctx)
	if !ok {
		return
	}
	mortgageID, ok := mortgageIDParam(w, r)
	if !ok {
		return
	}
	m, err := h.service.Get(ctx, mortgageID, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromMortgage(m))
}

// HandleSchedule handles GET /mortgages/{id}/schedule.
func (h *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, ctx)
	if !ok {
		return
	}
	mortgageID, ok := mortgageIDParam(w, r)
	if !ok {
		return
	}
	records, err := h.service.Schedule(ctx, mortgageID, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSchedule(mortgageID.String(), records))
}

// HandleCancel handles POST /mortgages/{id}/cancel. Admins may cancel any
// mortgage; reviewers only those of their bank.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requireActor(w, ctx)
	if !ok {
		return
	}
	if actor.Role != id.RoleAdmin && actor.Role != id.RoleReviewer {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only bank staff may cancel a mortgage"))
		return
	}
	mortgageID, ok := mortgageIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CancelRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if actor.Role == id.RoleReviewer {
		if _, err := h.service.Get(ctx, mortgageID, actor); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	m, err := h.service.Cancel(ctx, mortgageID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromMortgage(m))
}

// HandleAutoPay handles POST /mortgages/{id}/autopay.
func (h *Handler) HandleAutoPay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requireActor(w, ctx)
	if !ok {
		return
	}
	mortgageID, ok := mortgageIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AutoPayRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	m, err := h.service.SetAutoPay(ctx, mortgageID, *req.Enabled, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromMortgage(m))
}

// HandlePaymentConfirmed handles POST /payments/confirmed. Replays of an
// applied transaction answer 200 with duplicate set.
func (h *Handler) HandlePaymentConfirmed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[PaymentConfirmedRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p := req.Params(requestcontext.Now(ctx))
	if err := p.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.RecordPayment(ctx, req.ParsedMortgageID(), p)
	if err != nil {
		h.logger.WarnContext(ctx, "payment confirmation refused",
			"request_id", requestID,
			"mortgage_id", req.MortgageID,
			"transaction_id", req.TransactionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPaymentResult(res))
}

func requireActor(w http.ResponseWriter, ctx context.Context) (requestcontext.Principal, bool) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return actor, false
	}
	return actor, true
}

func mortgageIDParam(w http.ResponseWriter, r *http.Request) (id.MortgageID, bool) {
	mortgageID, err := id.ParseMortgageID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return mortgageID, false
	}
	return mortgageID, true
}
