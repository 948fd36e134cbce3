package sweep

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"homeloan/internal/autopay"
	"homeloan/internal/origination"
	"homeloan/internal/servicing/service"
	dErrors "homeloan/pkg/domain-errors"
	"homeloan/pkg/platform/httputil"
	"homeloan/pkg/requestcontext"
)

type Runner interface {
	RunOverdue(ctx context.Context, now time.Time, trigger string) (service.OverdueSummary, error)
	RunAutoPay(ctx context.Context, now time.Time, trigger string) (autopay.Summary, error)
	RunOrigination(ctx context.Context, trigger string) (origination.ReconcileSummary, error)
}

// Handler exposes manual sweep triggers. Mount behind admin authentication.
type Handler struct {
	runner Runner
	logger *slog.Logger
}

func NewHandler(runner Runner, logger *slog.Logger) *Handler {
	return &Handler{runner: runner, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/sweeps/overdue", h.HandleOverdue)
	r.Post("/admin/sweeps/autopay", h.HandleAutoPay)
	r.Post("/admin/sweeps/origination", h.HandleOrigination)
}

type OverdueResponse struct {
	Now     time.Time              `json:"now"`
	Summary service.OverdueSummary `json:"summary"`
}

type AutoPayResponse struct {
	Now     time.Time       `json:"now"`
	Summary autopay.Summary `json:"summary"`
}

// HandleOverdue handles POST /admin/sweeps/overdue[?now=RFC3339].
func (h *Handler) HandleOverdue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now, ok := sweepTime(w, r)
	if !ok {
		return
	}
	summary, err := h.runner.RunOverdue(ctx, now, TriggerAdmin)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "overdue sweep triggered",
		"request_id", requestcontext.RequestID(ctx),
		"now", now,
	)
	httputil.WriteJSON(w, http.StatusOK, OverdueResponse{Now: now, Summary: summary})
}

// HandleAutoPay handles POST /admin/sweeps/autopay[?now=RFC3339].
func (h *Handler) HandleAutoPay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now, ok := sweepTime(w, r)
	if !ok {
		return
	}
	summary, err := h.runner.RunAutoPay(ctx, now, TriggerAdmin)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "auto-pay run triggered",
		"request_id", requestcontext.RequestID(ctx),
		"now", now,
	)
	httputil.WriteJSON(w, http.StatusOK, AutoPayResponse{Now: now, Summary: summary})
}

// HandleOrigination handles POST /admin/sweeps/origination.
func (h *Handler) HandleOrigination(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := h.runner.RunOrigination(ctx, TriggerAdmin)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "origination reconciliation triggered",
		"request_id", requestcontext.RequestID(ctx),
		"originated", summary.Originated,
	)
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// sweepTime is the request time unless the caller pins an evaluation instant.
func sweepTime(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("now")
	if raw == "" {
		return requestcontext.Now(r.Context()), true
	}
	now, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "now must be an RFC 3339 timestamp"))
		return time.Time{}, false
	}
	return now.UTC(), true
}
