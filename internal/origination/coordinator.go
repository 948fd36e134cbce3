// Package origination turns approved applications into mortgages. It is the
// only code path that creates a mortgage.
package origination

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appmodels "homeloan/internal/application/models"
	"homeloan/internal/origination/metrics"
	"homeloan/internal/servicing/models"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
	"homeloan/pkg/platform/events"
	"homeloan/pkg/platform/sentinel"
	"homeloan/pkg/platform/tx"
	"homeloan/pkg/requestcontext"
)

//go:generate mockgen -source=coordinator.go -destination=mocks/mocks.go -package=mocks ApplicationReader,MortgageStore,EventBus
type ApplicationReader interface {
	Load(ctx context.Context, appID id.ApplicationID) (*appmodels.LoanApplication, error)
	ListApproved(ctx context.Context, offset, limit int) ([]*appmodels.LoanApplication, error)
}

// MortgageStore creates a mortgage unless one already references its application.
type MortgageStore interface {
	CreateIfAbsentForApplication(ctx context.Context, m *models.Mortgage) error
	FindByApplication(ctx context.Context, appID id.ApplicationID) (*models.Mortgage, error)
}

// reconcilePage is how many approved applications Reconcile reads at a time.
const reconcilePage = 100

type EventBus interface {
	Append(ctx context.Context, evs ...events.Event) error
	Dispatch(ctx context.Context, evs ...events.Event)
}

type Coordinator struct {
	applications ApplicationReader
	mortgages    MortgageStore
	bus          EventBus
	runner       tx.Runner
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func WithRunner(r tx.Runner) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.runner = r
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracer = t
		}
	}
}

func New(applications ApplicationReader, mortgages MortgageStore, bus EventBus, opts ...Option) *Coordinator {
	c := &Coordinator{
		applications: applications,
		mortgages:    mortgages,
		bus:          bus,
		logger:       slog.Default(),
		tracer:       otel.Tracer("homeloan/origination"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner == nil {
		c.runner = tx.NewShardedRunner(0)
	}
	return c
}

// Subscribe registers the coordinator for ApplicationApproved.
func (c *Coordinator) Subscribe(bus interface {
	Subscribe(events.Type, events.Handler)
}) {
	bus.Subscribe(events.ApplicationApproved, c.HandleApproved)
}

// HandleApproved originates the mortgage for an approved application.
// Redelivery of an already originated application is not an error.
func (c *Coordinator) HandleApproved(ctx context.Context, ev events.Event) error {
	var payload events.ApplicationApprovedPayload
	if err := ev.Decode(&payload); err != nil {
		return err
	}
	appID, err := id.ParseApplicationID(payload.ApplicationID)
	if err != nil {
		return err
	}
	if ev.RequestID != "" && requestcontext.RequestID(ctx) == "" {
		ctx = requestcontext.WithRequestID(ctx, ev.RequestID)
	}
	_, err = c.Originate(ctx, appID)
	if dErrors.HasCode(err, dErrors.CodeDuplicateOrigination) {
		return nil
	}
	return err
}

// Originate builds the mortgage and its full schedule from the application's
// approved terms and persists it with a MortgageOriginated event.
func (c *Coordinator) Originate(ctx context.Context, appID id.ApplicationID) (*models.Mortgage, error) {
	ctx, span := c.tracer.Start(ctx, "origination.Originate", trace.WithAttributes(
		attribute.String("application_id", appID.String()),
	))
	defer span.End()

	m, err := c.originate(ctx, appID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		if dErrors.HasCode(err, dErrors.CodeDuplicateOrigination) {
			c.metrics.IncDuplicate()
			c.logger.InfoContext(ctx, "application already originated",
				"request_id", requestcontext.RequestID(ctx),
				"application_id", appID,
			)
		} else {
			c.metrics.IncFailure()
			c.logger.ErrorContext(ctx, "origination failed",
				"request_id", requestcontext.RequestID(ctx),
				"application_id", appID,
				"error", err,
			)
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("mortgage_id", m.ID.String()))

	c.metrics.IncOriginated()
	c.logger.InfoContext(ctx, "mortgage originated",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", appID,
		"mortgage_id", m.ID,
		"monthly_payment", m.MonthlyPayment.StringFixed(2),
		"total_payments", m.TotalPayments,
	)
	return m, nil
}

func (c *Coordinator) originate(ctx context.Context, appID id.ApplicationID) (*models.Mortgage, error) {
	app, err := c.applications.Load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != appmodels.StatusApproved || app.BankReview == nil || app.BankReview.FinalTerms == nil {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "application is not approved")
	}
	terms := app.BankReview.FinalTerms

	now := requestcontext.Now(ctx)
	m, err := models.NewMortgage(id.NewMortgageID(), models.OriginationParams{
		ApplicationID: app.ID,
		PropertyID:    app.PropertyID,
		BuyerID:       app.BuyerID,
		BankID:        app.BankID,
		ProductID:     app.ProductID,
		LoanAmount:    terms.Amount,
		DownPayment:   app.DownPayment,
		InterestRate:  terms.InterestRate,
		TermYears:     terms.TermYears,
	}, now)
	if err != nil {
		return nil, err
	}
	ev, err := originatedEvent(ctx, m)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build event")
	}

	err = c.runner.RunInTx(ctx, appID.String(), func(txCtx context.Context) error {
		if err := c.mortgages.CreateIfAbsentForApplication(txCtx, m); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeDuplicateOrigination, "a mortgage already references this application")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save mortgage")
		}
		if err := c.bus.Append(txCtx, ev); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.bus.Dispatch(context.WithoutCancel(ctx), ev)
	return m, nil
}

// ReconcileSummary reports one Reconcile pass.
type ReconcileSummary struct {
	Approved   int `json:"approved"`
	Originated int `json:"originated"`
	Failed     int `json:"failed"`
}

// Reconcile originates every approved application that has no mortgage yet.
// It recovers approvals whose ApplicationApproved delivery failed or never
// ran. A failure on one application is counted and does not stop the pass.
func (c *Coordinator) Reconcile(ctx context.Context) (ReconcileSummary, error) {
	ctx, span := c.tracer.Start(ctx, "origination.Reconcile")
	defer span.End()

	var summary ReconcileSummary
	for offset := 0; ; offset += reconcilePage {
		apps, err := c.applications.ListApproved(ctx, offset, reconcilePage)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
			return summary, err
		}
		for _, app := range apps {
			summary.Approved++
			created, err := c.reconcileOne(ctx, app.ID)
			switch {
			case err != nil:
				summary.Failed++
			case created:
				summary.Originated++
			}
		}
		if len(apps) < reconcilePage {
			break
		}
	}
	c.logger.InfoContext(ctx, "origination reconciled",
		"approved", summary.Approved,
		"originated", summary.Originated,
		"failed", summary.Failed,
	)
	span.SetAttributes(
		attribute.Int("approved", summary.Approved),
		attribute.Int("originated", summary.Originated),
		attribute.Int("failed", summary.Failed),
	)
	return summary, nil
}

// reconcileOne originates appID unless a mortgage already references it.
func (c *Coordinator) reconcileOne(ctx context.Context, appID id.ApplicationID) (bool, error) {
	_, err := c.mortgages.FindByApplication(ctx, appID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		c.logger.ErrorContext(ctx, "origination lookup failed",
			"application_id", appID,
			"error", err,
		)
		return false, err
	}
	c.logger.WarnContext(ctx, "approved application has no mortgage",
		"application_id", appID,
	)
	_, err = c.Originate(ctx, appID)
	if dErrors.HasCode(err, dErrors.CodeDuplicateOrigination) {
		return false, nil
	}
	return err == nil, err
}

func originatedEvent(ctx context.Context, m *models.Mortgage) (events.Event, error) {
	ev, err := events.New(events.MortgageOriginated, events.AggregateMortgage, m.ID.String(),
		events.MortgageOriginatedPayload{
			MortgageID:      m.ID.String(),
			ApplicationID:   m.ApplicationID.String(),
			BuyerID:         m.BuyerID.String(),
			LoanAmount:      m.LoanAmount,
			MonthlyPayment:  m.MonthlyPayment,
			TotalPayments:   m.TotalPayments,
			NextPaymentDate: m.FirstPaymentDate,
		}, m.CreatedAt)
	if err != nil {
		return events.Event{}, err
	}
	ev.RequestID = requestcontext.RequestID(ctx)
	return ev, nil
}
