// Package service is the loan servicer: it applies confirmed payments, ages
// overdue periods and handles administrative changes on mortgages.
//
// Every mutation runs as the single writer for its mortgage (tx.Runner keyed
// by mortgage ID, then the store's Execute). The guard dry-runs the mutation
// on a copy and checks the ledger invariants before anything is written, so a
// refused operation persists nothing.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"homeloan/internal/servicing/metrics"
	"homeloan/internal/servicing/models"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
	"homeloan/pkg/platform/events"
	"homeloan/pkg/platform/sentinel"
	"homeloan/pkg/platform/tx"
	"homeloan/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,EventBus
type Store interface {
	CreateIfAbsentForApplication(ctx context.Context, m *models.Mortgage) error
	FindByID(ctx context.Context, mortgageID id.MortgageID) (*models.Mortgage, error)
	FindByApplication(ctx context.Context, appID id.ApplicationID) (*models.Mortgage, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Mortgage, error)
	ListDueIDs(ctx context.Context, q models.DueQuery) ([]id.MortgageID, error)
	Execute(ctx context.Context, mortgageID id.MortgageID, validate func(*models.Mortgage) error, mutate func(*models.Mortgage)) (*models.Mortgage, error)
}

// EventBus appends events inside a transaction and dispatches them after commit.
type EventBus interface {
	Append(ctx context.Context, evs ...events.Event) error
	Dispatch(ctx context.Context, evs ...events.Event)
}

const (
	DefaultGraceWindow      = 30 * 24 * time.Hour
	DefaultDefaultThreshold = 3
	defaultSweepParallelism = 4
)

// errNoChange aborts a transition that would leave the mortgage as it is.
var errNoChange = errors.New("no change")

type Service struct {
	store   Store
	bus     EventBus
	runner  tx.Runner
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	policy  models.OverduePolicy

	sweepParallelism int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithRunner(r tx.Runner) Option {
	return func(s *Service) {
		if r != nil {
			s.runner = r
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithOverduePolicy sets the grace window before a late period is missed and
// the number of missed periods that defaults a mortgage.
func WithOverduePolicy(grace time.Duration, threshold int) Option {
	return func(s *Service) {
		if grace >= 0 {
			s.policy.GraceWindow = grace
		}
		if threshold > 0 {
			s.policy.DefaultThreshold = threshold
		}
	}
}

// WithSweepParallelism bounds how many mortgages a sweep works on at once.
func WithSweepParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepParallelism = n
		}
	}
}

func New(store Store, bus EventBus, opts ...Option) *Service {
	s := &Service{
		store:  store,
		bus:    bus,
		logger: slog.Default(),
		tracer: otel.Tracer("homeloan/servicing"),
		policy: models.OverduePolicy{
			GraceWindow:      DefaultGraceWindow,
			DefaultThreshold: DefaultDefaultThreshold,
		},
		sweepParallelism: defaultSweepParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = tx.NewShardedRunner(0)
	}
	return s
}

// -----------------------------------------------------------------------------
// Reads (lock-free)
// -----------------------------------------------------------------------------

// Get returns a mortgage the viewer is allowed to see.
func (s *Service) Get(ctx context.Context, mortgageID id.MortgageID, viewer requestcontext.Principal) (*models.Mortgage, error) {
	m, err := s.store.FindByID(ctx, mortgageID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if !canView(viewer, m) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to view this mortgage")
	}
	return m, nil
}

// Schedule returns the payment records of a mortgage in payment-number order.
func (s *Service) Schedule(ctx context.Context, mortgageID id.MortgageID, viewer requestcontext.Principal) ([]models.PaymentRecord, error) {
	m, err := s.Get(ctx, mortgageID, viewer)
	if err != nil {
		return nil, err
	}
	return m.Payments, nil
}

// List returns mortgages scoped to the viewer: buyers see their own,
// reviewers see their bank's, admins see everything the filter selects.
func (s *Service) List(ctx context.Context, viewer requestcontext.Principal, filter models.ListFilter) ([]*models.Mortgage, error) {
	switch viewer.Role {
	case id.RoleBuyer:
		filter.BuyerID = viewer.UserID
	case id.RoleReviewer:
		filter.BankID = viewer.BankID
	case id.RoleAdmin:
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "unknown role")
	}
	ms, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list mortgages")
	}
	return ms, nil
}

// -----------------------------------------------------------------------------
// Payments
// -----------------------------------------------------------------------------

// PaymentResult is the outcome of RecordPayment. Duplicate is set when the
// transaction was already applied; Payment is then the existing record.
type PaymentResult struct {
	Mortgage  *models.Mortgage
	Payment   models.PaymentRecord
	Duplicate bool
}

// RecordPayment applies a confirmed payment. Replaying a transaction id that
// is already paid returns the existing record and changes nothing.
func (s *Service) RecordPayment(ctx context.Context, mortgageID id.MortgageID, p models.PaymentParams) (*PaymentResult, error) {
	ctx, span := s.tracer.Start(ctx, "servicing.RecordPayment", trace.WithAttributes(
		attribute.String("mortgage_id", mortgageID.String()),
		attribute.Int("payment_number", p.PaymentNumber),
	))
	defer span.End()

	now := requestcontext.Now(ctx)
	var existing *models.PaymentRecord
	m, changed, err := s.transition(ctx, "record_payment", mortgageID,
		func(m *models.Mortgage) error {
			if rec, ok := m.PaidByTransaction(p.TransactionID); ok {
				dup := *rec
				existing = &dup
				return errNoChange
			}
			return m.CanRecordPayment(p)
		},
		func(m *models.Mortgage) { m.ApplyPayment(p, now) },
		func(m *models.Mortgage) ([]events.Event, error) { return paymentEvents(ctx, m, p.PaymentNumber, now) },
	)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	if !changed {
		s.metrics.IncDuplicatePayment()
		s.logger.InfoContext(ctx, "duplicate payment ignored",
			"request_id", requestcontext.RequestID(ctx),
			"mortgage_id", mortgageID,
			"transaction_id", p.TransactionID,
		)
		return &PaymentResult{Mortgage: m, Payment: *existing, Duplicate: true}, nil
	}

	rec, _ := m.Payment(p.PaymentNumber)
	s.metrics.IncPaymentRecorded(string(p.Method))
	if m.Status == models.StatusPaidOff {
		s.metrics.IncStatusChange(string(models.StatusPaidOff))
	}
	s.logger.InfoContext(ctx, "payment recorded",
		"request_id", requestcontext.RequestID(ctx),
		"mortgage_id", mortgageID,
		"payment_number", p.PaymentNumber,
		"transaction_id", p.TransactionID,
		"remaining_balance", m.RemainingBalance.StringFixed(2),
		"status", m.Status,
	)
	return &PaymentResult{Mortgage: m, Payment: *rec}, nil
}

// -----------------------------------------------------------------------------
// Overdue evaluation
// -----------------------------------------------------------------------------

// OverdueSummary totals one sweep.
type OverdueSummary struct {
	Scanned   int `json:"scanned"`
	Late      int `json:"late"`
	Missed    int `json:"missed"`
	Defaulted int `json:"defaulted"`
	Failed    int `json:"failed"`
}

// MarkOverdue ages every active mortgage with an unpaid period due before the
// day of now. One mortgage failing does not stop the others; failures are
// counted and logged.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (OverdueSummary, error) {
	ctx, span := s.tracer.Start(ctx, "servicing.MarkOverdue")
	defer span.End()
	ctx = requestcontext.WithTime(ctx, now)

	ids, err := s.store.ListDueIDs(ctx, models.DueQuery{Before: models.DayOf(now)})
	if err != nil {
		recordSpanError(span, err)
		return OverdueSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list due mortgages")
	}

	var late, missed, defaulted, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sweepParallelism)
	for _, mortgageID := range ids {
		g.Go(func() error {
			res, err := s.MarkOverdueMortgage(gctx, mortgageID, now)
			if err != nil {
				failed.Add(1)
				return nil
			}
			late.Add(int64(len(res.Late)))
			missed.Add(int64(len(res.Missed)))
			if res.Defaulted {
				defaulted.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := OverdueSummary{
		Scanned:   len(ids),
		Late:      int(late.Load()),
		Missed:    int(missed.Load()),
		Defaulted: int(defaulted.Load()),
		Failed:    int(failed.Load()),
	}
	span.SetAttributes(
		attribute.Int("scanned", summary.Scanned),
		attribute.Int("missed", summary.Missed),
		attribute.Int("defaulted", summary.Defaulted),
	)
	s.logger.InfoContext(ctx, "overdue sweep finished",
		"now", now,
		"scanned", summary.Scanned,
		"late", summary.Late,
		"missed", summary.Missed,
		"defaulted", summary.Defaulted,
		"failed", summary.Failed,
	)
	return summary, nil
}

// MarkOverdueMortgage ages one mortgage's periods as of now.
func (s *Service) MarkOverdueMortgage(ctx context.Context, mortgageID id.MortgageID, now time.Time) (models.OverdueResult, error) {
	var result models.OverdueResult
	_, changed, err := s.transition(ctx, "mark_overdue", mortgageID,
		func(m *models.Mortgage) error {
			if !m.Clone().MarkOverdue(now, s.policy).Changed() {
				return errNoChange
			}
			return nil
		},
		func(m *models.Mortgage) { result = m.MarkOverdue(now, s.policy) },
		func(m *models.Mortgage) ([]events.Event, error) { return overdueEvents(ctx, m, result, now) },
	)
	if err != nil || !changed {
		return models.OverdueResult{}, err
	}

	s.metrics.AddOverdue(string(models.PaymentLate), len(result.Late))
	s.metrics.AddOverdue(string(models.PaymentMissed), len(result.Missed))
	if result.Defaulted {
		s.metrics.IncStatusChange(string(models.StatusDefaulted))
		s.logger.WarnContext(ctx, "mortgage defaulted",
			"mortgage_id", mortgageID,
			"missed_payments", len(result.Missed),
		)
	}
	return result, nil
}

// -----------------------------------------------------------------------------
// Administrative changes
// -----------------------------------------------------------------------------

// Cancel moves an active mortgage to cancelled.
func (s *Service) Cancel(ctx context.Context, mortgageID id.MortgageID, reason string) (*models.Mortgage, error) {
	now := requestcontext.Now(ctx)
	m, _, err := s.transition(ctx, "cancel", mortgageID,
		func(m *models.Mortgage) error { return m.CanCancel(reason) },
		func(m *models.Mortgage) { m.ApplyCancel(reason, now) },
		func(m *models.Mortgage) ([]events.Event, error) { return statusEvents(ctx, m, events.MortgageCancelled, now) },
	)
	if err != nil {
		return nil, err
	}
	s.metrics.IncStatusChange(string(models.StatusCancelled))
	s.logger.InfoContext(ctx, "mortgage cancelled",
		"request_id", requestcontext.RequestID(ctx),
		"mortgage_id", mortgageID,
	)
	return m, nil
}

// SetAutoPay toggles auto-pay. Only the mortgage's buyer or an admin may do so.
func (s *Service) SetAutoPay(ctx context.Context, mortgageID id.MortgageID, enabled bool, actor requestcontext.Principal) (*models.Mortgage, error) {
	now := requestcontext.Now(ctx)
	m, _, err := s.transition(ctx, "set_auto_pay", mortgageID,
		func(m *models.Mortgage) error {
			if !(actor.Role == id.RoleAdmin || (actor.Role == id.RoleBuyer && actor.UserID == m.BuyerID)) {
				return dErrors.New(dErrors.CodeForbidden, "only the buyer may change auto-pay")
			}
			if err := m.CanSetAutoPay(); err != nil {
				return err
			}
			if m.AutoPay == enabled {
				return errNoChange
			}
			return nil
		},
		func(m *models.Mortgage) { m.ApplyAutoPay(enabled, now) },
		nil,
	)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "auto-pay changed",
		"request_id", requestcontext.RequestID(ctx),
		"mortgage_id", mortgageID,
		"enabled", enabled,
	)
	return m, nil
}

// DueForAutoPay loads the auto-pay mortgages with a pending period due on or
// before the day of now. Reads are lock-free.
func (s *Service) DueForAutoPay(ctx context.Context, now time.Time) ([]*models.Mortgage, error) {
	ids, err := s.store.ListDueIDs(ctx, models.DueQuery{
		Before:      models.DayOf(now).AddDate(0, 0, 1),
		AutoPayOnly: true,
		PendingOnly: true,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list auto-pay mortgages")
	}
	out := make([]*models.Mortgage, 0, len(ids))
	for _, mortgageID := range ids {
		m, err := s.store.FindByID(ctx, mortgageID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load mortgage")
		}
		out = append(out, m)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Transition plumbing
// -----------------------------------------------------------------------------

// transition runs one guarded mutation as the single writer for mortgageID.
// changed is false when validate reported errNoChange; m is then the current state.
func (s *Service) transition(
	ctx context.Context,
	operation string,
	mortgageID id.MortgageID,
	validate func(*models.Mortgage) error,
	mutate func(*models.Mortgage),
	emit func(*models.Mortgage) ([]events.Event, error),
) (m *models.Mortgage, changed bool, err error) {
	start := time.Now()
	defer s.metrics.ObserveOperation(operation, start)

	var (
		result    *models.Mortgage
		unchanged *models.Mortgage
		emitted   []events.Event
	)
	err = s.runner.RunInTx(ctx, mortgageID.String(), func(txCtx context.Context) error {
		guard := func(m *models.Mortgage) error {
			emitted = nil
			if err := validate(m); err != nil {
				if errors.Is(err, errNoChange) {
					unchanged = m.Clone()
				}
				return err
			}
			candidate := m.Clone()
			mutate(candidate)
			if err := candidate.CheckInvariants(); err != nil {
				return err
			}
			if emit == nil {
				return nil
			}
			evs, err := emit(candidate)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build event")
			}
			emitted = evs
			return nil
		}
		updated, err := s.store.Execute(txCtx, mortgageID, guard, mutate)
		if err != nil {
			if errors.Is(err, errNoChange) {
				return err
			}
			return translateStoreErr(err)
		}
		if len(emitted) > 0 {
			if err := s.bus.Append(txCtx, emitted...); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record event")
			}
		}
		result = updated
		return nil
	})
	if errors.Is(err, errNoChange) {
		return unchanged, false, nil
	}
	if err != nil {
		s.metrics.IncRefused(operation, string(dErrors.CodeOf(err)))
		s.logger.WarnContext(ctx, "mortgage operation refused",
			"request_id", requestcontext.RequestID(ctx),
			"mortgage_id", mortgageID,
			"operation", operation,
			"error", err,
		)
		return nil, false, err
	}

	if len(emitted) > 0 {
		s.bus.Dispatch(context.WithoutCancel(ctx), emitted...)
	}
	return result, true, nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "mortgage not found")
	case errors.Is(err, sentinel.ErrVersionConflict), errors.Is(err, sentinel.ErrLockHeld):
		return dErrors.Wrap(err, dErrors.CodeConcurrencyConflict, "mortgage was modified concurrently")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConcurrencyConflict, "transaction id already applied elsewhere")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "mortgage store failure")
}

func canView(viewer requestcontext.Principal, m *models.Mortgage) bool {
	switch viewer.Role {
	case id.RoleAdmin:
		return true
	case id.RoleBuyer:
		return viewer.UserID == m.BuyerID
	case id.RoleReviewer:
		return viewer.BankID == m.BankID
	}
	return false
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
}
