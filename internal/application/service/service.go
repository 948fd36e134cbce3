// Package service orchestrates the loan application state machine.
//
// Each mutating operation runs inside a tx.Runner keyed by application ID and
// uses the store's Execute callback so validation and mutation see the same
// locked row. Decision events are appended in that transaction and dispatched
// only after it commits.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"homeloan/internal/application/metrics"
	"homeloan/internal/application/models"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
	"homeloan/pkg/platform/events"
	"homeloan/pkg/platform/sentinel"
	"homeloan/pkg/platform/tx"
	"homeloan/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,EventBus
type Store interface {
	Create(ctx context.Context, app *models.LoanApplication) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.LoanApplication, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.LoanApplication, error)
	Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.LoanApplication) error, mutate func(*models.LoanApplication)) (*models.LoanApplication, error)
}

// EventBus appends events inside a transaction and dispatches them after commit.
type EventBus interface {
	Append(ctx context.Context, evs ...events.Event) error
	Dispatch(ctx context.Context, evs ...events.Event)
}

type Service struct {
	store   Store
	runner  tx.Runner
	bus     EventBus
	policy  models.ReviewerPolicy
	logger  *slog.Logger
	metrics *metrics.Metrics
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

// WithReviewerPolicy relaxes or tightens who may decide. Defaults to strict.
func WithReviewerPolicy(p models.ReviewerPolicy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

func New(store Store, bus EventBus, opts ...Option) *Service {
	s := &Service{
		store:  store,
		bus:    bus,
		policy: models.ReviewerPolicyStrict,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = tx.NewShardedRunner(0)
	}
	return s
}

// Submit creates a pending application for the buyer.
func (s *Service) Submit(ctx context.Context, p models.SubmitParams) (*models.LoanApplication, error) {
	app, err := models.NewApplication(id.NewApplicationID(), p, requestcontext.Now(ctx))
	if err != nil {
		s.metrics.IncRefused("submit", string(dErrors.CodeOf(err)))
		return nil, err
	}
	if err := s.store.Create(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
	}

	s.metrics.IncSubmitted()
	s.logger.InfoContext(ctx, "application submitted",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", app.ID,
		"buyer_id", app.BuyerID,
		"bank_id", app.BankID,
	)
	return app, nil
}

// Get returns an application the viewer is allowed to see.
func (s *Service) Get(ctx context.Context, appID id.ApplicationID, viewer requestcontext.Principal) (*models.LoanApplication, error) {
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !canView(viewer, app) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to view this application")
	}
	return app, nil
}

// Load returns an application without viewer checks. Used by origination.
func (s *Service) Load(ctx context.Context, appID id.ApplicationID) (*models.LoanApplication, error) {
	return s.load(ctx, appID)
}

// List returns applications scoped to the viewer: buyers see their own,
// reviewers see their bank's, admins see everything the filter selects.
func (s *Service) List(ctx context.Context, viewer requestcontext.Principal, filter models.ListFilter) ([]*models.LoanApplication, error) {
	switch viewer.Role {
	case id.RoleBuyer:
		filter.BuyerID = viewer.UserID
	case id.RoleReviewer:
		filter.BankID = viewer.BankID
	case id.RoleAdmin:
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "unknown role")
	}
	apps, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// ListApproved pages through approved applications, newest first, for jobs
// that reconcile approvals with their mortgages.
func (s *Service) ListApproved(ctx context.Context, offset, limit int) ([]*models.LoanApplication, error) {
	apps, err := s.store.List(ctx, models.ListFilter{
		Statuses: []models.Status{models.StatusApproved},
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// BeginReview moves a pending or needs_more_info application to under_review.
func (s *Service) BeginReview(ctx context.Context, appID id.ApplicationID, reviewer models.Reviewer) (*models.LoanApplication, error) {
	now := requestcontext.Now(ctx)
	return s.transition(ctx, "begin_review", appID,
		func(a *models.LoanApplication) error { return a.CanBeginReview(reviewer) },
		func(a *models.LoanApplication) { a.ApplyBeginReview(reviewer, now) },
		nil,
	)
}

// Decide records the reviewer's decision and emits the matching event.
func (s *Service) Decide(ctx context.Context, appID id.ApplicationID, p models.DecideParams) (*models.LoanApplication, error) {
	now := requestcontext.Now(ctx)
	return s.transition(ctx, "decide", appID,
		func(a *models.LoanApplication) error { return a.CanDecide(&p, s.policy) },
		func(a *models.LoanApplication) { a.ApplyDecision(p, now) },
		func(a *models.LoanApplication) (events.Event, error) { return decisionEvent(ctx, a, now) },
	)
}

// Withdraw lets the buyer abandon a non-terminal application.
func (s *Service) Withdraw(ctx context.Context, appID id.ApplicationID, buyer id.UserID) (*models.LoanApplication, error) {
	now := requestcontext.Now(ctx)
	return s.transition(ctx, "withdraw", appID,
		func(a *models.LoanApplication) error { return a.CanWithdraw(buyer) },
		func(a *models.LoanApplication) { a.ApplyWithdrawal(now) },
		nil,
	)
}

// AttachDocuments adds documents while the application is pending or needs more info.
func (s *Service) AttachDocuments(ctx context.Context, appID id.ApplicationID, buyer id.UserID, docs []models.Document) (*models.LoanApplication, error) {
	now := requestcontext.Now(ctx)
	return s.transition(ctx, "attach_documents", appID,
		func(a *models.LoanApplication) error { return a.CanAttachDocuments(buyer, docs) },
		func(a *models.LoanApplication) { a.ApplyAttachDocuments(docs, now) },
		nil,
	)
}

// Resubmit hands a needs_more_info application back to its reviewer,
// attaching any documents supplied with it in the same write.
func (s *Service) Resubmit(ctx context.Context, appID id.ApplicationID, buyer id.UserID, docs []models.Document) (*models.LoanApplication, error) {
	now := requestcontext.Now(ctx)
	return s.transition(ctx, "resubmit", appID,
		func(a *models.LoanApplication) error {
			if err := a.CanResubmit(buyer); err != nil {
				return err
			}
			if len(docs) > 0 {
				return a.CanAttachDocuments(buyer, docs)
			}
			return nil
		},
		func(a *models.LoanApplication) {
			if len(docs) > 0 {
				a.ApplyAttachDocuments(docs, now)
			}
			a.ApplyResubmission(now)
		},
		nil,
	)
}

func (s *Service) transition(
	ctx context.Context,
	operation string,
	appID id.ApplicationID,
	validate func(*models.LoanApplication) error,
	mutate func(*models.LoanApplication),
	emit func(*models.LoanApplication) (events.Event, error),
) (*models.LoanApplication, error) {
	start := time.Now()
	defer s.metrics.ObserveTransition(start)

	var (
		result  *models.LoanApplication
		emitted []events.Event
	)
	err := s.runner.RunInTx(ctx, appID.String(), func(txCtx context.Context) error {
		// guard dry-runs mutate on a copy so invariant breaks are refused and
		// the event is recorded before anything is written.
		guard := func(a *models.LoanApplication) error {
			emitted = nil
			if err := validate(a); err != nil {
				return err
			}
			candidate := a.Clone()
			mutate(candidate)
			if err := candidate.CheckInvariants(); err != nil {
				return err
			}
			if emit == nil {
				return nil
			}
			ev, err := emit(candidate)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build event")
			}
			if err := s.bus.Append(txCtx, ev); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record event")
			}
			emitted = append(emitted, ev)
			return nil
		}
		app, err := s.store.Execute(txCtx, appID, guard, mutate)
		if err != nil {
			return translateStoreErr(err)
		}
		result = app
		return nil
	})
	if err != nil {
		s.metrics.IncRefused(operation, string(dErrors.CodeOf(err)))
		s.logger.WarnContext(ctx, "application transition refused",
			"request_id", requestcontext.RequestID(ctx),
			"application_id", appID,
			"operation", operation,
			"error", err,
		)
		return nil, err
	}

	s.metrics.IncTransition(string(result.Status))
	s.logger.InfoContext(ctx, "application transitioned",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", appID,
		"operation", operation,
		"status", result.Status,
	)
	if len(emitted) > 0 {
		s.bus.Dispatch(context.WithoutCancel(ctx), emitted...)
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, appID id.ApplicationID) (*models.LoanApplication, error) {
	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return app, nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	case errors.Is(err, sentinel.ErrVersionConflict), errors.Is(err, sentinel.ErrLockHeld):
		return dErrors.Wrap(err, dErrors.CodeConcurrencyConflict, "application was modified concurrently")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "application store failure")
}

func canView(viewer requestcontext.Principal, app *models.LoanApplication) bool {
	switch viewer.Role {
	case id.RoleAdmin:
		return true
	case id.RoleBuyer:
		return viewer.UserID == app.BuyerID
	case id.RoleReviewer:
		return viewer.BankID == app.BankID
	}
	return false
}
