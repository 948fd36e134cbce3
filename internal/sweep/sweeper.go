// Package sweep owns the periodic triggers: the overdue sweep, the auto-pay
// run and origination reconciliation. Each can also be started by an admin
// over HTTP. A job never overlaps with itself.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"homeloan/internal/autopay"
	"homeloan/internal/origination"
	"homeloan/internal/servicing/service"
	"homeloan/internal/sweep/metrics"
	dErrors "homeloan/pkg/domain-errors"
)

const (
	JobOverdue     = "overdue"
	JobAutoPay     = "autopay"
	JobOrigination = "origination"

	TriggerCron  = "cron"
	TriggerAdmin = "admin"
)

//go:generate mockgen -source=sweeper.go -destination=mocks/mocks.go -package=mocks OverdueRunner,AutoPayRunner,OriginationRunner
type OverdueRunner interface {
	MarkOverdue(ctx context.Context, now time.Time) (service.OverdueSummary, error)
}

type AutoPayRunner interface {
	Run(ctx context.Context, now time.Time) (autopay.Summary, error)
}

type OriginationRunner interface {
	Reconcile(ctx context.Context) (origination.ReconcileSummary, error)
}

type Sweeper struct {
	overdue OverdueRunner
	autoPay     AutoPayRunner
	origination OriginationRunner
	logger      *slog.Logger
	metrics     *metrics.Metrics
	clock       func() time.Time

	overdueRunning     atomic.Bool
	autoPayRunning     atomic.Bool
	originationRunning atomic.Bool
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

// WithAutoPay enables the auto-pay job. Without it only the overdue sweep runs.
func WithAutoPay(r AutoPayRunner) Option {
	return func(s *Sweeper) {
		s.autoPay = r
	}
}

// WithOrigination enables the job that originates approved applications
// left without a mortgage.
func WithOrigination(r OriginationRunner) Option {
	return func(s *Sweeper) {
		s.origination = r
	}
}

// WithClock overrides the time source used by cron-triggered runs.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.clock = now
		}
	}
}

func New(overdue OverdueRunner, opts ...Option) *Sweeper {
	s := &Sweeper{
		overdue: overdue,
		logger:  slog.Default(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AutoPayEnabled reports whether an auto-pay runner is configured.
func (s *Sweeper) AutoPayEnabled() bool {
	return s.autoPay != nil
}

// RunOverdue ages unpaid periods as of now.
func (s *Sweeper) RunOverdue(ctx context.Context, now time.Time, trigger string) (service.OverdueSummary, error) {
	if !s.overdueRunning.CompareAndSwap(false, true) {
		return service.OverdueSummary{}, dErrors.New(dErrors.CodeConcurrencyConflict, "overdue sweep is already running")
	}
	defer s.overdueRunning.Store(false)

	start := time.Now()
	summary, err := s.overdue.MarkOverdue(ctx, now)
	s.metrics.ObserveRun(JobOverdue, trigger, start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "overdue sweep failed", "trigger", trigger, "error", err)
	}
	return summary, err
}

// RunAutoPay charges due periods of auto-pay mortgages as of now.
func (s *Sweeper) RunAutoPay(ctx context.Context, now time.Time, trigger string) (autopay.Summary, error) {
	if s.autoPay == nil {
		return autopay.Summary{}, dErrors.New(dErrors.CodeNotFound, "auto-pay is not configured")
	}
	if !s.autoPayRunning.CompareAndSwap(false, true) {
		return autopay.Summary{}, dErrors.New(dErrors.CodeConcurrencyConflict, "auto-pay run is already in progress")
	}
	defer s.autoPayRunning.Store(false)

	start := time.Now()
	summary, err := s.autoPay.Run(ctx, now)
	s.metrics.ObserveRun(JobAutoPay, trigger, start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "auto-pay run failed", "trigger", trigger, "error", err)
	}
	return summary, err
}

// RunOrigination originates approved applications that have no mortgage.
func (s *Sweeper) RunOrigination(ctx context.Context, trigger string) (origination.ReconcileSummary, error) {
	if s.origination == nil {
		return origination.ReconcileSummary{}, dErrors.New(dErrors.CodeNotFound, "origination reconciliation is not configured")
	}
	if !s.originationRunning.CompareAndSwap(false, true) {
		return origination.ReconcileSummary{}, dErrors.New(dErrors.CodeConcurrencyConflict, "origination reconciliation is already running")
	}
	defer s.originationRunning.Store(false)

	start := time.Now()
	summary, err := s.origination.Reconcile(ctx)
	s.metrics.ObserveRun(JobOrigination, trigger, start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "origination reconciliation failed", "trigger", trigger, "error", err)
	}
	return summary, err
}

// Specs are standard five-field cron expressions evaluated in UTC. An empty
// expression leaves that job unscheduled.
type Specs struct {
	Overdue     string
	AutoPay     string
	Origination string
}

// Schedule builds a cron with the configured jobs registered. The caller starts it.
func (s *Sweeper) Schedule(ctx context.Context, specs Specs) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{s.logger}),
		cron.WithChain(cron.Recover(cronLogger{s.logger})),
	)
	if specs.Overdue != "" {
		if _, err := c.AddFunc(specs.Overdue, func() {
			_, _ = s.RunOverdue(ctx, s.clock(), TriggerCron)
		}); err != nil {
			return nil, fmt.Errorf("schedule overdue sweep %q: %w", specs.Overdue, err)
		}
	}
	if specs.AutoPay != "" && s.autoPay != nil {
		if _, err := c.AddFunc(specs.AutoPay, func() {
			_, _ = s.RunAutoPay(ctx, s.clock(), TriggerCron)
		}); err != nil {
			return nil, fmt.Errorf("schedule auto-pay run %q: %w", specs.AutoPay, err)
		}
	}
	if specs.Origination != "" && s.origination != nil {
		if _, err := c.AddFunc(specs.Origination, func() {
			_, _ = s.RunOrigination(ctx, TriggerCron)
		}); err != nil {
			return nil, fmt.Errorf("schedule origination reconciliation %q: %w", specs.Origination, err)
		}
	}
	return c, nil
}

// Run schedules the jobs and blocks until ctx is done, then waits for any
// running job to finish.
func (s *Sweeper) Run(ctx context.Context, specs Specs) error {
	c, err := s.Schedule(ctx, specs)
	if err != nil {
		return err
	}
	c.Start()
	s.logger.InfoContext(ctx, "sweeps scheduled",
		"overdue", specs.Overdue,
		"autopay", specs.AutoPay,
		"origination", specs.Origination,
		"jobs", len(c.Entries()),
	)
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
