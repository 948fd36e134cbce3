// Package autopay charges due periods of mortgages with auto-pay enabled and
// forwards successful charges to the loan servicer.
//
// A run is triggered from outside (cron or the admin sweep route). A failed
// charge leaves the period pending for the overdue sweep and emits
// AutoPayFailed; the scheduler never retries within a run.
package autopay

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"homeloan/internal/autopay/metrics"
	"homeloan/internal/servicing/models"
	dErrors "homeloan/pkg/domain-errors"
	"homeloan/pkg/platform/events"
	"homeloan/pkg/requestcontext"
)

const defaultParallelism = 4

type Scheduler struct {
	servicer    Servicer
	gateway     ChargeGateway
	publisher   Publisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	parallelism int
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithParallelism bounds how many mortgages are charged at once.
func WithParallelism(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

func New(servicer Servicer, gateway ChargeGateway, publisher Publisher, opts ...Option) *Scheduler {
	s := &Scheduler{
		servicer:    servicer,
		gateway:     gateway,
		publisher:   publisher,
		logger:      slog.Default(),
		tracer:      otel.Tracer("homeloan/autopay"),
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary totals one run.
type Summary struct {
	Mortgages    int `json:"mortgages"`
	Charged      int `json:"charged"`
	Declined     int `json:"declined"`
	RecordFailed int `json:"record_failed"`
}

// Run charges every pending period due on or before the day of now, oldest
// first per mortgage. The first declined charge stops that mortgage for this
// run. No aggregate lock is held while the gateway is called.
func (s *Scheduler) Run(ctx context.Context, now time.Time) (Summary, error) {
	start := time.Now()
	defer s.metrics.ObserveRun(start)

	ctx, span := s.tracer.Start(ctx, "autopay.Run")
	defer span.End()
	ctx = requestcontext.WithTime(ctx, now)

	due, err := s.servicer.DueForAutoPay(ctx, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list due mortgages")
		return Summary{}, err
	}

	var charged, declined, recordFailed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, m := range due {
		g.Go(func() error {
			out := s.chargeMortgage(gctx, m, now)
			charged.Add(int64(out.Charged))
			declined.Add(int64(out.Declined))
			recordFailed.Add(int64(out.RecordFailed))
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{
		Mortgages:    len(due),
		Charged:      int(charged.Load()),
		Declined:     int(declined.Load()),
		RecordFailed: int(recordFailed.Load()),
	}
	span.SetAttributes(
		attribute.Int("mortgages", summary.Mortgages),
		attribute.Int("charged", summary.Charged),
		attribute.Int("declined", summary.Declined),
	)
	s.logger.InfoContext(ctx, "auto-pay run finished",
		"now", now,
		"mortgages", summary.Mortgages,
		"charged", summary.Charged,
		"declined", summary.Declined,
		"record_failed", summary.RecordFailed,
	)
	return summary, nil
}

func (s *Scheduler) chargeMortgage(ctx context.Context, m *models.Mortgage, now time.Time) Summary {
	var out Summary
	for _, rec := range m.DueForAutoPay(now) {
		if ctx.Err() != nil {
			return out
		}
		res, err := s.gateway.Charge(ctx, ChargeRequest{
			MortgageID:     m.ID,
			BuyerID:        m.BuyerID,
			PaymentNumber:  rec.PaymentNumber,
			Amount:         rec.AmountDue,
			IdempotencyKey: IdempotencyKey(m.ID, rec.PaymentNumber),
		})
		if err != nil {
			out.Declined++
			s.metrics.IncAttempt(metrics.OutcomeDeclined)
			s.logger.WarnContext(ctx, "auto-pay charge failed",
				"mortgage_id", m.ID,
				"payment_number", rec.PaymentNumber,
				"error", err,
			)
			s.publishFailed(ctx, m, rec, err.Error(), now)
			return out
		}

		paidAt := res.ChargedAt
		if paidAt.IsZero() {
			paidAt = now
		}
		_, err = s.servicer.RecordPayment(ctx, m.ID, models.PaymentParams{
			PaymentNumber: rec.PaymentNumber,
			TransactionID: res.TransactionID,
			Amount:        rec.AmountDue,
			Method:        models.MethodAutoPay,
			PaidAt:        paidAt,
		})
		if err != nil {
			// The charge went through; the next run replays it under the same
			// idempotency key and records it then.
			out.RecordFailed++
			s.metrics.IncAttempt(metrics.OutcomeRecordFailed)
			s.logger.ErrorContext(ctx, "auto-pay charge not recorded",
				"mortgage_id", m.ID,
				"payment_number", rec.PaymentNumber,
				"transaction_id", res.TransactionID,
				"code", dErrors.CodeOf(err),
				"error", err,
			)
			return out
		}
		out.Charged++
		s.metrics.IncAttempt(metrics.OutcomeCharged)
	}
	return out
}

func (s *Scheduler) publishFailed(ctx context.Context, m *models.Mortgage, rec models.PaymentRecord, reason string, now time.Time) {
	ev, err := events.New(events.AutoPayFailed, events.AggregateMortgage, m.ID.String(),
		events.AutoPayFailedPayload{
			MortgageID:    m.ID.String(),
			BuyerID:       m.BuyerID.String(),
			PaymentNumber: rec.PaymentNumber,
			AmountDue:     rec.AmountDue,
			Reason:        reason,
		}, now)
	if err == nil {
		ev.RequestID = requestcontext.RequestID(ctx)
		err = s.publisher.Publish(ctx, ev)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish auto-pay failure",
			"mortgage_id", m.ID,
			"payment_number", rec.PaymentNumber,
			"error", err,
		)
	}
}
