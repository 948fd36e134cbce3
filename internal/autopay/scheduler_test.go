package autopay_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"homeloan/internal/autopay"
	"homeloan/internal/autopay/mocks"
	"homeloan/internal/servicing/models"
	"homeloan/internal/servicing/service"
	"homeloan/internal/servicing/store"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
	"homeloan/pkg/platform/events"
	eventstore "homeloan/pkg/platform/events/store/memory"
	"homeloan/pkg/requestcontext"
)

type SchedulerSuite struct {
	suite.Suite
	gateway   *mocks.MockChargeGateway
	publisher *mocks.MockPublisher
	store     *store.InMemory
	servicing *service.Service
	scheduler *autopay.Scheduler
	logger    *slog.Logger
	ctx       context.Context
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.gateway = mocks.NewMockChargeGateway(ctrl)
	s.publisher = mocks.NewMockPublisher(ctrl)
	s.store = store.NewInMemory()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewBus(eventstore.NewInMemoryStore(), events.WithLogger(s.logger))
	s.servicing = service.New(s.store, bus, service.WithLogger(s.logger))
	s.scheduler = autopay.New(s.servicing, s.gateway, s.publisher, autopay.WithLogger(s.logger))
	s.ctx = context.Background()
}

// originate stores a 1000 at 0% over one year, first due 2026-02-10.
func (s *SchedulerSuite) originate(autoPay bool) *models.Mortgage {
	originated := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m, err := models.NewMortgage(id.NewMortgageID(), models.OriginationParams{
		ApplicationID: id.NewApplicationID(),
		BuyerID:       id.UserID(uuid.New()),
		BankID:        id.BankID(uuid.New()),
		LoanAmount:    decimal.NewFromInt(1_000),
		InterestRate:  decimal.Zero,
		TermYears:     1,
	}, originated)
	s.Require().NoError(err)
	if autoPay {
		m.ApplyAutoPay(true, originated)
	}
	s.Require().NoError(s.store.CreateIfAbsentForApplication(s.ctx, m))
	return m
}

func (s *SchedulerSuite) load(m *models.Mortgage) *models.Mortgage {
	got, err := s.store.FindByID(s.ctx, m.ID)
	s.Require().NoError(err)
	return got
}

func (s *SchedulerSuite) TestChargesEveryDuePeriodInOrder() {
	m := s.originate(true)
	s.originate(false)
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

	var charged []int
	s.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req autopay.ChargeRequest) (autopay.ChargeResult, error) {
			s.Equal(m.ID, req.MortgageID)
			s.Equal(autopay.IdempotencyKey(m.ID, req.PaymentNumber), req.IdempotencyKey)
			s.Equal("83.33", req.Amount.StringFixed(2))
			charged = append(charged, req.PaymentNumber)
			return autopay.ChargeResult{TransactionID: "ap-" + req.IdempotencyKey, ChargedAt: now}, nil
		}).Times(2)

	summary, err := s.scheduler.Run(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(autopay.Summary{Mortgages: 1, Charged: 2}, summary)
	s.Equal([]int{1, 2}, charged)

	got := s.load(m)
	s.Equal(2, got.PaymentsMade)
	rec, _ := got.Payment(2)
	s.Equal(models.PaymentPaid, rec.Status)
	s.Equal(models.MethodAutoPay, rec.Method)
	s.Equal("ap-"+autopay.IdempotencyKey(m.ID, 2), rec.TransactionID)
	s.Equal(time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), *got.NextPaymentDate())
}

func (s *SchedulerSuite) TestNothingDueBeforeFirstPayment() {
	s.originate(true)

	summary, err := s.scheduler.Run(s.ctx, time.Date(2026, 2, 9, 23, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal(autopay.Summary{}, summary)
}

func (s *SchedulerSuite) TestDeclinedChargeStopsTheMortgage() {
	m := s.originate(true)
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

	s.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).
		Return(autopay.ChargeResult{}, errors.New("insufficient funds")).Times(1)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, evs ...events.Event) error {
			s.Require().Len(evs, 1)
			s.Equal(events.AutoPayFailed, evs[0].Type)
			var payload events.AutoPayFailedPayload
			s.Require().NoError(evs[0].Decode(&payload))
			s.Equal(m.ID.String(), payload.MortgageID)
			s.Equal(1, payload.PaymentNumber)
			s.Equal("insufficient funds", payload.Reason)
			return nil
		})

	summary, err := s.scheduler.Run(s.ctx, now)
	s.Require().NoError(err)
	s.Equal(autopay.Summary{Mortgages: 1, Declined: 1}, summary)

	got := s.load(m)
	s.Equal(0, got.PaymentsMade)
	rec, _ := got.Payment(1)
	s.Equal(models.PaymentPending, rec.Status)
}

func (s *SchedulerSuite) TestRerunAfterSuccessIsIdempotent() {
	m := s.originate(true)
	now := time.Date(2026, 2, 10, 6, 0, 0, 0, time.UTC)
	s.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).
		Return(autopay.ChargeResult{TransactionID: "ap-1"}, nil).Times(1)

	_, err := s.scheduler.Run(s.ctx, now)
	s.Require().NoError(err)
	summary, err := s.scheduler.Run(s.ctx, now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(autopay.Summary{}, summary)

	rec, _ := s.load(m).Payment(1)
	s.Equal(now, *rec.PaidAt)
}

func TestRecordFailureIsCountedNotPublished(t *testing.T) {
	ctrl := gomock.NewController(t)
	servicer := mocks.NewMockServicer(ctrl)
	gateway := mocks.NewMockChargeGateway(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	scheduler := autopay.New(servicer, gateway, publisher,
		autopay.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		autopay.WithParallelism(1),
	)

	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	m, err := models.NewMortgage(id.NewMortgageID(), models.OriginationParams{
		ApplicationID: id.NewApplicationID(),
		BuyerID:       id.UserID(uuid.New()),
		BankID:        id.BankID(uuid.New()),
		LoanAmount:    decimal.NewFromInt(1_200),
		InterestRate:  decimal.Zero,
		TermYears:     1,
	}, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	m.ApplyAutoPay(true, now)

	servicer.EXPECT().DueForAutoPay(gomock.Any(), now).Return([]*models.Mortgage{m}, nil)
	gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).Return(autopay.ChargeResult{TransactionID: "ap-1"}, nil)
	servicer.EXPECT().RecordPayment(gomock.Any(), m.ID, gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ id.MortgageID, p models.PaymentParams) (*service.PaymentResult, error) {
			assert.Equal(t, models.MethodAutoPay, p.Method)
			assert.Equal(t, now, p.PaidAt)
			assert.Equal(t, now, requestcontext.Now(ctx))
			return nil, dErrors.New(dErrors.CodeConcurrencyConflict, "mortgage was modified concurrently")
		})

	summary, err := scheduler.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, autopay.Summary{Mortgages: 1, RecordFailed: 1}, summary)
}

func TestListFailureAbortsRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	servicer := mocks.NewMockServicer(ctrl)
	scheduler := autopay.New(servicer, mocks.NewMockChargeGateway(ctrl), mocks.NewMockPublisher(ctrl),
		autopay.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	servicer.EXPECT().DueForAutoPay(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInternal, "failed to list auto-pay mortgages"))

	_, err := scheduler.Run(context.Background(), time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
