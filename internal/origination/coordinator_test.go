package origination

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	appmodels "homeloan/internal/application/models"
	appservice "homeloan/internal/application/service"
	appstore "homeloan/internal/application/store"
	"homeloan/internal/origination/mocks"
	"homeloan/internal/servicing/models"
	"homeloan/internal/servicing/store"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
	"homeloan/pkg/platform/events"
	eventstore "homeloan/pkg/platform/events/store/memory"
	"homeloan/pkg/requestcontext"
)

type CoordinatorSuite struct {
	suite.Suite
	apps      *mocks.MockApplicationReader
	bus       *mocks.MockEventBus
	mortgages *store.InMemory
	coord     *Coordinator
	ctx       context.Context
	now       time.Time
	logger    *slog.Logger
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.apps = mocks.NewMockApplicationReader(ctrl)
	s.bus = mocks.NewMockEventBus(ctrl)
	s.mortgages = store.NewInMemory()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.coord = New(s.apps, s.mortgages, s.bus, WithLogger(s.logger))
	s.now = time.Date(2026, 4, 3, 15, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *CoordinatorSuite) approved() *appmodels.LoanApplication {
	decided := s.now.Add(-time.Hour)
	return &appmodels.LoanApplication{
		ID:           id.NewApplicationID(),
		PropertyID:   id.PropertyID(uuid.New()),
		BuyerID:      id.UserID(uuid.New()),
		BankID:       id.BankID(uuid.New()),
		ProductID:    "fixed-20",
		DownPayment:  decimal.NewFromInt(2_000_000),
		TermYears:    25,
		InterestRate: decimal.NewFromInt(11),
		Status:       appmodels.StatusApproved,
		BankReview: &appmodels.BankReview{
			ReviewerID: id.UserID(uuid.New()),
			Decision:   appmodels.DecisionApproved,
			DecidedAt:  &decided,
			FinalTerms: &appmodels.FinalTerms{
				Amount:         decimal.NewFromInt(10_000_000),
				InterestRate:   decimal.NewFromInt(12),
				TermYears:      20,
				MonthlyPayment: decimal.RequireFromString("110108.61"),
			},
		},
	}
}

func (s *CoordinatorSuite) TestOriginate() {
	s.Run("builds the mortgage from the final terms", func() {
		app := s.approved()
		s.apps.EXPECT().Load(gomock.Any(), app.ID).Return(app, nil)
		var appended events.Event
		s.bus.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, evs ...events.Event) error {
			s.Require().Len(evs, 1)
			appended = evs[0]
			return nil
		})
		s.bus.EXPECT().Dispatch(gomock.Any(), gomock.Any())

		m, err := s.coord.Originate(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(app.ID, m.ApplicationID)
		s.Equal(app.PropertyID, m.PropertyID)
		s.Equal("fixed-20", m.ProductID)
		s.Equal(20, m.TermYears)
		s.Equal(240, m.TotalPayments)
		s.Len(m.Payments, 240)
		s.Equal("110108.61", m.MonthlyPayment.StringFixed(2))
		s.Equal(s.now, m.StartDate)
		s.Equal(time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC), *m.NextPaymentDate())

		s.Equal(events.MortgageOriginated, appended.Type)
		var payload events.MortgageOriginatedPayload
		s.Require().NoError(appended.Decode(&payload))
		s.Equal(m.ID.String(), payload.MortgageID)
		s.Equal(240, payload.TotalPayments)

		stored, err := s.mortgages.FindByApplication(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(m.ID, stored.ID)
	})

	s.Run("second origination is a duplicate", func() {
		app := s.approved()
		s.apps.EXPECT().Load(gomock.Any(), app.ID).Return(app, nil).Times(2)
		s.bus.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
		s.bus.EXPECT().Dispatch(gomock.Any(), gomock.Any())

		_, err := s.coord.Originate(s.ctx, app.ID)
		s.Require().NoError(err)
		_, err = s.coord.Originate(s.ctx, app.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateOrigination))
	})

	s.Run("application not approved", func() {
		app := s.approved()
		app.Status = appmodels.StatusUnderReview
		app.BankReview.FinalTerms = nil
		s.apps.EXPECT().Load(gomock.Any(), app.ID).Return(app, nil)

		_, err := s.coord.Originate(s.ctx, app.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("outbox failure is an internal error", func() {
		app := s.approved()
		s.apps.EXPECT().Load(gomock.Any(), app.ID).Return(app, nil)
		s.bus.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))

		_, err := s.coord.Originate(s.ctx, app.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *CoordinatorSuite) TestHandleApprovedIgnoresRedelivery() {
	app := s.approved()
	s.apps.EXPECT().Load(gomock.Any(), app.ID).Return(app, nil).Times(2)
	s.bus.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	s.bus.EXPECT().Dispatch(gomock.Any(), gomock.Any())

	ev, err := events.New(events.ApplicationApproved, events.AggregateApplication, app.ID.String(),
		events.ApplicationApprovedPayload{ApplicationID: app.ID.String()}, s.now)
	s.Require().NoError(err)

	s.NoError(s.coord.HandleApproved(s.ctx, ev))
	s.NoError(s.coord.HandleApproved(s.ctx, ev))
}

func (s *CoordinatorSuite) TestConcurrentApprovalsOriginateOnce() {
	app := s.approved()
	s.apps.EXPECT().Load(gomock.Any(), app.ID).Return(app, nil).AnyTimes()
	s.bus.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	s.bus.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Times(1)

	const workers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.coord.Originate(s.ctx, app.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case dErrors.HasCode(err, dErrors.CodeDuplicateOrigination):
				duplicates++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, created)
	s.Equal(workers-1, duplicates)
}

// Approval through the application service reaches the coordinator over the
// in-process bus and leaves exactly one mortgage behind.
func (s *CoordinatorSuite) TestApprovalFlow() {
	outbox := eventstore.NewInMemoryStore()
	bus := events.NewBus(outbox, events.WithLogger(s.logger))
	apps := appservice.New(appstore.NewInMemory(), bus, appservice.WithLogger(s.logger))
	coord := New(apps, s.mortgages, bus, WithLogger(s.logger))
	coord.Subscribe(bus)

	bank := id.BankID(uuid.New())
	reviewer := appmodels.Reviewer{ID: id.UserID(uuid.New()), BankID: bank}
	app, err := apps.Submit(s.ctx, appmodels.SubmitParams{
		PropertyID:      id.PropertyID(uuid.New()),
		BuyerID:         id.UserID(uuid.New()),
		BankID:          bank,
		RequestedAmount: decimal.NewFromInt(200_000),
		DownPayment:     decimal.NewFromInt(40_000),
		TermYears:       30,
		InterestRate:    decimal.RequireFromString("6.5"),
		Employment:      appmodels.Employment{Type: appmodels.EmploymentOther, MonthlyIncome: decimal.NewFromInt(7_000)},
	})
	s.Require().NoError(err)
	_, err = apps.BeginReview(s.ctx, app.ID, reviewer)
	s.Require().NoError(err)
	_, err = apps.Decide(s.ctx, app.ID, appmodels.DecideParams{
		Reviewer: reviewer,
		Decision: appmodels.DecisionApproved,
		FinalTerms: &appmodels.FinalTerms{
			Amount:       decimal.NewFromInt(200_000),
			InterestRate: decimal.RequireFromString("6.5"),
			TermYears:    30,
		},
	})
	s.Require().NoError(err)

	m, err := s.mortgages.FindByApplication(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, m.Status)
	s.Equal(360, m.TotalPayments)
	s.Equal("1083.33", m.Payments[0].Interest.StringFixed(2))

	logged, err := outbox.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(logged, 2)
	s.Equal(events.ApplicationApproved, logged[0].Type)
	s.Equal(events.MortgageOriginated, logged[1].Type)
}

func (s *CoordinatorSuite) TestDispatchOutlivesTheRequest() {
	app := s.approved()
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	s.apps.EXPECT().Load(gomock.Any(), app.ID).Return(app, nil)
	s.bus.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, ...events.Event) error {
		cancel()
		return nil
	})
	s.bus.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Do(func(ctx context.Context, _ ...events.Event) {
		s.NoError(ctx.Err())
	})

	_, err := s.coord.Originate(ctx, app.ID)
	s.Require().NoError(err)
}

func (s *CoordinatorSuite) TestReconcile() {
	s.Run("originates approved applications without a mortgage", func() {
		missing := s.approved()
		done := s.approved()
		s.apps.EXPECT().Load(gomock.Any(), done.ID).Return(done, nil)
		s.bus.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		s.bus.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Times(2)
		_, err := s.coord.Originate(s.ctx, done.ID)
		s.Require().NoError(err)

		s.apps.EXPECT().ListApproved(gomock.Any(), 0, reconcilePage).
			Return([]*appmodels.LoanApplication{missing, done}, nil)
		s.apps.EXPECT().Load(gomock.Any(), missing.ID).Return(missing, nil)

		summary, err := s.coord.Reconcile(s.ctx)
		s.Require().NoError(err)
		s.Equal(ReconcileSummary{Approved: 2, Originated: 1}, summary)

		m, err := s.mortgages.FindByApplication(s.ctx, missing.ID)
		s.Require().NoError(err)
		s.Equal(240, m.TotalPayments)
	})

	s.Run("reads every page", func() {
		full := make([]*appmodels.LoanApplication, reconcilePage)
		for i := range full {
			full[i] = s.approved()
			s.Require().NoError(s.mortgages.CreateIfAbsentForApplication(s.ctx, s.mortgageFor(full[i])))
		}
		gomock.InOrder(
			s.apps.EXPECT().ListApproved(gomock.Any(), 0, reconcilePage).Return(full, nil),
			s.apps.EXPECT().ListApproved(gomock.Any(), reconcilePage, reconcilePage).Return(nil, nil),
		)

		summary, err := s.coord.Reconcile(s.ctx)
		s.Require().NoError(err)
		s.Equal(ReconcileSummary{Approved: reconcilePage}, summary)
	})

	s.Run("a failed origination is counted and the pass continues", func() {
		broken := s.approved()
		broken.BankReview.FinalTerms = nil
		fine := s.approved()
		s.apps.EXPECT().ListApproved(gomock.Any(), 0, reconcilePage).
			Return([]*appmodels.LoanApplication{broken, fine}, nil)
		s.apps.EXPECT().Load(gomock.Any(), broken.ID).Return(broken, nil)
		s.apps.EXPECT().Load(gomock.Any(), fine.ID).Return(fine, nil)
		s.bus.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
		s.bus.EXPECT().Dispatch(gomock.Any(), gomock.Any())

		summary, err := s.coord.Reconcile(s.ctx)
		s.Require().NoError(err)
		s.Equal(ReconcileSummary{Approved: 2, Originated: 1, Failed: 1}, summary)
	})

	s.Run("listing failure stops the pass", func() {
		s.apps.EXPECT().ListApproved(gomock.Any(), 0, reconcilePage).
			Return(nil, dErrors.New(dErrors.CodeInternal, "failed to list applications"))

		_, err := s.coord.Reconcile(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *CoordinatorSuite) mortgageFor(app *appmodels.LoanApplication) *models.Mortgage {
	terms := app.BankReview.FinalTerms
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
	}, s.now)
	s.Require().NoError(err)
	return m
}

// failingCreates refuses the first n mortgage creations.
type failingCreates struct {
	*store.InMemory
	n int
}

func (f *failingCreates) CreateIfAbsentForApplication(ctx context.Context, m *models.Mortgage) error {
	if f.n > 0 {
		f.n--
		return errors.New("connection reset")
	}
	return f.InMemory.CreateIfAbsentForApplication(ctx, m)
}

// An approval whose origination failed stays approved with no mortgage until
// the reconcile pass picks it up.
func (s *CoordinatorSuite) TestReconcileRecoversFailedApproval() {
	outbox := eventstore.NewInMemoryStore()
	bus := events.NewBus(outbox, events.WithLogger(s.logger))
	apps := appservice.New(appstore.NewInMemory(), bus, appservice.WithLogger(s.logger))
	mortgages := &failingCreates{InMemory: s.mortgages, n: 1}
	coord := New(apps, mortgages, bus, WithLogger(s.logger))
	coord.Subscribe(bus)

	bank := id.BankID(uuid.New())
	reviewer := appmodels.Reviewer{ID: id.UserID(uuid.New()), BankID: bank}
	app, err := apps.Submit(s.ctx, appmodels.SubmitParams{
		PropertyID:      id.PropertyID(uuid.New()),
		BuyerID:         id.UserID(uuid.New()),
		BankID:          bank,
		RequestedAmount: decimal.NewFromInt(200_000),
		DownPayment:     decimal.NewFromInt(40_000),
		TermYears:       30,
		InterestRate:    decimal.RequireFromString("6.5"),
		Employment:      appmodels.Employment{Type: appmodels.EmploymentOther, MonthlyIncome: decimal.NewFromInt(7_000)},
	})
	s.Require().NoError(err)
	_, err = apps.BeginReview(s.ctx, app.ID, reviewer)
	s.Require().NoError(err)
	decided, err := apps.Decide(s.ctx, app.ID, appmodels.DecideParams{
		Reviewer: reviewer,
		Decision: appmodels.DecisionApproved,
		FinalTerms: &appmodels.FinalTerms{
			Amount:       decimal.NewFromInt(200_000),
			InterestRate: decimal.RequireFromString("6.5"),
			TermYears:    30,
		},
	})
	s.Require().NoError(err)
	s.Equal(appmodels.StatusApproved, decided.Status)

	_, err = s.mortgages.FindByApplication(s.ctx, app.ID)
	s.Require().Error(err)

	summary, err := coord.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Equal(ReconcileSummary{Approved: 1, Originated: 1}, summary)

	m, err := s.mortgages.FindByApplication(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(360, m.TotalPayments)

	summary, err = coord.Reconcile(s.ctx)
	s.Require().NoError(err)
	s.Equal(ReconcileSummary{Approved: 1}, summary)

	logged, err := outbox.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(logged, 2)
	s.Equal(events.MortgageOriginated, logged[1].Type)
}
