package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"homeloan/internal/application/handler/mocks"
	"homeloan/internal/application/models"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
	"homeloan/pkg/requestcontext"
	"homeloan/pkg/testutil"
)

type ApplicationHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	bank    id.BankID
	buyer   requestcontext.Principal
	now     time.Time
}

func TestApplicationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ApplicationHandlerSuite))
}

func (s *ApplicationHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
	s.bank = id.BankID(uuid.New())
	s.buyer = testutil.Buyer()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *ApplicationHandlerSuite) app(status models.Status) *models.LoanApplication {
	return &models.LoanApplication{
		ID:                      id.NewApplicationID(),
		PropertyID:              id.PropertyID(uuid.New()),
		BuyerID:                 s.buyer.UserID,
		BankID:                  s.bank,
		RequestedAmount:         decimal.NewFromInt(300_000),
		DownPayment:             decimal.NewFromInt(60_000),
		TermYears:               25,
		InterestRate:            decimal.RequireFromString("5.25"),
		EstimatedMonthlyPayment: decimal.RequireFromString("1797.76"),
		Employment:              models.Employment{Type: models.EmploymentOther},
		Status:                  status,
		CreatedAt:               s.now,
		UpdatedAt:               s.now,
	}
}

func (s *ApplicationHandlerSuite) submitBody() map[string]any {
	return map[string]any{
		"property_id":      uuid.NewString(),
		"bank_id":          s.bank.String(),
		"requested_amount": "300000",
		"down_payment":     "60000",
		"term_years":       25,
		"interest_rate":    "5.25",
		"employment":       map[string]any{"type": "other", "monthly_income": "9000"},
	}
}

func (s *ApplicationHandlerSuite) TestSubmit() {
	s.Run("buyer submits and gets 201", func() {
		created := s.app(models.StatusPending)
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, p models.SubmitParams) (*models.LoanApplication, error) {
				s.Equal(s.buyer.UserID, p.BuyerID)
				s.Equal(s.bank, p.BankID)
				s.Equal("300000", p.RequestedAmount.String())
				return created, nil
			})

		req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications", s.submitBody()), s.buyer)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[ApplicationResponse](s.T(), rr)
		s.Equal(created.ID.String(), resp.ID)
		s.Equal("pending", resp.Status)
		s.Equal("1797.76", resp.EstimatedMonthlyPayment)
	})

	s.Run("unauthenticated", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications", s.submitBody()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("reviewers cannot submit", func() {
		req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications", s.submitBody()), testutil.Reviewer(s.bank))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("malformed bank id", func() {
		body := s.submitBody()
		body["bank_id"] = "not-a-uuid"
		req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications", body), s.buyer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("truncated body is a bad request", func() {
		req := testutil.WithActor(testutil.NewRequestWithBody(s.T(), http.MethodPost, "/applications", `{"property_id":`), s.buyer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unknown fields are rejected", func() {
		body := s.submitBody()
		body["buyer_id"] = uuid.NewString()
		req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications", body), s.buyer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *ApplicationHandlerSuite) TestDecide() {
	reviewer := testutil.Reviewer(s.bank)
	app := s.app(models.StatusApproved)

	s.Run("approval without monthly payment", func() {
		s.service.EXPECT().Decide(gomock.Any(), app.ID, gomock.Any()).DoAndReturn(
			func(_ any, _ id.ApplicationID, p models.DecideParams) (*models.LoanApplication, error) {
				s.Equal(models.Reviewer{ID: reviewer.UserID, BankID: s.bank}, p.Reviewer)
				s.Equal(models.DecisionApproved, p.Decision)
				s.Require().NotNil(p.FinalTerms)
				s.True(p.FinalTerms.MonthlyPayment.IsZero())
				s.Equal(20, p.FinalTerms.TermYears)
				return app, nil
			})

		body := map[string]any{
			"decision": "approved",
			"final_terms": map[string]any{
				"amount":        "250000",
				"interest_rate": "5",
				"term_years":    20,
			},
		}
		req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications/"+app.ID.String()+"/decision", body), reviewer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("conditions are trimmed and deduplicated", func() {
		s.service.EXPECT().Decide(gomock.Any(), app.ID, gomock.Any()).DoAndReturn(
			func(_ any, _ id.ApplicationID, p models.DecideParams) (*models.LoanApplication, error) {
				s.Equal([]string{"payslip", "bank statement"}, p.Conditions)
				return app, nil
			})
		body := map[string]any{
			"decision":   "needs_more_info",
			"conditions": []string{" payslip", "bank statement", "", "payslip "},
		}
		req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications/"+app.ID.String()+"/decision", body), reviewer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("invalid decision value", func() {
		req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications/"+app.ID.String()+"/decision",
			map[string]any{"decision": "maybe"}), reviewer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("reviewer mismatch maps to 403", func() {
		s.service.EXPECT().Decide(gomock.Any(), app.ID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeReviewerMismatch, "another reviewer owns this review"))
		req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications/"+app.ID.String()+"/decision",
			map[string]any{"decision": "rejected", "notes": "income too low"}), reviewer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "reviewer_mismatch")
	})
}

func (s *ApplicationHandlerSuite) TestReads() {
	s.Run("get with malformed id", func() {
		req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/applications/xyz"), s.buyer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("not found", func() {
		appID := id.NewApplicationID()
		s.service.EXPECT().Get(gomock.Any(), appID, s.buyer).Return(nil, dErrors.New(dErrors.CodeNotFound, "application not found"))
		req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/applications/"+appID.String()), s.buyer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("list parses status filter", func() {
		s.service.EXPECT().List(gomock.Any(), s.buyer, models.ListFilter{
			Statuses: []models.Status{models.StatusPending, models.StatusUnderReview},
			Limit:    10,
		}).Return([]*models.LoanApplication{s.app(models.StatusPending)}, nil)

		req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/applications?status=pending,under_review&limit=10"), s.buyer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[ListResponse](s.T(), rr)
		s.Equal(1, resp.Count)
	})

	s.Run("list rejects bad paging", func() {
		req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/applications?offset=-1"), s.buyer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *ApplicationHandlerSuite) TestBuyerActions() {
	app := s.app(models.StatusUnderReview)

	s.Run("resubmit without a body", func() {
		s.service.EXPECT().Resubmit(gomock.Any(), app.ID, s.buyer.UserID, gomock.Nil()).Return(app, nil)
		req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodPost, "/applications/"+app.ID.String()+"/resubmit"), s.buyer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("attach documents", func() {
		s.service.EXPECT().AttachDocuments(gomock.Any(), app.ID, s.buyer.UserID, []models.Document{
			{Type: "payslip", URL: "https://files/p.pdf", Name: "May"},
		}).Return(app, nil)
		body := map[string]any{"documents": []map[string]string{{"type": " payslip ", "url": "https://files/p.pdf", "name": "May"}}}
		req := testutil.WithActor(testutil.NewJSONRequest(s.T(), http.MethodPost, "/applications/"+app.ID.String()+"/documents", body), s.buyer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("withdraw a decided application conflicts", func() {
		s.service.EXPECT().Withdraw(gomock.Any(), app.ID, s.buyer.UserID).
			Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "cannot withdraw an approved application"))
		req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodPost, "/applications/"+app.ID.String()+"/withdraw"), s.buyer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invalid_transition")
	})

	s.Run("begin review as reviewer", func() {
		reviewer := testutil.Reviewer(s.bank)
		s.service.EXPECT().BeginReview(gomock.Any(), app.ID, models.Reviewer{ID: reviewer.UserID, BankID: s.bank}).Return(app, nil)
		req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodPost, "/applications/"+app.ID.String()+"/review"), reviewer)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})
}
