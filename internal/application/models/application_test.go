package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
)

type ApplicationModelSuite struct {
	suite.Suite
	now      time.Time
	buyer    id.UserID
	bank     id.BankID
	reviewer Reviewer
}

func TestApplicationModelSuite(t *testing.T) {
	suite.Run(t, new(ApplicationModelSuite))
}

func (s *ApplicationModelSuite) SetupTest() {
	s.now = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	s.buyer = id.UserID(uuid.New())
	s.bank = id.BankID(uuid.New())
	s.reviewer = Reviewer{ID: id.UserID(uuid.New()), BankID: s.bank}
}

func (s *ApplicationModelSuite) params() SubmitParams {
	return SubmitParams{
		PropertyID:      id.PropertyID(uuid.New()),
		BuyerID:         s.buyer,
		BankID:          s.bank,
		ProductID:       "fixed-20",
		RequestedAmount: decimal.NewFromInt(10_000_000),
		DownPayment:     decimal.NewFromInt(2_000_000),
		TermYears:       20,
		InterestRate:    decimal.NewFromInt(12),
		Employment: Employment{
			Type:          EmploymentEmployed,
			EmployerName:  "Acme",
			BusinessName:  "ignored",
			MonthlyIncome: decimal.NewFromInt(900_000),
		},
	}
}

func (s *ApplicationModelSuite) newApp() *LoanApplication {
	app, err := NewApplication(id.NewApplicationID(), s.params(), s.now)
	s.Require().NoError(err)
	return app
}

func (s *ApplicationModelSuite) approveTerms() *FinalTerms {
	return &FinalTerms{Amount: decimal.NewFromInt(9_000_000), InterestRate: decimal.NewFromInt(12), TermYears: 20}
}

// appIn builds an application in the requested status via legal transitions.
func (s *ApplicationModelSuite) appIn(status Status) *LoanApplication {
	app := s.newApp()
	if status == StatusPending {
		return app
	}
	if status == StatusWithdrawn {
		app.ApplyWithdrawal(s.now)
		return app
	}
	app.ApplyBeginReview(s.reviewer, s.now)
	switch status {
	case StatusApproved:
		app.ApplyDecision(DecideParams{Reviewer: s.reviewer, Decision: DecisionApproved, FinalTerms: s.approveTerms()}, s.now)
	case StatusRejected:
		app.ApplyDecision(DecideParams{Reviewer: s.reviewer, Decision: DecisionRejected}, s.now)
	case StatusNeedsMoreInfo:
		app.ApplyDecision(DecideParams{Reviewer: s.reviewer, Decision: DecisionNeedsMoreInfo}, s.now)
	}
	return app
}

func (s *ApplicationModelSuite) TestNewApplication() {
	s.Run("creates pending application with estimate", func() {
		app := s.newApp()
		s.Equal(StatusPending, app.Status)
		s.Nil(app.BankReview)
		s.Equal("110108.61", app.EstimatedMonthlyPayment.StringFixed(2))
		s.Empty(app.Employment.BusinessName, "fields of other variants are dropped")
		s.NoError(app.CheckInvariants())
	})

	s.Run("zero requested amount has zero estimate", func() {
		p := s.params()
		p.RequestedAmount = decimal.Zero
		app, err := NewApplication(id.NewApplicationID(), p, s.now)
		s.Require().NoError(err)
		s.True(app.EstimatedMonthlyPayment.IsZero())
	})

	s.Run("rejects out of bounds input", func() {
		mutations := map[string]func(*SubmitParams){
			"negative amount":       func(p *SubmitParams) { p.RequestedAmount = decimal.NewFromInt(-1) },
			"negative down payment": func(p *SubmitParams) { p.DownPayment = decimal.NewFromInt(-1) },
			"term zero":             func(p *SubmitParams) { p.TermYears = 0 },
			"term 31":               func(p *SubmitParams) { p.TermYears = 31 },
			"negative rate":         func(p *SubmitParams) { p.InterestRate = decimal.NewFromInt(-2) },
			"missing bank":          func(p *SubmitParams) { p.BankID = id.BankID{} },
			"employed no employer":  func(p *SubmitParams) { p.Employment.EmployerName = "" },
			"unknown employment":    func(p *SubmitParams) { p.Employment.Type = "retired" },
			"self employed no name": func(p *SubmitParams) { p.Employment = Employment{Type: EmploymentSelfEmployed} },
			"document without url":  func(p *SubmitParams) { p.Documents = []Document{{Type: "id"}} },
		}
		for name, mutate := range mutations {
			p := s.params()
			mutate(&p)
			_, err := NewApplication(id.NewApplicationID(), p, s.now)
			s.Require().Error(err, name)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), name)
		}
	})
}

func (s *ApplicationModelSuite) TestReviewLifecycle() {
	s.Run("begin review records reviewer", func() {
		app := s.newApp()
		s.Require().NoError(app.CanBeginReview(s.reviewer))
		app.ApplyBeginReview(s.reviewer, s.now)
		s.Equal(StatusUnderReview, app.Status)
		s.Equal(s.reviewer.ID, app.BankReview.ReviewerID)
		s.Equal(s.now, app.BankReview.StartedAt)
		s.NoError(app.CheckInvariants())
	})

	s.Run("reviewer from another bank is forbidden", func() {
		app := s.newApp()
		err := app.CanBeginReview(Reviewer{ID: id.UserID(uuid.New()), BankID: id.BankID(uuid.New())})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("a status that is not a decision is a validation error", func() {
		app := s.appIn(StatusUnderReview)
		for _, d := range []Decision{"withdrawn", "pending", ""} {
			p := DecideParams{Reviewer: s.reviewer, Decision: d}
			err := app.CanDecide(&p, ReviewerPolicyStrict)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "decision %q", d)
		}
		s.Equal(StatusUnderReview, app.Status)
	})

	s.Run("begin review twice is an invalid transition", func() {
		app := s.appIn(StatusUnderReview)
		s.True(dErrors.HasCode(app.CanBeginReview(s.reviewer), dErrors.CodeInvalidTransition))
	})

	s.Run("approval derives monthly payment", func() {
		app := s.appIn(StatusUnderReview)
		p := DecideParams{Reviewer: s.reviewer, Decision: DecisionApproved, FinalTerms: s.approveTerms()}
		s.Require().NoError(app.CanDecide(&p, ReviewerPolicyStrict))
		app.ApplyDecision(p, s.now)
		s.Equal(StatusApproved, app.Status)
		s.Equal("99097.75", app.BankReview.FinalTerms.MonthlyPayment.StringFixed(2))
		s.NoError(app.CheckInvariants())
	})

	s.Run("approval requires final terms", func() {
		app := s.appIn(StatusUnderReview)
		p := DecideParams{Reviewer: s.reviewer, Decision: DecisionApproved}
		s.True(dErrors.HasCode(app.CanDecide(&p, ReviewerPolicyStrict), dErrors.CodeValidation))
	})

	s.Run("rejection must not carry final terms", func() {
		app := s.appIn(StatusUnderReview)
		p := DecideParams{Reviewer: s.reviewer, Decision: DecisionRejected, FinalTerms: s.approveTerms()}
		s.True(dErrors.HasCode(app.CanDecide(&p, ReviewerPolicyStrict), dErrors.CodeValidation))
	})

	s.Run("monthly payment far from terms is rejected", func() {
		app := s.appIn(StatusUnderReview)
		terms := s.approveTerms()
		terms.MonthlyPayment = decimal.NewFromInt(50_000)
		p := DecideParams{Reviewer: s.reviewer, Decision: DecisionApproved, FinalTerms: terms}
		s.True(dErrors.HasCode(app.CanDecide(&p, ReviewerPolicyStrict), dErrors.CodeValidation))
	})

	s.Run("counter-offer above request is allowed", func() {
		app := s.appIn(StatusUnderReview)
		terms := s.approveTerms()
		terms.Amount = decimal.NewFromInt(12_000_000)
		p := DecideParams{Reviewer: s.reviewer, Decision: DecisionApproved, FinalTerms: terms}
		s.NoError(app.CanDecide(&p, ReviewerPolicyStrict))
	})

	s.Run("strict policy rejects a different reviewer", func() {
		app := s.appIn(StatusUnderReview)
		other := Reviewer{ID: id.UserID(uuid.New()), BankID: s.bank}
		p := DecideParams{Reviewer: other, Decision: DecisionRejected}
		s.True(dErrors.HasCode(app.CanDecide(&p, ReviewerPolicyStrict), dErrors.CodeReviewerMismatch))
		s.NoError(app.CanDecide(&p, ReviewerPolicySameBank))
	})

	s.Run("same bank policy rejects other banks", func() {
		app := s.appIn(StatusUnderReview)
		other := Reviewer{ID: s.reviewer.ID, BankID: id.BankID(uuid.New())}
		p := DecideParams{Reviewer: other, Decision: DecisionRejected}
		s.True(dErrors.HasCode(app.CanDecide(&p, ReviewerPolicySameBank), dErrors.CodeReviewerMismatch))
	})

	s.Run("needs more info then resubmit keeps reviewer", func() {
		app := s.appIn(StatusNeedsMoreInfo)
		s.NoError(app.CheckInvariants())
		s.Require().NoError(app.CanAttachDocuments(s.buyer, []Document{{Type: "payslip", URL: "https://files/p.pdf"}}))
		app.ApplyAttachDocuments([]Document{{Type: "payslip", URL: "https://files/p.pdf"}}, s.now)
		s.Require().Len(app.Documents, 1)
		s.Equal("payslip", app.Documents[0].Name)

		s.Require().NoError(app.CanResubmit(s.buyer))
		app.ApplyResubmission(s.now.Add(time.Hour))
		s.Equal(StatusUnderReview, app.Status)
		s.Equal(s.reviewer.ID, app.BankReview.ReviewerID)
		s.Empty(app.BankReview.Decision)
		s.NoError(app.CheckInvariants())
	})

	s.Run("withdraw clears the review", func() {
		app := s.appIn(StatusUnderReview)
		s.Require().NoError(app.CanWithdraw(s.buyer))
		app.ApplyWithdrawal(s.now)
		s.Equal(StatusWithdrawn, app.Status)
		s.Nil(app.BankReview)
		s.NoError(app.CheckInvariants())
	})

	s.Run("only the buyer may withdraw", func() {
		app := s.newApp()
		s.True(dErrors.HasCode(app.CanWithdraw(id.UserID(uuid.New())), dErrors.CodeForbidden))
	})
}

// TestTerminalStatesAreFrozen tries every operation from every terminal state.
func (s *ApplicationModelSuite) TestTerminalStatesAreFrozen() {
	for _, status := range []Status{StatusApproved, StatusRejected, StatusWithdrawn} {
		s.Run(string(status), func() {
			s.True(status.IsTerminal())
			ops := map[string]func(*LoanApplication) error{
				"begin review": func(a *LoanApplication) error { return a.CanBeginReview(s.reviewer) },
				"withdraw":     func(a *LoanApplication) error { return a.CanWithdraw(s.buyer) },
				"resubmit":     func(a *LoanApplication) error { return a.CanResubmit(s.buyer) },
				"attach": func(a *LoanApplication) error {
					return a.CanAttachDocuments(s.buyer, []Document{{Type: "id", URL: "https://files/id.pdf"}})
				},
			}
			for _, d := range []Decision{DecisionApproved, DecisionRejected, DecisionNeedsMoreInfo} {
				ops["decide "+string(d)] = func(a *LoanApplication) error {
					p := DecideParams{Reviewer: s.reviewer, Decision: d, FinalTerms: s.approveTerms()}
					return a.CanDecide(&p, ReviewerPolicySameBank)
				}
			}
			for name, op := range ops {
				app := s.appIn(status)
				err := op(app)
				s.Require().Error(err, name)
				s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "%s from %s", name, status)
			}
		})
	}
}

func (s *ApplicationModelSuite) TestStatusParsing() {
	_, err := ParseStatus("approved")
	s.NoError(err)
	_, err = ParseStatus("archived")
	s.Error(err)
	_, err = ParseDecision("withdrawn")
	s.Error(err)
	_, err = ParseReviewerPolicy("same_bank")
	s.NoError(err)
}
