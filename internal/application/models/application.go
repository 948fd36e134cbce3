package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"homeloan/internal/amortization"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
)

const (
	maxProductIDLength = 128
	maxNotesLength     = 4000
	maxConditions      = 50
	maxDocuments       = 50
)

// monthlyPaymentTolerance bounds how far a reviewer-supplied monthly payment
// may drift from the amortized value of the final terms.
var monthlyPaymentTolerance = decimal.NewFromInt(1)

// LoanApplication is the aggregate root for a buyer's request for a mortgage.
//
// Invariants:
//   - RequestedAmount and DownPayment are non-negative; TermYears is 1..30; InterestRate >= 0
//   - Employment is immutable after submission
//   - BankReview is present iff Status is not pending and not withdrawn
//   - BankReview.FinalTerms is present iff BankReview.Decision is approved
//   - approved, rejected and withdrawn are terminal: no method mutates them
type LoanApplication struct {
	ID         id.ApplicationID `json:"id"`
	PropertyID id.PropertyID    `json:"property_id"`
	BuyerID    id.UserID        `json:"buyer_id"`
	BankID     id.BankID        `json:"bank_id"`
	ProductID  string           `json:"product_id,omitempty"`

	RequestedAmount         decimal.Decimal `json:"requested_amount"`
	DownPayment             decimal.Decimal `json:"down_payment"`
	TermYears               int             `json:"term_years"`
	InterestRate            decimal.Decimal `json:"interest_rate"`
	EstimatedMonthlyPayment decimal.Decimal `json:"estimated_monthly_payment"`

	Employment Employment  `json:"employment"`
	Status     Status      `json:"status"`
	BankReview *BankReview `json:"bank_review,omitempty"`
	Documents  []Document  `json:"documents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BankReview is the reviewer's working record for an application.
type BankReview struct {
	ReviewerID id.UserID   `json:"reviewer_id"`
	StartedAt  time.Time   `json:"started_at"`
	Decision   Decision    `json:"decision,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	Conditions []string    `json:"conditions,omitempty"`
	FinalTerms *FinalTerms `json:"final_terms,omitempty"`
	DecidedAt  *time.Time  `json:"decided_at,omitempty"`
}

// FinalTerms are the loan terms granted on approval. They may differ from the request.
type FinalTerms struct {
	Amount         decimal.Decimal `json:"amount"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	TermYears      int             `json:"term_years"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}

// Document is a reference to an externally stored file.
type Document struct {
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Reviewer identifies a bank reviewer acting on an application.
type Reviewer struct {
	ID     id.UserID
	BankID id.BankID
}

// SubmitParams carries the buyer's submission.
type SubmitParams struct {
	PropertyID      id.PropertyID
	BuyerID         id.UserID
	BankID          id.BankID
	ProductID       string
	RequestedAmount decimal.Decimal
	DownPayment     decimal.Decimal
	TermYears       int
	InterestRate    decimal.Decimal
	Employment      Employment
	Documents       []Document
}

// DecideParams carries a reviewer's decision.
type DecideParams struct {
	Reviewer   Reviewer
	Decision   Decision
	Notes      string
	Conditions []string
	FinalTerms *FinalTerms
}

// NewApplication validates a submission and returns a pending application.
func NewApplication(appID id.ApplicationID, p SubmitParams, now time.Time) (*LoanApplication, error) {
	if p.PropertyID.IsNil() || p.BuyerID.IsNil() || p.BankID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "property, buyer and bank are required")
	}
	if len(p.ProductID) > maxProductIDLength {
		return nil, dErrors.New(dErrors.CodeValidation, "product id is too long")
	}
	if p.RequestedAmount.IsNegative() {
		return nil, dErrors.New(dErrors.CodeValidation, "requested amount must not be negative")
	}
	if p.DownPayment.IsNegative() {
		return nil, dErrors.New(dErrors.CodeValidation, "down payment must not be negative")
	}
	if p.TermYears < amortization.MinTermYears || p.TermYears > amortization.MaxTermYears {
		return nil, dErrors.New(dErrors.CodeValidation, "term must be between 1 and 30 years")
	}
	if p.InterestRate.IsNegative() {
		return nil, dErrors.New(dErrors.CodeValidation, "interest rate must not be negative")
	}
	employment := p.Employment
	if err := employment.Validate(); err != nil {
		return nil, err
	}
	docs, err := stampDocuments(nil, p.Documents, now)
	if err != nil {
		return nil, err
	}

	estimate := decimal.Zero
	if p.RequestedAmount.IsPositive() {
		q, err := amortization.Calculate(amortization.Terms{
			Principal:         p.RequestedAmount,
			AnnualRatePercent: p.InterestRate,
			TermYears:         p.TermYears,
		})
		if err != nil {
			return nil, err
		}
		estimate = q.MonthlyPayment
	}

	return &LoanApplication{
		ID:                      appID,
		PropertyID:              p.PropertyID,
		BuyerID:                 p.BuyerID,
		BankID:                  p.BankID,
		ProductID:               p.ProductID,
		RequestedAmount:         amortization.RoundCents(p.RequestedAmount),
		DownPayment:             amortization.RoundCents(p.DownPayment),
		TermYears:               p.TermYears,
		InterestRate:            p.InterestRate,
		EstimatedMonthlyPayment: estimate,
		Employment:              employment,
		Status:                  StatusPending,
		Documents:               docs,
		CreatedAt:               now,
		UpdatedAt:               now,
	}, nil
}

func (a *LoanApplication) IsTerminal() bool {
	return a.Status.IsTerminal()
}

func (a *LoanApplication) invalidTransition(action string) error {
	return dErrors.New(dErrors.CodeInvalidTransition, "cannot "+action+" application in status "+string(a.Status))
}

// CanBeginReview checks the reviewer may start reviewing.
func (a *LoanApplication) CanBeginReview(r Reviewer) error {
	if !a.Status.CanTransitionTo(StatusUnderReview) {
		return a.invalidTransition("begin review of")
	}
	if r.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "reviewer is required")
	}
	if r.BankID != a.BankID {
		return dErrors.New(dErrors.CodeForbidden, "reviewer does not belong to the application's bank")
	}
	return nil
}

// ApplyBeginReview records the reviewer and moves the application to under_review.
// Any earlier decision is discarded.
func (a *LoanApplication) ApplyBeginReview(r Reviewer, now time.Time) {
	a.Status = StatusUnderReview
	a.BankReview = &BankReview{ReviewerID: r.ID, StartedAt: now}
	a.UpdatedAt = now
}

// CanDecide checks the decision is allowed and well-formed. It may fill in
// the monthly payment of final terms when the reviewer omitted it.
func (a *LoanApplication) CanDecide(p *DecideParams, policy ReviewerPolicy) error {
	if a.Status != StatusUnderReview || a.BankReview == nil {
		return a.invalidTransition("decide")
	}
	if _, err := ParseDecision(string(p.Decision)); err != nil {
		return err
	}
	switch policy {
	case ReviewerPolicySameBank:
		if p.Reviewer.BankID != a.BankID {
			return dErrors.New(dErrors.CodeReviewerMismatch, "reviewer does not belong to the application's bank")
		}
	default:
		if p.Reviewer.ID != a.BankReview.ReviewerID {
			return dErrors.New(dErrors.CodeReviewerMismatch, "only the reviewer who began review may decide")
		}
	}
	if len(p.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes are too long")
	}
	if len(p.Conditions) > maxConditions {
		return dErrors.New(dErrors.CodeValidation, "too many conditions")
	}

	if p.Decision != DecisionApproved {
		if p.FinalTerms != nil {
			return dErrors.New(dErrors.CodeValidation, "final terms are only allowed when approving")
		}
		return nil
	}
	if p.FinalTerms == nil {
		return dErrors.New(dErrors.CodeValidation, "final terms are required when approving")
	}
	return p.FinalTerms.normalize()
}

// ApplyDecision moves the application to the decided status.
func (a *LoanApplication) ApplyDecision(p DecideParams, now time.Time) {
	a.Status = p.Decision.Status()
	a.BankReview.ReviewerID = p.Reviewer.ID
	a.BankReview.Decision = p.Decision
	a.BankReview.Notes = p.Notes
	a.BankReview.Conditions = slices.Clone(p.Conditions)
	a.BankReview.FinalTerms = nil
	if p.Decision == DecisionApproved {
		terms := *p.FinalTerms
		a.BankReview.FinalTerms = &terms
	}
	decidedAt := now
	a.BankReview.DecidedAt = &decidedAt
	a.UpdatedAt = now
}

// CanWithdraw checks the buyer may withdraw.
func (a *LoanApplication) CanWithdraw(buyer id.UserID) error {
	if buyer != a.BuyerID {
		return dErrors.New(dErrors.CodeForbidden, "only the applicant may withdraw")
	}
	if !a.Status.CanTransitionTo(StatusWithdrawn) {
		return a.invalidTransition("withdraw")
	}
	return nil
}

// ApplyWithdrawal moves the application to withdrawn and drops the review.
func (a *LoanApplication) ApplyWithdrawal(now time.Time) {
	a.Status = StatusWithdrawn
	a.BankReview = nil
	a.UpdatedAt = now
}

// CanAttachDocuments checks the buyer may add documents.
func (a *LoanApplication) CanAttachDocuments(buyer id.UserID, docs []Document) error {
	if buyer != a.BuyerID {
		return dErrors.New(dErrors.CodeForbidden, "only the applicant may attach documents")
	}
	if a.Status != StatusPending && a.Status != StatusNeedsMoreInfo {
		return a.invalidTransition("attach documents to")
	}
	if len(docs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one document is required")
	}
	if len(a.Documents)+len(docs) > maxDocuments {
		return dErrors.New(dErrors.CodeValidation, "too many documents")
	}
	_, err := stampDocuments(nil, docs, time.Time{})
	return err
}

// ApplyAttachDocuments appends documents, stamping their upload time.
func (a *LoanApplication) ApplyAttachDocuments(docs []Document, now time.Time) {
	a.Documents, _ = stampDocuments(a.Documents, docs, now)
	a.UpdatedAt = now
}

// CanResubmit checks the buyer may hand a needs_more_info application back for review.
func (a *LoanApplication) CanResubmit(buyer id.UserID) error {
	if buyer != a.BuyerID {
		return dErrors.New(dErrors.CodeForbidden, "only the applicant may resubmit")
	}
	if a.Status != StatusNeedsMoreInfo {
		return a.invalidTransition("resubmit")
	}
	return nil
}

// ApplyResubmission returns the application to the reviewer who asked for more information.
func (a *LoanApplication) ApplyResubmission(now time.Time) {
	a.Status = StatusUnderReview
	a.BankReview = &BankReview{ReviewerID: a.BankReview.ReviewerID, StartedAt: now}
	a.UpdatedAt = now
}

// CheckInvariants reports a violation of the review-presence invariants.
func (a *LoanApplication) CheckInvariants() error {
	if a.Status.HasReview() != (a.BankReview != nil) {
		return dErrors.New(dErrors.CodeInvariantViolation, "bank review presence does not match status")
	}
	if a.BankReview != nil && (a.BankReview.Decision == DecisionApproved) != (a.BankReview.FinalTerms != nil) {
		return dErrors.New(dErrors.CodeInvariantViolation, "final terms presence does not match decision")
	}
	return nil
}

// normalize validates the terms, rounds money to cents and derives the
// monthly payment when it was omitted.
func (t *FinalTerms) normalize() error {
	q, err := amortization.Calculate(amortization.Terms{
		Principal:         t.Amount,
		AnnualRatePercent: t.InterestRate,
		TermYears:         t.TermYears,
	})
	if err != nil {
		return err
	}
	t.Amount = amortization.RoundCents(t.Amount)
	if t.MonthlyPayment.IsZero() {
		t.MonthlyPayment = q.MonthlyPayment
		return nil
	}
	if t.MonthlyPayment.Sub(q.MonthlyPayment).Abs().GreaterThan(monthlyPaymentTolerance) {
		return dErrors.New(dErrors.CodeValidation, "monthly payment does not match the final terms; expected "+q.MonthlyPayment.StringFixed(2))
	}
	t.MonthlyPayment = q.MonthlyPayment
	return nil
}

func stampDocuments(existing, docs []Document, now time.Time) ([]Document, error) {
	out := slices.Clone(existing)
	for _, d := range docs {
		if d.Type == "" || d.URL == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "document type and url are required")
		}
		if d.Name == "" {
			d.Name = d.Type
		}
		d.UploadedAt = now
		out = append(out, d)
	}
	if out == nil {
		out = []Document{}
	}
	return out, nil
}

// Clone returns a deep copy so stores never hand out shared state.
func (a *LoanApplication) Clone() *LoanApplication {
	c := *a
	c.Documents = slices.Clone(a.Documents)
	if a.BankReview != nil {
		r := *a.BankReview
		r.Conditions = slices.Clone(a.BankReview.Conditions)
		if a.BankReview.FinalTerms != nil {
			t := *a.BankReview.FinalTerms
			r.FinalTerms = &t
		}
		if a.BankReview.DecidedAt != nil {
			d := *a.BankReview.DecidedAt
			r.DecidedAt = &d
		}
		c.BankReview = &r
	}
	return &c
}
