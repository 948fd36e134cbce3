package handler

import (
	"time"

	"homeloan/internal/application/models"
)

// ApplicationResponse renders money as fixed two-decimal strings.
type ApplicationResponse struct {
	ID                      string            `json:"id"`
	PropertyID              string            `json:"property_id"`
	BuyerID                 string            `json:"buyer_id"`
	BankID                  string            `json:"bank_id"`
	ProductID               string            `json:"product_id,omitempty"`
	RequestedAmount         string            `json:"requested_amount"`
	DownPayment             string            `json:"down_payment"`
	TermYears               int               `json:"term_years"`
	InterestRate            string            `json:"interest_rate"`
	EstimatedMonthlyPayment string            `json:"estimated_monthly_payment"`
	Employment              models.Employment `json:"employment"`
	Status                  string            `json:"status"`
	Review                  *ReviewResponse   `json:"bank_review,omitempty"`
	Documents               []models.Document `json:"documents"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

type ReviewResponse struct {
	ReviewerID string              `json:"reviewer_id"`
	StartedAt  time.Time           `json:"started_at"`
	Decision   string              `json:"decision,omitempty"`
	Notes      string              `json:"notes,omitempty"`
	Conditions []string            `json:"conditions,omitempty"`
	FinalTerms *FinalTermsResponse `json:"final_terms,omitempty"`
	DecidedAt  *time.Time          `json:"decided_at,omitempty"`
}

type FinalTermsResponse struct {
	Amount         string `json:"amount"`
	InterestRate   string `json:"interest_rate"`
	TermYears      int    `json:"term_years"`
	MonthlyPayment string `json:"monthly_payment"`
}

type ListResponse struct {
	Applications []*ApplicationResponse `json:"applications"`
	Count        int                    `json:"count"`
}

func FromApplication(a *models.LoanApplication) *ApplicationResponse {
	docs := a.Documents
	if docs == nil {
		docs = []models.Document{}
	}
	resp := &ApplicationResponse{
		ID:                      a.ID.String(),
		PropertyID:              a.PropertyID.String(),
		BuyerID:                 a.BuyerID.String(),
		BankID:                  a.BankID.String(),
		ProductID:               a.ProductID,
		RequestedAmount:         a.RequestedAmount.StringFixed(2),
		DownPayment:             a.DownPayment.StringFixed(2),
		TermYears:               a.TermYears,
		InterestRate:            a.InterestRate.String(),
		EstimatedMonthlyPayment: a.EstimatedMonthlyPayment.StringFixed(2),
		Employment:              a.Employment,
		Status:                  string(a.Status),
		Documents:               docs,
		CreatedAt:               a.CreatedAt,
		UpdatedAt:               a.UpdatedAt,
	}
	if r := a.BankReview; r != nil {
		resp.Review = &ReviewResponse{
			ReviewerID: r.ReviewerID.String(),
			StartedAt:  r.StartedAt,
			Decision:   string(r.Decision),
			Notes:      r.Notes,
			Conditions: r.Conditions,
			DecidedAt:  r.DecidedAt,
		}
		if t := r.FinalTerms; t != nil {
			resp.Review.FinalTerms = &FinalTermsResponse{
				Amount:         t.Amount.StringFixed(2),
				InterestRate:   t.InterestRate.String(),
				TermYears:      t.TermYears,
				MonthlyPayment: t.MonthlyPayment.StringFixed(2),
			}
		}
	}
	return resp
}

func FromApplications(apps []*models.LoanApplication) *ListResponse {
	out := make([]*ApplicationResponse, len(apps))
	for i, a := range apps {
		out[i] = FromApplication(a)
	}
	return &ListResponse{Applications: out, Count: len(out)}
}
