package handler

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"homeloan/internal/application/models"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
)

const (
	maxProductIDLength = 100
	maxNotesLength     = 2000
	maxConditions      = 20
	maxDocumentsBody   = 20
)

// DocumentRequest references a file already uploaded elsewhere.
type DocumentRequest struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

func toDocuments(reqs []DocumentRequest) []models.Document {
	if len(reqs) == 0 {
		return nil
	}
	docs := make([]models.Document, len(reqs))
	for i, d := range reqs {
		docs[i] = models.Document{Type: d.Type, URL: d.URL, Name: d.Name}
	}
	return docs
}

// SubmitRequest is the body of POST /applications. The buyer is the caller.
type SubmitRequest struct {
	PropertyID      string            `json:"property_id"`
	BankID          string            `json:"bank_id"`
	ProductID       string            `json:"product_id"`
	RequestedAmount decimal.Decimal   `json:"requested_amount"`
	DownPayment     decimal.Decimal   `json:"down_payment"`
	TermYears       int               `json:"term_years"`
	InterestRate    decimal.Decimal   `json:"interest_rate"`
	Employment      models.Employment `json:"employment"`
	Documents       []DocumentRequest `json:"documents"`

	parsedPropertyID id.PropertyID
	parsedBankID     id.BankID
}

// Validate parses identifiers and bounds free text. Loan terms are checked by the model.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.ProductID) > maxProductIDLength {
		return dErrors.New(dErrors.CodeValidation, "product_id is too long")
	}
	if len(r.Documents) > maxDocumentsBody {
		return dErrors.New(dErrors.CodeValidation, "too many documents")
	}

	propertyID, err := id.ParsePropertyID(r.PropertyID)
	if err != nil {
		return err
	}
	bankID, err := id.ParseBankID(r.BankID)
	if err != nil {
		return err
	}
	r.parsedPropertyID = propertyID
	r.parsedBankID = bankID
	return nil
}

func (r *SubmitRequest) Params(buyer id.UserID) models.SubmitParams {
	return models.SubmitParams{
		PropertyID:      r.parsedPropertyID,
		BuyerID:         buyer,
		BankID:          r.parsedBankID,
		ProductID:       r.ProductID,
		RequestedAmount: r.RequestedAmount,
		DownPayment:     r.DownPayment,
		TermYears:       r.TermYears,
		InterestRate:    r.InterestRate,
		Employment:      r.Employment,
		Documents:       toDocuments(r.Documents),
	}
}

// FinalTermsRequest carries approved terms. MonthlyPayment may be omitted.
type FinalTermsRequest struct {
	Amount         decimal.Decimal  `json:"amount"`
	InterestRate   decimal.Decimal  `json:"interest_rate"`
	TermYears      int              `json:"term_years"`
	MonthlyPayment *decimal.Decimal `json:"monthly_payment,omitempty"`
}

// DecisionRequest is the body of POST /applications/{id}/decision.
type DecisionRequest struct {
	Decision   string             `json:"decision"`
	Notes      string             `json:"notes"`
	Conditions []string           `json:"conditions"`
	FinalTerms *FinalTermsRequest `json:"final_terms"`

	parsedDecision models.Decision
}

func (r *DecisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes are too long")
	}
	r.Conditions = dedupeConditions(r.Conditions)
	if len(r.Conditions) > maxConditions {
		return dErrors.New(dErrors.CodeValidation, "too many conditions")
	}
	decision, err := models.ParseDecision(r.Decision)
	if err != nil {
		return err
	}
	r.parsedDecision = decision
	return nil
}

// dedupeConditions trims each condition and drops blanks and repeats,
// keeping first-seen order.
func dedupeConditions(conditions []string) []string {
	if len(conditions) == 0 {
		return conditions
	}
	seen := make(map[string]struct{}, len(conditions))
	out := make([]string, 0, len(conditions))
	for _, c := range conditions {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (r *DecisionRequest) Params(reviewer models.Reviewer) models.DecideParams {
	p := models.DecideParams{
		Reviewer:   reviewer,
		Decision:   r.parsedDecision,
		Notes:      r.Notes,
		Conditions: r.Conditions,
	}
	if r.FinalTerms != nil {
		terms := &models.FinalTerms{
			Amount:       r.FinalTerms.Amount,
			InterestRate: r.FinalTerms.InterestRate,
			TermYears:    r.FinalTerms.TermYears,
		}
		if r.FinalTerms.MonthlyPayment != nil {
			terms.MonthlyPayment = *r.FinalTerms.MonthlyPayment
		}
		p.FinalTerms = terms
	}
	return p
}

// DocumentsRequest is the body of POST /applications/{id}/documents.
type DocumentsRequest struct {
	Documents []DocumentRequest `json:"documents"`
}

func (r *DocumentsRequest) Validate() error {
	if r == nil || len(r.Documents) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one document is required")
	}
	if len(r.Documents) > maxDocumentsBody {
		return dErrors.New(dErrors.CodeValidation, "too many documents")
	}
	return nil
}

// ResubmitRequest is the optional body of POST /applications/{id}/resubmit.
type ResubmitRequest struct {
	Documents []DocumentRequest `json:"documents"`
}

func (r *ResubmitRequest) Validate() error {
	if r != nil && len(r.Documents) > maxDocumentsBody {
		return dErrors.New(dErrors.CodeValidation, "too many documents")
	}
	return nil
}

// parseListFilter reads status, limit and offset query parameters.
func parseListFilter(q url.Values) (models.ListFilter, error) {
	var f models.ListFilter
	if raw := q.Get("status"); raw != "" {
		for part := range strings.SplitSeq(raw, ",") {
			st, err := models.ParseStatus(strings.TrimSpace(part))
			if err != nil {
				return f, err
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	var err error
	if f.Limit, err = queryInt(q, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(q, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func queryInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, key+" must be a non-negative integer")
	}
	return n, nil
}
