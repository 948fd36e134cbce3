package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"homeloan/internal/servicing/models"
	id "homeloan/pkg/domain"
	dErrors "homeloan/pkg/domain-errors"
)

// PaymentConfirmedRequest is the normalized confirmation posted by the
// gateway adapter to POST /payments/confirmed.
type PaymentConfirmedRequest struct {
	MortgageID    string          `json:"mortgage_id"`
	PaymentNumber int             `json:"payment_number"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	PaidAt        *time.Time      `json:"paid_at"`
	Notes         string          `json:"notes"`

	parsedMortgageID id.MortgageID
	parsedMethod     models.PaymentMethod
}

func (r *PaymentConfirmedRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	mortgageID, err := id.ParseMortgageID(r.MortgageID)
	if err != nil {
		return err
	}
	method, err := models.ParsePaymentMethod(r.Method)
	if err != nil {
		return err
	}
	r.parsedMortgageID = mortgageID
	r.parsedMethod = method
	return nil
}

func (r *PaymentConfirmedRequest) ParsedMortgageID() id.MortgageID {
	return r.parsedMortgageID
}

// Params builds the payment. A missing paid_at defaults to now.
func (r *PaymentConfirmedRequest) Params(now time.Time) models.PaymentParams {
	paidAt := now
	if r.PaidAt != nil {
		paidAt = r.PaidAt.UTC()
	}
	return models.PaymentParams{
		PaymentNumber: r.PaymentNumber,
		TransactionID: r.TransactionID,
		Amount:        r.Amount,
		Method:        r.parsedMethod,
		PaidAt:        paidAt,
		Notes:         r.Notes,
	}
}

// CancelRequest is the body of POST /mortgages/{id}/cancel.
type CancelRequest struct {
	Reason string `json:"reason"`
}

func (r *CancelRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// AutoPayRequest is the body of POST /mortgages/{id}/autopay.
type AutoPayRequest struct {
	Enabled *bool `json:"enabled"`
}

func (r *AutoPayRequest) Validate() error {
	if r == nil || r.Enabled == nil {
		return dErrors.New(dErrors.CodeValidation, "enabled is required")
	}
	return nil
}

// parseListFilter reads status, auto_pay, limit and offset query parameters.
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
	if raw := q.Get("auto_pay"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, dErrors.New(dErrors.CodeBadRequest, "auto_pay must be a boolean")
		}
		f.AutoPay = &v
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
