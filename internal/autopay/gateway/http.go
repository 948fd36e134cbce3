// Package gateway adapts the payment provider's charge API to autopay.ChargeGateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"homeloan/internal/autopay"
	"homeloan/pkg/platform/circuit"
	"homeloan/pkg/platform/sentinel"
)

const maxResponseBytes = 1 << 20

// ErrDeclined is returned when the provider answered but refused the charge.
var ErrDeclined = errors.New("charge declined")

type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*HTTPGateway)

func WithHTTPClient(c *http.Client) Option {
	return func(g *HTTPGateway) {
		if c != nil {
			g.client = c
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(g *HTTPGateway) {
		if b != nil {
			g.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *HTTPGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration, opts ...Option) *HTTPGateway {
	g := &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		breaker: circuit.New("payment-gateway"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type chargeBody struct {
	MortgageID     string          `json:"mortgage_id"`
	BuyerID        string          `json:"buyer_id"`
	PaymentNumber  int             `json:"payment_number"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type chargeResponse struct {
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	ChargedAt     time.Time `json:"charged_at"`
	FailureReason string    `json:"failure_reason"`
}

// Charge posts one charge. Transport errors and 5xx answers count against the
// breaker; declines do not, since the provider is healthy.
func (g *HTTPGateway) Charge(ctx context.Context, req autopay.ChargeRequest) (autopay.ChargeResult, error) {
	if !g.breaker.Allow() {
		return autopay.ChargeResult{}, fmt.Errorf("%s circuit open: %w", g.breaker.Name(), sentinel.ErrUnavailable)
	}

	res, err := g.do(ctx, req)
	if err != nil && !errors.Is(err, ErrDeclined) {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "payment gateway circuit opened", "error", err)
		}
		return autopay.ChargeResult{}, err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "payment gateway circuit closed")
	}
	return res, err
}

func (g *HTTPGateway) do(ctx context.Context, req autopay.ChargeRequest) (autopay.ChargeResult, error) {
	payload, err := json.Marshal(chargeBody{
		MortgageID:     req.MortgageID.String(),
		BuyerID:        req.BuyerID.String(),
		PaymentNumber:  req.PaymentNumber,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return autopay.ChargeResult{}, fmt.Errorf("encode charge: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return autopay.ChargeResult{}, fmt.Errorf("build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return autopay.ChargeResult{}, fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return autopay.ChargeResult{}, fmt.Errorf("read charge response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return autopay.ChargeResult{}, fmt.Errorf("payment gateway returned %d", resp.StatusCode)
	}

	var out chargeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return autopay.ChargeResult{}, fmt.Errorf("decode charge response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest || out.Status != "succeeded" {
		reason := out.FailureReason
		if reason == "" {
			reason = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return autopay.ChargeResult{}, fmt.Errorf("%w: %s", ErrDeclined, reason)
	}
	if out.TransactionID == "" {
		return autopay.ChargeResult{}, fmt.Errorf("charge response has no transaction id")
	}
	return autopay.ChargeResult{TransactionID: out.TransactionID, ChargedAt: out.ChargedAt}, nil
}
