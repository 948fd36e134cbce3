package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeloan/internal/autopay"
	id "homeloan/pkg/domain"
	"homeloan/pkg/platform/circuit"
	"homeloan/pkg/platform/sentinel"
)

func chargeRequest() autopay.ChargeRequest {
	mortgageID := id.NewMortgageID()
	return autopay.ChargeRequest{
		MortgageID:     mortgageID,
		BuyerID:        id.UserID(uuid.New()),
		PaymentNumber:  3,
		Amount:         decimal.RequireFromString("1264.14"),
		IdempotencyKey: autopay.IdempotencyKey(mortgageID, 3),
	}
}

func TestChargeSucceeds(t *testing.T) {
	req := chargeRequest()
	chargedAt := time.Date(2026, 4, 10, 6, 0, 1, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/charges", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, req.IdempotencyKey, r.Header.Get("Idempotency-Key"))

		var body chargeBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, req.MortgageID.String(), body.MortgageID)
		assert.Equal(t, 3, body.PaymentNumber)
		assert.True(t, body.Amount.Equal(req.Amount))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(chargeResponse{TransactionID: "ch_1", Status: "succeeded", ChargedAt: chargedAt})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL+"/", "secret", time.Second)
	res, err := g.Charge(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ch_1", res.TransactionID)
	assert.Equal(t, chargedAt, res.ChargedAt.UTC())
}

func TestChargeDeclinedKeepsCircuitClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(chargeResponse{Status: "failed", FailureReason: "insufficient funds"})
	}))
	defer srv.Close()

	breaker := circuit.New("test", circuit.WithFailureThreshold(1))
	g := NewHTTPGateway(srv.URL, "", time.Second, WithBreaker(breaker))
	_, err := g.Charge(context.Background(), chargeRequest())
	require.ErrorIs(t, err, ErrDeclined)
	assert.Contains(t, err.Error(), "insufficient funds")
	assert.False(t, breaker.IsOpen())
}

func TestServerErrorsOpenTheCircuit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	now := time.Date(2026, 4, 10, 6, 0, 0, 0, time.UTC)
	breaker := circuit.New("test",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	g := NewHTTPGateway(srv.URL, "", time.Second, WithBreaker(breaker))

	for range 2 {
		_, err := g.Charge(context.Background(), chargeRequest())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrDeclined)
	}
	require.True(t, breaker.IsOpen())

	_, err := g.Charge(context.Background(), chargeRequest())
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMissingTransactionIDIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(chargeResponse{Status: "succeeded"})
	}))
	defer srv.Close()

	_, err := NewHTTPGateway(srv.URL, "", time.Second).Charge(context.Background(), chargeRequest())
	require.Error(t, err)
}
