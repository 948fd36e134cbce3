package autopay

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"homeloan/internal/servicing/models"
	"homeloan/internal/servicing/service"
	id "homeloan/pkg/domain"
	"homeloan/pkg/platform/events"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks ChargeGateway,Servicer,Publisher

// ChargeGateway debits the buyer's mandate. Any error is a failed attempt.
// Implementations must treat IdempotencyKey as the deduplication key so a
// retried run never charges the same period twice.
type ChargeGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

type ChargeRequest struct {
	MortgageID     id.MortgageID
	BuyerID        id.UserID
	PaymentNumber  int
	Amount         decimal.Decimal
	IdempotencyKey string
}

type ChargeResult struct {
	TransactionID string
	ChargedAt     time.Time
}

// Servicer is the part of the loan servicer the scheduler drives.
type Servicer interface {
	DueForAutoPay(ctx context.Context, now time.Time) ([]*models.Mortgage, error)
	RecordPayment(ctx context.Context, mortgageID id.MortgageID, p models.PaymentParams) (*service.PaymentResult, error)
}

// Publisher appends and dispatches events that belong to no aggregate write.
type Publisher interface {
	Publish(ctx context.Context, evs ...events.Event) error
}

// IdempotencyKey identifies one period's charge.
func IdempotencyKey(mortgageID id.MortgageID, paymentNumber int) string {
	return mortgageID.String() + ":" + strconv.Itoa(paymentNumber)
}
