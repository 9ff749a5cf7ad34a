package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusCanceled PaymentStatus = "CANCELED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

type PaymentProvider string

const (
	ProviderClick PaymentProvider = "click"
	ProviderPayme PaymentProvider = "payme"
)

// Payment records one attempt to pay an Order via one provider.
//
// The idempotency key differs per provider and the lookup paths keep that
// distinction explicit: for Payme (provider, TransactionID) is globally unique
// and provider-owned; for Click the natural key is (provider, OrderID), since
// Click's own trans id is not guaranteed unique across retries.
type Payment struct {
	ID            string // UUID
	OrderID       string // UUID -> Order
	Provider      PaymentProvider
	TransactionID string // provider-assigned
	Status        PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PaidAt        *time.Time
	CanceledAt    *time.Time
	// Raw provider callback data, retained for audit and replay debugging.
	Payload map[string]interface{}
}

// Payme wire state codes for a transaction.
const (
	PaymeStateCreated   = 1
	PaymeStatePerformed = 2
	PaymeStateCanceled  = -1
)

// PaymeState projects the payment status onto the Payme state code.
func (p *Payment) PaymeState() int {
	switch p.Status {
	case PaymentStatusPaid:
		return PaymeStatePerformed
	case PaymentStatusPending:
		return PaymeStateCreated
	default:
		return PaymeStateCanceled
	}
}
