package model

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusPaid    OrderStatus = "PAID"
	OrderStatusFailed  OrderStatus = "FAILED"
)

// Order is a purchase intent for one product at a fixed price.
// Its ID doubles as the merchant transaction reference for Click callbacks,
// and AmountUzs is immutable after creation: every payment attempt must
// assert exactly this amount.
type Order struct {
	ID        string // UUID
	UserID    string // UUID
	ProductID string // UUID
	AmountUzs int64  // UZS has no minor unit here; whole integer
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
