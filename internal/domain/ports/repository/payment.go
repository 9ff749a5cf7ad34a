package repository

import (
	"context"
	"time"

	"telegram-yoga-subscription/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindByProviderTransID looks a payment up by the provider-owned
	// transaction id (Payme's idempotency key).
	FindByProviderTransID(ctx context.Context, tx Tx, provider model.PaymentProvider, transID string) (*model.Payment, error)
	// FindLiveByOrder returns a PENDING or PAID payment for the order, if any.
	// Enforces the at-most-one-live-attempt-per-order rule on create.
	FindLiveByOrder(ctx context.Context, tx Tx, orderID string) (*model.Payment, error)
	// UpdateStatusIfPending atomically updates status only when the current
	// status is PENDING; reports whether a row was changed.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, paidAt *time.Time) (bool, error)
	// CancelIfNotCanceled flips the payment to CANCELED unless it already is;
	// reports whether this call performed the flip.
	CancelIfNotCanceled(ctx context.Context, tx Tx, id string, canceledAt time.Time) (bool, error)
}
