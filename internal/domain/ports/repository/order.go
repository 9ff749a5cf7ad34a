package repository

import (
	"context"

	"telegram-yoga-subscription/internal/domain/model"
)

// -----------------------------
// Orders
// -----------------------------

type OrderRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	// MarkPaidIfPending flips the order to PAID only when it is still PENDING
	// and reports whether this call won the transition. This conditional write
	// is the concurrency guard against duplicate COMPLETE/Perform deliveries;
	// callers must branch on the bool, never on a prior read.
	MarkPaidIfPending(ctx context.Context, tx Tx, id string) (bool, error)
	MarkFailed(ctx context.Context, tx Tx, id string) error
}
