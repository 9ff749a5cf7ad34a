package repository

import (
	"context"

	"telegram-yoga-subscription/internal/domain/model"
)

// ProductRepository is the read-only view into the catalog store this core
// consumes. The catalog itself is an external collaborator.
type ProductRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
}

// UserRepository is the read-only user lookup used for notification delivery.
type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
}
