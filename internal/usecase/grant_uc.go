// File: internal/usecase/grant_uc.go
package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-yoga-subscription/internal/domain/model"
	"telegram-yoga-subscription/internal/domain/ports/repository"
	"telegram-yoga-subscription/internal/infra/metrics"
)

// Compile-time check
var _ GrantUseCase = (*grantUC)(nil)

// GrantUseCase converts a settled payment into a subscription entitlement.
// It is the ONLY place a subscription row is created from a payment: both
// provider adapters call Grant inside the same transaction that marks the
// order and payment paid, so the whole unit commits or none of it does.
type GrantUseCase interface {
	// Grant creates a new active subscription for the order's user/product.
	// Must be called with the adapter's live transaction handle.
	Grant(ctx context.Context, tx repository.Tx, order *model.Order) (*model.Subscription, error)
}

type grantUC struct {
	products repository.ProductRepository
	subs     repository.SubscriptionRepository
	log      *zerolog.Logger
}

func NewGrantUseCase(products repository.ProductRepository, subs repository.SubscriptionRepository, logger *zerolog.Logger) *grantUC {
	l := logger.With().Str("component", "GrantUC").Logger()
	return &grantUC{products: products, subs: subs, log: &l}
}

func (u *grantUC) Grant(ctx context.Context, tx repository.Tx, order *model.Order) (*model.Subscription, error) {
	product, err := u.products.FindByID(ctx, tx, order.ProductID)
	if err != nil {
		return nil, err
	}

	// A repeat purchase of the same product creates a second parallel
	// subscription; windows are not merged.
	sub, err := model.NewSubscription(uuid.NewString(), order.UserID, order.ProductID, product.Duration())
	if err != nil {
		return nil, err
	}
	if err := u.subs.Save(ctx, tx, sub); err != nil {
		return nil, err
	}

	metrics.IncSubscriptionsGranted()
	u.log.Info().
		Str("order_id", order.ID).
		Str("subscription_id", sub.ID).
		Str("user_id", order.UserID).
		Str("product_id", order.ProductID).
		Time("end_date", sub.EndDate).
		Msg("entitlement granted")
	return sub, nil
}
