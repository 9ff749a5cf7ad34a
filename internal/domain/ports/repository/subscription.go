package repository

import (
	"context"
	"time"

	"telegram-yoga-subscription/internal/domain/model"
)

// SubscriptionRepository is the port for subscription entitlements.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)

	// FindExpiringUnnotified selects ACTIVE subscriptions with notify3d_sent
	// false whose end date falls within (now, now+window].
	FindExpiringUnnotified(ctx context.Context, tx Tx, window time.Duration) ([]*model.Subscription, error)
	// FindExpired selects ACTIVE or EXPIRING subscriptions past their end date
	// that are not frozen by manual override.
	FindExpired(ctx context.Context, tx Tx) ([]*model.Subscription, error)

	// MarkExpiring transitions ACTIVE -> EXPIRING and stamps the notification,
	// conditional on the row still being ACTIVE and unnotified. Overlapping
	// sweep runs race here; the rows-affected bool keeps the flip idempotent.
	MarkExpiring(ctx context.Context, tx Tx, id string, notifiedAt time.Time) (bool, error)
	// MarkExpired transitions to EXPIRED, conditional on status in
	// (ACTIVE, EXPIRING) and manual_override being false.
	MarkExpired(ctx context.Context, tx Tx, id string) (bool, error)
}
