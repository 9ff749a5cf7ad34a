package model

import (
	"time"

	"telegram-yoga-subscription/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusExpiring SubscriptionStatus = "EXPIRING"
	SubscriptionStatusExpired  SubscriptionStatus = "EXPIRED"
)

// Subscription is a time-boxed entitlement granting a user access to a
// product's content. Rows are soft-state: they transition forward through
// ACTIVE -> EXPIRING -> EXPIRED and are never deleted. ManualOverride freezes
// a row against the automatic expiry pass once an administrator has touched it.
type Subscription struct {
	ID             string // UUID
	UserID         string // UUID
	ProductID      string // UUID
	StartDate      time.Time
	EndDate        time.Time
	Status         SubscriptionStatus
	ManualOverride bool
	Notify3dSent   bool
	LastNotifiedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSubscription creates an active subscription running for durationDays
// starting now.
func NewSubscription(id, userID, productID string, durationDays int) (*Subscription, error) {
	if id == "" || userID == "" || productID == "" || durationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:        id,
		UserID:    userID,
		ProductID: productID,
		StartDate: now,
		EndDate:   now.Add(time.Duration(durationDays) * 24 * time.Hour),
		Status:    SubscriptionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
