// File: internal/usecase/admin_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-yoga-subscription/internal/domain/model"
	"telegram-yoga-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ AdminUseCase = (*adminUC)(nil)

const extendDays = 30

// AdminUseCase covers the administrator overrides of the subscription state
// machine. Both actions set manual_override, which freezes the row against
// the automatic expiry pass until an extend clears the flow again.
type AdminUseCase interface {
	// Extend pushes the end date out by 30 days, reactivates the subscription
	// and re-arms the expiry warning.
	Extend(ctx context.Context, subID, adminID string) (*model.Subscription, error)
	// Revoke forces the subscription to EXPIRED and freezes it out of
	// automatic processing.
	Revoke(ctx context.Context, subID, adminID string) (*model.Subscription, error)
}

type adminUC struct {
	subs  repository.SubscriptionRepository
	audit repository.AuditLogRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewAdminUseCase(subs repository.SubscriptionRepository, audit repository.AuditLogRepository, tm repository.TransactionManager, logger *zerolog.Logger) *adminUC {
	l := logger.With().Str("component", "AdminUC").Logger()
	return &adminUC{subs: subs, audit: audit, tm: tm, log: &l}
}

func (u *adminUC) Extend(ctx context.Context, subID, adminID string) (*model.Subscription, error) {
	var out *model.Subscription
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.subs.FindByID(ctx, tx, subID)
		if err != nil {
			return err
		}
		oldEnd := sub.EndDate

		sub.EndDate = sub.EndDate.Add(extendDays * 24 * time.Hour)
		sub.Status = model.SubscriptionStatusActive
		sub.ManualOverride = true
		sub.Notify3dSent = false // reset warning for the next cycle
		sub.UpdatedAt = time.Now()
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}

		if err := u.audit.Save(ctx, tx, &model.AuditEntry{
			ID:         uuid.NewString(),
			AdminID:    adminID,
			Action:     "EXTEND_SUBSCRIPTION",
			TargetType: "SUBSCRIPTION",
			TargetID:   subID,
			Metadata: map[string]interface{}{
				"oldEndDate": oldEnd,
				"newEndDate": sub.EndDate,
			},
			CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("subscription_id", subID).Str("admin_id", adminID).Msg("subscription extended")
	return out, nil
}

func (u *adminUC) Revoke(ctx context.Context, subID, adminID string) (*model.Subscription, error) {
	var out *model.Subscription
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.subs.FindByID(ctx, tx, subID)
		if err != nil {
			return err
		}

		sub.Status = model.SubscriptionStatusExpired
		sub.ManualOverride = true
		sub.UpdatedAt = time.Now()
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}

		if err := u.audit.Save(ctx, tx, &model.AuditEntry{
			ID:         uuid.NewString(),
			AdminID:    adminID,
			Action:     "REVOKE_SUBSCRIPTION",
			TargetType: "SUBSCRIPTION",
			TargetID:   subID,
			Metadata: map[string]interface{}{
				"endDate": sub.EndDate,
			},
			CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("subscription_id", subID).Str("admin_id", adminID).Msg("subscription revoked")
	return out, nil
}
