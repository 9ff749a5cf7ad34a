package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-yoga-subscription/internal/domain"
	"telegram-yoga-subscription/internal/domain/model"
	"telegram-yoga-subscription/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subColumns = `id, user_id, product_id, start_date, end_date, status, manual_override, notify_3d_sent, last_notified_at, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, product_id, start_date, end_date, status, manual_override, notify_3d_sent, last_notified_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  start_date=$4, end_date=$5, status=$6, manual_override=$7, notify_3d_sent=$8, last_notified_at=$9, updated_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.ProductID, s.StartDate, s.EndDate, s.Status, s.ManualOverride, s.Notify3dSent, s.LastNotifiedAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	q := `SELECT ` + subColumns + ` FROM subscriptions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSub(row)
}

func (r *subscriptionRepo) FindExpiringUnnotified(ctx context.Context, tx repository.Tx, window time.Duration) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subColumns + `
  FROM subscriptions
 WHERE status='ACTIVE'
   AND notify_3d_sent=FALSE
   AND end_date > NOW()
   AND end_date <= NOW() + ($1::bigint * INTERVAL '1 second')
 ORDER BY end_date ASC;`
	return r.queryMany(ctx, tx, q, int64(window/time.Second))
}

func (r *subscriptionRepo) FindExpired(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subColumns + `
  FROM subscriptions
 WHERE status IN ('ACTIVE','EXPIRING')
   AND end_date <= NOW()
   AND manual_override=FALSE
 ORDER BY end_date ASC;`
	return r.queryMany(ctx, tx, q)
}

func (r *subscriptionRepo) MarkExpiring(ctx context.Context, tx repository.Tx, id string, notifiedAt time.Time) (bool, error) {
	const q = `
UPDATE subscriptions
   SET status='EXPIRING', notify_3d_sent=TRUE, last_notified_at=$2, updated_at=NOW()
 WHERE id=$1 AND status='ACTIVE' AND notify_3d_sent=FALSE;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, notifiedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *subscriptionRepo) MarkExpired(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `
UPDATE subscriptions
   SET status='EXPIRED', updated_at=NOW()
 WHERE id=$1 AND status IN ('ACTIVE','EXPIRING') AND manual_override=FALSE;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *subscriptionRepo) queryMany(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanSub(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	if err := row.Scan(&s.ID, &s.UserID, &s.ProductID, &s.StartDate, &s.EndDate, &s.Status, &s.ManualOverride, &s.Notify3dSent, &s.LastNotifiedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}
