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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, order_id, provider, transaction_id, status, created_at, updated_at, paid_at, canceled_at, payload`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, order_id, provider, transaction_id, status, created_at, updated_at, paid_at, canceled_at, payload
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (id) DO UPDATE SET
  status=$5, updated_at=$7, paid_at=$8, canceled_at=$9, payload=$10;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.OrderID, p.Provider, p.TransactionID, p.Status, p.CreatedAt, p.UpdatedAt, p.PaidAt, p.CanceledAt, p.Payload)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.queryOne(ctx, tx, q, id)
}

func (r *paymentRepo) FindByProviderTransID(ctx context.Context, tx repository.Tx, provider model.PaymentProvider, transID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE provider=$1 AND transaction_id=$2`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += " LIMIT 1;"
	return r.queryOne(ctx, tx, q, provider, transID)
}

func (r *paymentRepo) FindLiveByOrder(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id=$1 AND status IN ('PENDING','PAID')`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += " LIMIT 1;"
	return r.queryOne(ctx, tx, q, orderID)
}

// UpdateStatusIfPending atomically updates status only when the current status
// is PENDING. The rows-affected bool, not a prior read, decides who wins a race.
func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, paidAt *time.Time) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       paid_at = COALESCE($3, paid_at),
       updated_at = NOW()
 WHERE id = $1
   AND status = 'PENDING';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), paidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) CancelIfNotCanceled(ctx context.Context, tx repository.Tx, id string, canceledAt time.Time) (bool, error) {
	const q = `
UPDATE payments
   SET status = 'CANCELED',
       canceled_at = $2,
       updated_at = NOW()
 WHERE id = $1
   AND status <> 'CANCELED';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, canceledAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Payment, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}

	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &p.TransactionID, &p.Status, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt, &p.CanceledAt, &p.Payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
