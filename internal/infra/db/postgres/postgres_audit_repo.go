package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-yoga-subscription/internal/domain"
	"telegram-yoga-subscription/internal/domain/model"
	"telegram-yoga-subscription/internal/domain/ports/repository"
)

var _ repository.AuditLogRepository = (*auditLogRepo)(nil)

type auditLogRepo struct{ pool *pgxpool.Pool }

func NewAuditLogRepo(pool *pgxpool.Pool) *auditLogRepo {
	return &auditLogRepo{pool: pool}
}

func (r *auditLogRepo) Save(ctx context.Context, tx repository.Tx, e *model.AuditEntry) error {
	const q = `
INSERT INTO admin_audit_logs (id, admin_id, action, target_type, target_id, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`

	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.AdminID, e.Action, e.TargetType, e.TargetID, e.Metadata, e.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
