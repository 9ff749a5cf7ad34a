package repository

import (
	"context"

	"telegram-yoga-subscription/internal/domain/model"
)

// AuditLogRepository records administrative actions. Each admin extend/revoke
// appends one entry with before/after metadata.
type AuditLogRepository interface {
	Save(ctx context.Context, tx Tx, e *model.AuditEntry) error
}
