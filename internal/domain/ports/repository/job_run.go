package repository

import (
	"context"

	"telegram-yoga-subscription/internal/domain/model"
)

// -----------------------------
// Job runs (sweep audit trail)
// -----------------------------

type JobRunRepository interface {
	// Save writes one immutable run record.
	Save(ctx context.Context, tx Tx, run *model.JobRun) error
}
