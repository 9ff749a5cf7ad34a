package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-yoga-subscription/internal/domain"
	"telegram-yoga-subscription/internal/domain/model"
	"telegram-yoga-subscription/internal/domain/ports/repository"
)

var _ repository.JobRunRepository = (*jobRunRepo)(nil)

type jobRunRepo struct{ pool *pgxpool.Pool }

func NewJobRunRepo(pool *pgxpool.Pool) *jobRunRepo {
	return &jobRunRepo{pool: pool}
}

func (r *jobRunRepo) Save(ctx context.Context, tx repository.Tx, run *model.JobRun) error {
	const q = `
INSERT INTO system_job_logs (id, job_name, status, processed_count, errors, finished_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	_, err := execSQL(ctx, r.pool, tx, q, run.ID, run.JobName, run.Status, run.ProcessedCount, run.Errors, run.FinishedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
