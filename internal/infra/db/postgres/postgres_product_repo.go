package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-yoga-subscription/internal/domain"
	"telegram-yoga-subscription/internal/domain/model"
	"telegram-yoga-subscription/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*productRepo)(nil)

// productRepo reads the catalog table owned by the storefront. This core only
// ever needs the duration and title.
type productRepo struct{ pool *pgxpool.Pool }

func NewProductRepo(pool *pgxpool.Pool) *productRepo {
	return &productRepo{pool: pool}
}

func (r *productRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	const q = `SELECT id, title, price_uzs, duration_days FROM products WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	p := &model.Product{}
	if err := row.Scan(&p.ID, &p.Title, &p.PriceUzs, &p.DurationDays); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
