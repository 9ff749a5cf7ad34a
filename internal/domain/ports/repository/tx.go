package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX Tx

// TransactionManager provides a thin abstraction to execute a function within a
// database transaction, passing the underlying transaction handle via `tx`.
//
// Repository methods accept a `tx Tx` argument and detect a live transaction
// implementation-side; they MUST gracefully accept nil (non-transactional path).
// The concrete type of `tx` is infra-defined (pgx.Tx for Postgres).
//
// Every mutating sequence that touches more than one entity (Order + Payment +
// Subscription) runs inside one WithTx call so the whole unit commits or none
// of it does.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
