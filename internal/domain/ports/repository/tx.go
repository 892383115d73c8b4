package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls.
// The concrete type is infra-defined (pgx.Tx for Postgres); repositories
// must gracefully accept nil (non-transactional path).
type Tx interface{}

// NoTX marks a call that should run outside any transaction.
var NoTX Tx

// TransactionManager executes a function inside a database transaction,
// passing the underlying handle via `tx`. Keeping the handle opaque keeps
// use-case interfaces clean while still letting repository implementations
// detect a tx and run SELECT ... FOR UPDATE / tx-bound Exec as needed.
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//	    w, err := wallets.FindByIDForUpdate(ctx, tx, id)
//	    ...
//	    return err
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
