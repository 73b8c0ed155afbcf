package repositories

import (
	"context"
)

// TransactionManager defines methods for transaction management.
//
// WithinTx runs fn inside one storage transaction carried by the context it
// hands to fn. Repository calls made with that context join the transaction;
// a nested WithinTx joins the outer one instead of opening a second. The
// transaction commits when fn returns nil and rolls back otherwise.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Detach returns a context whose repository calls run outside any
	// enclosing transaction, so their writes survive its rollback.
	Detach(ctx context.Context) context.Context

	// AfterCommit schedules fn to run once the outermost transaction in ctx
	// commits. It is dropped on rollback and runs at once when ctx has no transaction.
	AfterCommit(ctx context.Context, fn func())
}
