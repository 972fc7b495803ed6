// Package tx defines the transaction contract stores may offer to the domain.
package tx

import (
	"context"
)

// Manager runs fn in a transaction carried by the returned context.
// If fn returns an error the transaction is rolled back, otherwise committed.
// Nested calls join the outer transaction.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
