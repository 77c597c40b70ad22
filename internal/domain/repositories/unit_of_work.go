package repositories

import (
	"context"
)

// UnitOfWork runs repository calls atomically
type UnitOfWork interface {
	// Do executes fn within a transaction scope; repositories called with
	// the context passed to fn join that transaction
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
