package mapping

import (
	"context"
	"errors"
)

// ErrTableNotFound is returned by Store.Load when no table has been
// uploaded yet. Callers treat this differently from a store outage.
var ErrTableNotFound = errors.New("mapping: table not found")

// Store persists the mapping table. Save replaces the stored table
// wholesale; there are no partial updates.
type Store interface {
	Load(ctx context.Context) (*Table, error)
	Save(ctx context.Context, table *Table) error
}
