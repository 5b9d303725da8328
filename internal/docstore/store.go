// Package docstore defines the document-store boundary used by the
// persistence façade and provides its backends.
package docstore

import (
	"context"

	"github.com/starford/lectern/internal/models"
)

// Collection is one persisted record set. Every call is an independent,
// independently failable operation; there are no multi-record transactions.
type Collection[T any] interface {
	// Create stores rec and returns the identifier issued for it.
	Create(ctx context.Context, rec T) (string, error)
	// Update replaces the whole record stored under id.
	Update(ctx context.Context, id string, rec T) error
	// Delete removes the record stored under id.
	Delete(ctx context.Context, id string) error
	// List returns every record in the collection.
	List(ctx context.Context) ([]T, error)
}

// Store groups the three collections lectern persists.
type Store interface {
	Notes() Collection[models.Note]
	Lectures() Collection[models.Lecture]
	Tags() Collection[models.Tag]
	Close() error
}

// Change reports that records of a collection were modified outside this
// process. ID is empty when the exact record is unknown.
type Change struct {
	Kind models.Kind
	ID   string
}

// Watchable is implemented by stores that can push external changes.
type Watchable interface {
	Watch(ctx context.Context, fn func(Change)) error
}

// Verify implementations at compile time.
var (
	_ Store     = (*Memory)(nil)
	_ Store     = (*SQLite)(nil)
	_ Store     = (*FS)(nil)
	_ Store     = (*Mongo)(nil)
	_ Watchable = (*FS)(nil)
)
