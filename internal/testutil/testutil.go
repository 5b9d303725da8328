// Package testutil provides shared test helpers: temporary stores and a
// store wrapper that can fail or stall individual operations.
package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/docstore"
	"github.com/starford/lectern/internal/models"
)

// TestSQLite creates a temporary SQLite store that is automatically closed.
func TestSQLite(t *testing.T) *docstore.SQLite {
	t.Helper()
	s, err := docstore.OpenSQLite(filepath.Join(t.TempDir(), "lectern-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestFS creates a file store in a temporary directory.
func TestFS(t *testing.T) *docstore.FS {
	t.Helper()
	s, err := docstore.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// Collection wraps a docstore collection, counting calls and optionally
// failing or holding them.
type Collection[T any] struct {
	docstore.Collection[T]

	mu      sync.Mutex
	fail    map[apperr.Op]error
	calls   map[apperr.Op]int
	gate    chan struct{}
	entered chan struct{}
}

func wrap[T any](c docstore.Collection[T]) *Collection[T] {
	return &Collection[T]{
		Collection: c,
		fail:       make(map[apperr.Op]error),
		calls:      make(map[apperr.Op]int),
	}
}

// FailOn makes every later op return err. A nil err clears the fault.
func (c *Collection[T]) FailOn(op apperr.Op, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.fail, op)
		return
	}
	c.fail[op] = err
}

// Calls returns how many times op was invoked.
func (c *Collection[T]) Calls(op apperr.Op) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Hold stalls every later write until release is called. entered receives
// a value each time a write starts waiting.
func (c *Collection[T]) Hold() (entered <-chan struct{}, release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gate := make(chan struct{})
	ent := make(chan struct{}, 64)
	c.gate, c.entered = gate, ent
	var once sync.Once
	return ent, func() {
		once.Do(func() {
			c.mu.Lock()
			if c.gate == gate {
				c.gate, c.entered = nil, nil
			}
			c.mu.Unlock()
			close(gate)
		})
	}
}

func (c *Collection[T]) begin(ctx context.Context, op apperr.Op) error {
	c.mu.Lock()
	c.calls[op]++
	err := c.fail[op]
	gate, entered := c.gate, c.entered
	c.mu.Unlock()

	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (c *Collection[T]) Create(ctx context.Context, rec T) (string, error) {
	if err := c.begin(ctx, apperr.OpCreate); err != nil {
		return "", err
	}
	return c.Collection.Create(ctx, rec)
}

func (c *Collection[T]) Update(ctx context.Context, id string, rec T) error {
	if err := c.begin(ctx, apperr.OpUpdate); err != nil {
		return err
	}
	return c.Collection.Update(ctx, id, rec)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.begin(ctx, apperr.OpDelete); err != nil {
		return err
	}
	return c.Collection.Delete(ctx, id)
}

// Store is a docstore.Store whose collections are instrumented.
type Store struct {
	inner     docstore.Store
	NotesC    *Collection[models.Note]
	LecturesC *Collection[models.Lecture]
	TagsC     *Collection[models.Tag]
}

var _ docstore.Store = (*Store)(nil)

// NewStore wraps inner; pass nil for a fresh in-memory store.
func NewStore(inner docstore.Store) *Store {
	if inner == nil {
		inner = docstore.NewMemory()
	}
	return &Store{
		inner:     inner,
		NotesC:    wrap(inner.Notes()),
		LecturesC: wrap(inner.Lectures()),
		TagsC:     wrap(inner.Tags()),
	}
}

func (s *Store) Notes() docstore.Collection[models.Note]       { return s.NotesC }
func (s *Store) Lectures() docstore.Collection[models.Lecture] { return s.LecturesC }
func (s *Store) Tags() docstore.Collection[models.Tag]         { return s.TagsC }
func (s *Store) Close() error                                  { return s.inner.Close() }
