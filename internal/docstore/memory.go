package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/lectern/internal/apperr"
	"github.com/starford/lectern/internal/models"
)

// Memory is an in-process Store. Records are kept serialized so callers can
// never alias stored state.
type Memory struct {
	notes    *memCollection[models.Note]
	lectures *memCollection[models.Lecture]
	tags     *memCollection[models.Tag]
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		notes:    newMemCollection[models.Note](),
		lectures: newMemCollection[models.Lecture](),
		tags:     newMemCollection[models.Tag](),
	}
}

func (m *Memory) Notes() Collection[models.Note]       { return m.notes }
func (m *Memory) Lectures() Collection[models.Lecture] { return m.lectures }
func (m *Memory) Tags() Collection[models.Tag]         { return m.tags }

// Close marks every collection closed; later calls fail with ErrStoreClosed.
func (m *Memory) Close() error {
	m.notes.close()
	m.lectures.close()
	m.tags.close()
	return nil
}

type memCollection[T models.Record[T]] struct {
	mu     sync.RWMutex
	order  []string
	docs   map[string][]byte
	closed bool
}

func newMemCollection[T models.Record[T]]() *memCollection[T] {
	return &memCollection[T]{docs: make(map[string][]byte)}
}

func (c *memCollection[T]) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *memCollection[T]) Create(ctx context.Context, rec T) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	data, err := json.Marshal(rec.WithIdentifier(id))
	if err != nil {
		return "", fmt.Errorf("docstore: encode %s: %w", models.KindOf[T](), err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", apperr.ErrStoreClosed
	}
	c.docs[id] = data
	c.order = append(c.order, id)
	return id, nil
}

func (c *memCollection[T]) Update(ctx context.Context, id string, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec.WithIdentifier(id))
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", models.KindOf[T](), err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return apperr.ErrStoreClosed
	}
	if _, ok := c.docs[id]; !ok {
		return fmt.Errorf("docstore: update %s %s: %w", models.KindOf[T](), id, apperr.ErrNotFound)
	}
	c.docs[id] = data
	return nil
}

func (c *memCollection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return apperr.ErrStoreClosed
	}
	if _, ok := c.docs[id]; !ok {
		return fmt.Errorf("docstore: delete %s %s: %w", models.KindOf[T](), id, apperr.ErrNotFound)
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *memCollection[T]) List(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, apperr.ErrStoreClosed
	}
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		var rec T
		if err := json.Unmarshal(c.docs[id], &rec); err != nil {
			return nil, fmt.Errorf("docstore: decode %s %s: %w", models.KindOf[T](), id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
