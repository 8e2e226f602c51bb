package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryIndex is a VectorIndex kept entirely in process memory.
type MemoryIndex struct {
	mu    sync.RWMutex
	docs  map[string]Document
	order []string
	now   func() time.Time
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		docs: make(map[string]Document),
		now:  time.Now,
	}
}

// Insert stores doc; an existing ID keeps its scan position.
func (m *MemoryIndex) Insert(_ context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(doc)
	return nil
}

// InsertUnique stores doc unless its ID already exists.
func (m *MemoryIndex) InsertUnique(_ context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[doc.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, doc.ID)
	}
	m.put(doc)
	return nil
}

func (m *MemoryIndex) put(doc Document) {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = m.now()
	}
	if _, ok := m.docs[doc.ID]; !ok {
		m.order = append(m.order, doc.ID)
	}
	m.docs[doc.ID] = doc
}

// Clear removes every document.
func (m *MemoryIndex) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs = make(map[string]Document)
	m.order = nil
	return nil
}

// Scan walks a snapshot of the index so fn may call back into it.
func (m *MemoryIndex) Scan(ctx context.Context, fn func(Document) error) error {
	m.mu.RLock()
	snapshot := make([]Document, 0, len(m.order))
	for _, id := range m.order {
		snapshot = append(snapshot, m.docs[id])
	}
	m.mu.RUnlock()

	for _, doc := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored documents.
func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}
