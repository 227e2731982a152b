package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/standardbeagle/pagetour/internal/annotation"
)

// MemoryStore keeps annotations in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	list []annotation.Annotation

	// Now stamps saves; defaults to time.Now.
	Now func() time.Time
	// FailSave, when set, is returned by every Save.
	FailSave error
}

func NewMemoryStore(seed ...annotation.Annotation) *MemoryStore {
	return &MemoryStore{list: append([]annotation.Annotation(nil), seed...), Now: time.Now}
}

func (m *MemoryStore) List(ctx context.Context) ([]annotation.Annotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]annotation.Annotation(nil), m.list...), nil
}

func (m *MemoryStore) Save(ctx context.Context, a annotation.Annotation) (annotation.Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSave != nil {
		return annotation.Annotation{}, m.FailSave
	}
	stored, err := stamp(a, find(m.list, a.ID), m.Now())
	if err != nil {
		return annotation.Annotation{}, err
	}
	m.list = upsert(m.list, stored)
	return stored, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.list {
		if m.list[i].ID == id {
			m.list = append(m.list[:i], m.list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("annotation %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) Close() error { return nil }
