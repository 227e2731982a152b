// Package store persists annotations and the small set of session flags
// pagetour keeps between page loads.
//
// Every backend writes a schema version next to its data. A version
// mismatch on read is treated as no data and the backend clears itself.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/standardbeagle/pagetour/internal/annotation"
)

// SchemaVersion is the on-disk layout version for every backend.
const SchemaVersion = 1

var (
	// ErrNotFound is returned when an id or key doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Store is the persistence collaborator the orchestrator and CLI talk to.
type Store interface {
	// List returns every stored annotation in creation order.
	List(ctx context.Context) ([]annotation.Annotation, error)
	// Save upserts a by id and returns the stored record with timestamps.
	Save(ctx context.Context, a annotation.Annotation) (annotation.Annotation, error)
	// Delete removes the annotation with id.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open returns the backend named by backend, rooted at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// stamp prepares a for storage. prev is the stored record with the same id,
// if any; its creation time survives the update.
func stamp(a annotation.Annotation, prev *annotation.Annotation, now time.Time) (annotation.Annotation, error) {
	if a.ID == "" {
		a.ID = annotation.NewID()
	}
	if a.Status == "" {
		a.Status = annotation.StatusActive
	}
	if err := a.Validate(); err != nil {
		return annotation.Annotation{}, err
	}
	now = now.UTC()
	if prev != nil {
		a.CreatedAt = prev.CreatedAt
	} else {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	return a, nil
}

// upsert replaces the record with a's id or appends a.
func upsert(list []annotation.Annotation, a annotation.Annotation) []annotation.Annotation {
	for i := range list {
		if list[i].ID == a.ID {
			list[i] = a
			return list
		}
	}
	return append(list, a)
}

func find(list []annotation.Annotation, id string) *annotation.Annotation {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}
