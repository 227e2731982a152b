package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/standardbeagle/pagetour/internal/annotation"
	"github.com/standardbeagle/pagetour/internal/debug"
)

// annotationFile is the JSON envelope written by FileStore.
type annotationFile struct {
	Version     int                     `json:"version"`
	Annotations []annotation.Annotation `json:"annotations"`
	UpdatedAt   string                  `json:"updated_at"`
}

// FileStore keeps all annotations in one JSON file.
type FileStore struct {
	mu   sync.RWMutex
	path string

	// Now stamps saves; defaults to time.Now.
	Now func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, Now: time.Now}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) List(ctx context.Context) ([]annotation.Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	return f.Annotations, nil
}

func (s *FileStore) Save(ctx context.Context, a annotation.Annotation) (annotation.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return annotation.Annotation{}, err
	}
	stored, err := stamp(a, find(f.Annotations, a.ID), s.Now())
	if err != nil {
		return annotation.Annotation{}, err
	}
	f.Annotations = upsert(f.Annotations, stored)
	if err := s.write(f); err != nil {
		return annotation.Annotation{}, err
	}
	return stored, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	for i := range f.Annotations {
		if f.Annotations[i].ID == id {
			f.Annotations = append(f.Annotations[:i], f.Annotations[i+1:]...)
			return s.write(f)
		}
	}
	return fmt.Errorf("annotation %s: %w", id, ErrNotFound)
}

func (s *FileStore) Close() error { return nil }

// load reads the store file. A missing file or a schema mismatch yields an
// empty envelope; a mismatched file is removed.
func (s *FileStore) load() (*annotationFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &annotationFile{Version: SchemaVersion}, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var f annotationFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	if f.Version != SchemaVersion {
		debug.Warn("store", "%s has schema version %d, want %d; clearing", s.path, f.Version, SchemaVersion)
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to clear store file: %w", err)
		}
		return &annotationFile{Version: SchemaVersion}, nil
	}
	return &f, nil
}

func (s *FileStore) write(f *annotationFile) error {
	f.Version = SchemaVersion
	f.UpdatedAt = s.Now().UTC().Format(time.RFC3339)
	if f.Annotations == nil {
		f.Annotations = []annotation.Annotation{}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store file: %w", err)
	}
	return writeAtomic(s.path, data)
}

// writeAtomic writes data to path via a temp file and rename.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
