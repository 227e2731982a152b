package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/standardbeagle/pagetour/internal/debug"
)

// Flags is a small string key-value store for session state.
type Flags interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// FlagEntry is a stored flag value with metadata.
type FlagEntry struct {
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type flagFile struct {
	Version   int                   `json:"version"`
	Entries   map[string]*FlagEntry `json:"entries"`
	UpdatedAt string                `json:"updated_at"`
}

// FileFlags keeps flags in one JSON file, rewritten atomically on change.
type FileFlags struct {
	mu   sync.RWMutex
	path string
}

func NewFileFlags(path string) *FileFlags {
	return &FileFlags{path: path}
}

// Get returns the value for key and whether it was set.
func (f *FileFlags) Get(key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ff, err := f.load()
	if err != nil {
		return "", false, err
	}
	e, ok := ff.Entries[key]
	if !ok {
		return "", false, nil
	}
	return e.Value, true, nil
}

// Set stores value under key, preserving the creation time of an existing
// entry.
func (f *FileFlags) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ff, err := f.load()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	entry := &FlagEntry{Value: value, CreatedAt: now, UpdatedAt: now}
	if existing, ok := ff.Entries[key]; ok {
		entry.CreatedAt = existing.CreatedAt
	}
	ff.Entries[key] = entry
	return f.write(ff)
}

// Delete removes key. Deleting an unset key is not an error. The file is
// removed once empty.
func (f *FileFlags) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ff, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := ff.Entries[key]; !ok {
		return nil
	}
	delete(ff.Entries, key)

	if len(ff.Entries) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove empty flag file: %w", err)
		}
		return nil
	}
	return f.write(ff)
}

func (f *FileFlags) load() (*flagFile, error) {
	empty := &flagFile{Version: SchemaVersion, Entries: make(map[string]*FlagEntry)}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return nil, fmt.Errorf("failed to read flag file: %w", err)
	}

	var ff flagFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("failed to parse flag file: %w", err)
	}
	if ff.Version != SchemaVersion {
		debug.Warn("store", "%s has schema version %d, want %d; clearing", f.path, ff.Version, SchemaVersion)
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to clear flag file: %w", err)
		}
		return empty, nil
	}
	if ff.Entries == nil {
		ff.Entries = make(map[string]*FlagEntry)
	}
	return &ff, nil
}

func (f *FileFlags) write(ff *flagFile) error {
	ff.Version = SchemaVersion
	ff.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flag file: %w", err)
	}
	return writeAtomic(f.path, data)
}

// MemoryFlags is an in-process Flags, for tests and throwaway sessions.
type MemoryFlags struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemoryFlags() *MemoryFlags {
	return &MemoryFlags{m: make(map[string]string)}
}

func (f *MemoryFlags) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.m[key]
	return v, ok, nil
}

func (f *MemoryFlags) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[key] = value
	return nil
}

func (f *MemoryFlags) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, key)
	return nil
}
