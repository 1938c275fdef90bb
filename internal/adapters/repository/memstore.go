package repository

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]memFile
	now   func() time.Time
}

type memFile struct {
	data    []byte
	modTime time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]memFile), now: time.Now}
}

// Save stores a copy of data.
func (s *MemoryStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = memFile{data: append([]byte(nil), data...), modTime: s.now()}
	return nil
}

// Load returns a copy of the stored bytes.
func (s *MemoryStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return append([]byte(nil), f.data...), nil
}

// List returns stored names, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, 0, len(s.files))
	for name, f := range s.files {
		entries = append(entries, Entry{Name: name, Size: int64(len(f.data)), ModTime: f.modTime})
	}
	sortNewestFirst(entries)
	return entries, nil
}
