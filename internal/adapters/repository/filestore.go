package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileStore keeps each saved bout as a file inside one directory.
type FileStore struct {
	dir      string
	fileMode os.FileMode
	dirMode  os.FileMode
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string, opts ...Option) *FileStore {
	s := &FileStore{dir: dir, fileMode: 0o644, dirMode: 0o755}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns where name is stored.
func (s *FileStore) Path(name string) string { return filepath.Join(s.dir, name) }

// Save writes data atomically: a reader never sees a half-written file.
func (s *FileStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := os.MkdirAll(s.dir, s.dirMode); err != nil {
		return fmt.Errorf("create %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".save-*")
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := tmp.Chmod(s.fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// Load reads a saved bout.
func (s *FileStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return data, nil
}

// List returns the .json files in the directory, newest first. A missing
// directory lists as empty.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		if d.IsDir() || !ValidName(d.Name()) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: d.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sortNewestFirst(entries)
	return entries, nil
}

// sortNewestFirst orders by name descending; conventional names start
// with their save time, so that is newest first.
func sortNewestFirst(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name > entries[j].Name })
}
