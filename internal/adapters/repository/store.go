// Package repository stores saved bouts as named JSON documents.
package repository

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// FileNameLayout is the timestamp prefix of saved bout names.
const FileNameLayout = "20060102_150405"

// Extension is appended to every saved bout name.
const Extension = ".json"

// Entry describes one saved bout.
type Entry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// Store provides read/write access to saved bouts.
type Store interface {
	// Save writes data under name, replacing any previous content.
	Save(ctx context.Context, name string, data []byte) error

	// Load returns the bytes saved under name.
	// Returns ErrNotFound if nothing was saved under it.
	Load(ctx context.Context, name string) ([]byte, error)

	// List returns saved bouts, newest first.
	List(ctx context.Context) ([]Entry, error)
}

// FileName builds the conventional name of a saved bout,
// e.g. 20250601_183000_Ann_vs_Bea.json.
func FileName(savedAt time.Time, fighterA, fighterB string) string {
	return savedAt.Format(FileNameLayout) + "_" + sanitize(fighterA) + "_vs_" + sanitize(fighterB) + Extension
}

// sanitize keeps a name usable as a path element on every platform.
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r), unicode.IsControl(r):
			return '-'
		}
		return r
	}, name)
}

// ValidName reports whether name can be loaded from or saved to a store:
// a single path element ending in .json.
func ValidName(name string) bool {
	if !strings.HasSuffix(name, Extension) || len(name) == len(Extension) {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
