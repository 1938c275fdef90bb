package repository

import "os"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithFileMode sets the permissions of written files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// WithDirMode sets the permissions used when creating the directory.
func WithDirMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.dirMode = mode
		}
	}
}
