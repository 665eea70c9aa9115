package importer

import (
	"errors"

	"github.com/tech-arch1tect/vault-importer/internal/storage"
)

// EnsureDir makes sure dir exists. An existing folder counts as success and
// the vault root is never created.
func EnsureDir(backend storage.Backend, dir string) error {
	if dir == "" {
		return nil
	}

	err := backend.CreateFolder(dir)
	if err == nil || errors.Is(err, storage.ErrAlreadyExists) {
		return nil
	}

	return &StorageError{Op: OpCreateFolder, Path: dir, Err: err}
}
