package importer

import (
	"errors"
	"fmt"
)

var ErrImportInProgress = errors.New("another import is already running")

const (
	OpCreateFolder = "create_folder"
	OpCreate       = "create"
	OpOverwrite    = "overwrite"
	OpRead         = "read_entry"
)

// StorageError is a backend failure unrelated to pre-existence.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
