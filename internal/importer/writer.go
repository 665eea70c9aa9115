package importer

import (
	"errors"

	"github.com/tech-arch1tect/vault-importer/internal/storage"
)

const ReasonAlreadyExists = "already exists"

// Content is what gets written for one entry, either raw bytes or decoded
// text.
type Content struct {
	binary bool
	data   []byte
	text   string
}

func BinaryContent(data []byte) Content {
	return Content{binary: true, data: data}
}

func TextContent(text string) Content {
	return Content{text: text}
}

func (c Content) IsBinary() bool {
	return c.binary
}

func (c Content) Len() int {
	if c.binary {
		return len(c.data)
	}
	return len(c.text)
}

// WriteResult is the storage-level result of placing one file.
type WriteResult struct {
	Status OutcomeStatus
	Reason string
	Err    error
}

// Write creates the destination and falls back to the overwrite policy when
// something already exists there.
func Write(backend storage.Backend, dest string, content Content, overwriteExisting bool) WriteResult {
	err := create(backend, dest, content)
	if err == nil {
		return WriteResult{Status: StatusCreated}
	}

	if !errors.Is(err, storage.ErrAlreadyExists) {
		return WriteResult{
			Status: StatusFailed,
			Err:    &StorageError{Op: OpCreate, Path: dest, Err: err},
		}
	}

	if !overwriteExisting {
		return WriteResult{Status: StatusSkipped, Reason: ReasonAlreadyExists}
	}

	if err := overwrite(backend, dest, content); err != nil {
		return WriteResult{
			Status: StatusFailed,
			Err:    &StorageError{Op: OpOverwrite, Path: dest, Err: err},
		}
	}

	return WriteResult{Status: StatusOverwritten}
}

func create(backend storage.Backend, dest string, content Content) error {
	if content.IsBinary() {
		return backend.CreateBinary(dest, content.data)
	}
	return backend.Create(dest, content.text)
}

func overwrite(backend storage.Backend, dest string, content Content) error {
	if content.IsBinary() {
		return backend.WriteBinary(dest, content.data)
	}
	return backend.Write(dest, content.text)
}
