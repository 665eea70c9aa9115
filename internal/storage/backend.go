package storage

import "errors"

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotDirectory  = errors.New("not a directory")
)

// Backend is the file-tree capability the importer writes through. Paths are
// vault-relative and use forward slashes; the empty string is the vault root.
type Backend interface {
	// CreateFolder creates path and any missing ancestors. It returns
	// ErrAlreadyExists when a folder is already present at path.
	CreateFolder(path string) error
	// Create and CreateBinary fail with ErrAlreadyExists when anything
	// exists at path.
	Create(path, content string) error
	CreateBinary(path string, data []byte) error
	// Write and WriteBinary replace the content at path.
	Write(path, content string) error
	WriteBinary(path string, data []byte) error
	Read(path string) (string, error)
	ReadBinary(path string) ([]byte, error)
	// ConfigDir is the vault-relative configuration directory.
	ConfigDir() string
}
