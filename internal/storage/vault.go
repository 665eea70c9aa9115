package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	folderMode = os.FileMode(0755)
	fileMode   = os.FileMode(0644)
)

// Vault is a Backend over an afero filesystem rooted at the vault directory.
type Vault struct {
	fs        afero.Fs
	configDir string
	logger    *logging.Logger
}

func NewVault(fsys afero.Fs, configDir string, logger *logging.Logger) *Vault {
	return &Vault{
		fs:        fsys,
		configDir: strings.Trim(filepath.ToSlash(configDir), "/"),
		logger:    logger.With(zap.String("service", "storage")),
	}
}

// NewLocalVault opens an existing directory on the local disk as a vault.
func NewLocalVault(location, configDir string, logger *logging.Logger) (*Vault, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("cannot access vault location: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault location is not a directory: %s", location)
	}

	return NewVault(afero.NewBasePathFs(afero.NewOsFs(), location), configDir, logger), nil
}

func (v *Vault) ConfigDir() string {
	return v.configDir
}

func (v *Vault) CreateFolder(p string) error {
	full := v.realPath(p)

	info, err := v.fs.Stat(full)
	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("folder %s: %w", p, ErrAlreadyExists)
		}
		return fmt.Errorf("folder %s: %w", p, ErrNotDirectory)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot access folder %s: %w", p, err)
	}

	if err := v.checkAncestors(full); err != nil {
		return err
	}

	if err := v.fs.MkdirAll(full, folderMode); err != nil {
		v.logger.Error("cannot create folder",
			zap.String("operation", "create_folder"),
			zap.String("path", p),
			zap.Error(err),
		)
		return fmt.Errorf("cannot create folder %s: %w", p, err)
	}

	v.logger.Debug("folder created",
		zap.String("operation", "create_folder"),
		zap.String("path", p),
	)
	return nil
}

func (v *Vault) Create(p, content string) error {
	return v.create(p, []byte(content))
}

func (v *Vault) CreateBinary(p string, data []byte) error {
	return v.create(p, data)
}

func (v *Vault) create(p string, data []byte) error {
	full := v.realPath(p)

	if err := v.checkAncestors(full); err != nil {
		return err
	}

	file, err := v.fs.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) || v.exists(full) {
			return fmt.Errorf("file %s: %w", p, ErrAlreadyExists)
		}
		v.logger.Error("cannot create file",
			zap.String("operation", "create_file"),
			zap.String("path", p),
			zap.Error(err),
		)
		return fmt.Errorf("cannot create file %s: %w", p, err)
	}

	_, writeErr := file.Write(data)
	closeErr := file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = v.fs.Remove(full)
		return fmt.Errorf("cannot write file %s: %w", p, err)
	}

	v.logger.Debug("file created",
		zap.String("operation", "create_file"),
		zap.String("path", p),
		zap.Int("size", len(data)),
	)
	return nil
}

func (v *Vault) Write(p, content string) error {
	return v.write(p, []byte(content))
}

func (v *Vault) WriteBinary(p string, data []byte) error {
	return v.write(p, data)
}

// write stages the new content next to the target and renames it into place
// so readers never observe a partially written file.
func (v *Vault) write(p string, data []byte) error {
	full := v.realPath(p)

	if err := v.checkAncestors(full); err != nil {
		return err
	}

	if info, err := v.fs.Stat(full); err == nil && info.IsDir() {
		return fmt.Errorf("cannot overwrite %s: path is a folder", p)
	}

	dir, name := filepath.Split(full)
	tmp, err := afero.TempFile(v.fs, dir, "."+name+"-*.tmp")
	if err != nil {
		v.logger.Error("cannot stage file",
			zap.String("operation", "write_file"),
			zap.String("path", p),
			zap.Error(err),
		)
		return fmt.Errorf("cannot write file %s: %w", p, err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	chmodErr := v.fs.Chmod(tmpPath, fileMode)
	if err := errors.Join(writeErr, closeErr, chmodErr); err != nil {
		_ = v.fs.Remove(tmpPath)
		return fmt.Errorf("cannot write file %s: %w", p, err)
	}

	if err := v.fs.Rename(tmpPath, full); err != nil {
		_ = v.fs.Remove(tmpPath)
		v.logger.Error("cannot move file into place",
			zap.String("operation", "write_file"),
			zap.String("path", p),
			zap.Error(err),
		)
		return fmt.Errorf("cannot move file into place: %w", err)
	}

	v.logger.Debug("file written",
		zap.String("operation", "write_file"),
		zap.String("path", p),
		zap.Int("size", len(data)),
	)
	return nil
}

func (v *Vault) Read(p string) (string, error) {
	data, err := v.ReadBinary(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (v *Vault) ReadBinary(p string) ([]byte, error) {
	data, err := afero.ReadFile(v.fs, v.realPath(p))
	if err != nil {
		return nil, fmt.Errorf("cannot read file %s: %w", p, err)
	}
	return data, nil
}

// Exists reports whether anything is present at p.
func (v *Vault) Exists(p string) bool {
	return v.exists(v.realPath(p))
}

func (v *Vault) exists(full string) bool {
	_, err := v.fs.Stat(full)
	return err == nil
}

// realPath maps a vault-relative path onto the afero filesystem. Joining onto
// the separator clamps ".." segments at the vault root.
func (v *Vault) realPath(p string) string {
	return filepath.FromSlash(path.Clean("/" + filepath.ToSlash(p)))
}

// checkAncestors fails when a parent of full exists but is not a folder.
func (v *Vault) checkAncestors(full string) error {
	dir := filepath.Dir(full)
	for dir != string(filepath.Separator) && dir != "." {
		info, err := v.fs.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%s: %w", filepath.ToSlash(strings.TrimPrefix(dir, string(filepath.Separator))), ErrNotDirectory)
			}
			return nil
		}
		dir = filepath.Dir(dir)
	}
	return nil
}
