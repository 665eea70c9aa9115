package validation

import (
	"errors"
	"path"
	"strings"
)

var (
	ErrEmptyPath         = errors.New("empty path")
	ErrPathTraversal     = errors.New("path traversal detected")
	ErrInvalidCharacters = errors.New("invalid characters in input")
)

// CleanVaultPath normalizes a vault-relative path: backslashes become forward
// slashes, redundant separators and "." segments are removed and leading
// slashes are dropped. Leading ".." segments are kept so callers can detect
// escapes. The vault root is the empty string.
func CleanVaultPath(p string) string {
	p = strings.TrimLeft(strings.ReplaceAll(p, `\`, "/"), "/")
	if p == "" {
		return ""
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// ContainedIn reports whether target stays inside root. Both are
// vault-relative; an empty root means the vault root.
func ContainedIn(root, target string) error {
	if strings.ContainsRune(target, 0) {
		return ErrInvalidCharacters
	}

	root = CleanVaultPath(root)
	target = CleanVaultPath(target)

	if target == ".." || strings.HasPrefix(target, "../") {
		return ErrPathTraversal
	}
	if root == "" || target == root || strings.HasPrefix(target, root+"/") {
		return nil
	}
	return ErrPathTraversal
}

// ValidateImportPath checks a user supplied import root.
func ValidateImportPath(importPath string) error {
	if strings.ContainsRune(importPath, 0) {
		return ErrInvalidCharacters
	}
	for _, segment := range strings.Split(strings.ReplaceAll(importPath, `\`, "/"), "/") {
		if segment == ".." {
			return ErrPathTraversal
		}
	}
	return nil
}

// ValidateEntryPath rejects archive entry names that can never be placed.
func ValidateEntryPath(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(name, 0) {
		return ErrInvalidCharacters
	}
	return nil
}
