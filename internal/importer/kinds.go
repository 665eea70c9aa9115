package importer

import (
	"fmt"
	"path"
	"strings"

	"github.com/tech-arch1tect/vault-importer/internal/archive"
)

type EntryKind int

const (
	KindDirectory EntryKind = iota
	KindHidden
	KindImage
	KindStyleSheet
	KindText
)

// ImageSuffixes are matched case-sensitively against the file name.
var ImageSuffixes = []string{".png", ".jpg", ".jpeg", ".gif"}

const StyleSheetSuffix = ".css"

func (k EntryKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindHidden:
		return "hidden"
	case KindImage:
		return "image"
	case KindStyleSheet:
		return "stylesheet"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

func (k EntryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EntryKind) UnmarshalText(text []byte) error {
	for _, kind := range []EntryKind{KindDirectory, KindHidden, KindImage, KindStyleSheet, KindText} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown entry kind %q", text)
}

// Ignored kinds produce no outcome at all.
func (k EntryKind) Ignored() bool {
	return k == KindDirectory || k == KindHidden
}

func (k EntryKind) Binary() bool {
	return k == KindImage
}

// Classify determines the kind of an archive entry from its path and the
// archive's directory flag. The rules are applied in order and the first
// match wins.
func Classify(entryPath string, isDir bool) EntryKind {
	entryPath = archive.NormalizePath(entryPath)
	if isDir || strings.HasSuffix(entryPath, "/") {
		return KindDirectory
	}

	for _, segment := range strings.Split(entryPath, "/") {
		if strings.HasPrefix(segment, ".") {
			return KindHidden
		}
	}

	name := FileName(entryPath)
	for _, suffix := range ImageSuffixes {
		if strings.HasSuffix(name, suffix) {
			return KindImage
		}
	}

	if strings.HasSuffix(name, StyleSheetSuffix) {
		return KindStyleSheet
	}

	return KindText
}

func ClassifyEntry(entry archive.Entry) EntryKind {
	return Classify(entry.Path, entry.IsDir)
}

// FileName returns the last segment of an archive path, accepting either
// separator.
func FileName(entryPath string) string {
	entryPath = strings.TrimSuffix(archive.NormalizePath(entryPath), "/")
	if entryPath == "" {
		return ""
	}
	return path.Base(entryPath)
}
