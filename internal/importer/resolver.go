package importer

import (
	"fmt"
	"path"

	"github.com/tech-arch1tect/vault-importer/internal/validation"
)

type Root int

const (
	RootImport Root = iota
	RootSnippets
)

func (r Root) String() string {
	if r == RootSnippets {
		return "snippets"
	}
	return "import"
}

func (r Root) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Root) UnmarshalText(text []byte) error {
	switch string(text) {
	case "import":
		*r = RootImport
	case "snippets":
		*r = RootSnippets
	default:
		return fmt.Errorf("unknown root %q", text)
	}
	return nil
}

// Destination is a vault-relative target path and the root it was resolved
// under.
type Destination struct {
	Path string `json:"path"`
	Root Root   `json:"root"`
}

// Dir is the parent folder, or "" for the vault root.
func (d Destination) Dir() string {
	dir := path.Dir(d.Path)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

func (d Destination) Name() string {
	return FileName(d.Path)
}

// RootPath returns the configured root the destination must stay within.
func (d Destination) RootPath(cfg Config) string {
	if d.Root == RootSnippets {
		return cfg.SnippetsRoot
	}
	return cfg.ImportRoot
}

// Resolve computes where an entry is placed. Style sheets keep only their
// file name and go to the snippets root; everything else keeps its archive
// structure under the import root.
func Resolve(entryPath string, kind EntryKind, cfg Config) Destination {
	if kind == KindStyleSheet {
		return Destination{
			Path: JoinPath(cfg.SnippetsRoot, FileName(entryPath)),
			Root: RootSnippets,
		}
	}

	return Destination{
		Path: JoinPath(cfg.ImportRoot, entryPath),
		Root: RootImport,
	}
}

// JoinPath joins vault-relative path elements, normalizing separators. An
// empty result is the vault root; no leading separator is ever produced.
func JoinPath(elem ...string) string {
	joined := ""
	for _, e := range elem {
		if e == "" {
			continue
		}
		if joined == "" {
			joined = e
			continue
		}
		joined = joined + "/" + e
	}
	return validation.CleanVaultPath(joined)
}

func SnippetsRoot(configDir string) string {
	return JoinPath(configDir, "snippets")
}
