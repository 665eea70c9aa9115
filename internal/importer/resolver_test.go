package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	cfg := NewConfig("Imports", false, ".obsidian")

	tests := []struct {
		name     string
		entry    string
		kind     EntryKind
		wantPath string
		wantRoot Root
		wantDir  string
	}{
		{name: "top level note", entry: "a.md", kind: KindText, wantPath: "Imports/a.md", wantRoot: RootImport, wantDir: "Imports"},
		{name: "nested note", entry: "folder/sub/b.md", kind: KindText, wantPath: "Imports/folder/sub/b.md", wantRoot: RootImport, wantDir: "Imports/folder/sub"},
		{name: "image keeps structure", entry: "img/pic.png", kind: KindImage, wantPath: "Imports/img/pic.png", wantRoot: RootImport, wantDir: "Imports/img"},
		{name: "style sheet flattened", entry: "themes/dark/theme.css", kind: KindStyleSheet, wantPath: ".obsidian/snippets/theme.css", wantRoot: RootSnippets, wantDir: ".obsidian/snippets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := Resolve(tt.entry, tt.kind, cfg)
			assert.Equal(t, tt.wantPath, dest.Path)
			assert.Equal(t, tt.wantRoot, dest.Root)
			assert.Equal(t, tt.wantDir, dest.Dir())
		})
	}
}

func TestResolveAtVaultRoot(t *testing.T) {
	cfg := NewConfig("", false, ".obsidian")

	dest := Resolve("a.md", KindText, cfg)
	assert.Equal(t, "a.md", dest.Path)
	assert.Equal(t, "", dest.Dir())
	assert.Equal(t, "a.md", dest.Name())
	assert.Equal(t, "", dest.RootPath(cfg))
}

func TestNewConfigNormalizesPaths(t *testing.T) {
	cfg := NewConfig("/Imports//2024/", true, "/.obsidian/")
	assert.Equal(t, "Imports/2024", cfg.ImportRoot)
	assert.Equal(t, ".obsidian/snippets", cfg.SnippetsRoot)
	assert.True(t, cfg.OverwriteExisting)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "", JoinPath())
	assert.Equal(t, "", JoinPath("", ""))
	assert.Equal(t, "a/b", JoinPath("a", "", "b"))
	assert.Equal(t, "a/b", JoinPath(`a\`, "b"))
	assert.Equal(t, "../x", JoinPath("..", "x"))
}
