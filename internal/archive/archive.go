package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var ErrDecode = errors.New("not a valid zip archive")

// Archive is a fully buffered ZIP archive. Entries are yielded in central
// directory order and each entry can be read any number of times.
type Archive struct {
	entries []Entry
}

type Entry struct {
	// Path is archive-relative and always uses forward slashes.
	Path  string
	IsDir bool
	Size  uint64
	file  *zip.File
}

func Open(data []byte) (*Archive, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	reader.RegisterDecompressor(zip.Deflate, newFlateReader)
	reader.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	entries := make([]Entry, 0, len(reader.File))
	for _, file := range reader.File {
		name := NormalizePath(file.Name)
		entries = append(entries, Entry{
			Path:  strings.TrimSuffix(name, "/"),
			IsDir: strings.HasSuffix(name, "/") || file.FileInfo().IsDir(),
			Size:  file.UncompressedSize64,
			file:  file,
		})
	}

	return &Archive{entries: entries}, nil
}

func newFlateReader(r io.Reader) io.ReadCloser {
	return flate.NewReader(r)
}

func (a *Archive) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

func (a *Archive) Len() int {
	return len(a.entries)
}

// Name returns the final path segment.
func (e Entry) Name() string {
	return path.Base(e.Path)
}

// Bytes returns the raw decompressed content.
func (e Entry) Bytes() ([]byte, error) {
	rc, err := e.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", e.Path, err)
	}
	return data, nil
}

// Text decodes the content as UTF-8. A leading byte order mark is dropped and
// invalid sequences are replaced with U+FFFD.
func (e Entry) Text() (string, error) {
	rc, err := e.open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoded, err := io.ReadAll(transform.NewReader(rc, unicode.UTF8BOM.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("failed to decode entry %s: %w", e.Path, err)
	}
	return string(decoded), nil
}

func (e Entry) open() (io.ReadCloser, error) {
	if e.file == nil {
		return nil, fmt.Errorf("entry %s has no content", e.Path)
	}
	if e.IsDir {
		return nil, fmt.Errorf("entry %s is a directory", e.Path)
	}
	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", e.Path, err)
	}
	return rc, nil
}

// NormalizePath converts backslash separators to forward slashes.
func NormalizePath(name string) string {
	return strings.ReplaceAll(name, `\`, "/")
}
