package importer

import (
	"archive/zip"
	"bytes"
	"sync"
	"testing"

	"github.com/tech-arch1tect/vault-importer/internal/audit"
	"github.com/tech-arch1tect/vault-importer/internal/logging"
	"github.com/tech-arch1tect/vault-importer/internal/storage"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type zipEntry struct {
	name string
	body string
}

func buildArchive(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		require.NoError(t, err)
		if e.body != "" {
			_, err = fw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func newTestVault(t *testing.T, fsys afero.Fs) *storage.Vault {
	t.Helper()
	if fsys == nil {
		fsys = afero.NewMemMapFs()
	}
	return storage.NewVault(fsys, ".obsidian", logging.NewNop())
}

func newTestService(t *testing.T, backend storage.Backend) *Service {
	t.Helper()
	return NewService(backend, audit.NewDisabled(), logging.NewNop())
}

func writeVaultFile(t *testing.T, fsys afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, "/"+name, []byte(content), 0644))
}

// noticeRecorder collects notices in delivery order.
type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *noticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Message)
	}
	return out
}

func (r *noticeRecorder) last() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notices[len(r.notices)-1]
}
