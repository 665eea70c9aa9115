package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/tech-arch1tect/vault-importer/internal/common"
	"github.com/tech-arch1tect/vault-importer/internal/logging"
	"github.com/tech-arch1tect/vault-importer/internal/preferences"
	"github.com/tech-arch1tect/vault-importer/internal/storage"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPreferences preferences.Preferences

func (p staticPreferences) Snapshot() preferences.Preferences {
	return preferences.Preferences(p)
}

type handlerFixture struct {
	vault    *storage.Vault
	handler  *Handler
	notices  *noticeRecorder
	echo     *echo.Echo
	maxBytes int64
}

func newHandlerFixture(t *testing.T, prefs preferences.Preferences, maxBytes int64) *handlerFixture {
	t.Helper()

	vault := newTestVault(t, nil)
	notices := &noticeRecorder{}
	handler := NewHandler(newTestService(t, vault), staticPreferences(prefs), notices, maxBytes, logging.NewNop())

	return &handlerFixture{
		vault:    vault,
		handler:  handler,
		notices:  notices,
		echo:     echo.New(),
		maxBytes: maxBytes,
	}
}

func multipartRequest(t *testing.T, archive []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if archive != nil {
		fw, err := w.CreateFormFile(FormFieldArchive, "export.zip")
		require.NoError(t, err)
		_, err = fw.Write(archive)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func (f *handlerFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, f.handler.Import(f.echo.NewContext(req, rec)))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandlerImportUsesPreferences(t *testing.T) {
	f := newHandlerFixture(t, preferences.Preferences{ImportPath: "Inbox"}, 1<<20)
	archive := buildArchive(t, zipEntry{name: "a.md", body: "alpha"})

	rec := f.do(t, multipartRequest(t, archive, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, StateDone, summary.State)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, "Inbox", summary.Config.ImportRoot)
	assert.Equal(t, ".obsidian/snippets", summary.Config.SnippetsRoot)

	assert.True(t, f.vault.Exists("Inbox/a.md"))
	assert.Equal(t, []string{"File created: a.md", MessageImportSucceeded}, f.notices.messages())
}

func TestHandlerImportFormOverrides(t *testing.T) {
	f := newHandlerFixture(t, preferences.Preferences{ImportPath: "Inbox"}, 1<<20)
	require.NoError(t, f.vault.Create("a.md", "old"))
	archive := buildArchive(t, zipEntry{name: "a.md", body: "new"})

	rec := f.do(t, multipartRequest(t, archive, map[string]string{
		FormFieldImportPath: "",
		FormFieldOverwrite:  "true",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	content, err := f.vault.Read("a.md")
	require.NoError(t, err)
	assert.Equal(t, "new", content)
	assert.False(t, f.vault.Exists("Inbox/a.md"))
}

func TestHandlerImportRejectsBadRequests(t *testing.T) {
	archive := func(t *testing.T) []byte {
		return buildArchive(t, zipEntry{name: "a.md", body: "some reasonably long content"})
	}

	tests := []struct {
		name       string
		maxBytes   int64
		archive    func(t *testing.T) []byte
		fields     map[string]string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing archive",
			maxBytes:   1 << 20,
			wantStatus: http.StatusBadRequest,
			wantCode:   common.CodeMissingArchive,
		},
		{
			name:       "invalid overwrite flag",
			maxBytes:   1 << 20,
			archive:    archive,
			fields:     map[string]string{FormFieldOverwrite: "sometimes"},
			wantStatus: http.StatusBadRequest,
			wantCode:   common.CodeInvalidRequest,
		},
		{
			name:       "import path escaping the vault",
			maxBytes:   1 << 20,
			archive:    archive,
			fields:     map[string]string{FormFieldImportPath: "../elsewhere"},
			wantStatus: http.StatusBadRequest,
			wantCode:   common.CodeInvalidRequest,
		},
		{
			name:       "archive too large",
			maxBytes:   16,
			archive:    archive,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   common.CodeArchiveTooLarge,
		},
		{
			name:       "not a zip",
			maxBytes:   1 << 20,
			archive:    func(t *testing.T) []byte { return []byte("plain text") },
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   common.CodeDecodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t, preferences.Defaults(), tt.maxBytes)

			var data []byte
			if tt.archive != nil {
				data = tt.archive(t)
			}

			rec := f.do(t, multipartRequest(t, data, tt.fields))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestHandlerImportStreamsEvents(t *testing.T) {
	f := newHandlerFixture(t, preferences.Defaults(), 1<<20)
	archive := buildArchive(t,
		zipEntry{name: "a.md", body: "alpha"},
		zipEntry{name: "theme.css", body: "p {}"},
	)

	req := multipartRequest(t, archive, nil)
	req.Header.Set(echo.HeaderAccept, "text/event-stream")
	rec := f.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))

	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, "event: notice\n"))
	assert.Equal(t, 1, strings.Count(body, "event: summary\n"))
	assert.Contains(t, body, "File created: a.md")
	assert.Contains(t, body, "File created: theme.css")
	assert.Contains(t, body, MessageImportSucceeded)
	assert.Less(t, strings.Index(body, MessageImportSucceeded), strings.Index(body, "event: summary"))

	assert.True(t, f.vault.Exists(".obsidian/snippets/theme.css"))
	assert.Len(t, f.notices.messages(), 3)
}

func TestHandlerImportStreamsDecodeError(t *testing.T) {
	f := newHandlerFixture(t, preferences.Defaults(), 1<<20)

	req := multipartRequest(t, []byte("nope"), nil)
	req.Header.Set(echo.HeaderAccept, "text/event-stream")
	rec := f.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, common.CodeDecodeError)
	assert.NotContains(t, body, "event: summary")
}

func TestStreamWriterFormat(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)
	w.WriteError("CODE", "message")

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "event: error\ndata: "))
	require.True(t, strings.HasSuffix(out, "\n\n"))

	payload := strings.TrimSuffix(strings.TrimPrefix(out, "event: error\ndata: "), "\n\n")
	var msg struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &msg))
	assert.Equal(t, StreamTypeError, msg.Type)
	assert.Equal(t, "CODE", msg.Data["code"])
	assert.Equal(t, "message", msg.Data["error"])
}

func TestHandlerStreamRejectsWhileImportRunning(t *testing.T) {
	f := newHandlerFixture(t, preferences.Defaults(), 1<<20)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	blocking := NotifierFunc(func(Notice) {
		once.Do(func() {
			close(started)
			<-release
		})
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.handler.service.Import(context.Background(), buildArchive(t, zipEntry{name: "a.md", body: "a"}), NewConfig("", false, ".obsidian"), blocking)
		done <- err
	}()
	<-started

	req := multipartRequest(t, buildArchive(t, zipEntry{name: "b.md", body: "b"}), nil)
	req.Header.Set(echo.HeaderAccept, "text/event-stream")
	rec := f.do(t, req)

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, common.CodeImportInProgress, decodeError(t, rec).Code)
	assert.False(t, f.vault.Exists("b.md"))
}

func TestErrorStatusForConcurrentImport(t *testing.T) {
	status, code := errorStatus(ErrImportInProgress)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, common.CodeImportInProgress, code)
}
