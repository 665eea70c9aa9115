package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvents(t *testing.T, path string) []AuditEvent {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event AuditEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		events = append(events, event)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestDisabledServiceWritesNothing(t *testing.T) {
	service, err := NewService(false, filepath.Join(t.TempDir(), "audit.jsonl"), 0, logging.NewNop())
	require.NoError(t, err)
	assert.False(t, service.IsEnabled())

	service.LogImportEvent(EventImportStarted, "cli", "run", true, "", 0, nil)
	assert.NoError(t, service.Close())

	assert.False(t, NewDisabled().IsEnabled())
}

func TestLogWritesCategorisedEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.jsonl")
	service, err := NewService(true, path, 0, logging.NewNop())
	require.NoError(t, err)

	service.LogImportEvent(EventImportCompleted, "10.0.0.1", "run-1", true, "", 12, map[string]any{"created": 2})
	service.LogFileEvent(EventFileOverwritten, "run-1", "notes/a.md", "Imports/notes/a.md", true, "")
	service.LogFileEvent(EventFileFailed, "run-1", "notes/b.md", "Imports/notes/b.md", false, "permission denied")
	require.NoError(t, service.Close())

	events := readEvents(t, path)
	require.Len(t, events, 3)

	assert.Equal(t, "import", events[0].EventCategory)
	assert.Equal(t, "medium", events[0].Severity)
	assert.Equal(t, "10.0.0.1", events[0].Source)
	assert.Equal(t, int64(12), events[0].DurationMs)

	assert.Equal(t, "file", events[1].EventCategory)
	assert.Equal(t, "critical", events[1].Severity)
	assert.Equal(t, "Imports/notes/a.md", events[1].TargetPath)

	assert.False(t, events[2].Success)
	assert.Equal(t, "permission denied", events[2].FailureReason)
	assert.False(t, events[2].Timestamp.IsZero())
}

func TestLogRotatesBySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")
	service, err := NewService(true, path, 1, logging.NewNop())
	require.NoError(t, err)

	tick := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	service.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	service.LogFileEvent(EventFileCreated, "run", "a.md", "a.md", true, "")
	service.LogFileEvent(EventFileCreated, "run", "b.md", "b.md", true, "")
	require.NoError(t, service.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "audit-*.jsonl"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestEventClassification(t *testing.T) {
	assert.Equal(t, "unknown", GetEventCategory("stack.list"))
	assert.Equal(t, "low", GetEventSeverity(EventFileSkipped))
	assert.Equal(t, "high", GetEventSeverity(EventImportFailed))
}
