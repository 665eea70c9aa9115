package importer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tech-arch1tect/vault-importer/internal/archive"
	"github.com/tech-arch1tect/vault-importer/internal/audit"
	"github.com/tech-arch1tect/vault-importer/internal/logging"
	"github.com/tech-arch1tect/vault-importer/internal/storage"
	"github.com/tech-arch1tect/vault-importer/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sourceKey struct{}

// WithSource tags the import started with ctx with a caller description,
// such as a client IP, for the audit trail.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

func sourceFrom(ctx context.Context) string {
	if source, ok := ctx.Value(sourceKey{}).(string); ok {
		return source
	}
	return ""
}

// Service runs imports one at a time against a storage backend.
type Service struct {
	backend      storage.Backend
	auditService *audit.Service
	logger       *logging.Logger
	running      atomic.Bool
	now          func() time.Time
}

func NewService(backend storage.Backend, auditService *audit.Service, logger *logging.Logger) *Service {
	return &Service{
		backend:      backend,
		auditService: auditService,
		logger:       logger.With(zap.String("service", "importer")),
		now:          time.Now,
	}
}

func (s *Service) Running() bool {
	return s.running.Load()
}

// ConfigDir exposes the backend's configuration directory, from which the
// snippets root is derived.
func (s *Service) ConfigDir() string {
	return s.backend.ConfigDir()
}

type run struct {
	id     string
	state  State
	logger *logging.Logger
}

func (r *run) transition(state State, fields ...zap.Field) {
	r.logger.Debug("import state changed",
		append([]zap.Field{
			zap.String("from", string(r.state)),
			zap.String("to", string(state)),
		}, fields...)...,
	)
	r.state = state
}

// Import decodes data as a ZIP archive and places every entry according to
// cfg. Per-entry failures are recorded in the summary and never stop the
// run; only a decode failure is returned without a summary. Cancellation is
// honoured between entries, in which case the partial summary is returned
// together with the context error.
func (s *Service) Import(ctx context.Context, data []byte, cfg Config, notifier Notifier) (*Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("import rejected, another import is running")
		return nil, ErrImportInProgress
	}
	defer s.running.Store(false)

	if notifier == nil {
		notifier = Notifiers{}
	}

	startedAt := s.now()
	source := sourceFrom(ctx)
	runID := uuid.New().String()
	r := &run{
		id:     runID,
		state:  StateIdle,
		logger: s.logger.With(zap.String("run_id", runID)),
	}

	r.logger.Info("import started",
		zap.String("source", source),
		zap.Int("archive_size", len(data)),
		zap.String("import_root", cfg.ImportRoot),
		zap.String("snippets_root", cfg.SnippetsRoot),
		zap.Bool("overwrite_existing", cfg.OverwriteExisting),
	)
	s.auditService.LogImportEvent(audit.EventImportStarted, source, r.id, true, "", 0, map[string]any{
		"archive_size":       len(data),
		"import_root":        cfg.ImportRoot,
		"overwrite_existing": cfg.OverwriteExisting,
	})

	r.transition(StateDecoding)
	arc, err := archive.Open(data)
	if err != nil {
		r.transition(StateFailed)
		r.logger.Error("import failed", zap.Error(err))
		notifier.Notify(Notice{
			RunID:     r.id,
			Level:     LevelError,
			Message:   ImportFailedMessage(err),
			Final:     true,
			Timestamp: s.now(),
		})
		s.auditService.LogImportEvent(audit.EventImportFailed, source, r.id, false, err.Error(), s.since(startedAt), nil)
		return nil, err
	}

	summary := newSummary(r.id, cfg, startedAt)
	summary.Entries = arc.Len()

	var runErr error
	for _, entry := range arc.Entries() {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("import cancelled: %w", err)
			break
		}

		outcome, produced := s.processEntry(r, entry, cfg)
		if !produced {
			summary.Ignored++
			continue
		}

		summary.record(outcome)
		notifier.Notify(outcomeNotice(r.id, outcome, s.now()))
		s.auditOutcome(r.id, outcome)
	}

	r.transition(StateSummarizing)
	summary.DurationMs = s.since(startedAt)

	metadata := map[string]any{
		"entries":     summary.Entries,
		"created":     summary.Created,
		"overwritten": summary.Overwritten,
		"skipped":     summary.Skipped,
		"failed":      summary.Failed,
	}

	if runErr != nil {
		r.transition(StateCancelled)
		summary.State = StateCancelled
		r.logger.Warn("import cancelled",
			zap.Int("processed", summary.Total()+summary.Ignored),
			zap.Int("entries", summary.Entries),
		)
		notifier.Notify(Notice{
			RunID:     r.id,
			Level:     LevelError,
			Message:   ImportFailedMessage(runErr),
			Final:     true,
			Timestamp: s.now(),
		})
		s.auditService.LogImportEvent(audit.EventImportCancelled, source, r.id, false, runErr.Error(), summary.DurationMs, metadata)
		return summary, runErr
	}

	r.transition(StateDone)
	summary.State = StateDone
	r.logger.Info("import completed",
		zap.Int("entries", summary.Entries),
		zap.Int("ignored", summary.Ignored),
		zap.Int("created", summary.Created),
		zap.Int("overwritten", summary.Overwritten),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int64("duration_ms", summary.DurationMs),
	)
	notifier.Notify(Notice{
		RunID:     r.id,
		Level:     LevelInfo,
		Message:   MessageImportSucceeded,
		Final:     true,
		Timestamp: s.now(),
	})
	s.auditService.LogImportEvent(audit.EventImportCompleted, source, r.id, true, "", summary.DurationMs, metadata)

	return summary, nil
}

// processEntry runs one entry through classify, resolve, materialize and
// write. The boolean is false for entries that produce no outcome.
func (s *Service) processEntry(r *run, entry archive.Entry, cfg Config) (Outcome, bool) {
	r.transition(StateClassifying, zap.String("entry", entry.Path))
	kind := ClassifyEntry(entry)
	if kind.Ignored() {
		r.logger.Debug("entry ignored",
			zap.String("entry", entry.Path),
			zap.String("kind", kind.String()),
		)
		return Outcome{}, false
	}

	outcome := Outcome{
		Entry: entry.Path,
		Name:  FileName(entry.Path),
		Kind:  kind,
	}

	if err := validation.ValidateEntryPath(entry.Path); err != nil {
		return s.fail(r, outcome, err), true
	}

	r.transition(StateResolving)
	dest := Resolve(entry.Path, kind, cfg)
	outcome.Destination = dest

	if err := validation.ContainedIn(dest.RootPath(cfg), dest.Path); err != nil {
		r.logger.Warn("entry escapes its root",
			zap.String("entry", entry.Path),
			zap.String("destination", dest.Path),
		)
		return s.fail(r, outcome, fmt.Errorf("%s: %w", entry.Path, err)), true
	}

	content, err := readContent(entry, kind)
	if err != nil {
		return s.fail(r, outcome, &StorageError{Op: OpRead, Path: entry.Path, Err: err}), true
	}

	r.transition(StateMaterializing)
	if err := EnsureDir(s.backend, dest.Dir()); err != nil {
		return s.fail(r, outcome, err), true
	}

	r.transition(StateWriting)
	result := Write(s.backend, dest.Path, content, cfg.OverwriteExisting)
	outcome.Status = result.Status
	outcome.Reason = result.Reason
	if result.Status == StatusFailed {
		return s.fail(r, outcome, result.Err), true
	}

	r.logger.Info("entry imported",
		zap.String("entry", entry.Path),
		zap.String("destination", dest.Path),
		zap.String("kind", kind.String()),
		zap.String("outcome", string(outcome.Status)),
		zap.Int("size", content.Len()),
	)
	return outcome, true
}

func (s *Service) fail(r *run, outcome Outcome, err error) Outcome {
	outcome.Status = StatusFailed
	outcome.Err = err
	outcome.Reason = err.Error()

	r.logger.Error("entry failed",
		zap.String("entry", outcome.Entry),
		zap.String("destination", outcome.Destination.Path),
		zap.String("kind", outcome.Kind.String()),
		zap.Error(err),
	)
	return outcome
}

func readContent(entry archive.Entry, kind EntryKind) (Content, error) {
	if kind.Binary() {
		data, err := entry.Bytes()
		if err != nil {
			return Content{}, err
		}
		return BinaryContent(data), nil
	}

	text, err := entry.Text()
	if err != nil {
		return Content{}, err
	}
	return TextContent(text), nil
}

func (s *Service) auditOutcome(runID string, o Outcome) {
	var eventType string
	switch o.Status {
	case StatusCreated:
		eventType = audit.EventFileCreated
	case StatusOverwritten:
		eventType = audit.EventFileOverwritten
	case StatusSkipped:
		eventType = audit.EventFileSkipped
	default:
		eventType = audit.EventFileFailed
	}

	reason := o.Reason
	if o.Status == StatusFailed && o.Err != nil {
		reason = o.Err.Error()
	}
	s.auditService.LogFileEvent(eventType, runID, o.Entry, o.Destination.Path, o.Status != StatusFailed, reason)
}

func (s *Service) since(start time.Time) int64 {
	return s.now().Sub(start).Milliseconds()
}

// IsDecodeError reports whether err came from an archive that could not be
// decoded.
func IsDecodeError(err error) bool {
	return errors.Is(err, archive.ErrDecode)
}
