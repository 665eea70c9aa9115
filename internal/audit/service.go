package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"go.uber.org/zap"
)

type Service struct {
	logger       *logging.Logger
	fileWriter   *os.File
	writeMutex   sync.Mutex
	enabled      bool
	logFilePath  string
	maxSizeBytes int64
	now          func() time.Time
}

type AuditEvent struct {
	Timestamp     time.Time      `json:"timestamp"`
	EventType     string         `json:"event_type"`
	EventCategory string         `json:"event_category"`
	Severity      string         `json:"severity"`
	Success       bool           `json:"success"`
	Source        string         `json:"source,omitempty"`
	RunID         string         `json:"run_id,omitempty"`
	EntryPath     string         `json:"entry_path,omitempty"`
	TargetPath    string         `json:"target_path,omitempty"`
	FailureReason string         `json:"failure_reason,omitempty"`
	DurationMs    int64          `json:"duration_ms,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func NewService(enabled bool, logFilePath string, maxSizeBytes int64, logger *logging.Logger) (*Service, error) {
	if !enabled {
		return &Service{enabled: false}, nil
	}

	if logFilePath == "" {
		logFilePath = "/var/log/vault-importer/audit.jsonl"
	}

	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	service := &Service{
		logger:       logger.With(zap.String("service", "audit")),
		enabled:      true,
		logFilePath:  logFilePath,
		maxSizeBytes: maxSizeBytes,
		now:          time.Now,
	}

	if err := service.openFile(); err != nil {
		return nil, err
	}

	service.logger.Info("audit log service initialized",
		zap.String("log_file", logFilePath),
		zap.Int64("max_size_bytes", maxSizeBytes),
	)

	return service, nil
}

// NewDisabled returns a Service that drops every event.
func NewDisabled() *Service {
	return &Service{enabled: false}
}

func (s *Service) openFile() error {
	file, err := os.OpenFile(s.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file %s: %w", s.logFilePath, err)
	}
	s.fileWriter = file
	return nil
}

func (s *Service) rotatedFilePath() string {
	ext := filepath.Ext(s.logFilePath)
	base := strings.TrimSuffix(s.logFilePath, ext)
	return fmt.Sprintf("%s-%s%s", base, s.now().Format("20060102-150405.000"), ext)
}

// rotateIfNeededLocked moves the current file aside once it reaches the size
// limit. Callers hold writeMutex.
func (s *Service) rotateIfNeededLocked() {
	if s.maxSizeBytes <= 0 || s.fileWriter == nil {
		return
	}

	info, err := s.fileWriter.Stat()
	if err != nil {
		s.logger.Warn("failed to stat audit log file for size check", zap.Error(err))
		return
	}
	if info.Size() < s.maxSizeBytes {
		return
	}

	if err := s.fileWriter.Close(); err != nil {
		s.logger.Warn("failed to close audit log file during rotation", zap.Error(err))
	}
	s.fileWriter = nil

	rotatedPath := s.rotatedFilePath()
	if err := os.Rename(s.logFilePath, rotatedPath); err != nil {
		s.logger.Error("failed to rotate audit log file",
			zap.String("from", s.logFilePath),
			zap.String("to", rotatedPath),
			zap.Error(err),
		)
	} else {
		s.logger.Info("rotated audit log file", zap.String("rotated_to", rotatedPath))
	}

	if err := s.openFile(); err != nil {
		s.logger.Error("failed to reopen audit log file", zap.Error(err))
	}
}

func (s *Service) Log(event AuditEvent) {
	if !s.enabled {
		return
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	if s.fileWriter == nil {
		if err := s.openFile(); err != nil {
			s.logger.Error("failed to open audit log file", zap.Error(err))
			return
		}
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	event.EventCategory = GetEventCategory(event.EventType)
	event.Severity = GetEventSeverity(event.EventType)

	jsonData, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal audit event", zap.Error(err))
		return
	}

	if _, err := s.fileWriter.Write(append(jsonData, '\n')); err != nil {
		s.logger.Error("failed to write audit event", zap.Error(err))
		return
	}

	s.rotateIfNeededLocked()
}

func (s *Service) LogImportEvent(eventType, source, runID string, success bool, failureReason string, durationMs int64, metadata map[string]any) {
	s.Log(AuditEvent{
		EventType:     eventType,
		Source:        source,
		RunID:         runID,
		Success:       success,
		FailureReason: failureReason,
		DurationMs:    durationMs,
		Metadata:      metadata,
	})
}

func (s *Service) LogFileEvent(eventType, runID, entryPath, targetPath string, success bool, failureReason string) {
	s.Log(AuditEvent{
		EventType:     eventType,
		RunID:         runID,
		EntryPath:     entryPath,
		TargetPath:    targetPath,
		Success:       success,
		FailureReason: failureReason,
	})
}

func (s *Service) Close() error {
	if !s.enabled {
		return nil
	}

	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	_ = s.logger.Sync()
	if s.fileWriter != nil {
		err := s.fileWriter.Close()
		s.fileWriter = nil
		return err
	}
	return nil
}

func (s *Service) IsEnabled() bool {
	return s.enabled
}
