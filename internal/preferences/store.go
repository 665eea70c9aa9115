package preferences

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/tech-arch1tect/vault-importer/internal/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDelay = 100 * time.Millisecond

// Store holds the current preferences and reloads them when the file
// changes. Readers take a Snapshot per import run, so a reload never affects
// a run already in flight.
type Store struct {
	mu      sync.RWMutex
	current Preferences
	path    string
	logger  *logging.Logger
	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	reloads chan struct{}
}

func NewStore(path string, logger *logging.Logger) (*Store, error) {
	prefs, err := Load(path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Store{
		current: prefs,
		path:    path,
		logger:  logger.With(zap.String("service", "preferences")),
		ctx:     ctx,
		cancel:  cancel,
		reloads: make(chan struct{}, 1),
	}, nil
}

func (s *Store) Snapshot() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the file. On a parse error the previous preferences stay
// in effect.
func (s *Store) Reload() error {
	prefs, err := Load(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = prefs
	s.mu.Unlock()

	s.logger.Info("preferences loaded",
		zap.String("path", s.path),
		zap.String("import_path", prefs.ImportPath),
		zap.Bool("overwrite_files", prefs.OverwriteFiles),
	)

	select {
	case s.reloads <- struct{}{}:
	default:
	}
	return nil
}

// Reloaded signals after each successful reload.
func (s *Store) Reloaded() <-chan struct{} {
	return s.reloads
}

// Start watches the directory holding the preferences file. Editors often
// replace files by rename, so the directory is watched rather than the file.
func (s *Store) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create preferences watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		s.logger.Warn("preferences directory not watched",
			zap.String("directory", dir),
			zap.Error(err),
		)
		return nil
	}

	s.watcher = watcher
	go s.watchLoop()
	return nil
}

func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
}

func (s *Store) watchLoop() {
	var pending <-chan time.Time

	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = time.After(reloadDelay)
		case <-pending:
			pending = nil
			if err := s.Reload(); err != nil {
				s.logger.Warn("failed to reload preferences", zap.Error(err))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("preferences watcher error", zap.Error(err))
		}
	}
}
