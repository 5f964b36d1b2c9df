package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/polisai/pdforge-adapter/pkg/logging"
)

// DefaultDebounce collapses bursts of editor writes into one reload.
const DefaultDebounce = time.Second

// ReloadFunc receives the freshly loaded configuration.
type ReloadFunc func(*Config) error

// WatcherConfig holds configuration for creating a Watcher.
type WatcherConfig struct {
	Path     string
	Apply    ReloadFunc
	Logger   *slog.Logger
	Debounce time.Duration
	// Overrides re-applies settings that outrank the file, such as command line
	// flags, to every reloaded configuration before Apply sees it.
	Overrides func(*Config)
	// OnResult, when set, is called with "success" or "error" after each reload.
	OnResult func(status string)
}

// Watcher reloads the configuration file when it changes. Only settings that
// Apply chooses to honor take effect; the rest stay fixed for the process
// lifetime.
type Watcher struct {
	path      string
	watcher   *fsnotify.Watcher
	apply     ReloadFunc
	overrides func(*Config)
	onResult  func(string)
	logger    *slog.Logger
	debounce  time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// ApplyLogLevel is the ReloadFunc used by the adapter: it re-applies
// logging.level and ignores every other field.
func ApplyLogLevel(cfg *Config) error {
	return logging.SetLevel(cfg.Logging.Level)
}

// NewWatcher creates a watcher for cfg.Path.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("config watcher: path is required")
	}
	if cfg.Apply == nil {
		cfg.Apply = ApplyLogLevel
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		path:      cfg.Path,
		watcher:   watcher,
		apply:     cfg.Apply,
		overrides: cfg.Overrides,
		onResult:  cfg.OnResult,
		logger:    logger,
		debounce:  debounce,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Start begins watching. The directory is watched rather than the file because
// editors often replace files by renaming a temporary copy.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.running = true

	w.logger.Info("config watcher started", "config_path", w.path)

	go w.watchLoop(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	err := w.watcher.Close()
	<-w.doneCh
	return err
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isConfigFileEvent(event) {
				continue
			}

			w.logger.Debug("config file event detected",
				"event", event.Op.String(),
				"file", event.Name)

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)

		case <-w.stopCh:
			w.logger.Info("config watcher stopped")
			return

		case <-ctx.Done():
			w.logger.Info("config watcher context cancelled")
			return
		}
	}
}

func (w *Watcher) isConfigFileEvent(event fsnotify.Event) bool {
	eventPath, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	configPath, err := filepath.Abs(w.path)
	if err != nil {
		return false
	}
	return eventPath == configPath
}

func (w *Watcher) reload() {
	w.logger.Info("config file changed, reloading", "config_path", w.path)

	start := time.Now()
	cfg, err := Load(w.path)
	if err == nil && w.overrides != nil {
		w.overrides(cfg)
		err = cfg.Validate()
	}
	if err == nil {
		err = w.apply(cfg)
	}
	if err != nil {
		w.logger.Error("config reload failed",
			"error", err,
			"duration", time.Since(start))
		w.report("error")
		return
	}

	w.logger.Info("config reload completed",
		"log_level", cfg.Logging.Level,
		"duration", time.Since(start))
	w.report("success")
}

func (w *Watcher) report(status string) {
	if w.onResult != nil {
		w.onResult(status)
	}
}
