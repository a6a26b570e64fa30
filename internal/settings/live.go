package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Live holds the current Config for a running process. Readers take a
// Snapshot per batch; writers go through Update or Reload.
type Live struct {
	store Store

	mu  sync.RWMutex
	cfg Config
}

// NewLive loads the initial configuration from store.
func NewLive(store Store) (*Live, error) {
	cfg, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return &Live{store: store, cfg: cfg}, nil
}

// Snapshot returns a deep copy of the current configuration.
func (l *Live) Snapshot() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg.Clone()
}

// Update handles a change of the settings text field: the input is
// normalized, stored, and becomes the current configuration.
func (l *Live) Update(input string) (Config, error) {
	cfg := Config{NonPreviewExtensions: NormalizeInput(input)}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Save(cfg); err != nil {
		return Config{}, fmt.Errorf("saving settings: %w", err)
	}
	l.cfg = cfg
	return cfg.Clone(), nil
}

// Reload re-reads the store and replaces the current configuration.
func (l *Live) Reload() error {
	cfg, err := l.store.Load()
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
	return nil
}

const defaultWatchDebounce = 250 * time.Millisecond

// Watcher reloads a Live configuration when its settings file changes.
type Watcher struct {
	path     string
	live     *Live
	logger   *logrus.Logger
	debounce time.Duration
}

// WatcherOption customizes a Watcher.
type WatcherOption func(*Watcher)

// WithWatchDebounce sets the debounce window for reloads.
func WithWatchDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger for reload diagnostics.
func WithWatchLogger(logger *logrus.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher for the settings file at path.
func NewWatcher(path string, live *Live, opts ...WatcherOption) (*Watcher, error) {
	if live == nil {
		return nil, fmt.Errorf("live settings required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	w := &Watcher{
		path:     filepath.Clean(abs),
		live:     live,
		logger:   logrus.StandardLogger(),
		debounce: defaultWatchDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches the settings directory until ctx is done.
// The directory is watched rather than the file because editors and
// FileStore.Save replace the file by rename.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = fsw.Close()
	}()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.live.Reload(); err != nil {
				w.logger.WithError(err).WithField("path", w.path).Warn("settings reload failed")
				continue
			}
			w.logger.WithFields(logrus.Fields{
				"path":       w.path,
				"extensions": w.live.Snapshot().NonPreviewExtensions,
			}).Info("settings reloaded")

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("settings watcher error")
		}
	}
}
