// Package inbox watches a directory and hands files that appear in it to a
// callback, grouped into batches once writes settle.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const defaultSettle = 500 * time.Millisecond

// partialSuffixes mark files still being downloaded or written.
var partialSuffixes = []string{".part", ".crdownload", ".download", ".tmp", "~"}

// HandleFunc receives one batch of absolute file paths, in arrival order.
type HandleFunc func(ctx context.Context, paths []string)

// Watcher batches new files of a directory.
type Watcher struct {
	dir    string
	handle HandleFunc
	logger *logrus.Logger
	settle time.Duration
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithSettle sets how long the directory must be quiet before a batch is
// handed over.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a watcher for dir. The directory must exist.
func New(dir string, handle HandleFunc, opts ...Option) (*Watcher, error) {
	if handle == nil {
		return nil, fmt.Errorf("inbox handler required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve inbox: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("inbox: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox %s is not a directory", abs)
	}

	w := &Watcher{
		dir:    abs,
		handle: handle,
		logger: logrus.StandardLogger(),
		settle: defaultSettle,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the absolute inbox path.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches the inbox until ctx is done. Batches are handled on the
// watching goroutine, so a slow handler delays the next batch but never
// loses events.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = fsw.Close()
	}()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.WithField("inbox", w.dir).Info("watching inbox")

	var (
		pending []string
		seen    = map[string]bool{}
		timer   *time.Timer
		fire    <-chan time.Time
	)

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
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !candidate(ev.Name) {
				continue
			}
			if !seen[ev.Name] {
				seen[ev.Name] = true
				pending = append(pending, ev.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.settle)
			} else {
				timer.Reset(w.settle)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			batch := existingFiles(pending)
			pending = nil
			seen = map[string]bool{}
			if len(batch) == 0 {
				continue
			}
			w.logger.WithFields(logrus.Fields{
				"inbox": w.dir,
				"files": len(batch),
			}).Debug("inbox batch ready")
			w.handle(ctx, batch)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("inbox watcher error")
		}
	}
}

// candidate reports whether name looks like a finished, visible file.
func candidate(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	lower := strings.ToLower(base)
	for _, s := range partialSuffixes {
		if strings.HasSuffix(lower, s) {
			return false
		}
	}
	return true
}

// existingFiles keeps the paths that are still regular files.
func existingFiles(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, p)
	}
	return out
}
