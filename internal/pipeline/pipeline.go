// Package pipeline handles files dropped or pasted into a note. When at
// least one file has a non-preview extension, it takes over the whole batch
// from the host: every file is saved through the storage collaborator and
// inserted as [[link]] or ![[embed]] depending on its stored name.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/leonardomso/nopreview/internal/classify"
	"github.com/leonardomso/nopreview/internal/settings"
)

// Pipeline classifies, stores and links the files of drop and paste events.
// It is safe for concurrent use by multiple events.
type Pipeline struct {
	storage  Storage
	notifier Notifier
	opts     Options
}

// New creates a Pipeline. A nil notifier discards notifications.
func New(storage Storage, notifier Notifier, opts Options) *Pipeline {
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Pipeline{
		storage:  storage,
		notifier: notifier,
		opts:     opts,
	}
}

// Handle processes one event against the configuration snapshot cfg.
//
// It returns a zero Outcome, without touching evt, doc or storage, when the
// event carries no files or when none of them is a non-preview file. In that
// case the host's default handling must proceed. Otherwise default handling
// is prevented once for the whole batch and every file goes through the
// save pipeline. Failures are per file: they are notified and leave no
// markup, and never abort siblings.
func (p *Pipeline) Handle(ctx context.Context, evt Event, doc Document, cfg settings.Config) Outcome {
	files := evt.Files()
	if len(files) == 0 {
		return Outcome{}
	}

	set := cfg.Clone().Set()
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name()
	}
	if !set.Any(names) {
		return Outcome{}
	}

	evt.PreventDefault()
	return p.run(ctx, files, doc, set.Classify)
}

// Default is the host's own handling of a batch: every file is saved and
// embedded, with the same per-file failure isolation as Handle.
func (p *Pipeline) Default(ctx context.Context, files []File, doc Document) Outcome {
	if len(files) == 0 {
		return Outcome{}
	}
	return p.run(ctx, files, doc, func(string) classify.Category { return classify.Embed })
}

// run saves every file concurrently, then assembles and inserts the markup.
func (p *Pipeline) run(ctx context.Context, files []File, doc Document, classifyFn func(string) classify.Category) Outcome {
	out := Outcome{
		BatchID: uuid.NewString(),
		Handled: true,
		Results: make([]FileResult, len(files)),
	}
	log := p.opts.Logger.WithFields(logrus.Fields{
		"batch": out.BatchID,
		"note":  doc.Path(),
		"files": len(files),
	})
	log.Debug("handling batch")

	// Destinations are resolved in input order so that conflict suffixes
	// follow the order of the batch, not goroutine scheduling.
	for i, f := range files {
		out.Results[i] = p.resolve(ctx, doc.Path(), i, f)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, f := range files {
		g.Go(func() error {
			r := p.processFile(gctx, classifyFn, out.Results[i], f)
			if r.Err != nil {
				log.WithError(r.Err).WithField("file", r.Name).Warn("file not inserted")
				p.notifier.Notify(fmt.Sprintf("Failed to insert %s: %v", r.Name, r.Err))
			} else {
				log.WithFields(logrus.Fields{
					"file":     r.Name,
					"stored":   r.Path,
					"category": r.Category.String(),
				}).Debug("file stored")
			}
			out.Results[i] = r
			// Failures are values; returning nil keeps siblings running.
			return nil
		})
	}
	_ = g.Wait()

	out.Text = Assemble(out.Results)
	if out.Text == "" {
		log.Info("no file could be inserted")
		return out
	}

	if err := doc.ReplaceSelection(out.Text); err != nil {
		log.WithError(err).Error("inserting text failed")
		p.notifier.Notify(fmt.Sprintf("Failed to insert links into %s: %v", doc.Path(), err))
		return out
	}
	out.Inserted = true

	s := Summarize(out)
	log.WithFields(logrus.Fields{
		"linked":   s.Linked,
		"embedded": s.Embedded,
		"failed":   s.Failed,
	}).Info("batch inserted")

	return out
}

// resolve reserves the destination of file i. A failure is recorded in the
// result and reported when the file is processed.
func (p *Pipeline) resolve(ctx context.Context, notePath string, i int, f File) (r FileResult) {
	r = FileResult{Index: i, Name: f.Name()}
	defer func() {
		if rec := recover(); rec != nil {
			r.Err = fmt.Errorf("unexpected failure: %v", rec)
			r.Path = ""
		}
	}()

	dest, err := p.storage.AvailablePath(ctx, r.Name, notePath)
	if err != nil {
		r.Err = fmt.Errorf("resolving destination: %w", err)
		return r
	}
	r.Path = dest
	return r
}

// processFile stores and renders one file whose destination was resolved
// by resolve. A panic in a collaborator fails only this file.
func (p *Pipeline) processFile(
	ctx context.Context, classifyFn func(string) classify.Category, resolved FileResult, f File,
) (r FileResult) {
	r = resolved
	if r.Err != nil {
		return r
	}
	dest := r.Path

	defer func() {
		if rec := recover(); rec != nil {
			r.Err = fmt.Errorf("unexpected failure: %v", rec)
			r.Markup = ""
		}
	}()

	handedOff := false
	defer func() {
		if !handedOff {
			if rel, ok := p.storage.(Releaser); ok {
				rel.Release(dest)
			}
		}
	}()

	if err := p.storage.EnsureDir(ctx, path.Dir(dest)); err != nil && !errors.Is(err, fs.ErrExist) {
		r.Err = fmt.Errorf("creating folder: %w", err)
		return r
	}

	data, err := f.Content()
	if err != nil {
		r.Err = fmt.Errorf("reading file: %w", err)
		return r
	}

	// WriteBinary owns the reservation from here on, even when it fails.
	handedOff = true
	stored, err := p.storage.WriteBinary(ctx, dest, data)
	if err != nil {
		r.Err = fmt.Errorf("saving file: %w", err)
		return r
	}

	r.StoredName = stored
	r.Category = classifyFn(stored)
	r.Markup = classify.Render(r.Category, stored)
	return r
}
