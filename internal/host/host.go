// Package host emulates the editor side of a drop or paste: it carries the
// event, runs the registered handlers in order, and falls back to the
// default behavior (embed everything) when no handler prevented it.
package host

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/leonardomso/nopreview/internal/pipeline"
)

// Kind is the user action that produced an event.
type Kind int

const (
	// Drop is a drag-and-drop onto the editor.
	Drop Kind = iota
	// Paste is a clipboard paste into the editor.
	Paste
)

// String returns "drop" or "paste".
func (k Kind) String() string {
	if k == Paste {
		return "paste"
	}
	return "drop"
}

// Event is one drop or paste. It implements pipeline.Event.
type Event struct {
	kind      Kind
	files     []pipeline.File
	prevented atomic.Bool
}

// NewEvent creates an event of the given kind carrying files.
func NewEvent(kind Kind, files ...pipeline.File) *Event {
	return &Event{kind: kind, files: files}
}

// Kind returns the action that produced the event.
func (e *Event) Kind() Kind {
	return e.kind
}

// Files returns the files carried by the event.
func (e *Event) Files() []pipeline.File {
	return e.files
}

// PreventDefault stops the default host behavior for the event.
func (e *Event) PreventDefault() {
	e.prevented.Store(true)
}

// Prevented reports whether a handler called PreventDefault.
func (e *Event) Prevented() bool {
	return e.prevented.Load()
}

// Handler reacts to an event before the default behavior runs.
type Handler func(ctx context.Context, evt *Event, doc pipeline.Document)

// Workspace dispatches editor events to subscribed handlers.
type Workspace struct {
	defaults *pipeline.Pipeline
	logger   *logrus.Logger

	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

// NewWorkspace creates a workspace whose default behavior saves files to
// storage and embeds them.
func NewWorkspace(storage pipeline.Storage, notifier pipeline.Notifier, logger *logrus.Logger) *Workspace {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Workspace{
		defaults: pipeline.New(storage, notifier, pipeline.DefaultOptions().WithLogger(logger)),
		logger:   logger,
		handlers: map[Kind][]Handler{},
	}
}

// On subscribes h to events of kind.
func (w *Workspace) On(kind Kind, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[kind] = append(w.handlers[kind], h)
}

// Dispatch runs the handlers for evt in subscription order, then the
// default behavior unless a handler prevented it. The returned outcome is
// the default behavior's; it is zero when a handler took over.
func (w *Workspace) Dispatch(ctx context.Context, evt *Event, doc pipeline.Document) pipeline.Outcome {
	w.mu.RLock()
	handlers := append([]Handler(nil), w.handlers[evt.Kind()]...)
	w.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, evt, doc)
	}

	if evt.Prevented() {
		return pipeline.Outcome{}
	}

	w.logger.WithFields(logrus.Fields{
		"kind":  evt.Kind().String(),
		"files": len(evt.Files()),
		"note":  doc.Path(),
	}).Debug("running default handling")

	return w.defaults.Default(ctx, evt.Files(), doc)
}
