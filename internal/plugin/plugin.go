// Package plugin wires the insertion pipeline into a host workspace: it
// subscribes to drop and paste events and handles each batch against a
// snapshot of the live settings.
package plugin

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/leonardomso/nopreview/internal/host"
	"github.com/leonardomso/nopreview/internal/pipeline"
	"github.com/leonardomso/nopreview/internal/settings"
)

// Plugin is the drop/paste interceptor.
type Plugin struct {
	settings *settings.Live
	pipeline *pipeline.Pipeline
	logger   *logrus.Logger

	// OnOutcome, if set, receives the outcome of every handled batch.
	OnOutcome func(kind host.Kind, out pipeline.Outcome)
}

// New creates a plugin that saves through storage and reports to notifier.
func New(live *settings.Live, storage pipeline.Storage, notifier pipeline.Notifier, opts pipeline.Options) *Plugin {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Plugin{
		settings: live,
		pipeline: pipeline.New(storage, notifier, opts),
		logger:   opts.Logger,
	}
}

// Register subscribes the plugin to drop and paste events of ws.
func (p *Plugin) Register(ws *host.Workspace) {
	ws.On(host.Drop, p.handle)
	ws.On(host.Paste, p.handle)
	p.logger.Debug("registered drop and paste handlers")
}

// Settings returns the live settings used by the plugin.
func (p *Plugin) Settings() *settings.Live {
	return p.settings
}

func (p *Plugin) handle(ctx context.Context, evt *host.Event, doc pipeline.Document) {
	out := p.pipeline.Handle(ctx, evt, doc, p.settings.Snapshot())
	if !out.Handled {
		p.logger.WithField("kind", evt.Kind().String()).Debug("no non-preview file, leaving batch to the host")
		return
	}
	if p.OnOutcome != nil {
		p.OnOutcome(evt.Kind(), out)
	}
}
