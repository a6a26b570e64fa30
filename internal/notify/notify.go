// Package notify reports per-file failures to the user.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/leonardomso/nopreview/internal/ui"
)

// Console prints notices to a terminal writer, one styled line each.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console notifier writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Notify writes msg. Write errors are ignored.
func (c *Console) Notify(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.w, ui.ErrorStyle.Render("✗ "+msg))
}

// Log records notices as logrus warnings.
type Log struct {
	logger *logrus.Logger
}

// NewLog creates a notifier that logs through logger.
func NewLog(logger *logrus.Logger) *Log {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Log{logger: logger}
}

// Notify logs msg at warning level.
func (l *Log) Notify(msg string) {
	l.logger.WithField("notice", true).Warn(msg)
}

// Collector keeps notices in memory, e.g. to include them in a report.
type Collector struct {
	mu   sync.Mutex
	msgs []string
}

// Notify appends msg.
func (c *Collector) Notify(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

// Messages returns a copy of the collected notices.
func (c *Collector) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

// Notifier matches pipeline.Notifier.
type Notifier interface {
	Notify(msg string)
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

// Notify forwards msg to every notifier in order.
func (m Multi) Notify(msg string) {
	for _, n := range m {
		if n != nil {
			n.Notify(msg)
		}
	}
}
