package pipeline

import "github.com/sirupsen/logrus"

// DefaultConcurrency is the number of files saved in parallel per batch.
const DefaultConcurrency = 4

// Options configures a Pipeline.
type Options struct {
	// Concurrency bounds the per-file tasks running at once.
	Concurrency int

	// Logger receives structured diagnostics. Failures shown to the user
	// still go through the Notifier.
	Logger *logrus.Logger
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Concurrency: DefaultConcurrency,
		Logger:      logrus.StandardLogger(),
	}
}

// WithConcurrency sets the number of concurrent per-file tasks.
func (o Options) WithConcurrency(n int) Options {
	if n > 0 {
		o.Concurrency = n
	}
	return o
}

// WithLogger sets the logger.
func (o Options) WithLogger(l *logrus.Logger) Options {
	if l != nil {
		o.Logger = l
	}
	return o
}
