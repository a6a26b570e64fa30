package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/leonardomso/nopreview/internal/host"
	"github.com/leonardomso/nopreview/internal/pipeline"
	"github.com/leonardomso/nopreview/internal/plugin"
	"github.com/leonardomso/nopreview/internal/settings"
	"github.com/leonardomso/nopreview/internal/vault"
)

// exitOnError prints an error message and exits if err is not nil.
func exitOnError(err error, message string) {
	if err != nil {
		if message != "" {
			fmt.Fprintf(os.Stderr, "%s: %v\n", message, err)
		} else {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(1)
	}
}

// newLogger returns the logger for a command. Logs go to stderr so that
// structured output on stdout stays parseable.
func newLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(level)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// ConfigOptions selects where settings come from.
type ConfigOptions struct {
	VaultDir     string   // Start of the settings file search
	SettingsPath string   // Explicit settings file, skips the search
	NoConfig     bool     // Use defaults, never touch disk
	Extensions   []string // Extensions for this run only
}

// LoadedConfig wraps the live settings of a command together with where
// they were loaded from.
type LoadedConfig struct {
	live *settings.Live
	path string
}

// LoadConfig builds live settings. Extensions given on the command line win
// over --no-config, which wins over an explicit settings file, which wins
// over the search.
func LoadConfig(opts ConfigOptions) (*LoadedConfig, error) {
	var (
		store settings.Store
		path  string
	)

	switch {
	case len(opts.Extensions) > 0:
		store = settings.NewMemoryStore(settings.Config{NonPreviewExtensions: opts.Extensions})
	case opts.NoConfig:
		store = settings.NewMemoryStore(settings.Defaults())
	case opts.SettingsPath != "":
		fs, err := settings.NewFileStore(opts.SettingsPath)
		if err != nil {
			return nil, err
		}
		store, path = fs, fs.Path()
	default:
		fs, err := settings.FindStore(opts.VaultDir)
		if err != nil {
			return nil, err
		}
		store, path = fs, fs.Path()
	}

	live, err := settings.NewLive(store)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return &LoadedConfig{live: live, path: path}, nil
}

// loadConfigFromFlags applies the global flags to LoadConfig.
func loadConfigFromFlags() *LoadedConfig {
	lc, err := LoadConfig(ConfigOptions{
		VaultDir:     vaultDir,
		SettingsPath: settingsPath,
		NoConfig:     noConfig,
		Extensions:   extOverride,
	})
	exitOnError(err, "Error loading settings")
	return lc
}

// Live returns the live settings.
func (lc *LoadedConfig) Live() *settings.Live {
	return lc.live
}

// Path returns the settings file, or "" when settings are not file-backed.
func (lc *LoadedConfig) Path() string {
	return lc.path
}

// Persistent reports whether changes are written to a settings file.
func (lc *LoadedConfig) Persistent() bool {
	return lc.path != ""
}

// Extensions returns the current non-preview extensions.
func (lc *LoadedConfig) Extensions() []string {
	return lc.live.Snapshot().NonPreviewExtensions
}

// session is a vault with the plugin registered on its workspace.
type session struct {
	vault     *vault.Vault
	workspace *host.Workspace
	plugin    *plugin.Plugin

	// last is the plugin outcome of the latest dispatch.
	last pipeline.Outcome
}

// SessionOptions configures newSession.
type SessionOptions struct {
	VaultDir         string
	AttachmentFolder string
	Concurrency      int
	Notifier         pipeline.Notifier
	Logger           *logrus.Logger
}

func newSession(lc *LoadedConfig, opts SessionOptions) (*session, error) {
	v, err := vault.New(opts.VaultDir, vault.WithAttachmentFolder(opts.AttachmentFolder))
	if err != nil {
		return nil, err
	}

	s := &session{
		vault:     v,
		workspace: host.NewWorkspace(v, opts.Notifier, opts.Logger),
	}

	pipeOpts := pipeline.DefaultOptions().
		WithConcurrency(opts.Concurrency).
		WithLogger(opts.Logger)
	s.plugin = plugin.New(lc.Live(), v, opts.Notifier, pipeOpts)
	s.plugin.OnOutcome = func(_ host.Kind, o pipeline.Outcome) {
		s.last = o
	}
	s.plugin.Register(s.workspace)

	return s, nil
}

// dispatch sends paths as one event into doc. It returns the outcome of
// whichever handling ran and whether the plugin took the batch over.
// Calls must not overlap.
func (s *session) dispatch(
	ctx context.Context, kind host.Kind, paths []string, doc pipeline.Document,
) (pipeline.Outcome, bool) {
	files := make([]pipeline.File, len(paths))
	for i, p := range paths {
		files[i] = pipeline.LocalFile(p)
	}

	evt := host.NewEvent(kind, files...)
	s.last = pipeline.Outcome{}
	def := s.workspace.Dispatch(ctx, evt, doc)
	if evt.Prevented() {
		return s.last, true
	}
	return def, false
}

// eventKind maps the --paste flag to an event kind.
func eventKind(paste bool) host.Kind {
	if paste {
		return host.Paste
	}
	return host.Drop
}
