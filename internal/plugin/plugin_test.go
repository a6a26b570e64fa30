package plugin

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardomso/nopreview/internal/host"
	"github.com/leonardomso/nopreview/internal/note"
	"github.com/leonardomso/nopreview/internal/pipeline"
	"github.com/leonardomso/nopreview/internal/settings"
	"github.com/leonardomso/nopreview/internal/vault"
)

type env struct {
	ws       *host.Workspace
	plugin   *Plugin
	vault    *vault.Vault
	note     *note.Note
	notified []string
	outcomes []pipeline.Outcome
}

func newEnv(t *testing.T, exts string) *env {
	t.Helper()

	root := t.TempDir()
	store, err := settings.NewFileStore(filepath.Join(root, ".nopreview.yaml"))
	require.NoError(t, err)
	live, err := settings.NewLive(store)
	require.NoError(t, err)
	if exts != "" {
		_, err = live.Update(exts)
		require.NoError(t, err)
	}

	v, err := vault.New(root)
	require.NoError(t, err)
	n, err := note.Open(root, "notes/today.md", note.End)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	e := &env{vault: v, note: n}
	var mu sync.Mutex
	notifier := pipeline.NotifierFunc(func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		e.notified = append(e.notified, msg)
	})

	e.ws = host.NewWorkspace(v, notifier, logger)
	e.plugin = New(live, v, notifier, pipeline.DefaultOptions().WithLogger(logger))
	e.plugin.OnOutcome = func(_ host.Kind, out pipeline.Outcome) {
		e.outcomes = append(e.outcomes, out)
	}
	e.plugin.Register(e.ws)
	return e
}

func (e *env) noteText(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.vault.Root(), "notes", "today.md"))
	require.NoError(t, err)
	return string(data)
}

func TestPlugin_DropWithNonPreviewFile(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "pdf")
	evt := host.NewEvent(host.Drop, pipeline.MemFile("a.pdf", []byte("%PDF")), pipeline.MemFile("b.png", []byte("png")))

	out := e.ws.Dispatch(context.Background(), evt, e.note)

	assert.False(t, out.Handled, "host default did not run")
	assert.True(t, evt.Prevented())
	require.Len(t, e.outcomes, 1)
	assert.Equal(t, "[[a.pdf]]\n![[b.png]]", e.noteText(t))
}

func TestPlugin_PasteWithoutMatchFallsBackToHost(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")
	evt := host.NewEvent(host.Paste, pipeline.MemFile("image.png", []byte("png")))

	out := e.ws.Dispatch(context.Background(), evt, e.note)

	assert.True(t, out.Handled, "host default ran")
	assert.False(t, evt.Prevented())
	assert.Empty(t, e.outcomes)
	assert.Equal(t, "![[image.png]]", e.noteText(t))
}

func TestPlugin_UsesDefaultsWhenUnconfigured(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "")
	evt := host.NewEvent(host.Drop, pipeline.MemFile("setup.EXE", []byte("MZ")))

	e.ws.Dispatch(context.Background(), evt, e.note)

	assert.Equal(t, "[[setup.EXE]]", e.noteText(t))
}

func TestPlugin_ConflictRenamesStoredFile(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "pdf")
	require.NoError(t, os.WriteFile(filepath.Join(e.vault.Root(), "a.pdf"), []byte("old"), 0o600))

	e.ws.Dispatch(context.Background(), host.NewEvent(host.Drop, pipeline.MemFile("a.pdf", []byte("new"))), e.note)

	assert.Equal(t, "[[a 1.pdf]]", e.noteText(t))
	data, err := os.ReadFile(filepath.Join(e.vault.Root(), "a 1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}

func TestPlugin_SettingsChangeAppliesToNextBatch(t *testing.T) {
	t.Parallel()

	e := newEnv(t, "pdf")
	e.ws.Dispatch(context.Background(), host.NewEvent(host.Drop, pipeline.MemFile("a.zip", nil)), e.note)
	assert.Equal(t, "![[a.zip]]", e.noteText(t))

	_, err := e.plugin.Settings().Update("pdf, zip")
	require.NoError(t, err)

	e.ws.Dispatch(context.Background(), host.NewEvent(host.Drop, pipeline.MemFile("b.zip", nil)), e.note)
	assert.Equal(t, "![[a.zip]][[b.zip]]", e.noteText(t))
}
