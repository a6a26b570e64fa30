package host

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardomso/nopreview/internal/note"
	"github.com/leonardomso/nopreview/internal/pipeline"
	"github.com/leonardomso/nopreview/internal/vault"
)

func setup(t *testing.T) (*Workspace, *vault.Vault, *note.Note) {
	t.Helper()

	v, err := vault.New(t.TempDir(), vault.WithAttachmentFolder("files"))
	require.NoError(t, err)
	n, err := note.Open(v.Root(), "note.md", note.End)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewWorkspace(v, nil, logger), v, n
}

func readNote(t *testing.T, v *vault.Vault) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(v.Root(), "note.md"))
	require.NoError(t, err)
	return string(data)
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "drop", Drop.String())
	assert.Equal(t, "paste", Paste.String())
}

func TestEvent_PreventDefault(t *testing.T) {
	t.Parallel()

	evt := NewEvent(Paste, pipeline.MemFile("a.pdf", nil))
	assert.Equal(t, Paste, evt.Kind())
	assert.Len(t, evt.Files(), 1)
	assert.False(t, evt.Prevented())

	evt.PreventDefault()
	assert.True(t, evt.Prevented())
}

func TestWorkspace_DefaultEmbedsAll(t *testing.T) {
	t.Parallel()

	ws, v, n := setup(t)
	evt := NewEvent(Drop, pipeline.MemFile("a.pdf", []byte("%PDF")), pipeline.MemFile("b.png", []byte("png")))

	out := ws.Dispatch(context.Background(), evt, n)

	assert.True(t, out.Handled)
	assert.Equal(t, "![[a.pdf]]\n![[b.png]]", readNote(t, v))
	assert.FileExists(t, filepath.Join(v.Root(), "files", "a.pdf"))
	assert.FileExists(t, filepath.Join(v.Root(), "files", "b.png"))
}

func TestWorkspace_HandlerPreventsDefault(t *testing.T) {
	t.Parallel()

	ws, v, n := setup(t)
	var order []string
	ws.On(Drop, func(_ context.Context, evt *Event, doc pipeline.Document) {
		order = append(order, "first")
		evt.PreventDefault()
		require.NoError(t, doc.ReplaceSelection("handled"))
	})
	ws.On(Drop, func(_ context.Context, _ *Event, _ pipeline.Document) {
		order = append(order, "second")
	})

	out := ws.Dispatch(context.Background(), NewEvent(Drop, pipeline.MemFile("a.pdf", nil)), n)

	assert.False(t, out.Handled)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, "handled", readNote(t, v))
	assert.NoFileExists(t, filepath.Join(v.Root(), "files", "a.pdf"))
}

func TestWorkspace_HandlersByKind(t *testing.T) {
	t.Parallel()

	ws, _, n := setup(t)
	called := 0
	ws.On(Paste, func(_ context.Context, evt *Event, _ pipeline.Document) {
		called++
		evt.PreventDefault()
	})

	ws.Dispatch(context.Background(), NewEvent(Drop), n)
	assert.Equal(t, 0, called)

	ws.Dispatch(context.Background(), NewEvent(Paste), n)
	assert.Equal(t, 1, called)
}

func TestWorkspace_EmptyEventIsNoop(t *testing.T) {
	t.Parallel()

	ws, v, n := setup(t)

	out := ws.Dispatch(context.Background(), NewEvent(Drop), n)

	assert.False(t, out.Handled)
	assert.NoFileExists(t, filepath.Join(v.Root(), "note.md"))
}
