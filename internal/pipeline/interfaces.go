package pipeline

import (
	"context"
	"os"
	"path/filepath"
)

// File is one file carried by a drop or paste event.
// Content is read once per insertion pass.
type File interface {
	Name() string
	Content() ([]byte, error)
}

// Event is a drop or paste carrying files. PreventDefault stops the host
// from running its own handling for the whole batch.
type Event interface {
	Files() []File
	PreventDefault()
}

// Document is the note receiving the insertion.
type Document interface {
	// Path identifies the document; attachment locations are scoped under it.
	Path() string
	// ReplaceSelection inserts text at the cursor, replacing any selection.
	ReplaceSelection(text string) error
}

// Storage persists dropped files.
type Storage interface {
	// AvailablePath returns a collision-free destination for name, scoped
	// under the document at notePath.
	AvailablePath(ctx context.Context, name, notePath string) (string, error)
	// EnsureDir creates dir. An error matching fs.ErrExist means the
	// directory was already there and is not a failure.
	EnsureDir(ctx context.Context, dir string) error
	// WriteBinary stores data at path and returns the final stored name.
	WriteBinary(ctx context.Context, path string, data []byte) (string, error)
}

// Releaser is implemented by storages that reserve paths handed out by
// AvailablePath. Release is called when a file fails before being written.
type Releaser interface {
	Release(path string)
}

// Notifier reports failures to the user. Notify must not block.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify calls f(msg).
func (f NotifierFunc) Notify(msg string) { f(msg) }

// memFile is a File backed by a byte slice.
type memFile struct {
	name string
	data []byte
}

// MemFile returns a File with the given name and content.
func MemFile(name string, data []byte) File {
	return memFile{name: name, data: data}
}

func (f memFile) Name() string { return f.name }

func (f memFile) Content() ([]byte, error) { return f.data, nil }

// localFile is a File read from disk on demand.
type localFile struct {
	path string
}

// LocalFile returns a File named after the base name of path whose content
// is read when the pipeline needs it.
func LocalFile(path string) File {
	return localFile{path: path}
}

func (f localFile) Name() string { return filepath.Base(f.path) }

func (f localFile) Content() ([]byte, error) { return os.ReadFile(f.path) }
