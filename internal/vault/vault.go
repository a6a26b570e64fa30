// Package vault stores dropped files inside a directory tree of markdown
// notes. It resolves collision-free attachment paths and writes files
// without ever overwriting an existing one.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrPathTraversal is returned for paths that escape the vault root.
	ErrPathTraversal = errors.New("path escapes vault root")

	// ErrDirExists is returned by EnsureDir when the directory is already
	// there. Callers treat it as success. It matches fs.ErrExist.
	ErrDirExists = fmt.Errorf("directory already exists: %w", fs.ErrExist)

	// ErrNotDir is returned by EnsureDir when the path exists as a file.
	ErrNotDir = errors.New("path exists and is not a directory")
)

// maxSuffix bounds the numeric suffix search in AvailablePath.
const maxSuffix = 10000

// Vault is a local directory holding notes and attachments.
// All paths accepted and returned are slash-separated and relative to the
// vault root.
type Vault struct {
	root             string
	attachmentFolder string

	mu       sync.Mutex
	reserved map[string]struct{}
}

// Option configures a Vault.
type Option func(*Vault)

// WithAttachmentFolder sets where new attachments go.
// "" or "/" is the vault root. A value starting with "./" is relative to the
// folder of the note receiving the drop. Anything else is relative to the
// vault root.
func WithAttachmentFolder(folder string) Option {
	return func(v *Vault) {
		v.attachmentFolder = strings.TrimSpace(folder)
	}
}

// New opens the vault at root, creating the directory if needed.
func New(root string, opts ...Option) (*Vault, error) {
	if root == "" {
		return nil, errors.New("vault root is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("ensure vault root: %w", err)
	}

	v := &Vault{
		root:     abs,
		reserved: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Root returns the absolute vault root.
func (v *Vault) Root() string {
	return v.root
}

// AttachmentDir returns the folder, relative to the root, where attachments
// dropped into notePath are stored.
func (v *Vault) AttachmentDir(notePath string) string {
	folder := v.attachmentFolder
	switch {
	case folder == "" || folder == "/":
		return ""
	case folder == "." || strings.HasPrefix(folder, "./"):
		noteDir := path.Dir(filepath.ToSlash(notePath))
		return cleanRel(path.Join(noteDir, folder))
	default:
		return cleanRel(folder)
	}
}

// AvailablePath returns a path for name under the attachment folder of
// notePath that is neither on disk nor handed out to another pending write.
// Conflicts are resolved by appending " 1", " 2", ... before the extension.
// The path stays reserved until WriteBinary or Release is called for it.
func (v *Vault) AvailablePath(ctx context.Context, name, notePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name = filepath.Base(filepath.ToSlash(strings.TrimSpace(name)))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	dir := v.AttachmentDir(notePath)
	stem, ext := splitName(name)

	v.mu.Lock()
	defer v.mu.Unlock()

	for i := 0; i < maxSuffix; i++ {
		candidate := name
		if i > 0 {
			candidate = stem + " " + strconv.Itoa(i) + ext
		}
		rel := cleanRel(path.Join(dir, candidate))

		if _, taken := v.reserved[rel]; taken {
			continue
		}
		abs, err := v.abs(rel)
		if err != nil {
			return "", err
		}
		if _, err := os.Lstat(abs); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		v.reserved[rel] = struct{}{}
		return rel, nil
	}

	return "", fmt.Errorf("no available name for %q in %q", name, dir)
}

// Release drops the reservation for rel without writing it.
func (v *Vault) Release(rel string) {
	v.mu.Lock()
	delete(v.reserved, cleanRel(rel))
	v.mu.Unlock()
}

// EnsureDir creates dir and its parents. It returns ErrDirExists when the
// directory already exists.
func (v *Vault) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	abs, err := v.abs(dir)
	if err != nil {
		return err
	}

	info, err := os.Stat(abs)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s: %w", dir, ErrNotDir)
		}
		return ErrDirExists
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	return nil
}

// WriteBinary creates rel with data and returns the stored file name.
// It never overwrites an existing file.
func (v *Vault) WriteBinary(ctx context.Context, rel string, data []byte) (string, error) {
	rel = cleanRel(rel)
	defer v.Release(rel)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	abs, err := v.abs(rel)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(abs) // Cleanup
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(abs)
		return "", fmt.Errorf("close %s: %w", rel, err)
	}

	return path.Base(rel), nil
}

// ReadFile returns the content of a vault file.
func (v *Vault) ReadFile(rel string) ([]byte, error) {
	abs, err := v.abs(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// Abs maps a vault-relative path to an absolute filesystem path.
func (v *Vault) Abs(rel string) (string, error) {
	return v.abs(rel)
}

func (v *Vault) abs(rel string) (string, error) {
	slashed := filepath.ToSlash(rel)
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", ErrPathTraversal
		}
	}

	full := filepath.Join(v.root, filepath.FromSlash(cleanRel(slashed)))
	if full != v.root && !strings.HasPrefix(full, v.root+string(os.PathSeparator)) {
		return "", ErrPathTraversal
	}
	return full, nil
}

// cleanRel normalizes a slash path relative to the root: no leading slash,
// "" for the root itself.
func cleanRel(p string) string {
	cleaned := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(p)), "/")
	return cleaned
}

// splitName splits "report.final.pdf" into "report.final" and ".pdf".
// The split is at the last "." like classify.Extension, so ".pdf" splits
// into "" and ".pdf" and a conflict suffix never changes how a file is linked.
func splitName(name string) (stem, ext string) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i:]
}
