// Package note provides an editable markdown note with a cursor and an
// optional selection, persisted to disk on every edit.
package note

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"
)

// Position is a 1-based line and column. Columns count runes.
// The zero Position means "end of the note".
type Position struct {
	Line int
	Col  int
}

// End is the position after the last character of the note.
var End = Position{}

// IsEnd reports whether p designates the end of the note.
func (p Position) IsEnd() bool {
	return p.Line <= 0
}

// String formats p as line:col, or "end".
func (p Position) String() string {
	if p.IsEnd() {
		return "end"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// ParsePosition parses "line", "line:col" or "end".
func ParsePosition(s string) (Position, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "end") {
		return End, nil
	}

	var p Position
	lineStr, colStr, hasCol := strings.Cut(s, ":")
	if _, err := fmt.Sscanf(lineStr, "%d", &p.Line); err != nil || p.Line < 1 {
		return Position{}, fmt.Errorf("invalid line in position %q", s)
	}
	p.Col = 1
	if hasCol {
		if _, err := fmt.Sscanf(colStr, "%d", &p.Col); err != nil || p.Col < 1 {
			return Position{}, fmt.Errorf("invalid column in position %q", s)
		}
	}
	return p, nil
}

// Note is a markdown file with a cursor. If To is set, the range
// [cursor, To) is selected and replaced by the next insertion.
type Note struct {
	rel string
	abs string

	mu     sync.Mutex
	cursor Position
	to     Position
	hasSel bool
}

// Open returns the note at rel inside root. The file does not need to exist
// yet; it is created by the first edit.
func Open(root, rel string, cursor Position) (*Note, error) {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "." || rel == "" {
		return nil, errors.New("note path is required")
	}
	if strings.HasPrefix(rel, "../") || rel == ".." || filepath.IsAbs(rel) {
		return nil, fmt.Errorf("note %q is outside the vault", rel)
	}

	return &Note{
		rel:    rel,
		abs:    filepath.Join(root, filepath.FromSlash(rel)),
		cursor: cursor,
	}, nil
}

// Select sets the selection to [from, to).
func (n *Note) Select(from, to Position) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cursor = from
	n.to = to
	n.hasSel = true
}

// Path returns the slash-separated path of the note relative to the root.
func (n *Note) Path() string {
	return n.rel
}

// Cursor returns the current cursor position.
func (n *Note) Cursor() Position {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cursor
}

// Content returns the current file content. A missing file reads as empty.
func (n *Note) Content() (string, error) {
	data, err := os.ReadFile(n.abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// ReplaceSelection replaces the selection with text, or inserts text at the
// cursor when nothing is selected, and writes the note back. The cursor then
// sits right after the inserted text.
func (n *Note) ReplaceSelection(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	content, err := n.Content()
	if err != nil {
		return fmt.Errorf("reading note: %w", err)
	}

	start := offset(content, n.cursor)
	end := start
	if n.hasSel {
		end = offset(content, n.to)
		if end < start {
			start, end = end, start
		}
	}

	updated := content[:start] + text + content[end:]

	if err := os.MkdirAll(filepath.Dir(n.abs), 0o755); err != nil {
		return fmt.Errorf("creating note folder: %w", err)
	}
	if err := os.WriteFile(n.abs, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing note: %w", err)
	}

	n.cursor = position(updated, start+len(text))
	n.to = Position{}
	n.hasSel = false
	return nil
}

// offset maps p to a byte offset in content, clamping to the line end and
// to the end of the content. The line end is before "\r\n" on CRLF notes.
func offset(content string, p Position) int {
	if p.IsEnd() {
		return len(content)
	}

	off := 0
	for line := 1; line < p.Line; line++ {
		i := strings.IndexByte(content[off:], '\n')
		if i < 0 {
			return len(content)
		}
		off += i + 1
	}

	lineEnd := strings.IndexByte(content[off:], '\n')
	if lineEnd < 0 {
		lineEnd = len(content) - off
	}
	lineText := strings.TrimSuffix(content[off:off+lineEnd], "\r")

	col := 1
	for i := range lineText {
		if col == p.Col {
			return off + i
		}
		col++
	}
	return off + len(lineText)
}

// position maps a byte offset back to a 1-based Position.
func position(content string, off int) Position {
	before := content[:off]
	line := strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return Position{Line: line, Col: utf8.RuneCountInString(before[lineStart:]) + 1}
}
