// Package classify decides whether a file is inserted as a plain link or as
// an embed, based on its extension and a set of non-preview extensions.
package classify

import (
	"strings"
)

// Category is the result of classifying a file name.
type Category int

const (
	// Embed renders an inline preview: ![[name]].
	Embed Category = iota
	// LinkOnly renders a plain reference without preview: [[name]].
	LinkOnly
)

// String returns the lowercase name of the category.
func (c Category) String() string {
	if c == LinkOnly {
		return "link"
	}
	return "embed"
}

// Set is an immutable set of normalized extensions.
// The zero value is an empty set that classifies everything as Embed.
type Set struct {
	exts map[string]struct{}
}

// NewSet builds a Set from extension entries.
// Entries are normalized with NormalizeExtension; empty entries are skipped.
func NewSet(exts []string) Set {
	s := Set{exts: make(map[string]struct{}, len(exts))}
	for _, e := range exts {
		if n := NormalizeExtension(e); n != "" {
			s.exts[n] = struct{}{}
		}
	}
	return s
}

// Len returns the number of extensions in the set.
func (s Set) Len() int {
	return len(s.exts)
}

// Contains reports whether ext (already extracted, e.g. ".pdf") is in the set.
// The comparison is case-insensitive.
func (s Set) Contains(ext string) bool {
	if ext == "" || len(s.exts) == 0 {
		return false
	}
	_, ok := s.exts[strings.ToLower(ext)]
	return ok
}

// Classify returns LinkOnly if the extension of name is in the set,
// Embed otherwise. Names without a "." are always Embed.
func (s Set) Classify(name string) Category {
	if s.Contains(Extension(name)) {
		return LinkOnly
	}
	return Embed
}

// Any reports whether at least one of names classifies as LinkOnly.
func (s Set) Any(names []string) bool {
	for _, n := range names {
		if s.Classify(n) == LinkOnly {
			return true
		}
	}
	return false
}

// Extension returns the lowercased suffix of name starting at the last ".".
// It returns "" when name contains no ".".
//
// Unlike filepath.Ext, the whole name is considered, so "dir.v2/file" yields
// ".v2/file". Callers pass base names.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}

// NormalizeExtension trims, dot-prefixes and lowercases a single entry.
// It returns "" for blank input.
func NormalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}

// Render returns the wiki markup for name in the given category.
func Render(c Category, name string) string {
	if c == LinkOnly {
		return "[[" + name + "]]"
	}
	return "![[" + name + "]]"
}
