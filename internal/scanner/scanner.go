// Package scanner finds files on disk: markdown notes inside a vault, and
// the files behind paths handed to a drop.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// NoteExtensions are the extensions treated as markdown notes.
var NoteExtensions = []string{".md", ".mdx", ".markdown"}

// FindNotes walks root and returns every markdown note.
func FindNotes(root string) ([]string, error) {
	return FindFiles(root, NoteExtensions)
}

// FindFiles walks a directory and returns all files matching the given extensions.
// Extensions should include the leading dot (e.g., ".md", ".pdf").
// It skips hidden directories (starting with .) like .git or .obsidian.
func FindFiles(root string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		return nil, nil
	}

	normalizedExts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		normalizedExts[strings.ToLower(ext)] = true
	}

	var files []string
	err := walk(root, func(path string) {
		if normalizedExts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// walk calls fn for every regular file under root, skipping hidden
// directories other than root itself.
func walk(root string, fn func(path string)) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			fn(path)
		}
		return nil
	})
}

// DropOptions describes the paths handed to a drop.
type DropOptions struct {
	// Paths are files or directories. Directories expand to the files they
	// contain, recursively.
	Paths []string

	// Include patterns (glob) - if set, only matching files are kept.
	// Patterns match the path relative to the dropped directory, or the
	// base name for a dropped file.
	Include []string

	// Exclude patterns (glob) - matching files are dropped.
	Exclude []string
}

// ExpandDrop resolves opts.Paths into the list of files making up one batch,
// in the order the paths were given.
func ExpandDrop(opts DropOptions) ([]string, error) {
	include, err := compileGlobs(opts.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileGlobs(opts.Exclude)
	if err != nil {
		return nil, err
	}

	keep := func(rel string) bool {
		rel = filepath.ToSlash(rel)
		if len(include) > 0 && !matchesAnyGlob(rel, include) {
			return false
		}
		return !matchesAnyGlob(rel, exclude)
	}

	var files []string
	for _, p := range opts.Paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if keep(filepath.Base(p)) {
				files = append(files, p)
			}
			continue
		}

		root := p
		err = walk(root, func(path string) {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path // Fall back to the full path
			}
			if keep(rel) {
				files = append(files, path)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// compileGlobs compiles glob patterns, skipping blank ones.
func compileGlobs(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", p, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// matchesAnyGlob checks if a path matches any of the compiled glob patterns.
func matchesAnyGlob(path string, patterns []glob.Glob) bool {
	for _, g := range patterns {
		if g.Match(path) {
			return true
		}
	}
	return false
}
