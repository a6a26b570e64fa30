// Package fixer rewrites embeds of non-preview files into plain links.
//
// Notes written before an extension was added to the non-preview list may
// still embed such files with ![[report.pdf]]. The fixer finds those embeds
// and turns them into [[report.pdf]], leaving code blocks and spans alone.
package fixer

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/leonardomso/nopreview/internal/classify"
	"github.com/leonardomso/nopreview/internal/helpers"
	"github.com/leonardomso/nopreview/internal/wikilink"
)

// Fix represents a single embed to be rewritten.
type Fix struct {
	FilePath    string // Note containing the embed
	Old         string // Embed markup, e.g. "![[a.pdf|Report]]"
	New         string // Link markup, e.g. "[[a.pdf|Report]]"
	Target      string // Linked file name
	Line        int    // Line of the first occurrence
	Occurrences int    // How many times this exact embed appears in the note
}

// FileChanges groups all fixes for a single note.
type FileChanges struct {
	FilePath   string
	Fixes      []Fix
	TotalFixes int // Total number of replacements (accounting for occurrences)
}

// FixResult represents the outcome of applying fixes to a note.
type FixResult struct {
	Error    error
	FilePath string
	Changed  []Change
	Applied  int
	Skipped  int
}

// Change represents one embed markup that was rewritten.
type Change struct {
	Old  string
	New  string
	Line int
}

// Fixer finds and rewrites embeds whose target is link-only.
type Fixer struct {
	set classify.Set
}

// New creates a Fixer that treats members of set as link-only.
func New(set classify.Set) *Fixer {
	return &Fixer{set: set}
}

// FindFixes reads each note and returns the fixable embeds grouped by file,
// sorted by path.
func (f *Fixer) FindFixes(paths []string) ([]FileChanges, error) {
	result := make([]FileChanges, 0, len(paths))

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	for _, path := range sorted {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		if fc, ok := f.FindInContent(path, content); ok {
			result = append(result, fc)
		}
	}

	return result, nil
}

// FindInContent returns the fixes for one note's content. The boolean is
// false when there is nothing to fix.
func (f *Fixer) FindInContent(path string, content []byte) (FileChanges, bool) {
	byMarkup := map[string]*Fix{}
	var order []string

	for _, e := range f.fixable(content) {
		if existing, ok := byMarkup[e.Raw]; ok {
			existing.Occurrences++
			continue
		}
		byMarkup[e.Raw] = &Fix{
			FilePath:    path,
			Old:         e.Raw,
			New:         e.AsLink(),
			Target:      e.File(),
			Line:        e.Line,
			Occurrences: 1,
		}
		order = append(order, e.Raw)
	}

	if len(order) == 0 {
		return FileChanges{}, false
	}

	fc := FileChanges{FilePath: path, Fixes: make([]Fix, 0, len(order))}
	for _, raw := range order {
		fix := byMarkup[raw]
		fc.Fixes = append(fc.Fixes, *fix)
		fc.TotalFixes += fix.Occurrences
	}
	return fc, true
}

// fixable returns the embeds in content whose target is link-only.
func (f *Fixer) fixable(content []byte) []wikilink.Link {
	var out []wikilink.Link
	for _, e := range wikilink.Embeds(content) {
		if f.set.Classify(e.File()) == classify.LinkOnly {
			out = append(out, e)
		}
	}
	return out
}

// Preview returns a formatted string showing what changes would be made.
func (*Fixer) Preview(changes []FileChanges) string {
	if len(changes) == 0 {
		return "No embeds of non-preview files found."
	}

	totalFixes := 0
	for _, fc := range changes {
		totalFixes += fc.TotalFixes
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d embed(s) to convert across %d note(s):\n\n", totalFixes, len(changes))

	for _, fc := range changes {
		fmt.Fprintf(&b, "%s (%d fix(es))\n", fc.FilePath, fc.TotalFixes)
		for _, fix := range fc.Fixes {
			fmt.Fprintf(&b, "  Line %d: %s\n", fix.Line, helpers.TruncateText(fix.Old, 60))
			fmt.Fprintf(&b, "          -> %s", helpers.TruncateText(fix.New, 60))
			if fix.Occurrences > 1 {
				fmt.Fprintf(&b, " (%d occurrence(s))", fix.Occurrences)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ApplyToFile rewrites the embeds listed in fc. The note is scanned again
// so occurrences that moved into code since FindFixes are left alone; a fix
// whose markup is no longer found counts as skipped.
func (f *Fixer) ApplyToFile(fc FileChanges) (*FixResult, error) {
	result := &FixResult{
		FilePath: fc.FilePath,
		Changed:  []Change{},
	}

	content, err := os.ReadFile(fc.FilePath)
	if err != nil {
		result.Error = fmt.Errorf("reading file: %w", err)
		return result, result.Error
	}

	wanted := make(map[string]Fix, len(fc.Fixes))
	for _, fix := range fc.Fixes {
		wanted[fix.Old] = fix
	}

	var targets []wikilink.Link
	found := map[string]bool{}
	for _, e := range wikilink.Embeds(content) {
		if _, ok := wanted[e.Raw]; ok {
			targets = append(targets, e)
			found[e.Raw] = true
		}
	}

	for _, fix := range fc.Fixes {
		if !found[fix.Old] {
			result.Skipped++
			continue
		}
		result.Changed = append(result.Changed, Change{Old: fix.Old, New: fix.New, Line: fix.Line})
	}

	if len(targets) == 0 {
		return result, nil
	}

	// Splice from the end so earlier offsets stay valid.
	modified := content
	for i := len(targets) - 1; i >= 0; i-- {
		e := targets[i]
		replacement := wanted[e.Raw].New
		modified = append(modified[:e.Start:e.Start], append([]byte(replacement), modified[e.End:]...)...)
		result.Applied++
	}

	info, err := os.Stat(fc.FilePath)
	if err != nil {
		result.Error = fmt.Errorf("stat file: %w", err)
		return result, result.Error
	}

	if err := os.WriteFile(fc.FilePath, modified, info.Mode().Perm()); err != nil {
		result.Error = fmt.Errorf("writing file: %w", err)
		return result, result.Error
	}

	return result, nil
}

// ApplyAll applies fixes to all files and returns results.
func (f *Fixer) ApplyAll(changes []FileChanges) []FixResult {
	results := make([]FixResult, 0, len(changes))

	for _, fc := range changes {
		result, _ := f.ApplyToFile(fc)
		results = append(results, *result)
	}

	return results
}

// Summary returns a formatted summary of fix results.
func Summary(results []FixResult) string {
	var b strings.Builder

	totalApplied := 0
	totalSkipped := 0
	filesModified := 0
	var errs []string

	for _, r := range results {
		totalApplied += r.Applied
		totalSkipped += r.Skipped
		if r.Applied > 0 {
			filesModified++
		}
		if r.Error != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", r.FilePath, r.Error))
		}
	}

	if totalApplied == 0 && len(errs) == 0 {
		return "No changes made."
	}

	fmt.Fprintf(&b, "Converted %d embed(s) across %d note(s).\n", totalApplied, filesModified)

	if totalSkipped > 0 {
		fmt.Fprintf(&b, "Skipped %d (embed not found in note).\n", totalSkipped)
	}

	if len(errs) > 0 {
		b.WriteString("\nErrors:\n")
		for _, e := range errs {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}

	return b.String()
}

// DetailedSummary returns a summary listing each rewritten embed.
func DetailedSummary(results []FixResult) string {
	var b strings.Builder

	totalApplied := 0
	filesModified := 0
	for _, r := range results {
		if r.Applied > 0 {
			totalApplied += r.Applied
			filesModified++
		}
	}

	if totalApplied == 0 {
		return "No changes made."
	}

	fmt.Fprintf(&b, "Converted %d embed(s) across %d note(s):\n\n", totalApplied, filesModified)

	for _, r := range results {
		for _, change := range r.Changed {
			fmt.Fprintf(&b, "  %s:%d\n", r.FilePath, change.Line)
			fmt.Fprintf(&b, "    %s\n", helpers.TruncateText(change.Old, 70))
			fmt.Fprintf(&b, "    -> %s\n", helpers.TruncateText(change.New, 70))
		}
	}

	return b.String()
}
