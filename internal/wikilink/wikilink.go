// Package wikilink extracts [[links]] and ![[embeds]] from markdown notes.
// Occurrences inside code blocks and code spans are ignored.
package wikilink

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Link is one wiki link found in a note.
type Link struct {
	Raw     string // Full markup, e.g. "![[a.pdf#page=2|Report]]"
	Target  string // Text between the brackets, e.g. "a.pdf#page=2|Report"
	IsEmbed bool   // Markup starts with "!"
	Start   int    // Byte offset of Raw in the content
	End     int    // Byte offset just past Raw
	Line    int    // 1-based line of Start
	Column  int    // 1-based byte column of Start
}

// File returns the linked file name: the target without "#subpath" and
// "|alias" parts, trimmed.
func (l Link) File() string {
	name := l.Target
	if i := strings.IndexByte(name, '|'); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '#'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// AsLink returns the markup without the embed marker.
func (l Link) AsLink() string {
	return strings.TrimPrefix(l.Raw, "!")
}

// wikiLinkRegex matches [[target]] with an optional leading "!".
var wikiLinkRegex = regexp.MustCompile(`!?\[\[([^\[\]\n]+)\]\]`)

// Find returns the wiki links of content in document order.
func Find(content []byte) []Link {
	matches := wikiLinkRegex.FindAllSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	code := codeRanges(content)
	lines := buildLineIndex(content)

	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		start, end := m[0], m[1]
		if inRanges(start, code) {
			continue
		}
		line, col := offsetToLineCol(lines, start)
		links = append(links, Link{
			Raw:     string(content[start:end]),
			Target:  string(content[m[2]:m[3]]),
			IsEmbed: content[start] == '!',
			Start:   start,
			End:     end,
			Line:    line,
			Column:  col,
		})
	}
	return links
}

// Embeds returns only the ![[embeds]] of content.
func Embeds(content []byte) []Link {
	var embeds []Link
	for _, l := range Find(content) {
		if l.IsEmbed {
			embeds = append(embeds, l)
		}
	}
	return embeds
}

type byteRange struct {
	start, end int
}

// codeRanges returns the byte ranges covered by code blocks and code spans,
// sorted by start.
func codeRanges(content []byte) []byteRange {
	doc := goldmark.New().Parser().Parse(text.NewReader(content))

	var ranges []byteRange
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindHTMLBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				ranges = append(ranges, byteRange{seg.Start, seg.Stop})
			}
			return ast.WalkSkipChildren, nil

		case ast.KindCodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					ranges = append(ranges, byteRange{t.Segment.Start, t.Segment.Stop})
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })
	return ranges
}

func inRanges(off int, ranges []byteRange) bool {
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].start > off })
	return i > 0 && off < ranges[i-1].end
}

// buildLineIndex returns the byte offset of the start of each line.
func buildLineIndex(content []byte) []int {
	lines := []int{0}
	for i, b := range content {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}
	return lines
}

// offsetToLineCol converts a byte offset to line and column numbers.
func offsetToLineCol(lines []int, offset int) (line, col int) {
	i := sort.Search(len(lines), func(i int) bool { return lines[i] > offset })
	return i, offset - lines[i-1] + 1
}
