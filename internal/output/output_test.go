package output

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leonardomso/nopreview/internal/classify"
	"github.com/leonardomso/nopreview/internal/pipeline"
)

// =============================================================================
// Test Fixtures
// =============================================================================

var defaultExts = []string{".pdf", ".exe", ".zip", ".rar"}

func newTestReport() *Report {
	o := pipeline.Outcome{
		BatchID: "batch-1",
		Handled: true,
		Results: []pipeline.FileResult{
			{Index: 0, Name: "report.pdf", StoredName: "report 1.pdf", Path: "att/report 1.pdf",
				Category: classify.LinkOnly, Markup: "[[report 1.pdf]]"},
			{Index: 1, Name: "photo.png", StoredName: "photo.png", Path: "att/photo.png",
				Category: classify.Embed, Markup: "![[photo.png]]"},
			{Index: 2, Name: "broken.zip", Err: errors.New("permission denied")},
		},
		Text:     "[[report 1.pdf]]\n![[photo.png]]",
		Inserted: true,
	}

	r := NewInsertReport("notes/today.md", "drop", true, defaultExts, o)
	r.Notices = []string{"Failed to insert broken.zip: permission denied"}
	r.GeneratedAt = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return r
}

func newMinimalReport() *Report {
	r := NewInsertReport("a.md", "paste", false, nil, pipeline.Outcome{})
	r.GeneratedAt = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return r
}

// =============================================================================
// Format Constants Tests
// =============================================================================

func TestValidFormats(t *testing.T) {
	t.Parallel()

	formats := ValidFormats()
	assert.Equal(t, []string{"json", "yaml", "toml", "markdown"}, formats)
}

func TestIsValidFormat(t *testing.T) {
	t.Parallel()

	for _, f := range []string{"json", "JSON", "yaml", "toml", "markdown"} {
		assert.True(t, IsValidFormat(f), f)
	}
	for _, f := range []string{"", "xml", "text", "csv"} {
		assert.False(t, IsValidFormat(f), f)
	}
}

func TestGetFormatter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format   Format
		expected Formatter
	}{
		{format: FormatJSON, expected: &JSONFormatter{}},
		{format: FormatYAML, expected: &YAMLFormatter{}},
		{format: FormatTOML, expected: &TOMLFormatter{}},
		{format: FormatMarkdown, expected: &MarkdownFormatter{}},
	}
	for _, tt := range tests {
		f, err := GetFormatter(tt.format)
		require.NoError(t, err)
		assert.IsType(t, tt.expected, f)
	}

	_, err := GetFormatter(FormatText)
	require.Error(t, err)
}

func TestInferFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		expected Format
	}{
		{filename: "out.json", expected: FormatJSON},
		{filename: "out.yaml", expected: FormatYAML},
		{filename: "OUT.YML", expected: FormatYAML},
		{filename: "out.toml", expected: FormatTOML},
		{filename: "report.md", expected: FormatMarkdown},
		{filename: "report.markdown", expected: FormatMarkdown},
	}
	for _, tt := range tests {
		got, err := InferFormat(tt.filename)
		require.NoError(t, err, tt.filename)
		assert.Equal(t, tt.expected, got, tt.filename)
	}

	_, err := InferFormat("out.xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot infer format")
}

// =============================================================================
// Report Builders Tests
// =============================================================================

func TestNewInsertReport(t *testing.T) {
	t.Parallel()

	r := newTestReport()
	assert.Equal(t, KindInsert, r.Kind)
	assert.Equal(t, "batch-1", r.BatchID)
	assert.True(t, r.Intercepted)
	assert.True(t, r.Inserted)
	assert.Equal(t, pipeline.Summary{Total: 3, Linked: 1, Embedded: 1, Failed: 1}, r.Summary)

	require.Len(t, r.Entries, 3)
	assert.Equal(t, "link", r.Entries[0].Category)
	assert.Equal(t, "report 1.pdf", r.Entries[0].StoredName)
	assert.Equal(t, "embed", r.Entries[1].Category)
	assert.Empty(t, r.Entries[2].Category)
	assert.Equal(t, "permission denied", r.Entries[2].Error)
}

func TestNewClassifyReport(t *testing.T) {
	t.Parallel()

	r := NewClassifyReport([]string{"a.PDF", "b.png", "README"}, defaultExts)
	assert.Equal(t, KindClassify, r.Kind)
	assert.Equal(t, pipeline.Summary{Total: 3, Linked: 1, Embedded: 2}, r.Summary)
	require.Len(t, r.Entries, 3)
	assert.Equal(t, "[[a.PDF]]", r.Entries[0].Markup)
	assert.Equal(t, "![[b.png]]", r.Entries[1].Markup)
	assert.Equal(t, "![[README]]", r.Entries[2].Markup)
}

// =============================================================================
// Formatter Tests
// =============================================================================

func TestJSONFormatter_Format(t *testing.T) {
	t.Parallel()

	data, err := (&JSONFormatter{}).Format(newTestReport())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2024-01-15T10:30:00Z", doc["generated_at"])
	assert.Equal(t, "insert", doc["kind"])
	assert.Equal(t, "notes/today.md", doc["note"])
	assert.Equal(t, true, doc["intercepted"])

	summary, ok := doc["summary"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 1, summary["linked"], 0)
	assert.InDelta(t, 1, summary["failed"], 0)

	entries, ok := doc["entries"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 3)
	failed, ok := entries[2].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "permission denied", failed["error"])
	assert.NotContains(t, failed, "markup")
	assert.Len(t, doc["notices"], 1)
}

func TestJSONFormatter_Format_EmptyReport(t *testing.T) {
	t.Parallel()

	data, err := (&JSONFormatter{}).Format(newMinimalReport())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entries": []`)
	assert.Contains(t, string(data), `"non_preview_extensions": []`)
	assert.NotContains(t, string(data), "batch_id")
}

func TestYAMLFormatter_Format(t *testing.T) {
	t.Parallel()

	data, err := (&YAMLFormatter{}).Format(newTestReport())
	require.NoError(t, err)

	var doc document
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "drop", doc.Event)
	assert.Equal(t, defaultExts, doc.Extensions)
	require.Len(t, doc.Entries, 3)
	assert.Equal(t, "![[photo.png]]", doc.Entries[1].Markup)
}

func TestTOMLFormatter_Format(t *testing.T) {
	t.Parallel()

	r := newTestReport()
	r.Stats = map[string]any{"timing": map[string]any{"total_ms": int64(12)}}

	data, err := (&TOMLFormatter{}).Format(r)
	require.NoError(t, err)

	var doc document
	require.NoError(t, toml.Unmarshal(data, &doc))
	assert.Equal(t, "batch-1", doc.BatchID)
	assert.Equal(t, 3, doc.Summary.Total)
	require.Len(t, doc.Entries, 3)
	assert.Equal(t, "att/report 1.pdf", doc.Entries[0].Path)
	assert.Contains(t, doc.Stats, "timing")
}

func TestMarkdownFormatter_Format(t *testing.T) {
	t.Parallel()

	data, err := (&MarkdownFormatter{}).Format(newTestReport())
	require.NoError(t, err)

	md := string(data)
	assert.Contains(t, md, "# Insert Report")
	assert.Contains(t, md, "**Note:** `notes/today.md`")
	assert.Contains(t, md, "`.pdf`, `.exe`, `.zip`, `.rar`")
	assert.Contains(t, md, "| Linked | 1 |")
	assert.Contains(t, md, "| Failed | 1 |")
	assert.Contains(t, md, "| report.pdf | link | `[[report 1.pdf]]` |")
	assert.Contains(t, md, "| broken.zip | failed | permission denied |")
	assert.Contains(t, md, "## Notices (1)")
	assert.Contains(t, md, "- Failed to insert broken.zip: permission denied")
	assert.Contains(t, md, "## Inserted Text")
}

func TestMarkdownFormatter_Format_NotIntercepted(t *testing.T) {
	t.Parallel()

	data, err := (&MarkdownFormatter{}).Format(newMinimalReport())
	require.NoError(t, err)

	md := string(data)
	assert.Contains(t, md, "_none_")
	assert.NotContains(t, md, "| Failed |")
	assert.NotContains(t, md, "## Files")
	assert.Contains(t, md, "left to the default handler")
}

func TestMarkdownFormatter_Format_Classify(t *testing.T) {
	t.Parallel()

	data, err := (&MarkdownFormatter{}).Format(NewClassifyReport([]string{"a|b.pdf"}, defaultExts))
	require.NoError(t, err)

	md := string(data)
	assert.Contains(t, md, "# Classification Report")
	assert.Contains(t, md, `a\|b.pdf`)
	assert.NotContains(t, md, "Inserted Text")
}

// =============================================================================
// File Writing Tests
// =============================================================================

func TestWriteToFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"r.json", "r.yaml", "r.toml", "r.md"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteToFile(newTestReport(), path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEmpty(t, data, name)
	}
}

func TestWriteToFile_InvalidFormat(t *testing.T) {
	t.Parallel()

	err := WriteToFile(newTestReport(), filepath.Join(t.TempDir(), "r.csv"))
	require.Error(t, err)
}

func TestWriteToFile_InvalidPath(t *testing.T) {
	t.Parallel()

	err := WriteToFile(newTestReport(), filepath.Join(t.TempDir(), "missing", "r.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing file")
}

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `a\|b`, escapeMarkdown("a|b"))
	assert.Equal(t, "a\\`b", escapeMarkdown("a`b"))
}
