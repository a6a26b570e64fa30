// Package output provides formatting and file writing for insert and
// classify reports.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leonardomso/nopreview/internal/classify"
	"github.com/leonardomso/nopreview/internal/pipeline"
)

// Format represents an output format type.
type Format string

const (
	// FormatText is the default human readable terminal output.
	FormatText Format = "text"
	// FormatJSON outputs as JSON.
	FormatJSON Format = "json"
	// FormatYAML outputs as YAML.
	FormatYAML Format = "yaml"
	// FormatTOML outputs as TOML.
	FormatTOML Format = "toml"
	// FormatMarkdown outputs as a Markdown report.
	FormatMarkdown Format = "markdown"
)

// ValidFormats returns all valid structured format strings.
func ValidFormats() []string {
	return []string{
		string(FormatJSON),
		string(FormatYAML),
		string(FormatTOML),
		string(FormatMarkdown),
	}
}

// IsValidFormat checks if a format string is valid.
func IsValidFormat(s string) bool {
	switch Format(strings.ToLower(s)) {
	case FormatJSON, FormatYAML, FormatTOML, FormatMarkdown:
		return true
	default:
		return false
	}
}

// Kind says which command produced a report.
type Kind string

const (
	KindInsert   Kind = "insert"
	KindClassify Kind = "classify"
)

// Entry is one file of a report.
type Entry struct {
	Name       string
	StoredName string
	Path       string
	Category   string
	Markup     string
	Error      string
}

// Report contains all data needed for output formatting.
type Report struct {
	GeneratedAt time.Time
	Kind        Kind
	BatchID     string
	Note        string
	Event       string
	Extensions  []string
	Intercepted bool
	Inserted    bool
	Text        string
	Entries     []Entry
	Summary     pipeline.Summary
	Notices     []string
	Stats       map[string]any
}

// NewInsertReport builds a report from the outcome of one dispatched event.
// intercepted tells whether the batch was taken over from the default
// handling.
func NewInsertReport(notePath, event string, intercepted bool, extensions []string, o pipeline.Outcome) *Report {
	r := &Report{
		GeneratedAt: time.Now(),
		Kind:        KindInsert,
		BatchID:     o.BatchID,
		Note:        notePath,
		Event:       event,
		Extensions:  append([]string(nil), extensions...),
		Intercepted: intercepted,
		Inserted:    o.Inserted,
		Text:        o.Text,
		Entries:     make([]Entry, 0, len(o.Results)),
		Summary:     pipeline.Summarize(o),
	}

	for _, res := range o.Results {
		e := Entry{
			Name:       res.Name,
			StoredName: res.StoredName,
			Path:       res.Path,
			Markup:     res.Markup,
		}
		if res.OK() {
			e.Category = res.Category.String()
		}
		if res.Err != nil {
			e.Error = res.Err.Error()
		}
		r.Entries = append(r.Entries, e)
	}
	return r
}

// NewClassifyReport builds a report for names classified against extensions.
func NewClassifyReport(names, extensions []string) *Report {
	set := classify.NewSet(extensions)
	r := &Report{
		GeneratedAt: time.Now(),
		Kind:        KindClassify,
		Extensions:  append([]string(nil), extensions...),
		Entries:     make([]Entry, 0, len(names)),
		Summary:     pipeline.Summary{Total: len(names)},
	}

	for _, name := range names {
		cat := set.Classify(name)
		if cat == classify.LinkOnly {
			r.Summary.Linked++
		} else {
			r.Summary.Embedded++
		}
		r.Entries = append(r.Entries, Entry{
			Name:     name,
			Category: cat.String(),
			Markup:   classify.Render(cat, name),
		})
	}
	return r
}

// Formatter is the interface that output formatters implement.
type Formatter interface {
	Format(report *Report) ([]byte, error)
}

// GetFormatter returns the appropriate formatter for a format.
func GetFormatter(format Format) (Formatter, error) {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatTOML:
		return &TOMLFormatter{}, nil
	case FormatMarkdown:
		return &MarkdownFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// FormatReport formats a report using the specified format.
func FormatReport(report *Report, format Format) ([]byte, error) {
	formatter, err := GetFormatter(format)
	if err != nil {
		return nil, err
	}
	return formatter.Format(report)
}

// InferFormat determines the output format from a filename extension.
func InferFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf(
			"cannot infer format from extension %q (supported: .json, .yaml, .yml, .toml, .md, .markdown)",
			ext,
		)
	}
}

// WriteToFile writes a formatted report to a file.
func WriteToFile(report *Report, filename string) error {
	format, err := InferFormat(filename)
	if err != nil {
		return err
	}

	data, err := FormatReport(report, format)
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

// document is the serialized shape shared by the structured formatters.
type document struct {
	GeneratedAt string         `json:"generated_at" yaml:"generated_at" toml:"generated_at"`
	Kind        string         `json:"kind" yaml:"kind" toml:"kind"`
	BatchID     string         `json:"batch_id,omitempty" yaml:"batch_id,omitempty" toml:"batch_id,omitempty"`
	Note        string         `json:"note,omitempty" yaml:"note,omitempty" toml:"note,omitempty"`
	Event       string         `json:"event,omitempty" yaml:"event,omitempty" toml:"event,omitempty"`
	Extensions  []string       `json:"non_preview_extensions" yaml:"non_preview_extensions" toml:"non_preview_extensions"`
	Intercepted bool           `json:"intercepted" yaml:"intercepted" toml:"intercepted"`
	Inserted    bool           `json:"inserted" yaml:"inserted" toml:"inserted"`
	Text        string         `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`
	Summary     docSummary     `json:"summary" yaml:"summary" toml:"summary"`
	Entries     []docEntry     `json:"entries" yaml:"entries" toml:"entries"`
	Notices     []string       `json:"notices,omitempty" yaml:"notices,omitempty" toml:"notices,omitempty"`
	Stats       map[string]any `json:"stats,omitempty" yaml:"stats,omitempty" toml:"stats,omitempty"`
}

type docSummary struct {
	Total    int `json:"total" yaml:"total" toml:"total"`
	Linked   int `json:"linked" yaml:"linked" toml:"linked"`
	Embedded int `json:"embedded" yaml:"embedded" toml:"embedded"`
	Failed   int `json:"failed" yaml:"failed" toml:"failed"`
}

type docEntry struct {
	Name       string `json:"name" yaml:"name" toml:"name"`
	StoredName string `json:"stored_name,omitempty" yaml:"stored_name,omitempty" toml:"stored_name,omitempty"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Category   string `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
	Markup     string `json:"markup,omitempty" yaml:"markup,omitempty" toml:"markup,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

func toDocument(report *Report) document {
	doc := document{
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		Kind:        string(report.Kind),
		BatchID:     report.BatchID,
		Note:        report.Note,
		Event:       report.Event,
		Extensions:  report.Extensions,
		Intercepted: report.Intercepted,
		Inserted:    report.Inserted,
		Text:        report.Text,
		Summary:     docSummary(report.Summary),
		Entries:     make([]docEntry, 0, len(report.Entries)),
		Notices:     report.Notices,
		Stats:       report.Stats,
	}
	if doc.Extensions == nil {
		doc.Extensions = []string{}
	}
	for _, e := range report.Entries {
		doc.Entries = append(doc.Entries, docEntry(e))
	}
	return doc
}
