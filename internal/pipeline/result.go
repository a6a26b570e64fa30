package pipeline

import (
	"strings"

	"github.com/leonardomso/nopreview/internal/classify"
)

// FileResult is the outcome for one file of a batch: either markup or an
// error, never both.
type FileResult struct {
	Index      int               // Position in the batch
	Name       string            // Name as carried by the event
	Path       string            // Destination in storage (empty if not resolved)
	StoredName string            // Final name after conflict resolution
	Category   classify.Category // Classification of StoredName
	Markup     string            // [[name]] or ![[name]]; empty on failure
	Err        error             // Why the file failed
}

// OK reports whether the file was stored and rendered.
func (r FileResult) OK() bool {
	return r.Err == nil && r.Markup != ""
}

// Outcome describes what Handle did with one event.
type Outcome struct {
	BatchID  string       // Correlates log lines for the batch
	Handled  bool         // Files went through the save pipeline in this call
	Results  []FileResult // One per input file, in input order
	Text     string       // Assembled markup handed to the document
	Inserted bool         // Text was inserted into the document
}

// Failed returns the results that failed.
func (o Outcome) Failed() []FileResult {
	var failed []FileResult
	for _, r := range o.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary counts the results of an outcome.
type Summary struct {
	Total    int
	Linked   int
	Embedded int
	Failed   int
}

// Summarize creates a summary from an outcome.
func Summarize(o Outcome) Summary {
	s := Summary{Total: len(o.Results)}
	for _, r := range o.Results {
		switch {
		case !r.OK():
			s.Failed++
		case r.Category == classify.LinkOnly:
			s.Linked++
		default:
			s.Embedded++
		}
	}
	return s
}

// Assemble joins the non-empty markups in input order with "\n".
func Assemble(results []FileResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Markup != "" {
			parts = append(parts, r.Markup)
		}
	}
	return strings.Join(parts, "\n")
}
