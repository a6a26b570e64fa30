package output

import (
	"fmt"
	"strings"

	"github.com/leonardomso/nopreview/internal/helpers"
)

// MarkdownFormatter formats reports as Markdown.
type MarkdownFormatter struct{}

// Format implements Formatter.
func (*MarkdownFormatter) Format(report *Report) ([]byte, error) {
	// Pre-grow builder: estimate ~120 bytes per entry + ~400 bytes header
	var b strings.Builder
	b.Grow(len(report.Entries)*120 + 400)

	switch report.Kind {
	case KindClassify:
		b.WriteString("# Classification Report\n\n")
	default:
		b.WriteString("# Insert Report\n\n")
	}

	fmt.Fprintf(&b, "**Generated:** %s  \n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	if report.Note != "" {
		fmt.Fprintf(&b, "**Note:** `%s`  \n", report.Note)
	}
	if report.Event != "" {
		fmt.Fprintf(&b, "**Event:** %s  \n", report.Event)
	}
	if report.BatchID != "" {
		fmt.Fprintf(&b, "**Batch:** `%s`  \n", report.BatchID)
	}
	fmt.Fprintf(&b, "**Non-preview extensions:** %s\n\n", formatExtensions(report.Extensions))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Result | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Linked | %d |\n", report.Summary.Linked)
	fmt.Fprintf(&b, "| Embedded | %d |\n", report.Summary.Embedded)
	if report.Summary.Failed > 0 {
		fmt.Fprintf(&b, "| Failed | %d |\n", report.Summary.Failed)
	}
	fmt.Fprintf(&b, "| Total | %d |\n\n", report.Summary.Total)

	if len(report.Entries) > 0 {
		fmt.Fprintf(&b, "## Files (%d)\n\n", len(report.Entries))
		b.WriteString("| File | Result | Markup |\n")
		b.WriteString("|------|--------|--------|\n")
		for _, e := range report.Entries {
			result := e.Category
			markup := "`" + escapeMarkdown(e.Markup) + "`"
			if e.Error != "" {
				result = "failed"
				markup = escapeMarkdown(helpers.TruncateText(e.Error, 60))
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				escapeMarkdown(helpers.TruncateText(e.Name, 50)), result, markup)
		}
		b.WriteString("\n")
	}

	if len(report.Notices) > 0 {
		fmt.Fprintf(&b, "## Notices (%d)\n\n", len(report.Notices))
		for _, n := range report.Notices {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteString("\n")
	}

	if report.Kind == KindInsert {
		if report.Inserted {
			b.WriteString("## Inserted Text\n\n```markdown\n")
			b.WriteString(report.Text)
			b.WriteString("\n```\n")
		} else if !report.Intercepted {
			b.WriteString("_The event was left to the default handler._\n")
		}
	}

	return []byte(b.String()), nil
}

func formatExtensions(exts []string) string {
	if len(exts) == 0 {
		return "_none_"
	}
	quoted := make([]string, len(exts))
	for i, e := range exts {
		quoted[i] = "`" + e + "`"
	}
	return strings.Join(quoted, ", ")
}

// escapeMarkdown escapes characters that break table cells.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "`", "\\`")
	return s
}
