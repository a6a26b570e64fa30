package cmd

import (
	"fmt"

	"github.com/leonardomso/nopreview/internal/classify"
	"github.com/leonardomso/nopreview/internal/helpers"
	"github.com/leonardomso/nopreview/internal/output"
	"github.com/leonardomso/nopreview/internal/ui"
)

// printInsertResult prints an insert report as human-readable text.
func printInsertResult(r *output.Report) {
	fmt.Println(ui.TitleStyle.Render(fmt.Sprintf("%s into %s",
		helpers.Plural(len(r.Entries), "file"), r.Note)))

	if !r.Intercepted {
		fmt.Println(ui.MutedStyle.Render("No non-preview file in the batch; default handling embedded it."))
	}
	fmt.Println()

	for _, e := range r.Entries {
		printEntry(e)
	}

	fmt.Println()
	summary := fmt.Sprintf("Summary: %d linked | %d embedded", r.Summary.Linked, r.Summary.Embedded)
	if r.Summary.Failed > 0 {
		summary += fmt.Sprintf(" | %d failed", r.Summary.Failed)
		fmt.Println(ui.ErrorStyle.Render(summary))
	} else {
		fmt.Println(ui.SuccessStyle.Render(summary))
	}

	if !r.Inserted {
		fmt.Println(ui.MutedStyle.Render("Nothing was inserted into the note."))
	}
}

// printEntry prints one file of a report with its badge.
func printEntry(e output.Entry) {
	name := helpers.TruncateText(e.Name, 50)

	if e.Error != "" {
		fmt.Printf("  %s %s\n", ui.FailBadge(), name)
		fmt.Printf("       %s\n", ui.ErrorStyle.Render(e.Error))
		return
	}

	cat := classify.Embed
	if e.Category == classify.LinkOnly.String() {
		cat = classify.LinkOnly
	}
	fmt.Printf("  %s %s\n", ui.CategoryBadge(cat), name)
	fmt.Printf("       %s\n", ui.MutedStyle.Render(e.Markup))
	if e.Path != "" && e.StoredName != e.Name {
		fmt.Printf("       %s\n", ui.MutedStyle.Render("saved as "+e.Path))
	}
}
