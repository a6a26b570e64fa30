package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/leonardomso/nopreview/internal/classify"
	"github.com/leonardomso/nopreview/internal/helpers"
	"github.com/leonardomso/nopreview/internal/note"
	"github.com/leonardomso/nopreview/internal/notify"
	"github.com/leonardomso/nopreview/internal/output"
	"github.com/leonardomso/nopreview/internal/pipeline"
	"github.com/leonardomso/nopreview/internal/scanner"
	"github.com/leonardomso/nopreview/internal/stats"
)

// Insert command flag variables.
var (
	insertNote        string
	insertAt          string
	insertSelectTo    string
	insertPaste       bool
	insertAttachments string
	insertInclude     []string
	insertExclude     []string
	insertConcurrency int
	insertFormat      string
	insertOutput      string
	insertShowStats   bool
)

// insertCmd represents the insert command.
var insertCmd = &cobra.Command{
	Use:   "insert <path>...",
	Short: "Drop files into a note",
	Long: `Save files into the vault and insert them into a note, the way a drop or
paste onto the editor would.

If at least one file has a non-preview extension, the whole batch is
handled here: every file is saved and inserted as [[name]] (non-preview)
or ![[name]] (everything else), one per line, at the cursor. Otherwise
the default handling embeds every file.

Directories expand to the files they contain (hidden folders skipped).
Use --include/--exclude glob patterns to filter them.

Output formats:
  --format=json      JSON report
  --format=yaml      YAML report
  --format=toml      TOML report
  --format=markdown  Markdown report
  --output=FILE      Write the report to a file (format inferred from extension)

Examples:
  nopreview insert report.pdf photo.png --note daily/today.md
  nopreview insert ./scans --note inbox.md --include="**.pdf"
  nopreview insert setup.exe --note notes/tools.md --at 12:1
  nopreview insert a.zip --note n.md --at 3:1 --select-to 3:20
  nopreview insert a.pdf --note n.md --attachments ./assets --format=json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runInsert,
}

func init() {
	rootCmd.AddCommand(insertCmd)

	insertCmd.Flags().StringVarP(&insertNote, "note", "N", "",
		"Note receiving the files, relative to the vault (required)")
	insertCmd.Flags().StringVar(&insertAt, "at", "end",
		"Cursor position as line[:col] or end")
	insertCmd.Flags().StringVar(&insertSelectTo, "select-to", "",
		"End of a selection starting at --at; the selection is replaced")
	insertCmd.Flags().BoolVar(&insertPaste, "paste", false,
		"Treat the batch as a paste instead of a drop")
	insertCmd.Flags().StringVarP(&insertAttachments, "attachments", "a", "",
		`Attachment folder: "" for the vault root, "./x" relative to the note, "x" relative to the vault`)

	insertCmd.Flags().StringSliceVar(&insertInclude, "include", nil,
		"Glob patterns of files to keep from dropped directories")
	insertCmd.Flags().StringSliceVar(&insertExclude, "exclude", nil,
		"Glob patterns of files to skip from dropped directories")

	insertCmd.Flags().IntVarP(&insertConcurrency, "concurrency", "c", pipeline.DefaultConcurrency,
		"Number of files saved concurrently")

	insertCmd.Flags().StringVarP(&insertFormat, "format", "f", "",
		"Output format: json, yaml, toml, markdown")
	insertCmd.Flags().StringVarP(&insertOutput, "output", "o", "",
		"Write report to file (format inferred from extension)")
	insertCmd.Flags().BoolVar(&insertShowStats, "stats", false,
		"Show batch timing and memory statistics")

	_ = insertCmd.MarkFlagRequired("note")
}

// runInsert is the main entry point for the insert command.
func runInsert(_ *cobra.Command, args []string) {
	exitOnError(validateInsertFlags(), "Invalid flags")

	perf := stats.New()
	useStructuredOutput := insertFormat != ""

	logger := newLogger(logrus.WarnLevel)
	lc := loadConfigFromFlags()

	doc := openNote()

	// Phase 1: expand dropped paths
	perf.StartExpand()
	paths, err := scanner.ExpandDrop(scanner.DropOptions{
		Paths:   args,
		Include: insertInclude,
		Exclude: insertExclude,
	})
	exitOnError(err, "Error reading dropped paths")
	perf.EndExpand(len(paths), totalSize(paths), countExtensions(paths))

	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "No files to insert.")
		return
	}

	collector := &notify.Collector{}
	var notifier pipeline.Notifier = notify.Multi{notify.NewConsole(os.Stderr), collector}
	if useStructuredOutput {
		notifier = notify.Multi{notify.NewLog(logger), collector}
	}

	sess, err := newSession(lc, SessionOptions{
		VaultDir:         vaultDir,
		AttachmentFolder: insertAttachments,
		Concurrency:      insertConcurrency,
		Notifier:         notifier,
		Logger:           logger,
	})
	exitOnError(err, "Error opening vault")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Phase 2: dispatch the event
	kind := eventKind(insertPaste)
	perf.StartDispatch()
	outcome, intercepted := sess.dispatch(ctx, kind, paths, doc)
	perf.EndDispatch(outcome, intercepted)

	report := output.NewInsertReport(doc.Path(), kind.String(), intercepted, lc.Extensions(), outcome)
	report.Notices = collector.Messages()
	if insertShowStats {
		report.Stats = perf.ToJSON()
	}

	if insertOutput != "" {
		exitOnError(output.WriteToFile(report, insertOutput), "Error writing report")
		if !useStructuredOutput {
			fmt.Printf("Report written to %s\n", insertOutput)
		}
	}

	if useStructuredOutput {
		data, err := output.FormatReport(report, output.Format(strings.ToLower(insertFormat)))
		exitOnError(err, "Error formatting report")
		fmt.Println(string(data))
	} else {
		printInsertResult(report)
		if insertShowStats {
			fmt.Print(perf.String())
		}
	}

	if report.Summary.Failed > 0 {
		os.Exit(1)
	}
}

// validateInsertFlags checks that flag values are valid.
func validateInsertFlags() error {
	if insertFormat != "" && !output.IsValidFormat(insertFormat) {
		return fmt.Errorf("invalid format %q (valid: %s)", insertFormat, strings.Join(output.ValidFormats(), ", "))
	}
	if insertOutput != "" {
		if _, err := output.InferFormat(insertOutput); err != nil {
			return err
		}
	}
	if insertConcurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", insertConcurrency)
	}
	return nil
}

// openNote opens the target note with the cursor and selection flags.
func openNote() *note.Note {
	at, err := note.ParsePosition(insertAt)
	exitOnError(err, "Invalid --at")

	n, err := note.Open(vaultDir, insertNote, at)
	exitOnError(err, "Invalid --note")

	if insertSelectTo != "" {
		to, err := note.ParsePosition(insertSelectTo)
		exitOnError(err, "Invalid --select-to")
		n.Select(at, to)
	}
	return n
}

// totalSize sums the size of the files at paths. Unreadable files count as
// empty; the pipeline reports them.
func totalSize(paths []string) uint64 {
	var total uint64
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Size() > 0 {
			total += uint64(info.Size())
		}
	}
	return total
}

// countExtensions returns how many distinct extensions paths carry.
func countExtensions(paths []string) int {
	exts := make([]string, len(paths))
	for i, p := range paths {
		exts[i] = classify.Extension(p)
	}
	return helpers.CountUniqueStrings(exts)
}
