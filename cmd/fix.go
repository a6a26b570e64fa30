package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leonardomso/nopreview/internal/fixer"
	"github.com/leonardomso/nopreview/internal/helpers"
	"github.com/leonardomso/nopreview/internal/scanner"
	"github.com/leonardomso/nopreview/internal/settings"
	"github.com/leonardomso/nopreview/internal/ui"
)

// Fix command flag variables.
var (
	fixYes    bool
	fixDryRun bool
)

// fixCmd represents the fix command.
var fixCmd = &cobra.Command{
	Use:   "fix [path]",
	Short: "Turn embeds of non-preview files into links",
	Long: `Scan notes for ![[embeds]] of files whose extension is on the non-preview
list and rewrite them to [[links]]. Embeds inside code blocks and inline
code are left alone.

By default, scans the vault root. The command runs interactively,
prompting for each note. Use --yes to apply every change (useful for
scripts) or --dry-run to preview without modifying files.

Examples:
  nopreview fix                 # Interactive mode over the vault
  nopreview fix ./projects      # Only notes under ./projects
  nopreview fix --dry-run       # Preview what would change
  nopreview fix --yes           # Apply all changes without prompting
  nopreview fix --ext=pdf,epub  # Use another list for this run`,
	Args: cobra.MaximumNArgs(1),
	Run:  runFix,
}

func init() {
	rootCmd.AddCommand(fixCmd)

	fixCmd.Flags().BoolVarP(&fixYes, "yes", "y", false,
		"Apply all fixes without prompting")
	fixCmd.Flags().BoolVarP(&fixDryRun, "dry-run", "n", false,
		"Preview changes without modifying files")
}

// runFix is the main entry point for the fix command.
func runFix(_ *cobra.Command, args []string) {
	path := vaultDir
	if len(args) > 0 {
		path = args[0]
	}

	lc := loadConfigFromFlags()
	exts := lc.Extensions()
	if len(exts) == 0 {
		fmt.Println("No non-preview extensions configured; nothing to fix.")
		return
	}

	notes, err := scanner.FindNotes(path)
	exitOnError(err, "Error scanning directory")
	fmt.Printf("Found %d note(s). Non-preview extensions: %s\n", len(notes), settings.FormatList(exts))

	f := fixer.New(lc.Live().Snapshot().Set())
	changes, err := f.FindFixes(notes)
	exitOnError(err, "Error reading notes")

	fmt.Println()
	fmt.Print(f.Preview(changes))
	if len(changes) == 0 {
		fmt.Println()
		return
	}

	if fixDryRun {
		fmt.Println("Dry-run mode: no files were modified.")
		return
	}

	if fixYes {
		results := f.ApplyAll(changes)
		fmt.Println(fixer.DetailedSummary(results))
		return
	}

	runInteractiveFix(f, changes)
}

// fixDecision is the answer to the per-note prompt.
type fixDecision int

const (
	decideApply fixDecision = iota
	decideSkip
	decideApplyRest
	decideQuit
)

// runInteractiveFix prompts the user for each note before applying fixes.
func runInteractiveFix(f *fixer.Fixer, changes []fixer.FileChanges) {
	reader := bufio.NewReader(os.Stdin)
	results := make([]fixer.FixResult, 0, len(changes))
	applyRest := false

	for i, fc := range changes {
		decision := decideApply
		if !applyRest {
			decision = askFix(reader, fc)
		}

		switch decision {
		case decideApply:
			results = append(results, applyOne(f, fc))
		case decideApplyRest:
			results = append(results, applyOne(f, fc))
			applyRest = true
		case decideSkip:
			fmt.Println(ui.MutedStyle.Render("Skipped " + fc.FilePath))
			results = append(results, skipped(fc))
		case decideQuit:
			fmt.Println("\nQuitting. Remaining notes were not modified.")
			for _, rest := range changes[i:] {
				results = append(results, skipped(rest))
			}
			printInteractiveResults(results)
			os.Exit(2)
		}
	}

	fmt.Println()
	printInteractiveResults(results)
}

// askFix prompts until it gets a valid answer for fc.
func askFix(reader *bufio.Reader, fc fixer.FileChanges) fixDecision {
	for {
		fmt.Printf("\nFix %s? (%s) [y/n/a/q/?] ", fc.FilePath, helpers.Plural(fc.TotalFixes, "embed"))

		input, err := reader.ReadString('\n')
		if err != nil {
			exitOnError(err, "\nError reading input")
		}

		switch strings.TrimSpace(strings.ToLower(input)) {
		case "y", "yes":
			return decideApply
		case "n", "no":
			return decideSkip
		case "a", "all":
			return decideApplyRest
		case "q", "quit":
			return decideQuit
		case "?", "help":
			printInteractiveHelp()
		default:
			fmt.Println("Invalid input. Use y/n/a/q/? (or type 'help')")
		}
	}
}

func skipped(fc fixer.FileChanges) fixer.FixResult {
	return fixer.FixResult{FilePath: fc.FilePath, Skipped: fc.TotalFixes}
}

func applyOne(f *fixer.Fixer, fc fixer.FileChanges) fixer.FixResult {
	result, err := f.ApplyToFile(fc)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("Error: "+err.Error()))
	} else {
		fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("Converted %s in %s",
			helpers.Plural(result.Applied, "embed"), fc.FilePath)))
	}
	return *result
}

// printInteractiveHelp displays help for interactive mode options.
func printInteractiveHelp() {
	fmt.Println(`
Interactive mode options:
  y, yes  - Fix this note
  n, no   - Skip this note
  a, all  - Fix this note and all remaining notes
  q, quit - Quit without fixing remaining notes
  ?, help - Show this help`)
}

// printInteractiveResults prints the totals of an interactive session.
// Notes the user skipped are counted apart from embeds the fixer could not
// find any more.
func printInteractiveResults(results []fixer.FixResult) {
	attempted := make([]fixer.FixResult, 0, len(results))
	untouched := 0
	for _, r := range results {
		if r.Skipped > 0 && r.Applied == 0 && r.Changed == nil && r.Error == nil {
			untouched++
			continue
		}
		attempted = append(attempted, r)
	}

	fmt.Println(strings.TrimRight(fixer.Summary(attempted), "\n"))
	if untouched > 0 {
		fmt.Printf("Left %s untouched.\n", helpers.Plural(untouched, "note"))
	}
}
