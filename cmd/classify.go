package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leonardomso/nopreview/internal/classify"
	"github.com/leonardomso/nopreview/internal/output"
	"github.com/leonardomso/nopreview/internal/settings"
	"github.com/leonardomso/nopreview/internal/ui"
)

var classifyFormat string

// classifyCmd represents the classify command.
var classifyCmd = &cobra.Command{
	Use:   "classify <name>...",
	Short: "Show how file names would be inserted",
	Long: `Print whether each file name would be inserted as a [[link]] or an
![[embed]] under the current settings. Nothing is saved.

Examples:
  nopreview classify report.pdf photo.png
  nopreview classify archive.tar.gz --ext=gz
  nopreview classify *.pdf --format=json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVarP(&classifyFormat, "format", "f", "",
		"Output format: json, yaml, toml, markdown")
}

func runClassify(_ *cobra.Command, args []string) {
	if classifyFormat != "" && !output.IsValidFormat(classifyFormat) {
		exitOnError(fmt.Errorf("invalid format %q (valid: %s)",
			classifyFormat, strings.Join(output.ValidFormats(), ", ")), "Invalid flags")
	}

	lc := loadConfigFromFlags()
	exts := lc.Extensions()

	if classifyFormat != "" {
		report := output.NewClassifyReport(args, exts)
		data, err := output.FormatReport(report, output.Format(strings.ToLower(classifyFormat)))
		exitOnError(err, "Error formatting report")
		fmt.Println(string(data))
		return
	}

	fmt.Println(ui.MutedStyle.Render("Non-preview extensions: " + settings.FormatList(exts)))
	fmt.Println()

	set := classify.NewSet(exts)
	for _, name := range args {
		cat := set.Classify(name)
		fmt.Printf("  %s %s\n", ui.CategoryBadge(cat), classify.Render(cat, name))
	}
}
