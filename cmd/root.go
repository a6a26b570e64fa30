package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set by main.go via SetVersion.
var version = "dev"

// SetVersion sets the version string (called from main).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Global flag variables, shared by every command.
var (
	vaultDir     string
	settingsPath string
	noConfig     bool
	extOverride  []string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "nopreview",
	Short:   "Insert dropped files as links instead of embeds",
	Version: version,
	Long: `Nopreview saves files dropped or pasted into a markdown note and inserts
them as [[links]] when their extension is on the non-preview list
(.pdf, .exe, .zip, .rar by default) or as ![[embeds]] otherwise.

A batch is only taken over when at least one of its files is non-preview;
otherwise every file is embedded, as an editor would do by default.

Settings are read from .nopreview.yaml, .nopreview.json or .nopreview.toml,
searched from the vault upwards.

Examples:
  nopreview insert ~/Downloads/report.pdf --note daily/today.md
  nopreview insert ./scans --note inbox.md --include="*.pdf"
  nopreview classify report.pdf photo.png
  nopreview settings set "pdf, docx, zip"
  nopreview fix --dry-run
  nopreview watch ~/Drop --note inbox.md`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&vaultDir, "vault", "V", ".",
		"Vault root directory")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "",
		"Settings file (default: search .nopreview.{yaml,json,toml} from the vault upwards)")
	rootCmd.PersistentFlags().BoolVar(&noConfig, "no-config", false,
		"Ignore settings files and use the default extensions")
	rootCmd.PersistentFlags().StringSliceVarP(&extOverride, "ext", "e", nil,
		"Non-preview extensions for this run only (comma-separated)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1) //nolint:revive // deep-exit is acceptable for CLI entry points
	}
}
