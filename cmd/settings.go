package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leonardomso/nopreview/internal/settings"
	"github.com/leonardomso/nopreview/internal/ui"
)

var settingsShowFormat string

// settingsCmd groups the settings subcommands.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the non-preview extensions",
	Long: `Show or change the list of extensions inserted as links.

The list is entered as comma-separated text. Entries are trimmed,
lowercased and given a leading dot; blanks and duplicates are dropped,
so "pdf, .ZIP, pdf" is stored as [".pdf", ".zip"].

Examples:
  nopreview settings show
  nopreview settings show --format=json
  nopreview settings set "pdf, docx, zip"
  nopreview settings reset
  nopreview settings path`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	Run:   runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <extensions>",
	Short: "Replace the non-preview extensions",
	Args:  cobra.MinimumNArgs(1),
	Run:   runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default extensions",
	Args:  cobra.NoArgs,
	Run:   runSettingsReset,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file in use",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		lc := loadConfigFromFlags()
		if !lc.Persistent() {
			fmt.Println("(in memory)")
			return
		}
		fmt.Println(lc.Path())
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResetCmd, settingsPathCmd)

	settingsShowCmd.Flags().StringVarP(&settingsShowFormat, "format", "f", "",
		"Output format: json, yaml, toml")
}

func runSettingsShow(_ *cobra.Command, _ []string) {
	lc := loadConfigFromFlags()
	cfg := lc.Live().Snapshot()

	if settingsShowFormat != "" {
		data, err := marshalSettings(cfg, settingsShowFormat)
		exitOnError(err, "Error formatting settings")
		fmt.Print(string(data))
		return
	}

	printSettings(lc, cfg)
}

func runSettingsSet(_ *cobra.Command, args []string) {
	lc := loadConfigFromFlags()
	exitOnError(requirePersistent(lc), "")

	cfg, err := lc.Live().Update(strings.Join(args, ","))
	exitOnError(err, "Error saving settings")

	fmt.Println(ui.SuccessStyle.Render("Settings saved to " + lc.Path()))
	printSettings(lc, cfg)
}

func runSettingsReset(_ *cobra.Command, _ []string) {
	lc := loadConfigFromFlags()
	exitOnError(requirePersistent(lc), "")

	cfg, err := lc.Live().Update(settings.FormatList(settings.DefaultExtensions))
	exitOnError(err, "Error saving settings")

	fmt.Println(ui.SuccessStyle.Render("Defaults restored in " + lc.Path()))
	printSettings(lc, cfg)
}

func requirePersistent(lc *LoadedConfig) error {
	if lc.Persistent() {
		return nil
	}
	return errors.New("settings are in memory (--ext or --no-config given); nothing to save")
}

func printSettings(lc *LoadedConfig, cfg settings.Config) {
	source := lc.Path()
	if source == "" {
		source = "(in memory)"
	}
	fmt.Printf("Settings file:          %s\n", source)
	if len(cfg.NonPreviewExtensions) == 0 {
		fmt.Println("Non-preview extensions: " + ui.MutedStyle.Render("none, every file is embedded"))
		return
	}
	fmt.Printf("Non-preview extensions: %s\n", settings.FormatList(cfg.NonPreviewExtensions))
}

// marshalSettings encodes cfg the way a settings file of that format holds it.
func marshalSettings(cfg settings.Config, format string) ([]byte, error) {
	switch settings.Format(strings.ToLower(format)) {
	case settings.FormatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case settings.FormatTOML:
		return toml.Marshal(cfg)
	case settings.FormatYAML:
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("invalid format %q (valid: yaml, json, toml)", format)
	}
}
