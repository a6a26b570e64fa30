// Package settings holds the non-preview extension configuration: defaults,
// normalization of user input, and persistence in YAML, JSON or TOML files.
package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leonardomso/nopreview/internal/classify"
)

// ErrEmptyExtension is returned by Validate for blank entries.
var ErrEmptyExtension = errors.New("empty extension")

// Config is the persisted plugin configuration.
type Config struct {
	// NonPreviewExtensions are inserted as [[link]] instead of ![[embed]].
	// Entries are lowercase, dot-prefixed and unique.
	NonPreviewExtensions []string `yaml:"nonPreviewExtensions" json:"nonPreviewExtensions" toml:"nonPreviewExtensions"`
}

// DefaultExtensions are used when no value is stored.
var DefaultExtensions = []string{".pdf", ".exe", ".zip", ".rar"}

// Defaults returns a fresh copy of the default configuration.
func Defaults() Config {
	return Config{NonPreviewExtensions: slices.Clone(DefaultExtensions)}
}

// Clone returns a deep copy of c. Batches classify against a clone so that
// later edits cannot change a batch in flight.
func (c Config) Clone() Config {
	return Config{NonPreviewExtensions: slices.Clone(c.NonPreviewExtensions)}
}

// Set builds the classifier set for c.
func (c Config) Set() classify.Set {
	return classify.NewSet(c.NonPreviewExtensions)
}

// Validate checks that every entry is non-empty, dot-prefixed, lowercase
// and unique.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.NonPreviewExtensions))
	for _, ext := range c.NonPreviewExtensions {
		switch {
		case strings.TrimSpace(ext) == "":
			return ErrEmptyExtension
		case !strings.HasPrefix(ext, "."):
			return &InvalidExtensionError{Ext: ext, Reason: "missing leading dot"}
		case ext != strings.ToLower(ext):
			return &InvalidExtensionError{Ext: ext, Reason: "not lowercase"}
		case seen[ext]:
			return &InvalidExtensionError{Ext: ext, Reason: "duplicate"}
		}
		seen[ext] = true
	}
	return nil
}

// InvalidExtensionError describes an entry that breaks the stored invariant.
type InvalidExtensionError struct {
	Ext    string
	Reason string
}

func (e *InvalidExtensionError) Error() string {
	return fmt.Sprintf("invalid extension %q: %s", e.Ext, e.Reason)
}

// NormalizeInput parses the comma-separated settings field:
// split on ",", trim, drop blanks, dot-prefix, lowercase, dedupe keeping the
// first occurrence.
func NormalizeInput(input string) []string {
	return Normalize(strings.Split(input, ","))
}

// Normalize applies the entry rules of NormalizeInput to a list.
// Applying it twice yields the same result as applying it once.
func Normalize(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, e := range exts {
		n := classify.NormalizeExtension(e)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// FormatList renders extensions the way the settings field displays them.
func FormatList(exts []string) string {
	return strings.Join(exts, ", ")
}
