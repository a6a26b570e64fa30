package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardomso/nopreview/internal/classify"
)

func TestNormalizeInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "MixedCaseAndDuplicates", input: "pdf, .ZIP, pdf", expected: []string{".pdf", ".zip"}},
		{name: "Empty", input: "", expected: []string{}},
		{name: "OnlyCommas", input: " , ,, ", expected: []string{}},
		{name: "KeepsFirstOccurrenceOrder", input: "zip,PDF,.pdf,exe,ZIP", expected: []string{".zip", ".pdf", ".exe"}},
		{name: "Whitespace", input: "  .rar  ,\t7z ", expected: []string{".rar", ".7z"}},
		{name: "MultiPart", input: "tar.gz", expected: []string{".tar.gz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NormalizeInput(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"pdf, .ZIP, pdf",
		"",
		".Exe,exe,EXE , , docx",
		"a,b,c,.A",
	}

	for _, in := range inputs {
		once := NormalizeInput(in)
		twice := NormalizeInput(FormatList(once))
		assert.Equal(t, once, twice, "input %q", in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	assert.Equal(t, []string{".pdf", ".exe", ".zip", ".rar"}, cfg.NonPreviewExtensions)
	require.NoError(t, cfg.Validate())

	// Defaults must not share backing storage with DefaultExtensions.
	cfg.NonPreviewExtensions[0] = ".changed"
	assert.Equal(t, ".pdf", DefaultExtensions[0])
}

func TestConfig_Clone(t *testing.T) {
	t.Parallel()

	cfg := Config{NonPreviewExtensions: []string{".pdf"}}
	clone := cfg.Clone()
	cfg.NonPreviewExtensions[0] = ".zip"

	assert.Equal(t, []string{".pdf"}, clone.NonPreviewExtensions)
}

func TestConfig_Set(t *testing.T) {
	t.Parallel()

	s := Config{NonPreviewExtensions: []string{".pdf"}}.Set()
	assert.Equal(t, classify.LinkOnly, s.Classify("report.PDF"))
	assert.Equal(t, classify.Embed, s.Classify("b.png"))
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("Valid", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, Config{NonPreviewExtensions: []string{".pdf", ".zip"}}.Validate())
		require.NoError(t, Config{}.Validate())
	})

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()
		err := Config{NonPreviewExtensions: []string{".pdf", " "}}.Validate()
		assert.True(t, errors.Is(err, ErrEmptyExtension))
	})

	t.Run("MissingDot", func(t *testing.T) {
		t.Parallel()
		err := Config{NonPreviewExtensions: []string{"pdf"}}.Validate()
		var invalid *InvalidExtensionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "pdf", invalid.Ext)
		assert.Contains(t, err.Error(), "missing leading dot")
	})

	t.Run("UpperCase", func(t *testing.T) {
		t.Parallel()
		err := Config{NonPreviewExtensions: []string{".PDF"}}.Validate()
		assert.ErrorContains(t, err, "not lowercase")
	})

	t.Run("Duplicate", func(t *testing.T) {
		t.Parallel()
		err := Config{NonPreviewExtensions: []string{".pdf", ".pdf"}}.Validate()
		assert.ErrorContains(t, err, "duplicate")
	})
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".pdf, .zip", FormatList([]string{".pdf", ".zip"}))
	assert.Empty(t, FormatList(nil))
}
