// Package ui holds the terminal styles used by command output.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/leonardomso/nopreview/internal/classify"
)

// Color palette.
var (
	PrimaryColor   = lipgloss.Color("205") // Pink
	SecondaryColor = lipgloss.Color("241") // Gray
	SuccessColor   = lipgloss.Color("82")  // Green
	ErrorColor     = lipgloss.Color("196") // Red
	LinkColor      = lipgloss.Color("39")  // Blue (plain links)
	MutedColor     = lipgloss.Color("245") // Dimmed text
)

// Text styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)
)

// Badge styles for classification results.
var (
	BadgeLink = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(LinkColor).
			Padding(0, 1)

	BadgeEmbed = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(SuccessColor).
			Padding(0, 1)

	BadgeFail = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(ErrorColor).
			Padding(0, 1)
)

// CategoryBadge returns a styled badge for a classification.
func CategoryBadge(c classify.Category) string {
	if c == classify.LinkOnly {
		return BadgeLink.Render("LINK")
	}
	return BadgeEmbed.Render("EMBED")
}

// FailBadge returns the badge for a file that could not be inserted.
func FailBadge() string {
	return BadgeFail.Render("FAIL")
}
