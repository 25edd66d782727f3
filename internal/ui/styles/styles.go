// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#2C2C2C", Dark: "#CCCCCC"} // Document body text
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BBBBBB"} // Titles, labels
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, help text, footers

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Collaboration
	RemoteEditColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"} // Flash for incoming remote edits

	// Document body
	BodyStyle = lipgloss.NewStyle().Foreground(TextPrimaryColor)

	// CursorStyle renders the character under the cursor in reverse video.
	CursorStyle = lipgloss.NewStyle().Reverse(true)

	// Title bar
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextSecondaryColor).
			PaddingLeft(1)

	// Status bar at the bottom of the viewport
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor).
			PaddingLeft(1)

	StatusBarErrorStyle = lipgloss.NewStyle().
				Foreground(StatusErrorColor).
				PaddingLeft(1)

	// Help footer
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor)
)
