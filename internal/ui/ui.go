// Package ui renders styled terminal output for the CLI. Styling is
// disabled automatically when stdout is not a terminal or the
// environment opts out of color.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Marks used in command output.
const (
	Check  = "✓"
	Cross  = "✗"
	Bullet = "•"
)

// Palette for dark terminal backgrounds.
const (
	colorAccent = lipgloss.Color("#8B5CF6")
	colorPass   = lipgloss.Color("#10B981")
	colorWarn   = lipgloss.Color("#F59E0B")
	colorFail   = lipgloss.Color("#EF4444")
	colorMuted  = lipgloss.Color("#6B7280")
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	accentStyle = lipgloss.NewStyle().Foreground(colorAccent)
	passStyle   = lipgloss.NewStyle().Foreground(colorPass)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorFail)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

var enabled = detectColor()

// detectColor reports whether stdout wants styled output, honoring the
// NO_COLOR and CLICOLOR conventions.
func detectColor() bool {
	if termenv.EnvNoColor() {
		return false
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

// Disable turns styling off for the rest of the process. Wired to the
// --no-color flag and GRIMPACK_NO_COLOR.
func Disable() {
	enabled = false
}

// Enabled reports whether output is currently styled.
func Enabled() bool {
	return enabled
}

func render(s lipgloss.Style, text string) string {
	if !enabled {
		return text
	}
	return s.Render(text)
}

// Header styles a section title.
func Header(text string) string { return render(headerStyle, text) }

// Accent styles names and identifiers.
func Accent(text string) string { return render(accentStyle, text) }

// Pass styles success output.
func Pass(text string) string { return render(passStyle, text) }

// Warn styles caution output.
func Warn(text string) string { return render(warnStyle, text) }

// Fail styles failure output.
func Fail(text string) string { return render(failStyle, text) }

// Muted styles secondary detail.
func Muted(text string) string { return render(mutedStyle, text) }
