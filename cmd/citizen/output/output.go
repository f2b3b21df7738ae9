package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Writer receives everything printed by this package.
var Writer io.Writer = os.Stdout

var (
	// Color styles for terminal output
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
)

func line(icon lipgloss.Style, mark, format string, args ...any) {
	_, _ = fmt.Fprint(Writer, icon.Render(mark+" "))
	_, _ = fmt.Fprintf(Writer, format+"\n", args...)
}

// Success prints a success message
func Success(format string, args ...any) {
	line(successStyle, "✓", format, args...)
}

// Warning prints a warning message
func Warning(format string, args ...any) {
	line(warningStyle, "⚠", format, args...)
}

// Error prints an error message
func Error(format string, args ...any) {
	line(errorStyle, "✗", format, args...)
}

// Info prints an info message
func Info(format string, args ...any) {
	line(infoStyle, "ℹ", format, args...)
}

// Muted prints a muted message
func Muted(format string, args ...any) {
	_, _ = fmt.Fprintln(Writer, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Primary prints a primary message
func Primary(format string, args ...any) {
	_, _ = fmt.Fprintln(Writer, primaryStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a section header
func Section(title string) {
	_, _ = fmt.Fprintln(Writer)
	_, _ = fmt.Fprintln(Writer, primaryStyle.Render(title))
	_, _ = fmt.Fprintln(Writer, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
	_, _ = fmt.Fprintln(Writer)
}

// RuleIcon returns a colored icon for a field rule kind
func RuleIcon(kind string) string {
	switch kind {
	case "default":
		return infoStyle.Render("=")
	case "mapped":
		return successStyle.Render("→")
	case "list":
		return warningStyle.Render("[]")
	case "set":
		return warningStyle.Render("{}")
	default:
		return mutedStyle.Render("•")
	}
}
