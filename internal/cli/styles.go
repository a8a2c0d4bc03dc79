package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/trackpolish/internal/qc"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#C47F00") // Amber
	mutedColor   = lipgloss.Color("#888888") // Gray
	textColor    = lipgloss.Color("#FFFFFF") // White
	passColor    = lipgloss.Color("#00AA00")
	warnColor    = lipgloss.Color("#FFA500")
	failColor    = lipgloss.Color("#A40000")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// Error message style
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(failColor)

	// Key-value pair styles
	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

// StatusStyle returns the colour for a QC status.
func StatusStyle(s qc.Status) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch s {
	case qc.Pass:
		return style.Foreground(passColor)
	case qc.Warn:
		return style.Foreground(warnColor)
	default:
		return style.Foreground(failColor)
	}
}

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("Trackpolish"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintSession prints a titled block of key-value settings for a run.
func PrintSession(w io.Writer, title string, pairs ...string) {
	fmt.Fprintln(w, TitleStyle.Render(title))
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(pairs[i]+":"), ValueStyle.Render(pairs[i+1]))
	}
	fmt.Fprintln(w)
}
