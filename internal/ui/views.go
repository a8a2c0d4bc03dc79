package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	accent  = lipgloss.Color("#C47F00")
	success = lipgloss.Color("#00AA00")
	failure = lipgloss.Color("#A40000")
	muted   = lipgloss.Color("#888888")
)

// renderProcessingView renders the main processing view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderTaskQueue(m))
	b.WriteString("\n")

	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accent).
		Render("Trackpolish")

	subtitle := lipgloss.NewStyle().
		Foreground(muted).
		Italic(true).
		Render(fmt.Sprintf("%s: %d track(s)", m.Title, len(m.Tasks)))

	return title + " " + subtitle
}

// renderTaskQueue renders the list of tracks with their status
func renderTaskQueue(m Model) string {
	var b strings.Builder

	for _, task := range m.Tasks {
		b.WriteString(renderTaskEntry(task, m.spinnerIndex))
		b.WriteString("\n")
	}

	return b.String()
}

// renderTaskEntry renders a single track in the queue
func renderTaskEntry(task TaskProgress, spinnerIndex int) string {
	switch task.Status {
	case StatusComplete:
		icon := lipgloss.NewStyle().Foreground(success).Render("✓")
		return fmt.Sprintf(" %s %s  %s", icon, task.Name, task.Summary)

	case StatusSkipped:
		icon := lipgloss.NewStyle().Foreground(muted).Render("–")
		return fmt.Sprintf(" %s %s  skipped (%s)", icon, task.Name, task.Summary)

	case StatusRunning:
		icon := lipgloss.NewStyle().Foreground(accent).Render(spinnerFrames[spinnerIndex%len(spinnerFrames)])
		return fmt.Sprintf(" %s %s  [%s]", icon, task.Name, formatElapsed(task.Elapsed))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(failure).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, task.Name, task.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(muted).Render("○")
		return fmt.Sprintf(" %s %s", icon, task.Name)
	}
}

// renderProgressBar renders a progress bar with percentage and elapsed time
func renderProgressBar(progress float64, width int, elapsed time.Duration) string {
	filled := int(progress * float64(width))
	empty := width - filled

	filledStyle := lipgloss.NewStyle().Foreground(accent)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))

	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("━", empty))

	percentage := int(progress * 100)

	return fmt.Sprintf("%s %3d%% [%s]", bar, percentage, formatElapsed(elapsed))
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Padding(0, 1).
		Width(60)

	content := renderProgressBar(m.Progress(), 40, time.Since(m.StartTime)) + "\n" +
		fmt.Sprintf("%d running, %d of %d done", m.Running(), m.CompletedTasks+m.FailedTasks, len(m.Tasks))
	if m.FailedTasks > 0 {
		content += lipgloss.NewStyle().Foreground(failure).Render(fmt.Sprintf(", %d failed", m.FailedTasks))
	}

	return box.Render(content)
}

// renderCompletionSummary renders the final completion summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(success).
		Render(fmt.Sprintf("%s complete", m.Title))
	b.WriteString(header)
	b.WriteString("\n\n")

	for _, task := range m.Tasks {
		b.WriteString(renderTaskEntry(task, 0))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d processed, %d failed in %s\n",
		m.CompletedTasks, m.FailedTasks, formatElapsed(time.Since(m.StartTime))))

	return b.String()
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
