package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/linuxmatters/trackpolish/internal/analysis"
	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/master"
	"github.com/linuxmatters/trackpolish/internal/mix"
	"github.com/linuxmatters/trackpolish/internal/qc"
)

// maxNameWidth truncates long track names in tables.
const maxNameWidth = 34

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(mutedColor)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			s := lipgloss.NewStyle().Padding(0, 1)
			if col > 0 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
}

func truncate(name string) string {
	if len(name) <= maxNameWidth {
		return name
	}
	return name[:maxNameWidth-1] + "…"
}

func db(v float64) string {
	if math.IsInf(v, -1) || math.IsNaN(v) {
		return "-inf"
	}
	return fmt.Sprintf("%.1f", v)
}

func peakDB(linear float64) string {
	return db(audio.LinearToDB(linear))
}

// MixTable renders mix results as Track, Pre Peak, Post Peak in dBFS.
func MixTable(results []*mix.Result) string {
	t := newTable("Track", "Pre Peak", "Post Peak", "Stems")
	for _, r := range results {
		post, stems := peakDB(r.PostPeak), fmt.Sprintf("%d", len(r.Stems))
		switch {
		case r.Skipped:
			post = "skipped"
		case r.DryRun:
			post = "dry run"
		}
		if r.Mode == mix.ModeFullMix {
			stems = "-"
		}
		t.Row(truncate(r.Name), peakDB(r.PrePeak), post, stems)
	}
	return t.String()
}

// MasterTable renders mastering results as Track, Before, After, Gain, Peak.
func MasterTable(results []*master.Result) string {
	t := newTable("Track", "Before", "After", "Gain", "Peak")
	for _, r := range results {
		if r.Skipped {
			t.Row(truncate(r.Name), "silent", "-", "-", "-")
			continue
		}
		t.Row(truncate(r.Name), db(r.OriginalLUFS), db(r.FinalLUFS),
			fmt.Sprintf("%+.1f", r.GainDB), db(r.FinalPeakDB))
	}
	return t.String()
}

// MasterSummary describes the gain and loudness spread of an album.
func MasterSummary(results []*master.Result) string {
	s := master.Summarize(results)
	if s.Tracks == 0 {
		return "No tracks mastered."
	}
	return fmt.Sprintf("%d tracks, gain %+.1f to %+.1f dB, final LUFS range %.1f dB",
		s.Tracks, s.MinGainDB, s.MaxGainDB, s.LUFSRange())
}

// FixSummary renders the dynamics fix outcome for one file.
func FixSummary(name string, m master.FixMetrics) string {
	t := newTable("Track", "Before", "After", "Peak")
	t.Row(truncate(name), db(m.OriginalLUFS), db(m.FinalLUFS), db(m.FinalPeakDB))
	return t.String()
}

// QCTable renders one row per file with a column per requested check.
// Checks that did not run show a dash.
func QCTable(reports []*qc.Report, checks []qc.Check) string {
	headers := []string{"File"}
	for _, c := range checks {
		headers = append(headers, strings.ToUpper(string(c)))
	}
	headers = append(headers, "VERDICT")

	t := newTable(headers...)
	for _, r := range reports {
		row := []string{truncate(r.Filename)}
		for _, c := range checks {
			res, ok := r.Checks[c]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, StatusStyle(res.Status).Render(string(res.Status)))
		}
		row = append(row, StatusStyle(r.Verdict).Render(string(r.Verdict)))
		t.Row(row...)
	}
	return t.String()
}

// QCIssues lists the failing and warning checks with their details.
func QCIssues(reports []*qc.Report) string {
	var sb strings.Builder
	for _, r := range reports {
		for _, c := range r.Issues() {
			res := r.Checks[c]
			sb.WriteString(fmt.Sprintf("%s %s %s: %s %s\n",
				StatusStyle(res.Status).Render(string(res.Status)),
				r.Filename, c, res.Value, KeyStyle.Render(res.Detail)))
		}
	}
	return sb.String()
}

// QCTallyLine summarises verdict counts.
func QCTallyLine(t qc.Tally) string {
	return fmt.Sprintf("%d files: %s, %s, %s", t.Total,
		StatusStyle(qc.Pass).Render(fmt.Sprintf("%d PASS", t.Pass)),
		StatusStyle(qc.Warn).Render(fmt.Sprintf("%d WARN", t.Warn)),
		StatusStyle(qc.Fail).Render(fmt.Sprintf("%d FAIL", t.Fail)))
}

// AnalysisTable renders per-track loudness and tonal balance.
func AnalysisTable(album *analysis.Album) string {
	t := newTable("Track", "LUFS", "Peak", "Crest", "Lows %", "Mids %", "Highs %", "Tinny")
	for _, m := range album.Tracks {
		tinny := fmt.Sprintf("%.2f", m.Tinniness)
		if m.Tinny() {
			tinny = StatusStyle(qc.Warn).Render(tinny)
		}
		t.Row(truncate(m.Filename), db(m.LUFS), db(m.PeakDB), db(m.DynamicRange),
			fmt.Sprintf("%.1f", m.Lows()), fmt.Sprintf("%.1f", m.Mids()), fmt.Sprintf("%.1f", m.Highs()), tinny)
	}
	return t.String()
}
