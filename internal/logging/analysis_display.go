// This file provides console display for the album analysis command.

package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/linuxmatters/trackpolish/internal/analysis"
	"github.com/linuxmatters/trackpolish/internal/spectrum"
)

// wrapWidth is the column at which recommendation text wraps.
const wrapWidth = 70

// DisplayAlbumAnalysis writes per-track measurements, the album loudness
// summary and prioritised recommendations.
func DisplayAlbumAnalysis(w io.Writer, album *analysis.Album, recs []analysis.Recommendation) {
	fmt.Fprintln(w, strings.Repeat("=", wrapWidth))
	fmt.Fprintf(w, "ALBUM ANALYSIS: %d tracks\n", len(album.Tracks))
	fmt.Fprintln(w, strings.Repeat("=", wrapWidth))
	fmt.Fprintln(w)

	writeAnalysisSection(w, "LOUDNESS")
	table := NewMetricTable("LUFS", "Peak", "RMS", "Crest", "Length")
	for _, m := range album.Tracks {
		table.AddRow(m.Filename, []string{
			formatMetricLUFS(m.LUFS, 1),
			formatMetricDB(m.PeakDB, 1),
			formatMetricDB(m.RMSDB, 1),
			formatMetric(m.DynamicRange, 1),
			formatDurationHMS(m.Duration),
		}, "", loudnessNote(m, album))
	}
	fmt.Fprint(w, table.String())
	if album.Measured > 0 {
		fmt.Fprintf(w, "  Average:        %.1f LUFS\n", album.AverageLUFS)
		fmt.Fprintf(w, "  Range:          %.1f dB\n", album.LUFSRange)
	}
	fmt.Fprintln(w)

	writeAnalysisSection(w, "SPECTRAL BALANCE")
	headers := make([]string, len(spectrum.Bands))
	for i, b := range spectrum.Bands {
		headers[i] = b.Name
	}
	spectral := NewMetricTable(append(headers, "tinny")...)
	for _, m := range album.Tracks {
		values := make([]float64, 0, len(headers)+1)
		for _, b := range spectrum.Bands {
			values = append(values, m.Bands[b.Name])
		}
		values = append(values, m.Tinniness)
		interp := ""
		if m.Tinny() {
			interp = "tinny"
		}
		spectral.AddMetricRow(m.Filename, values, 1, "", interp)
	}
	fmt.Fprint(w, spectral.String())
	fmt.Fprintln(w)

	writeAnalysisSection(w, "RECOMMENDATIONS")
	if len(recs) == 0 {
		fmt.Fprintln(w, "  None, the album is consistent.")
		return
	}
	for _, r := range recs {
		target := r.Track
		if target == "" {
			target = "album"
		}
		prefix := fmt.Sprintf("  [%2d] %s: ", r.Priority, target)
		lines := wrapText(r.Message, wrapWidth-len(prefix))
		fmt.Fprintln(w, prefix+lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintln(w, strings.Repeat(" ", len(prefix))+l)
		}
	}
}

func loudnessNote(m *analysis.Metrics, album *analysis.Album) string {
	if album.Measured == 0 || m.LUFS < LUFSMeasurementFloor {
		return ""
	}
	switch diff := m.LUFS - album.AverageLUFS; {
	case diff > analysis.LoudnessSpread:
		return "loud"
	case diff < -analysis.LoudnessSpread:
		return "quiet"
	}
	return ""
}

// writeAnalysisSection writes a section header for analysis output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

// wrapText splits s into lines no longer than width, breaking on spaces.
// A single word longer than width gets its own line.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}

// formatDurationHMS formats duration as "Xh Ym Zs" or "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}
