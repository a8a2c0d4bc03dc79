package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/trackpolish/internal/analysis"
	"github.com/linuxmatters/trackpolish/internal/master"
	"github.com/linuxmatters/trackpolish/internal/mix"
	"github.com/linuxmatters/trackpolish/internal/qc"
)

// ReportFile is the run report name written by GenerateReport.
const ReportFile = "trackpolish-%s.log"

// Failure records a track that could not be processed.
type Failure struct {
	Name string
	Err  error
}

// ReportData contains everything needed to write a run report. Only the
// result slice matching Command is expected to be set.
type ReportData struct {
	Command   string
	InputDir  string
	OutputDir string
	Genre     string
	DryRun    bool
	Workers   int
	StartTime time.Time
	EndTime   time.Time

	Mix      []*mix.Result
	Master   []*master.Result
	QC       []*qc.Report
	Album    *analysis.Album
	Failures []Failure
}

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// GenerateReport writes the run report into dir and returns its path.
//
// Report structure:
// 1. Header - command, directories, timestamp
// 2. Processing Summary - track counts and timing
// 3. Per-track tables for the command that ran
// 4. Failures
func GenerateReport(dir string, data ReportData) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf(ReportFile, data.Command))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	WriteReport(f, data)
	return path, nil
}

// WriteReport renders the report to w.
func WriteReport(w io.Writer, data ReportData) {
	writeReportHeader(w, data)
	writeProcessingSummary(w, data)

	for _, r := range data.Mix {
		writeMixResult(w, r)
	}
	if len(data.Master) > 0 {
		writeMasterResults(w, data.Master)
	}
	if len(data.QC) > 0 {
		writeQCReports(w, data.QC)
	}
	if data.Album != nil {
		DisplayAlbumAnalysis(w, data.Album, analysis.Recommend(data.Album))
	}
	writeFailures(w, data.Failures)
}

func writeReportHeader(w io.Writer, data ReportData) {
	title := "Trackpolish Report"
	if data.Command != "" {
		title = fmt.Sprintf("Trackpolish %s Report", strings.ToUpper(data.Command[:1])+data.Command[1:])
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintf(w, "Input: %s\n", data.InputDir)
	if data.OutputDir != "" {
		fmt.Fprintf(w, "Output: %s\n", data.OutputDir)
	}
	if data.Genre != "" {
		fmt.Fprintf(w, "Genre: %s\n", data.Genre)
	}
	if data.DryRun {
		fmt.Fprintln(w, "Mode: dry run (nothing written)")
	}
	fmt.Fprintf(w, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(w, "")
}

func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	tracks := len(data.Mix) + len(data.Master) + len(data.QC)
	if data.Album != nil {
		tracks += len(data.Album.Tracks)
	}
	fmt.Fprintf(w, "Tracks:   %d processed, %d failed\n", tracks, len(data.Failures))
	fmt.Fprintf(w, "Workers:  %d\n", data.Workers)
	fmt.Fprintf(w, "Total:    %s\n", formatDuration(data.EndTime.Sub(data.StartTime)))
	fmt.Fprintln(w, "")
}

func writeMixResult(w io.Writer, r *mix.Result) {
	writeSection(w, fmt.Sprintf("%s (%s)", r.Name, r.Mode))
	if r.Skipped {
		fmt.Fprintln(w, "Skipped: silent input")
		fmt.Fprintln(w, "")
		return
	}

	if len(r.Stems) > 0 {
		table := NewMetricTable("Files", "Peak In", "Peak Out", "RMS In", "RMS Out")
		for _, s := range r.Stems {
			table.AddRow(string(s.Stage), []string{
				fmt.Sprintf("%d", s.Files),
				formatMetricPeak(s.PrePeak, 1),
				formatMetricPeak(s.PostPeak, 1),
				formatMetricPeak(s.PreRMS, 1),
				formatMetricPeak(s.PostRMS, 1),
			}, "dBFS", "")
		}
		fmt.Fprint(w, table.String())
	}

	table := NewMetricTable()
	table.AddRow("Peak", []string{formatMetricPeak(r.PrePeak, 1), formatMetricPeak(r.PostPeak, 1)}, "dBFS", "")
	table.AddRow("RMS", []string{formatMetricPeak(r.PreRMS, 1), formatMetricPeak(r.PostRMS, 1)}, "dBFS", "")
	fmt.Fprint(w, table.String())

	if r.Bus != nil {
		fmt.Fprintf(w, "Bus compression: %s:1, peak %s dBFS\n",
			formatMetric(r.Bus.Ratio, 1), formatMetricPeak(r.Bus.PostPeak, 1))
	}
	if r.StereoWidth > 0 {
		fmt.Fprintf(w, "Stereo width: %.2f\n", r.StereoWidth)
	}
	if r.OutputPath != "" {
		fmt.Fprintf(w, "Output: %s\n", r.OutputPath)
	}
	fmt.Fprintln(w, "")
}

func writeMasterResults(w io.Writer, results []*master.Result) {
	writeSection(w, "Loudness")
	table := NewMetricTable("Before", "After", "Gain", "Peak")
	for _, r := range results {
		if r.Skipped {
			table.AddRow(r.Name, nil, "", "skipped: silent")
			continue
		}
		table.AddRow(r.Name, []string{
			formatMetricLUFS(r.OriginalLUFS, 1),
			formatMetricLUFS(r.FinalLUFS, 1),
			formatMetricSigned(r.GainDB, 1),
			formatMetricDB(r.FinalPeakDB, 1),
		}, "", "")
	}
	fmt.Fprint(w, table.String())

	s := master.Summarize(results)
	if s.Tracks > 0 {
		fmt.Fprintf(w, "Gain range: %s to %s dB\n", formatMetricSigned(s.MinGainDB, 1), formatMetricSigned(s.MaxGainDB, 1))
		fmt.Fprintf(w, "Final LUFS range: %s\n", formatMetricWithUnit(s.LUFSRange(), 1, "dB"))
	}
	fmt.Fprintln(w, "")
}

func writeQCReports(w io.Writer, reports []*qc.Report) {
	writeSection(w, "QC Checks")
	for _, r := range reports {
		fmt.Fprintf(w, "%s: %s\n", r.Filename, r.Verdict)
		for _, c := range r.Ran() {
			res := r.Checks[c]
			fmt.Fprintf(w, "  [%s] %-9s %-22s %s\n", res.Status, c, res.Value, res.Detail)
		}
	}
	t := qc.Count(reports)
	fmt.Fprintf(w, "\nSummary: %d tracks, %d PASS, %d WARN, %d FAIL\n\n", t.Total, t.Pass, t.Warn, t.Fail)
}

func writeFailures(w io.Writer, failures []Failure) {
	if len(failures) == 0 {
		return
	}
	writeSection(w, "Failures")
	for _, f := range failures {
		fmt.Fprintf(w, "%s: %v\n", f.Name, f.Err)
	}
	fmt.Fprintln(w, "")
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
