package logging

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linuxmatters/trackpolish/internal/analysis"
	"github.com/linuxmatters/trackpolish/internal/master"
	"github.com/linuxmatters/trackpolish/internal/mix"
	"github.com/linuxmatters/trackpolish/internal/qc"
	"github.com/sirupsen/logrus"
)

func baseReport(command string) ReportData {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return ReportData{
		Command:   command,
		InputDir:  "/music/album",
		OutputDir: "/music/album/mastered",
		Genre:     "rock",
		Workers:   4,
		StartTime: start,
		EndTime:   start.Add(95 * time.Second),
	}
}

func assertContains(t *testing.T, output string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestWriteReportMaster(t *testing.T) {
	data := baseReport("master")
	data.Master = []*master.Result{
		{Name: "01-intro.wav", OriginalLUFS: -18.2, FinalLUFS: -14.0, GainDB: 4.2, FinalPeakDB: -1.0},
		{Name: "02-silence.wav", Skipped: true},
	}
	data.Failures = []Failure{{Name: "03-broken.wav", Err: errors.New("invalid WAV header")}}

	var buf bytes.Buffer
	WriteReport(&buf, data)

	assertContains(t, buf.String(),
		"Trackpolish Master Report",
		"Genre: rock",
		"Tracks:   2 processed, 1 failed",
		"Total:    1m 35s",
		"-18.2", "+4.2",
		"skipped: silent",
		"Final LUFS range: 0.0 dB",
		"03-broken.wav: invalid WAV header",
	)
}

func TestWriteReportMix(t *testing.T) {
	data := baseReport("mix")
	data.DryRun = true
	data.Mix = []*mix.Result{{
		Mode:     mix.ModeStems,
		Name:     "01-intro",
		Stems:    []mix.StemResult{{Stage: "drums", Files: 2, PrePeak: 0.5, PostPeak: 0.25, PreRMS: 0.1, PostRMS: 0.1}},
		Bus:      &mix.BusCompression{Ratio: 2, PostPeak: 0.9},
		PrePeak:  1.0,
		PostPeak: 0.5,
		PreRMS:   0.1,
		PostRMS:  0.05,
	}}

	var buf bytes.Buffer
	WriteReport(&buf, data)

	assertContains(t, buf.String(),
		"Mode: dry run",
		"01-intro (stems)",
		"drums", "-6.0", "-12.0",
		"Bus compression: 2.0:1, peak -0.9 dBFS",
	)
}

func TestWriteReportQC(t *testing.T) {
	data := baseReport("qc")
	data.QC = []*qc.Report{{
		Filename: "01-intro.wav",
		Checks: map[qc.Check]qc.Result{
			qc.Format:   {Status: qc.Pass, Value: "PCM_16 44100Hz 2ch"},
			qc.Clipping: {Status: qc.Fail, Value: "4 regions", Detail: "Clipping detected"},
		},
		Verdict: qc.Fail,
	}}

	var buf bytes.Buffer
	WriteReport(&buf, data)

	output := buf.String()
	assertContains(t, output,
		"01-intro.wav: FAIL",
		"[FAIL] clipping",
		"Summary: 1 tracks, 0 PASS, 0 WARN, 1 FAIL",
	)
	if strings.Index(output, "format") > strings.Index(output, "clipping") {
		t.Error("checks should be listed in report order")
	}
}

func TestWriteReportAnalyze(t *testing.T) {
	data := baseReport("analyze")
	data.Album = analysis.Summarize([]*analysis.Metrics{
		{Filename: "a.wav", Duration: 200, LUFS: -14, PeakDB: -0.5, RMSDB: -18, Bands: map[string]float64{"mid": 40}, Tinniness: 0.9},
		{Filename: "b.wav", Duration: 45, LUFS: -20, PeakDB: -6, RMSDB: -24},
	})

	var buf bytes.Buffer
	WriteReport(&buf, data)

	assertContains(t, buf.String(),
		"ALBUM ANALYSIS: 2 tracks",
		"Average:        -17.0 LUFS",
		"3m 20s", "45.0s",
		"tinny",
		"album: LUFS range across album is 6.0 dB",
	)
}

func TestGenerateReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := GenerateReport(dir, baseReport("qc"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "trackpolish-qc.log" {
		t.Errorf("report path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, string(data), "Trackpolish Qc Report", "Input: /music/album")
}

func TestDisplayAlbumAnalysisSilentTrack(t *testing.T) {
	album := analysis.Summarize([]*analysis.Metrics{
		{Filename: "quiet.wav", LUFS: math.Inf(-1), PeakDB: math.Inf(-1), RMSDB: math.Inf(-1)},
	})

	var buf bytes.Buffer
	DisplayAlbumAnalysis(&buf, album, analysis.Recommend(album))

	output := buf.String()
	assertContains(t, output, "< -70", "< -120", "quiet.wav: Track is silent")
	if strings.Contains(output, "Average:") {
		t.Error("an album with no measurable tracks should not report an average")
	}
}

func TestDisplayAlbumAnalysisNoRecommendations(t *testing.T) {
	album := analysis.Summarize([]*analysis.Metrics{
		{Filename: "a.wav", LUFS: -14, PeakDB: -3, RMSDB: -15, CrestFactor: 3},
	})

	var buf bytes.Buffer
	DisplayAlbumAnalysis(&buf, album, nil)
	assertContains(t, buf.String(), "None, the album is consistent.")
}

func TestWrapText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"fits", "short line", 20, []string{"short line"}},
		{"wraps", "one two three four", 9, []string{"one two", "three", "four"}},
		{"long_word", "supercalifragilistic word", 5, []string{"supercalifragilistic", "word"}},
		{"empty", "", 10, []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{125 * time.Second, "2m 5s"},
		{3725 * time.Second, "1h 2m 5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestSetup(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)
	defer logrus.SetLevel(logrus.InfoLevel)

	tests := []struct {
		name string
		opts Options
		want logrus.Level
	}{
		{"default", Options{}, logrus.InfoLevel},
		{"verbose", Options{Verbose: true}, logrus.DebugLevel},
		{"quiet", Options{Quiet: true}, logrus.WarnLevel},
		{"verbose_wins", Options{Verbose: true, Quiet: true}, logrus.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Setup(tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			defer c.Close()
			if logrus.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", logrus.GetLevel(), tt.want)
			}
		})
	}
}

func TestSetupFile(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)

	path := filepath.Join(t.TempDir(), "debug.log")
	c, err := Setup(Options{File: path})
	if err != nil {
		t.Fatal(err)
	}
	logrus.Warn("written to file")
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file = %q", data)
	}
}

func TestSetupWriter(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)

	var buf bytes.Buffer
	c, err := Setup(Options{Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	logrus.Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("writer output = %q", buf.String())
	}
}
