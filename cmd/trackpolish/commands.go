package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/trackpolish/internal/analysis"
	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/batch"
	"github.com/linuxmatters/trackpolish/internal/cli"
	"github.com/linuxmatters/trackpolish/internal/config"
	"github.com/linuxmatters/trackpolish/internal/denoise"
	"github.com/linuxmatters/trackpolish/internal/dsp"
	"github.com/linuxmatters/trackpolish/internal/hum"
	"github.com/linuxmatters/trackpolish/internal/logging"
	"github.com/linuxmatters/trackpolish/internal/loudness"
	"github.com/linuxmatters/trackpolish/internal/master"
	"github.com/linuxmatters/trackpolish/internal/mix"
	"github.com/linuxmatters/trackpolish/internal/presets"
	"github.com/linuxmatters/trackpolish/internal/qc"
)

// MixCmd polishes stem folders or full mixes.
type MixCmd struct {
	Path      string `arg:"" optional:"" default:"." help:"Album directory"`
	Genre     string `short:"g" help:"Genre preset, e.g. rock or folk"`
	FullMix   bool   `help:"Process full-mix WAV files instead of stems/<track>/ folders"`
	OutputDir string `default:"polished" help:"Output directory inside the album directory"`
	DryRun    bool   `help:"Measure levels without writing files"`
	Jobs      int    `short:"j" default:"-1" help:"Parallel workers (0 = all CPUs)"`
}

func (c *MixCmd) Run(s *session) error {
	closeLog, err := s.setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	input, err := batch.ResolveDir(c.Path)
	if err != nil {
		return err
	}
	outDir, err := batch.EnsureWithin(input, c.OutputDir)
	if err != nil {
		return err
	}
	store, err := s.loadPresets()
	if err != nil {
		return err
	}
	genre := config.Pick(c.Genre, s.cfg.Genre)
	if genre != "" && !store.HasMixGenre(genre) {
		return fmt.Errorf("%w: %s (available: %s)", presets.ErrUnknownGenre, genre, strings.Join(store.MixGenres(), ", "))
	}

	mixer := &mix.Mixer{
		Store:  store,
		Genre:  genre,
		Env:    mix.Env{Denoiser: denoise.New(true), MainsHz: hum.LocalFrequency()},
		DryRun: c.DryRun,
	}

	mode := "Stems"
	var tasks []batch.Task
	var fn func(context.Context, batch.Task) (*mix.Result, error)
	if c.FullMix {
		mode = "Full Mix"
		files, err := batch.WAVFiles(batch.FullMixSource(input))
		if err != nil {
			return err
		}
		tasks = fileTasks(files, outDir)
		fn = func(ctx context.Context, t batch.Task) (*mix.Result, error) {
			return mixer.MixFull(ctx, t.Input, t.Output)
		}
	} else {
		tracks, err := batch.StemTracks(input)
		if errors.Is(err, batch.ErrNoInputs) {
			return fmt.Errorf("%w: no %s/ directory in %s (use --full-mix for stereo files)", err, batch.StemsDir, input)
		}
		if err != nil {
			return err
		}
		for i, tr := range tracks {
			tasks = append(tasks, batch.Task{Index: i, Name: tr.Name, Input: tr.Path, Output: filepath.Join(outDir, tr.Name+".wav")})
		}
		fn = func(ctx context.Context, t batch.Task) (*mix.Result, error) {
			set, err := mix.DiscoverStems(t.Input)
			if err != nil {
				return nil, err
			}
			return mixer.MixStems(ctx, set, t.Name, t.Output)
		}
	}

	pairs := []string{"Mode", mode, "Output", outDir + "/"}
	if genre != "" {
		pairs = append(pairs, "Genre preset", genre)
	}
	if c.DryRun {
		pairs = append(pairs, "Dry run", "no files will be written")
	}
	cli.PrintSession(os.Stdout, "Mix Polish Session", pairs...)

	if len(tasks) == 0 {
		fmt.Println("No WAV files found.")
		return nil
	}

	start := time.Now()
	jobs := s.jobs(c.Jobs)
	out := execute(s, "Polishing", jobs, tasks, fn, func(r *mix.Result) (string, bool) {
		if r.Skipped {
			return "silent", true
		}
		return fmt.Sprintf("peak %.1f → %.1f dBFS", audio.LinearToDB(r.PrePeak), audio.LinearToDB(r.PostPeak)), false
	})

	results := batch.Values(out)
	fs := failures(out)
	fmt.Println(cli.MixTable(results))
	printFailures(fs)

	writeReport(s, reportDir(outDir, input, c.DryRun), logging.ReportData{
		Command: "mix", InputDir: input, OutputDir: outDir, Genre: genre, DryRun: c.DryRun,
		Workers: batch.Runner{Jobs: jobs}.Workers(len(tasks)), StartTime: start, EndTime: time.Now(),
		Mix: results, Failures: fs,
	})
	return nil
}

// MasterCmd masters every WAV in an album directory.
type MasterCmd struct {
	Path       string   `arg:"" optional:"" default:"." help:"Album directory"`
	Genre      string   `short:"g" help:"Genre preset supplying target and EQ defaults"`
	TargetLUFS *float64 `name:"target-lufs" help:"Target integrated loudness (default: genre preset or -14)"`
	Ceiling    *float64 `help:"True-peak ceiling in dBFS (default: -1)"`
	CutHighmid *float64 `name:"cut-highmid" help:"High-mid cut in dB at 3.5 kHz, e.g. -2"`
	CutHighs   *float64 `name:"cut-highs" help:"High cut in dB at 8 kHz"`
	Reference  string   `short:"r" type:"existingfile" help:"Match loudness and tonal balance to this mastered WAV"`
	OutputDir  string   `default:"mastered" help:"Output directory inside the album directory"`
	DryRun     bool     `help:"Measure loudness without writing files"`
	Jobs       int      `short:"j" default:"-1" help:"Parallel workers (0 = all CPUs)"`
}

// options layers explicit flags over the genre preset.
func (c *MasterCmd) options(preset presets.MasterPreset, ceiling float64) master.Options {
	if c.TargetLUFS != nil {
		preset.TargetLUFS = *c.TargetLUFS
	}
	if c.CutHighmid != nil {
		preset.CutHighmid = *c.CutHighmid
	}
	if c.CutHighs != nil {
		preset.CutHighs = *c.CutHighs
	}
	if c.Ceiling != nil {
		ceiling = *c.Ceiling
	}
	return master.Options{
		TargetLUFS: preset.TargetLUFS,
		EQ:         preset.EQBands(),
		CeilingDB:  ceiling,
		Meter:      loudness.NewBS1770(),
	}
}

func (c *MasterCmd) Run(s *session) error {
	closeLog, err := s.setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	input, err := batch.ResolveDir(c.Path)
	if err != nil {
		return err
	}
	outDir, err := batch.EnsureWithin(input, c.OutputDir)
	if err != nil {
		return err
	}
	store, err := s.loadPresets()
	if err != nil {
		return err
	}
	genre := config.Pick(c.Genre, s.cfg.Genre)
	preset, err := store.Master(genre)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(store.MasterGenres(), ", "))
	}
	opts := c.options(preset, s.cfg.CeilingDB)

	var ref *master.Reference
	if c.Reference != "" {
		if ref, err = master.MeasureReference(c.Reference, opts.Meter); err != nil {
			return err
		}
		opts.TargetLUFS = ref.LUFS
	}

	files, err := batch.WAVFiles(input)
	if err != nil {
		return err
	}
	tasks := fileTasks(withoutFile(files, c.Reference), outDir)

	pairs := []string{
		"Target LUFS", fmt.Sprintf("%.1f", opts.TargetLUFS),
		"Peak ceiling", fmt.Sprintf("%.1f dBTP", opts.CeilingDB),
	}
	if ref != nil {
		pairs = append(pairs, "Reference", ref.Name)
	}
	if genre != "" {
		pairs = append(pairs, "Genre preset", genre)
	}
	for _, b := range opts.EQ {
		pairs = append(pairs, "EQ", fmt.Sprintf("%+.1f dB at %.1f kHz", b.GainDB, b.Freq/1000))
	}
	pairs = append(pairs, "Output", outDir+"/")
	if c.DryRun {
		pairs = append(pairs, "Dry run", "no files will be written")
	}
	cli.PrintSession(os.Stdout, "Mastering Session", pairs...)

	if len(tasks) == 0 {
		fmt.Println("No WAV files found.")
		return nil
	}

	start := time.Now()
	jobs := s.jobs(c.Jobs)
	out := execute(s, "Mastering", jobs, tasks, func(ctx context.Context, t batch.Task) (*master.Result, error) {
		switch {
		case c.DryRun:
			return master.Analyze(ctx, t.Input, opts)
		case ref != nil:
			return master.MatchReference(ctx, t.Input, t.Output, ref, opts)
		default:
			return master.MasterTrack(ctx, t.Input, t.Output, opts)
		}
	}, func(r *master.Result) (string, bool) {
		if r.Skipped {
			return "silent", true
		}
		return fmt.Sprintf("%.1f → %.1f LUFS (%+.1f dB)", r.OriginalLUFS, r.FinalLUFS, r.GainDB), false
	})

	results := batch.Values(out)
	fs := failures(out)
	fmt.Println(cli.MasterTable(results))
	fmt.Println(cli.MasterSummary(results))
	printFailures(fs)

	writeReport(s, reportDir(outDir, input, c.DryRun), logging.ReportData{
		Command: "master", InputDir: input, OutputDir: outDir, Genre: genre, DryRun: c.DryRun,
		Workers: batch.Runner{Jobs: jobs}.Workers(len(tasks)), StartTime: start, EndTime: time.Now(),
		Master: results, Failures: fs,
	})
	return nil
}

// FixCmd runs the dynamics fix on one file.
type FixCmd struct {
	File       string  `arg:"" type:"existingfile" help:"WAV file to fix"`
	Output     string  `short:"o" help:"Output file (default: mastered/<name> beside the input)"`
	TargetLUFS float64 `name:"target-lufs" default:"-14" help:"Target integrated loudness"`
	Ceiling    float64 `default:"-1" help:"Peak ceiling in dBFS"`
	EQFreq     float64 `name:"eq-freq" default:"3500" help:"EQ centre frequency in Hz"`
	EQGain     float64 `name:"eq-gain" default:"-2" help:"EQ gain in dB (0 disables EQ)"`
	EQQ        float64 `name:"eq-q" default:"1.5" help:"EQ Q"`
}

// outputPath resolves -o against the working directory and keeps it inside
// the input file's directory.
func (c *FixCmd) outputPath() (string, error) {
	in, err := filepath.Abs(c.File)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(in)
	if c.Output == "" {
		return filepath.Join(dir, "mastered", filepath.Base(in)), nil
	}
	out, err := filepath.Abs(c.Output)
	if err != nil {
		return "", err
	}
	if _, err := batch.EnsureWithin(dir, filepath.Dir(out)); err != nil {
		return "", err
	}
	return out, nil
}

func (c *FixCmd) Run(s *session) error {
	s.tui = false
	closeLog, err := s.setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	out, err := c.outputPath()
	if err != nil {
		return err
	}
	eq := []dsp.EQBand{}
	if c.EQGain != 0 {
		eq = []dsp.EQBand{{Freq: c.EQFreq, GainDB: c.EQGain, Q: c.EQQ}}
	}

	cli.PrintSession(os.Stdout, "Dynamics Fix",
		"Input", c.File,
		"Target LUFS", fmt.Sprintf("%.1f", c.TargetLUFS),
		"Output", out)

	start := time.Now()
	m, err := master.FixFile(c.File, out, master.FixOptions{
		TargetLUFS: c.TargetLUFS,
		EQ:         eq,
		CeilingDB:  c.Ceiling,
	})
	if err != nil {
		return err
	}
	fmt.Println(cli.FixSummary(filepath.Base(c.File), m))

	writeReport(s, filepath.Dir(out), logging.ReportData{
		Command: "fix", InputDir: filepath.Dir(c.File), OutputDir: filepath.Dir(out), Workers: 1,
		StartTime: start, EndTime: time.Now(),
		Master: []*master.Result{{
			Name: filepath.Base(c.File), OutputPath: out,
			OriginalLUFS: m.OriginalLUFS, FinalLUFS: m.FinalLUFS,
			GainDB: m.FinalLUFS - m.OriginalLUFS, FinalPeakDB: m.FinalPeakDB,
		}},
	})
	return nil
}

// QCCmd runs technical checks on finished tracks.
type QCCmd struct {
	Path   string `arg:"" optional:"" default:"." help:"Directory containing WAV files"`
	Checks string `help:"Comma-separated checks to run (default: all). Options: format,mono,phase,clipping,clicks,silence,spectral"`
	JSON   bool   `name:"json" help:"Print reports as JSON"`
	Jobs   int    `short:"j" default:"-1" help:"Parallel workers (0 = all CPUs)"`
}

func (c *QCCmd) Run(s *session) error {
	if c.JSON {
		s.tui = false
	}
	closeLog, err := s.setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	input, err := batch.ResolveDir(c.Path)
	if err != nil {
		return err
	}
	checks, err := qc.ParseChecks(c.Checks)
	if err != nil {
		return err
	}
	files, err := batch.WAVFiles(input)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no WAV files in %s", batch.ErrNoInputs, input)
	}
	tasks := fileTasks(files, "")

	start := time.Now()
	jobs := s.jobs(c.Jobs)
	out := execute(s, "QC scanning", jobs, tasks, func(_ context.Context, t batch.Task) (*qc.Report, error) {
		return qc.Run(t.Input, checks)
	}, func(r *qc.Report) (string, bool) {
		return string(r.Verdict), false
	})

	reports := batch.Values(out)
	fs := failures(out)
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	cli.PrintSession(os.Stdout, "Audio QC Checks", "Directory", input)
	fmt.Println(cli.QCTable(reports, checks))
	fmt.Println(cli.QCTallyLine(qc.Count(reports)))
	if issues := cli.QCIssues(reports); issues != "" {
		fmt.Printf("\nIssues\n%s", issues)
	}
	printFailures(fs)

	writeReport(s, input, logging.ReportData{
		Command: "qc", InputDir: input,
		Workers: batch.Runner{Jobs: jobs}.Workers(len(tasks)), StartTime: start, EndTime: time.Now(),
		QC: reports, Failures: fs,
	})
	return nil
}

// AnalyzeCmd measures an album and prints mastering recommendations.
type AnalyzeCmd struct {
	Path string `arg:"" optional:"" default:"." help:"Directory containing WAV files"`
	Jobs int    `short:"j" default:"-1" help:"Parallel workers (0 = all CPUs)"`
}

func (c *AnalyzeCmd) Run(s *session) error {
	closeLog, err := s.setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	input, err := batch.ResolveDir(c.Path)
	if err != nil {
		return err
	}
	files, err := batch.WAVFiles(input)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No WAV files found.")
		return nil
	}
	tasks := fileTasks(files, "")

	start := time.Now()
	jobs := s.jobs(c.Jobs)
	meter := loudness.NewBS1770()
	out := execute(s, "Analyzing", jobs, tasks, func(ctx context.Context, t batch.Task) (*analysis.Metrics, error) {
		return analysis.AnalyzeFile(ctx, t.Input, meter)
	}, func(m *analysis.Metrics) (string, bool) {
		return fmt.Sprintf("%.1f LUFS", m.LUFS), false
	})

	album := analysis.Summarize(batch.Values(out))
	fs := failures(out)

	cli.PrintSession(os.Stdout, "Track Analysis for Mastering", "Directory", input)
	fmt.Println(cli.AnalysisTable(album))
	logging.DisplayAlbumAnalysis(os.Stdout, album, analysis.Recommend(album))
	printFailures(fs)

	writeReport(s, input, logging.ReportData{
		Command: "analyze", InputDir: input,
		Workers: batch.Runner{Jobs: jobs}.Workers(len(tasks)), StartTime: start, EndTime: time.Now(),
		Album: album, Failures: fs,
	})
	return nil
}

// withoutFile drops the reference track from an album listing.
func withoutFile(files []string, path string) []string {
	if path == "" {
		return files
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return files
	}
	var kept []string
	for _, f := range files {
		if fa, err := filepath.Abs(f); err == nil && fa == abs {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// reportDir is the output directory, or the input when a dry run wrote
// nothing.
func reportDir(outDir, input string, dryRun bool) string {
	if dryRun {
		return input
	}
	return outDir
}
