// Package master normalises finished mixes to a loudness target under a
// peak ceiling, and repairs tracks whose dynamic range keeps them from
// reaching it.
package master

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/dsp"
	"github.com/linuxmatters/trackpolish/internal/loudness"
)

// Defaults for streaming delivery.
const (
	DefaultTargetLUFS = -14.0
	DefaultCeilingDB  = -1.0
)

// DryRunPeakDB is reported as the final peak when nothing was rendered.
const DryRunPeakDB = -1.0

// Options configures a mastering pass.
type Options struct {
	TargetLUFS float64
	EQ         []dsp.EQBand
	CeilingDB  float64
	// Meter measures integrated loudness. Nil selects BS.1770.
	Meter loudness.Meter
}

func (o Options) meter() loudness.Meter {
	if o.Meter == nil {
		return loudness.NewBS1770()
	}
	return o.Meter
}

// Result reports one mastered track. Loudness and peak are -Inf when the
// track was skipped as silent.
type Result struct {
	Name         string
	OutputPath   string
	OriginalLUFS float64
	FinalLUFS    float64
	GainDB       float64
	FinalPeakDB  float64
	Skipped      bool
	DryRun       bool
}

func skipped(name string) *Result {
	return &Result{
		Name:         name,
		OriginalLUFS: math.Inf(-1),
		FinalLUFS:    math.Inf(-1),
		FinalPeakDB:  math.Inf(-1),
		Skipped:      true,
	}
}

// Process masters an in-memory buffer. The returned buffer has the input's
// channel count; mono is processed as dual mono.
func Process(buf *audio.Buffer, opts Options) (*audio.Buffer, *Result) {
	meter := opts.meter()
	wasMono := buf.Channels() == 1

	work := buf.ToStereo()
	work = dsp.ApplyEQ(work, opts.EQ)

	current := meter.Integrated(work)
	if math.IsInf(current, 0) || math.IsNaN(current) {
		return buf, skipped("")
	}

	gainDB := opts.TargetLUFS - current
	work = work.Scale(audio.DBToLinear(gainDB))
	work = dsp.LimitPeaks(work, opts.CeilingDB)

	res := &Result{
		OriginalLUFS: current,
		FinalLUFS:    meter.Integrated(work),
		GainDB:       gainDB,
		FinalPeakDB:  work.PeakDB(),
	}
	if wasMono {
		work = work.FirstChannel()
	}
	return work, res
}

// MasterTrack reads in, masters it and writes PCM16 to out. Silent input is
// reported as skipped and nothing is written.
func MasterTrack(ctx context.Context, in, out string, opts Options) (*Result, error) {
	return masterFile(ctx, in, out, func(*audio.Buffer) Options { return opts })
}

// masterFile reads in, derives the options from the decoded audio and
// renders the mastered track to out.
func masterFile(ctx context.Context, in, out string, plan func(*audio.Buffer) Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := filepath.Base(in)
	buf, _, err := audio.ReadWAV(in)
	if err != nil {
		return nil, err
	}

	mastered, res := Process(buf, plan(buf))
	res.Name = name
	if res.Skipped {
		logrus.WithField("file", name).Warn("audio is silent or near-silent, skipping")
		return res, nil
	}

	if err := audio.WritePCM16(out, mastered); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", out, err)
	}
	res.OutputPath = out
	logrus.WithFields(logrus.Fields{
		"file":        name,
		"before_lufs": res.OriginalLUFS,
		"after_lufs":  res.FinalLUFS,
		"gain_db":     res.GainDB,
	}).Debug("mastered")
	return res, nil
}

// Analyze measures in without rendering. The final loudness is reported as
// the target and the peak as DryRunPeakDB.
func Analyze(ctx context.Context, in string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := filepath.Base(in)
	buf, _, err := audio.ReadWAV(in)
	if err != nil {
		return nil, err
	}

	current := opts.meter().Integrated(buf.ToStereo())
	if math.IsInf(current, 0) || math.IsNaN(current) {
		res := skipped(name)
		res.DryRun = true
		return res, nil
	}
	return &Result{
		Name:         name,
		OriginalLUFS: current,
		FinalLUFS:    opts.TargetLUFS,
		GainDB:       opts.TargetLUFS - current,
		FinalPeakDB:  DryRunPeakDB,
		DryRun:       true,
	}, nil
}

// Summary describes the spread of an album's mastering results.
type Summary struct {
	Tracks    int
	MinGainDB float64
	MaxGainDB float64
	MinLUFS   float64
	MaxLUFS   float64
}

// LUFSRange is the spread of final loudness across tracks.
func (s Summary) LUFSRange() float64 {
	if s.Tracks == 0 {
		return 0
	}
	return s.MaxLUFS - s.MinLUFS
}

// Summarize aggregates results, ignoring skipped tracks and nil entries.
func Summarize(results []*Result) Summary {
	var s Summary
	for _, r := range results {
		if r == nil || r.Skipped {
			continue
		}
		if s.Tracks == 0 {
			s.MinGainDB, s.MaxGainDB = r.GainDB, r.GainDB
			s.MinLUFS, s.MaxLUFS = r.FinalLUFS, r.FinalLUFS
		}
		s.Tracks++
		s.MinGainDB = math.Min(s.MinGainDB, r.GainDB)
		s.MaxGainDB = math.Max(s.MaxGainDB, r.GainDB)
		s.MinLUFS = math.Min(s.MinLUFS, r.FinalLUFS)
		s.MaxLUFS = math.Max(s.MaxLUFS, r.FinalLUFS)
	}
	return s
}
