package master

import (
	"fmt"
	"math"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/dsp"
	"github.com/linuxmatters/trackpolish/internal/loudness"
)

// DefaultFixEQ tames the upper mids before compression.
var DefaultFixEQ = []dsp.EQBand{{Freq: 3500, GainDB: -2.0, Q: 1.5}}

// FixCompressor is the linked compressor used by FixDynamic.
var FixCompressor = dsp.CompressorParams{
	ThresholdDB: -12,
	Ratio:       2.5,
	AttackMs:    10,
	ReleaseMs:   100,
}

// FixOptions configures FixDynamic.
type FixOptions struct {
	TargetLUFS float64
	// EQ runs before compression. Nil selects DefaultFixEQ; an empty
	// non-nil slice disables EQ.
	EQ        []dsp.EQBand
	CeilingDB float64
	Meter     loudness.Meter
}

// FixMetrics reports the loudness before and after FixDynamic.
type FixMetrics struct {
	OriginalLUFS float64
	FinalLUFS    float64
	FinalPeakDB  float64
}

// FixDynamic brings a track with too much dynamic range to the target:
// EQ, linked compression, normalisation when the loudness is measurable,
// a uniform pull down to the ceiling and a final soft clip.
func FixDynamic(buf *audio.Buffer, opts FixOptions) (*audio.Buffer, FixMetrics) {
	meter := opts.Meter
	if meter == nil {
		meter = loudness.NewBS1770()
	}
	eq := opts.EQ
	if eq == nil {
		eq = DefaultFixEQ
	}

	m := FixMetrics{OriginalLUFS: meter.Integrated(buf)}

	out := dsp.ApplyEQ(buf, eq)
	out = dsp.CompressLinked(out, FixCompressor)

	if lufs := meter.Integrated(out); !math.IsInf(lufs, 0) && !math.IsNaN(lufs) {
		out = out.Scale(audio.DBToLinear(opts.TargetLUFS - lufs))
	}

	out = dsp.LimitPeaks(out, opts.CeilingDB)

	m.FinalLUFS = meter.Integrated(out)
	m.FinalPeakDB = out.PeakDB()
	return out, m
}

// FixFile runs FixDynamic over in and writes the stereo result to out.
func FixFile(in, out string, opts FixOptions) (FixMetrics, error) {
	buf, _, err := audio.ReadWAV(in)
	if err != nil {
		return FixMetrics{}, err
	}
	fixed, m := FixDynamic(buf.ToStereo(), opts)
	if err := audio.WritePCM16(out, fixed); err != nil {
		return FixMetrics{}, fmt.Errorf("failed to write %s: %w", out, err)
	}
	return m, nil
}
