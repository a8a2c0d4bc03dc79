// Package analysis measures finished tracks and turns an album's worth of
// measurements into mastering recommendations.
package analysis

import (
	"context"
	"math"
	"path/filepath"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/loudness"
	"github.com/linuxmatters/trackpolish/internal/spectrum"
)

// TinnyThreshold is the high-mid to mid ratio above which a track is
// considered tinny.
const TinnyThreshold = 0.6

// Metrics describes one track.
type Metrics struct {
	Filename   string
	Duration   float64 // seconds
	SampleRate int
	LUFS       float64
	PeakDB     float64
	RMSDB      float64
	// DynamicRange is peak minus RMS in dB.
	DynamicRange float64
	// CrestFactor is the linear peak to RMS ratio, 0 for silence.
	CrestFactor float64
	Bands       map[string]float64 // percent of spectral energy per band
	Tinniness   float64
}

// Tinny reports whether the high mids dominate the mids.
func (m *Metrics) Tinny() bool { return m.Tinniness > TinnyThreshold }

// Lows is sub-bass plus bass.
func (m *Metrics) Lows() float64 { return m.Bands[spectrum.SubBass] + m.Bands[spectrum.Bass] }

// Mids is low-mid plus mid.
func (m *Metrics) Mids() float64 { return m.Bands[spectrum.LowMid] + m.Bands[spectrum.Mid] }

// Highs is high plus air.
func (m *Metrics) Highs() float64 { return m.Bands[spectrum.High] + m.Bands[spectrum.Air] }

// Measure analyses a buffer. Mono input is measured as dual mono. A nil
// meter selects BS.1770.
func Measure(name string, buf *audio.Buffer, meter loudness.Meter) *Metrics {
	if meter == nil {
		meter = loudness.NewBS1770()
	}
	data := buf.ToStereo()

	peak := data.Peak()
	rms := data.RMS()
	m := &Metrics{
		Filename:   name,
		Duration:   data.Duration(),
		SampleRate: data.SampleRate,
		LUFS:       meter.Integrated(data),
		PeakDB:     audio.LinearToDB(peak),
		RMSDB:      audio.LinearToDB(rms),
	}
	m.DynamicRange = m.PeakDB - m.RMSDB
	if rms > 0 {
		m.CrestFactor = peak / rms
	}

	bal := spectrum.Analyze(data.MonoMix(), data.SampleRate)
	m.Bands = bal.Percent
	m.Tinniness = bal.Tinniness()
	return m
}

// AnalyzeFile reads and measures the WAV file at path.
func AnalyzeFile(ctx context.Context, path string, meter loudness.Meter) (*Metrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, _, err := audio.ReadWAV(path)
	if err != nil {
		return nil, err
	}
	return Measure(filepath.Base(path), buf, meter), nil
}

// Album aggregates track metrics. Tracks with unmeasurable loudness are
// kept in Tracks but excluded from the loudness statistics.
type Album struct {
	Tracks      []*Metrics
	AverageLUFS float64
	LUFSRange   float64
	Measured    int
}

// Summarize builds an Album from per-track metrics, ignoring nil entries.
func Summarize(tracks []*Metrics) *Album {
	a := &Album{AverageLUFS: math.Inf(-1)}
	lo, hi := math.Inf(1), math.Inf(-1)
	var sum float64
	for _, m := range tracks {
		if m == nil {
			continue
		}
		a.Tracks = append(a.Tracks, m)
		if !finite(m.LUFS) {
			continue
		}
		a.Measured++
		sum += m.LUFS
		lo = math.Min(lo, m.LUFS)
		hi = math.Max(hi, m.LUFS)
	}
	if a.Measured > 0 {
		a.AverageLUFS = sum / float64(a.Measured)
		a.LUFSRange = hi - lo
	}
	return a
}

func finite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }
