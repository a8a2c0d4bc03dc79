package dsp

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/trackpolish/internal/audio"
)

// PeakingEQ boosts or cuts a band centred on freq.
func PeakingEQ(buf *audio.Buffer, freq, gainDB, q float64) *audio.Buffer {
	fields := logrus.Fields{"filter": "peaking_eq", "freq": freq, "gain_db": gainDB, "q": q}
	if !inRange(buf, freq, fields) {
		return buf
	}
	if q <= 0 {
		logrus.WithFields(fields).Warn("Q must be positive, skipping")
		return buf
	}
	if gainDB == 0 {
		return buf
	}
	return applyBiquad(buf, PeakingCoefficients(float64(buf.SampleRate), freq, gainDB, q), fields)
}

// HighShelf boosts or cuts everything above freq.
func HighShelf(buf *audio.Buffer, freq, gainDB float64) *audio.Buffer {
	fields := logrus.Fields{"filter": "high_shelf", "freq": freq, "gain_db": gainDB}
	if !inRange(buf, freq, fields) {
		return buf
	}
	if gainDB == 0 {
		return buf
	}
	return applyBiquad(buf, HighShelfCoefficients(float64(buf.SampleRate), freq, gainDB), fields)
}

// Highpass removes content below cutoff. A cutoff of zero disables the filter.
func Highpass(buf *audio.Buffer, cutoff float64) *audio.Buffer {
	if cutoff <= 0 {
		return buf
	}
	fields := logrus.Fields{"filter": "highpass", "freq": cutoff}
	if !inRange(buf, cutoff, fields) {
		return buf
	}
	return applyBiquad(buf, HighpassCoefficients(float64(buf.SampleRate), cutoff), fields)
}

// Lowpass removes content above cutoff. A cutoff of zero disables the filter.
func Lowpass(buf *audio.Buffer, cutoff float64) *audio.Buffer {
	if cutoff <= 0 {
		return buf
	}
	fields := logrus.Fields{"filter": "lowpass", "freq": cutoff}
	if !inRange(buf, cutoff, fields) {
		return buf
	}
	return applyBiquad(buf, LowpassCoefficients(float64(buf.SampleRate), cutoff), fields)
}

// Notch cuts a narrow band by depthDB. The sign of depthDB is ignored.
func Notch(buf *audio.Buffer, freq, q, depthDB float64) *audio.Buffer {
	return PeakingEQ(buf, freq, -math.Abs(depthDB), q)
}

// EQBand is one parametric peaking stage.
type EQBand struct {
	Freq   float64 `yaml:"freq" json:"freq"`
	GainDB float64 `yaml:"gain_db" json:"gain_db"`
	Q      float64 `yaml:"q" json:"q"`
}

// ApplyEQ runs each band in order.
func ApplyEQ(buf *audio.Buffer, bands []EQBand) *audio.Buffer {
	for _, b := range bands {
		buf = PeakingEQ(buf, b.Freq, b.GainDB, b.Q)
	}
	return buf
}
