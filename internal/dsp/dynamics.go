package dsp

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/trackpolish/internal/audio"
)

// envelopeFloor keeps the dB conversion of the envelope finite.
const envelopeFloor = 1e-10

// SoftClip passes samples at or below threshold and bends anything above it
// with a tanh knee that approaches 1.0 asymptotically. Sign is preserved.
func SoftClip(buf *audio.Buffer, threshold float64) *audio.Buffer {
	if threshold <= 0 {
		logrus.WithField("threshold", threshold).Warn("soft clip threshold must be positive, skipping")
		return buf
	}
	if buf.Peak() <= threshold {
		return buf
	}

	out := buf.ShapeLike()
	for ch, data := range buf.Samples {
		dst := out.Samples[ch]
		for i, x := range data {
			a := math.Abs(x)
			if a <= threshold {
				dst[i] = x
				continue
			}
			var y float64
			if threshold >= 1 {
				y = 1
			} else {
				y = threshold + (1-threshold)*math.Tanh((a-threshold)/(1-threshold))
			}
			dst[i] = math.Copysign(y, x)
		}
	}
	return out
}

// LimitPeaks pulls the whole buffer down so its peak sits at ceilingDB, then
// soft clips at the same ceiling to catch any residual overshoot.
func LimitPeaks(buf *audio.Buffer, ceilingDB float64) *audio.Buffer {
	ceiling := audio.DBToLinear(ceilingDB)
	if peak := buf.Peak(); peak > ceiling {
		buf = buf.Scale(ceiling / peak)
	}
	return SoftClip(buf, ceiling)
}

// CompressorParams configures Compress.
type CompressorParams struct {
	ThresholdDB float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
}

// smoothingCoef converts a time constant to a one-pole coefficient.
// Non-positive times give an instantaneous follower.
func smoothingCoef(rate int, ms float64) float64 {
	if ms <= 0 || rate <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (float64(rate) * ms / 1000.0))
}

// Compress applies a feed-forward compressor with an independent envelope
// follower per channel. Ratios at or below 1:1 bypass the stage entirely.
func Compress(buf *audio.Buffer, p CompressorParams) *audio.Buffer {
	if p.Ratio <= 1.0 {
		return buf
	}

	thresholdLinear := audio.DBToLinear(p.ThresholdDB)
	thresholdDB := 20 * math.Log10(math.Max(thresholdLinear, envelopeFloor))
	attack := smoothingCoef(buf.SampleRate, p.AttackMs)
	release := smoothingCoef(buf.SampleRate, p.ReleaseMs)
	slope := 1 - 1/p.Ratio

	out := buf.ShapeLike()
	for ch, data := range buf.Samples {
		dst := out.Samples[ch]
		env := 0.0
		for i, x := range data {
			a := math.Abs(x)
			if a > env {
				env = attack*env + (1-attack)*a
			} else {
				env = release*env + (1-release)*a
			}
			if env <= thresholdLinear {
				dst[i] = x
				continue
			}
			excess := 20*math.Log10(math.Max(env, envelopeFloor)) - thresholdDB
			dst[i] = x * math.Pow(10, -excess*slope/20)
		}
	}
	return out
}

// CompressLinked is a stereo-linked compressor driven by the per-frame
// maximum across channels. Gain is computed in the linear domain so the
// envelope above threshold is divided down by ratio.
func CompressLinked(buf *audio.Buffer, p CompressorParams) *audio.Buffer {
	if p.Ratio <= 1.0 || buf.Frames() == 0 {
		return buf
	}

	threshold := audio.DBToLinear(p.ThresholdDB)
	attackCoef := linkedCoef(buf.SampleRate, p.AttackMs)
	releaseCoef := linkedCoef(buf.SampleRate, p.ReleaseMs)

	frames := buf.Frames()
	gain := make([]float64, frames)
	env := 0.0
	gain[0] = 1
	for i := 1; i < frames; i++ {
		level := 0.0
		for _, data := range buf.Samples {
			if a := math.Abs(data[i]); a > level {
				level = a
			}
		}
		coef := releaseCoef
		if level > env {
			coef = attackCoef
		}
		env += coef * (level - env)
		gain[i] = 1
		if env > threshold {
			gain[i] = (threshold + (env-threshold)/p.Ratio) / env
		}
	}

	out := buf.ShapeLike()
	for ch, data := range buf.Samples {
		dst := out.Samples[ch]
		for i, x := range data {
			dst[i] = x * gain[i]
		}
	}
	return out
}

// linkedCoef is the 1-exp(-1/samples) smoothing step used by CompressLinked.
func linkedCoef(rate int, ms float64) float64 {
	samples := int(ms * float64(rate) / 1000)
	if samples < 1 {
		return 1
	}
	return 1 - math.Exp(-1/float64(samples))
}
