package dsp

import (
	"math"

	"github.com/linuxmatters/trackpolish/internal/audio"
)

// Saturation tones.
const (
	ToneWarm    = "warm"
	ToneNeutral = "neutral"
)

// midSide rebuilds a stereo buffer with the side signal scaled by sideGain.
func midSide(buf *audio.Buffer, sideGain float64) *audio.Buffer {
	left, right := buf.Samples[0], buf.Samples[1]
	out := buf.ShapeLike()
	outL, outR := out.Samples[0], out.Samples[1]
	for i := range left {
		mid := (left[i] + right[i]) / 2
		side := (left[i] - right[i]) / 2 * sideGain
		outL[i] = mid + side
		outR[i] = mid - side
	}
	return out
}

// StereoWidth scales the side signal by width. Values below 1 narrow the
// image, above 1 widen it. Mono input and width 1 return buf unchanged.
func StereoWidth(buf *audio.Buffer, width float64) *audio.Buffer {
	if !buf.IsStereo() || width == 1.0 {
		return buf
	}
	return midSide(buf, width)
}

// EnhanceStereo widens the image by amount, clamped to 1.
func EnhanceStereo(buf *audio.Buffer, amount float64) *audio.Buffer {
	if !buf.IsStereo() || amount <= 0 {
		return buf
	}
	return midSide(buf, 1+math.Min(amount, 1))
}

// Saturate adds tanh harmonics. drive runs from 0 (bypass) to 1 (heavy);
// the warm tone follows up with a gentle high-shelf cut at 8 kHz.
func Saturate(buf *audio.Buffer, drive float64, tone string) *audio.Buffer {
	if drive <= 0 {
		return buf
	}
	drive = math.Min(drive, 1)
	gain := 1 + drive*4
	norm := math.Tanh(gain)

	out := buf.ShapeLike()
	for ch, data := range buf.Samples {
		dst := out.Samples[ch]
		for i, x := range data {
			dst[i] = math.Tanh(x*gain) / norm
		}
	}

	if tone == ToneWarm {
		out = HighShelf(out, 8000, -1.5*drive)
	}
	return out
}
