// Package dsp implements the offline signal-processing primitives used by the
// mixing and mastering chains: biquad filters, dynamics, click repair and
// stereo tools. Every function takes a buffer and returns a buffer with the
// same shape; when a stage has nothing to do it returns its input pointer
// unchanged.
package dsp

import (
	"math"
	"math/cmplx"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/trackpolish/internal/audio"
)

// MinFilterFreq is the lowest design frequency accepted by the filter bank.
const MinFilterFreq = 20.0

// Coefficients is a biquad normalised so that a0 == 1.
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

func normalise(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	return Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

// Poles returns the roots of the denominator z^2 + A1*z + A2.
func (c Coefficients) Poles() (complex128, complex128) {
	disc := cmplx.Sqrt(complex(c.A1*c.A1-4*c.A2, 0))
	a1 := complex(c.A1, 0)
	return (-a1 + disc) / 2, (-a1 - disc) / 2
}

// Stable reports whether every pole lies strictly inside the unit circle and
// all coefficients are finite.
func (c Coefficients) Stable() bool {
	for _, v := range []float64{c.B0, c.B1, c.B2, c.A1, c.A2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	p1, p2 := c.Poles()
	return cmplx.Abs(p1) < 1.0 && cmplx.Abs(p2) < 1.0
}

// Filter runs the biquad over x in Direct Form I with zero initial state.
func (c Coefficients) Filter(x []float64) []float64 {
	y := make([]float64, len(x))
	var x1, x2, y1, y2 float64
	for i, in := range x {
		out := c.B0*in + c.B1*x1 + c.B2*x2 - c.A1*y1 - c.A2*y2
		x2, x1 = x1, in
		y2, y1 = y1, out
		y[i] = out
	}
	return y
}

// PeakingCoefficients designs a cookbook peaking EQ.
func PeakingCoefficients(rate, freq, gainDB, q float64) Coefficients {
	A := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / rate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)

	return normalise(
		1+alpha*A,
		-2*cosW0,
		1-alpha*A,
		1+alpha/A,
		-2*cosW0,
		1-alpha/A,
	)
}

// HighShelfCoefficients designs a cookbook high shelf with a fixed slope.
func HighShelfCoefficients(rate, freq, gainDB float64) Coefficients {
	A := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / rate
	alpha := math.Sin(w0) / 2 * math.Sqrt(2)
	cosW0 := math.Cos(w0)
	sqrtA := math.Sqrt(A)

	return normalise(
		A*((A+1)+(A-1)*cosW0+2*sqrtA*alpha),
		-2*A*((A-1)+(A+1)*cosW0),
		A*((A+1)+(A-1)*cosW0-2*sqrtA*alpha),
		(A+1)-(A-1)*cosW0+2*sqrtA*alpha,
		2*((A-1)-(A+1)*cosW0),
		(A+1)-(A-1)*cosW0-2*sqrtA*alpha,
	)
}

// HighpassCoefficients designs a 2nd-order Butterworth highpass.
func HighpassCoefficients(rate, cutoff float64) Coefficients {
	w0 := 2 * math.Pi * cutoff / rate
	alpha := math.Sin(w0) / math.Sqrt2
	cosW0 := math.Cos(w0)

	return normalise(
		(1+cosW0)/2,
		-(1 + cosW0),
		(1+cosW0)/2,
		1+alpha,
		-2*cosW0,
		1-alpha,
	)
}

// LowpassCoefficients designs a 2nd-order Butterworth lowpass.
func LowpassCoefficients(rate, cutoff float64) Coefficients {
	w0 := 2 * math.Pi * cutoff / rate
	alpha := math.Sin(w0) / math.Sqrt2
	cosW0 := math.Cos(w0)

	return normalise(
		(1-cosW0)/2,
		1-cosW0,
		(1-cosW0)/2,
		1+alpha,
		-2*cosW0,
		1-alpha,
	)
}

// applyBiquad filters each channel independently with the same coefficients.
// Unstable designs leave the buffer untouched.
func applyBiquad(buf *audio.Buffer, c Coefficients, fields logrus.Fields) *audio.Buffer {
	if !c.Stable() {
		logrus.WithFields(fields).Warn("unstable filter design, skipping")
		return buf
	}
	out := &audio.Buffer{Samples: make([][]float64, buf.Channels()), SampleRate: buf.SampleRate}
	for ch, data := range buf.Samples {
		out.Samples[ch] = c.Filter(data)
	}
	return out
}

// inRange checks the design frequency against [MinFilterFreq, nyquist).
func inRange(buf *audio.Buffer, freq float64, fields logrus.Fields) bool {
	nyquist := float64(buf.SampleRate) / 2
	if freq >= MinFilterFreq && freq < nyquist {
		return true
	}
	fields["nyquist"] = nyquist
	logrus.WithFields(fields).Warn("filter frequency out of range, skipping")
	return false
}
