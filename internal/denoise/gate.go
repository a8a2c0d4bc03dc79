package denoise

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/linuxmatters/trackpolish/internal/audio"
)

// Spectral gate defaults.
const (
	DefaultFrameSize = 2048
	DefaultHopSize   = 512
	DefaultNStd      = 1.5
)

// SpectralGate is a stationary spectral gate. The noise profile of each
// frequency bin is estimated from the signal itself: bins whose level stays
// below mean + NStd standard deviations (in dB) are treated as noise and
// attenuated by strength.
type SpectralGate struct {
	FrameSize int
	HopSize   int
	NStd      float64
	// SmoothFreq and SmoothTime are half-widths (in bins and frames) of the
	// box filter applied to the gate mask.
	SmoothFreq int
	SmoothTime int
}

// NewSpectralGate returns a gate with the default analysis settings.
func NewSpectralGate() *SpectralGate {
	return &SpectralGate{
		FrameSize:  DefaultFrameSize,
		HopSize:    DefaultHopSize,
		NStd:       DefaultNStd,
		SmoothFreq: 2,
		SmoothTime: 2,
	}
}

// Reduce implements NoiseReducer. Each channel is gated independently.
func (g *SpectralGate) Reduce(buf *audio.Buffer, strength float64) *audio.Buffer {
	if strength <= 0 || buf.Frames() < g.FrameSize {
		return buf
	}
	strength = math.Min(strength, 1)

	fft := fourier.NewFFT(g.FrameSize)
	window := hann(g.FrameSize)

	out := &audio.Buffer{Samples: make([][]float64, buf.Channels()), SampleRate: buf.SampleRate}
	for ch, data := range buf.Samples {
		out.Samples[ch] = g.gateChannel(fft, window, data, strength)
	}
	return out
}

func (g *SpectralGate) gateChannel(fft *fourier.FFT, window, x []float64, strength float64) []float64 {
	n := g.FrameSize
	hop := g.HopSize
	bins := n/2 + 1

	// Pad so every input sample is covered by a full set of overlapping frames.
	padded := make([]float64, len(x)+2*n)
	copy(padded[n:], x)
	frames := (len(padded)-n)/hop + 1

	frame := make([]float64, n)
	spectrum := make([]complex128, bins)
	analyse := func(f int) []complex128 {
		start := f * hop
		for i := 0; i < n; i++ {
			frame[i] = padded[start+i] * window[i]
		}
		return fft.Coefficients(spectrum, frame)
	}

	// First pass: per-bin level statistics.
	levels := make([][]float32, frames)
	sum := make([]float64, bins)
	sumSq := make([]float64, bins)
	for f := 0; f < frames; f++ {
		levels[f] = make([]float32, bins)
		for k, c := range analyse(f) {
			db := 20 * math.Log10(cmplx.Abs(c)+1e-10)
			levels[f][k] = float32(db)
			sum[k] += db
			sumSq[k] += db * db
		}
	}
	threshold := make([]float64, bins)
	for k := range threshold {
		mean := sum[k] / float64(frames)
		variance := math.Max(sumSq[k]/float64(frames)-mean*mean, 0)
		threshold[k] = mean + g.NStd*math.Sqrt(variance)
	}

	// Second pass: smoothed mask, attenuation and overlap-add.
	out := make([]float64, len(padded))
	norm := make([]float64, len(padded))
	seq := make([]float64, n)
	scale := 1 / float64(n)
	for f := 0; f < frames; f++ {
		spec := analyse(f)
		for k := range spec {
			m := g.maskAt(levels, threshold, f, k)
			spec[k] *= complex(1-strength*(1-m), 0)
		}
		fft.Sequence(seq, spec)
		start := f * hop
		for i := 0; i < n; i++ {
			out[start+i] += seq[i] * scale * window[i]
			norm[start+i] += window[i] * window[i]
		}
	}

	result := make([]float64, len(x))
	for i := range result {
		j := i + n
		if norm[j] > 1e-8 {
			result[i] = out[j] / norm[j]
		}
	}
	return result
}

// maskAt is the fraction of signal (above-threshold) cells in a box of
// SmoothTime frames by SmoothFreq bins around (f, k).
func (g *SpectralGate) maskAt(levels [][]float32, threshold []float64, f, k int) float64 {
	fLo, fHi := max(0, f-g.SmoothTime), min(len(levels)-1, f+g.SmoothTime)
	kLo, kHi := max(0, k-g.SmoothFreq), min(len(threshold)-1, k+g.SmoothFreq)
	var signal, total int
	for i := fLo; i <= fHi; i++ {
		for j := kLo; j <= kHi; j++ {
			if float64(levels[i][j]) > threshold[j] {
				signal++
			}
			total++
		}
	}
	return float64(signal) / float64(total)
}

// hann returns a periodic Hann window.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
