// Package spectrum estimates power spectral density and band energy balance.
package spectrum

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// DefaultSegment is the Welch segment length in samples.
const DefaultSegment = 8192

// Band is a frequency range, lower edge inclusive.
type Band struct {
	Name string
	Low  float64
	High float64
}

// Band names.
const (
	SubBass = "sub_bass"
	Bass    = "bass"
	LowMid  = "low_mid"
	Mid     = "mid"
	HighMid = "high_mid"
	High    = "high"
	Air     = "air"
)

// Bands are the seven analysis bands in ascending order.
var Bands = []Band{
	{SubBass, 20, 60},
	{Bass, 60, 250},
	{LowMid, 250, 500},
	{Mid, 500, 2000},
	{HighMid, 2000, 6000},
	{High, 6000, 12000},
	{Air, 12000, 20000},
}

// PSD is a one-sided power spectral density.
type PSD struct {
	Freqs []float64
	Power []float64
}

// Welch estimates the PSD of x with a periodic Hann window, 50% overlap,
// per-segment mean removal and density scaling. Segments shorter than
// DefaultSegment are used when x is short.
func Welch(x []float64, rate int) PSD {
	n := min(DefaultSegment, len(x))
	if n == 0 || rate <= 0 {
		return PSD{}
	}
	step := n - n/2
	segments := (len(x)-n)/step + 1

	window := make([]float64, n)
	var winSq float64
	for i := range window {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
		winSq += window[i] * window[i]
	}
	scale := 1 / (float64(rate) * winSq)

	fft := fourier.NewFFT(n)
	bins := n/2 + 1
	power := make([]float64, bins)
	seg := make([]float64, n)
	coeffs := make([]complex128, bins)
	for s := 0; s < segments; s++ {
		chunk := x[s*step : s*step+n]
		var m float64
		for _, v := range chunk {
			m += v
		}
		m /= float64(n)
		for i, v := range chunk {
			seg[i] = (v - m) * window[i]
		}
		coeffs = fft.Coefficients(coeffs, seg)
		for k, c := range coeffs {
			a := cmplx.Abs(c)
			power[k] += a * a * scale
		}
	}

	freqs := make([]float64, bins)
	for k := range power {
		power[k] /= float64(segments)
		// One-sided: double everything except DC and an even-length Nyquist bin.
		if k != 0 && !(n%2 == 0 && k == bins-1) {
			power[k] *= 2
		}
		freqs[k] = float64(k) * float64(rate) / float64(n)
	}
	return PSD{Freqs: freqs, Power: power}
}

// Balance is the share of total spectral energy per band, in percent.
type Balance struct {
	Percent map[string]float64
	Total   float64
}

// BandBalance sums the PSD into Bands as percentages of the total power
// (including energy outside the seven bands).
func BandBalance(p PSD) Balance {
	b := Balance{Percent: make(map[string]float64, len(Bands))}
	for _, v := range p.Power {
		b.Total += v
	}
	for _, band := range Bands {
		var e float64
		for k, f := range p.Freqs {
			if f >= band.Low && f < band.High {
				e += p.Power[k]
			}
		}
		if b.Total > 0 {
			b.Percent[band.Name] = e / b.Total * 100
		} else {
			b.Percent[band.Name] = 0
		}
	}
	return b
}

// Analyze is Welch followed by BandBalance.
func Analyze(x []float64, rate int) Balance {
	return BandBalance(Welch(x, rate))
}

// Tinniness is the high-mid to mid energy ratio, 0 when mid is empty.
func (b Balance) Tinniness() float64 {
	if b.Percent[Mid] <= 0 {
		return 0
	}
	return b.Percent[HighMid] / b.Percent[Mid]
}

// Lows is sub-bass plus bass.
func (b Balance) Lows() float64 { return b.Percent[SubBass] + b.Percent[Bass] }

// Mids is low-mid plus mid.
func (b Balance) Mids() float64 { return b.Percent[LowMid] + b.Percent[Mid] }

// Highs is high plus air.
func (b Balance) Highs() float64 { return b.Percent[High] + b.Percent[Air] }
