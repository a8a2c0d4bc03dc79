// Package loudness measures integrated loudness per ITU-R BS.1770-4.
package loudness

import (
	"math"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/dsp"
)

// Meter returns integrated loudness in LUFS. Silent input and input shorter
// than one gating block measure as -Inf.
type Meter interface {
	Integrated(buf *audio.Buffer) float64
}

// Gating parameters.
const (
	BlockSeconds     = 0.4
	BlockOverlap     = 0.75
	AbsoluteGateLUFS = -70.0
	RelativeGateLU   = -10.0
)

// BS1770 is the K-weighted, gated integrated loudness meter.
type BS1770 struct{}

// NewBS1770 returns a BS.1770 meter.
func NewBS1770() *BS1770 {
	return &BS1770{}
}

// kWeighting returns the two-stage pre-filter: a +4 dB high shelf modelling
// the head, then the RLB highpass.
func kWeighting(rate float64) [2]dsp.Coefficients {
	return [2]dsp.Coefficients{
		shelf(rate, 1500, 4.0, 1/math.Sqrt2),
		highpass(rate, 38, 0.5),
	}
}

func shelf(rate, fc, gainDB, q float64) dsp.Coefficients {
	A := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * fc / rate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)
	sqrtA := math.Sqrt(A)

	a0 := (A + 1) - (A-1)*cosW0 + 2*sqrtA*alpha
	return dsp.Coefficients{
		B0: A * ((A + 1) + (A-1)*cosW0 + 2*sqrtA*alpha) / a0,
		B1: -2 * A * ((A - 1) + (A+1)*cosW0) / a0,
		B2: A * ((A + 1) + (A-1)*cosW0 - 2*sqrtA*alpha) / a0,
		A1: 2 * ((A - 1) - (A+1)*cosW0) / a0,
		A2: ((A + 1) - (A-1)*cosW0 - 2*sqrtA*alpha) / a0,
	}
}

func highpass(rate, fc, q float64) dsp.Coefficients {
	w0 := 2 * math.Pi * fc / rate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)

	a0 := 1 + alpha
	return dsp.Coefficients{
		B0: (1 + cosW0) / 2 / a0,
		B1: -(1 + cosW0) / a0,
		B2: (1 + cosW0) / 2 / a0,
		A1: -2 * cosW0 / a0,
		A2: (1 - alpha) / a0,
	}
}

// Integrated implements Meter.
func (m *BS1770) Integrated(buf *audio.Buffer) float64 {
	z := m.blockPowers(buf)
	if len(z) == 0 {
		return math.Inf(-1)
	}

	// Absolute gate.
	var gated []float64
	for _, p := range z {
		if blockLoudness(p) > AbsoluteGateLUFS {
			gated = append(gated, p)
		}
	}
	if len(gated) == 0 {
		return math.Inf(-1)
	}

	// Relative gate.
	relative := blockLoudness(mean(gated)) + RelativeGateLU
	var final []float64
	for _, p := range gated {
		if blockLoudness(p) > relative {
			final = append(final, p)
		}
	}
	if len(final) == 0 {
		return math.Inf(-1)
	}
	return blockLoudness(mean(final))
}

// blockPowers returns the channel-summed mean square of each K-weighted
// 400 ms block. Channel weights are 1.0 for mono and stereo.
func (m *BS1770) blockPowers(buf *audio.Buffer) []float64 {
	rate := float64(buf.SampleRate)
	frames := buf.Frames()
	if rate <= 0 || frames == 0 {
		return nil
	}

	blockLen := int(BlockSeconds * rate)
	step := BlockSeconds * (1 - BlockOverlap)
	duration := float64(frames) / rate
	if duration < BlockSeconds {
		return nil
	}
	blocks := int(math.Round((duration-BlockSeconds)/step)) + 1

	filters := kWeighting(rate)
	powers := make([]float64, blocks)
	for _, data := range buf.Samples {
		weighted := filters[1].Filter(filters[0].Filter(data))
		for j := 0; j < blocks; j++ {
			start := int(float64(j) * step * rate)
			end := min(start+blockLen, frames)
			var sum float64
			for _, v := range weighted[start:end] {
				sum += v * v
			}
			powers[j] += sum / float64(blockLen)
		}
	}
	return powers
}

func blockLoudness(power float64) float64 {
	if power <= 0 {
		return math.Inf(-1)
	}
	return -0.691 + 10*math.Log10(power)
}

func mean(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}
