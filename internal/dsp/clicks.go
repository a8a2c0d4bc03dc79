package dsp

import (
	"math"

	"github.com/linuxmatters/trackpolish/internal/audio"
)

// minDiffStd guards the click detector against silence.
const minDiffStd = 1e-10

// DefaultClickThreshold is the detection threshold in standard deviations of
// the first difference.
const DefaultClickThreshold = 6.0

// RemoveClicks finds sample-to-sample jumps larger than threshold standard
// deviations and bridges them by linear interpolation between the nearest
// clean neighbours. A threshold of zero or less bypasses the stage.
func RemoveClicks(buf *audio.Buffer, threshold float64) *audio.Buffer {
	if threshold <= 0 {
		return buf
	}

	out := &audio.Buffer{Samples: make([][]float64, buf.Channels()), SampleRate: buf.SampleRate}
	changed := false
	for ch, data := range buf.Samples {
		repaired, ok := removeClicksChannel(data, threshold)
		changed = changed || ok
		out.Samples[ch] = repaired
	}
	if !changed {
		return buf
	}
	return out
}

func removeClicksChannel(x []float64, threshold float64) ([]float64, bool) {
	n := len(x)
	if n < 3 {
		return x, false
	}

	diff := make([]float64, n)
	for i := 1; i < n; i++ {
		diff[i] = x[i] - x[i-1]
	}
	std := stddev(diff)
	if std < minDiffStd {
		return x, false
	}

	limit := threshold * std
	flagged := make([]bool, n)
	found := false
	for i, d := range diff {
		if math.Abs(d) > limit {
			flagged[i] = true
			found = true
		}
	}
	if !found {
		return x, false
	}

	out := append([]float64(nil), x...)
	for idx := range x {
		if !flagged[idx] {
			continue
		}
		left := max(0, idx-1)
		right := min(n-1, idx+1)
		for left > 0 && flagged[left] {
			left--
		}
		for right < n-1 && flagged[right] {
			right++
		}
		if left != right {
			out[idx] = x[left] + (x[right]-x[left])*float64(idx-left)/float64(right-left)
		}
	}
	return out, true
}

func stddev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	var ss float64
	for _, v := range x {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(x)))
}
