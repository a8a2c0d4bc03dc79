package dsp

import (
	"math"
	"testing"

	"github.com/linuxmatters/trackpolish/internal/audio"
)

const testRate = 44100

// sineWave generates a sine at freq with linear amplitude amp.
func sineWave(t *testing.T, freq, amp, seconds float64) []float64 {
	t.Helper()
	n := int(seconds * testRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return out
}

// noise generates deterministic white noise in [-amp, amp].
// Simple LCG so results do not depend on math/rand seeding.
func noise(t *testing.T, amp, seconds float64) []float64 {
	t.Helper()
	n := int(seconds * testRate)
	out := make([]float64, n)
	state := uint32(12345)
	for i := range out {
		state = state*1664525 + 1013904223
		out[i] = amp * ((float64(state)/float64(0xFFFFFFFF))*2.0 - 1.0)
	}
	return out
}

func stereoSine(t *testing.T, freq, amp, seconds float64) *audio.Buffer {
	t.Helper()
	left := sineWave(t, freq, amp, seconds)
	right := append([]float64(nil), left...)
	return audio.FromChannels(testRate, left, right)
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// skipTransient drops the first 100 ms so filter start-up does not skew levels.
func skipTransient(x []float64) []float64 {
	return x[testRate/10:]
}

func assertShapeAndFinite(t *testing.T, in, out *audio.Buffer) {
	t.Helper()
	if out.Channels() != in.Channels() || out.Frames() != in.Frames() {
		t.Fatalf("shape = %dx%d, want %dx%d", out.Channels(), out.Frames(), in.Channels(), in.Frames())
	}
	if !out.IsFinite() {
		t.Fatal("output contains NaN or Inf")
	}
}
