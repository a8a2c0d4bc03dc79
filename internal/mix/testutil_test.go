package mix

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/presets"
)

const testRate = 44100

// sine generates a mono sine of the given frequency and amplitude.
func sine(t *testing.T, freq, amp, seconds float64) []float64 {
	t.Helper()
	n := int(seconds * testRate)
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return x
}

// noisySine adds deterministic LCG noise so denoise and click stages have
// something to work on.
func noisySine(t *testing.T, freq, amp, noiseAmp, seconds float64) []float64 {
	t.Helper()
	x := sine(t, freq, amp, seconds)
	seed := uint32(12345)
	for i := range x {
		seed = seed*1664525 + 1013904223
		x[i] += noiseAmp * (float64(seed)/float64(math.MaxUint32)*2 - 1)
	}
	return x
}

func stereo(t *testing.T, freq, amp, seconds float64) *audio.Buffer {
	t.Helper()
	left := sine(t, freq, amp, seconds)
	right := append([]float64(nil), left...)
	return audio.FromChannels(testRate, left, right)
}

// writeWAV writes buf as a PCM16 WAV under dir.
func writeWAV(t *testing.T, dir, name string, buf *audio.Buffer) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := audio.WritePCM16(path, buf); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// touch creates an empty placeholder file.
func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func builtinStore(t *testing.T) *presets.Store {
	t.Helper()
	s, err := presets.Load(presets.Options{})
	if err != nil {
		t.Fatalf("presets.Load() error = %v", err)
	}
	return s
}

func assertFinite(t *testing.T, in, out *audio.Buffer) {
	t.Helper()
	if out.Channels() != in.Channels() || out.Frames() != in.Frames() {
		t.Fatalf("shape = %dx%d, want %dx%d", out.Channels(), out.Frames(), in.Channels(), in.Frames())
	}
	if !out.IsFinite() {
		t.Fatal("output contains NaN or Inf")
	}
}

// countingReducer records calls and passes audio through.
type countingReducer struct {
	calls    int
	strength float64
}

func (c *countingReducer) Reduce(buf *audio.Buffer, strength float64) *audio.Buffer {
	c.calls++
	c.strength = strength
	return buf.Scale(0.5)
}
