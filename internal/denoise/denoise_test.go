package denoise

import (
	"math"
	"testing"

	"github.com/linuxmatters/trackpolish/internal/audio"
)

func whiteNoise(t *testing.T, frames int, amp float64, seed uint32) []float64 {
	t.Helper()
	out := make([]float64, frames)
	state := seed
	for i := range out {
		state = state*1664525 + 1013904223
		out[i] = amp * ((float64(state)/float64(0xFFFFFFFF))*2.0 - 1.0)
	}
	return out
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// countingReducer records how often it is called.
type countingReducer struct {
	calls    int
	strength float64
}

func (c *countingReducer) Reduce(buf *audio.Buffer, strength float64) *audio.Buffer {
	c.calls++
	c.strength = strength
	return buf.Clone()
}

func TestReduceStrengthPolicy(t *testing.T) {
	t.Parallel()

	buf := audio.FromChannels(44100, whiteNoise(t, 4096, 0.1, 1))

	tests := []struct {
		name      string
		strength  float64
		wantCalls int
		wantValue float64
	}{
		{"zero is a no-op", 0, 0, 0},
		{"negative is a no-op", -0.3, 0, 0},
		{"in range", 0.4, 1, 0.4},
		{"clamped to one", 2.5, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &countingReducer{}
			out := Reduce(r, buf, tt.strength)
			if r.calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", r.calls, tt.wantCalls)
			}
			if tt.wantCalls == 0 && out != buf {
				t.Error("no-op must return the input buffer")
			}
			if tt.wantCalls == 1 && r.strength != tt.wantValue {
				t.Errorf("strength = %f, want %f", r.strength, tt.wantValue)
			}
		})
	}

	if Reduce(nil, buf, 0.5) != buf {
		t.Error("nil reducer must pass audio through")
	}
}

func TestNopPassesThrough(t *testing.T) {
	t.Parallel()

	buf := audio.FromChannels(44100, whiteNoise(t, 1024, 0.1, 7))
	if (&Nop{}).Reduce(buf, 0.8) != buf {
		t.Error("Nop must return the input buffer")
	}
	if _, ok := New(false).(*Nop); !ok {
		t.Error("New(false) should return the Nop reducer")
	}
	if _, ok := New(true).(*SpectralGate); !ok {
		t.Error("New(true) should return a SpectralGate")
	}
}

func TestSpectralGateAttenuatesNoise(t *testing.T) {
	t.Parallel()

	in := audio.FromChannels(44100, whiteNoise(t, 44100, 0.05, 3), whiteNoise(t, 44100, 0.05, 11))
	out := NewSpectralGate().Reduce(in, 1.0)

	if out.Channels() != 2 || out.Frames() != in.Frames() {
		t.Fatalf("shape = %dx%d, want 2x%d", out.Channels(), out.Frames(), in.Frames())
	}
	if !out.IsFinite() {
		t.Fatal("output contains NaN or Inf")
	}
	for ch := range in.Samples {
		before, after := rms(in.Samples[ch]), rms(out.Samples[ch])
		if after > before*0.7 {
			t.Errorf("channel %d rms %f -> %f, want clear attenuation", ch, before, after)
		}
	}
}

func TestSpectralGateStrengthScalesAttenuation(t *testing.T) {
	t.Parallel()

	in := audio.FromChannels(44100, whiteNoise(t, 22050, 0.05, 5))
	gate := NewSpectralGate()
	light := rms(gate.Reduce(in, 0.2).Samples[0])
	heavy := rms(gate.Reduce(in, 0.9).Samples[0])
	if heavy >= light {
		t.Errorf("heavy rms %f should be below light rms %f", heavy, light)
	}
}

func TestSpectralGateShortInput(t *testing.T) {
	t.Parallel()

	in := audio.FromChannels(44100, whiteNoise(t, 100, 0.1, 9))
	if NewSpectralGate().Reduce(in, 1.0) != in {
		t.Error("input shorter than one frame should pass through")
	}
}
