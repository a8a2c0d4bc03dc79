package dsp

import (
	"math"
	"testing"

	"github.com/linuxmatters/trackpolish/internal/audio"
)

func TestRemoveClicksRepairsSpike(t *testing.T) {
	t.Parallel()

	clean := sineWave(t, 440, 0.5, 1.0)
	spiked := append([]float64(nil), clean...)
	spiked[1000] = 1.0
	in := audio.FromChannels(testRate, spiked)

	out := RemoveClicks(in, DefaultClickThreshold)
	assertShapeAndFinite(t, in, out)

	before := math.Abs(spiked[1000] - clean[1000])
	after := math.Abs(out.Samples[0][1000] - clean[1000])
	if after >= before {
		t.Errorf("spike error after repair = %f, want < %f", after, before)
	}
	if after > 0.05 {
		t.Errorf("spike error after repair = %f, want close to the clean sine", after)
	}
}

func TestRemoveClicksLeavesCleanSine(t *testing.T) {
	t.Parallel()

	in := stereoSine(t, 440, 0.5, 0.5)
	out := RemoveClicks(in, DefaultClickThreshold)

	maxDev := 0.0
	for ch := range in.Samples {
		for i, x := range in.Samples[ch] {
			maxDev = math.Max(maxDev, math.Abs(out.Samples[ch][i]-x))
		}
	}
	if maxDev > 1e-3 {
		t.Errorf("max deviation on a clean sine = %f", maxDev)
	}
}

func TestRemoveClicksBypass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		buf       *audio.Buffer
		threshold float64
	}{
		{"zero threshold", stereoSine(t, 440, 0.5, 0.05), 0},
		{"negative threshold", stereoSine(t, 440, 0.5, 0.05), -1},
		{"silence", audio.NewBuffer(2, 1000, testRate), DefaultClickThreshold},
		{"too short", audio.FromChannels(testRate, []float64{0, 1}), DefaultClickThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := RemoveClicks(tt.buf, tt.threshold); out != tt.buf {
				t.Error("expected the input buffer to be returned")
			}
		})
	}
}
