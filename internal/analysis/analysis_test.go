package analysis

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/spectrum"
)

const testRate = 44100

func sine(t *testing.T, freq, amp, seconds float64) []float64 {
	t.Helper()
	x := make([]float64, int(seconds*testRate))
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return x
}

func dual(x []float64) *audio.Buffer {
	return audio.FromChannels(testRate, x, append([]float64(nil), x...))
}

func TestMeasureSine(t *testing.T) {
	t.Parallel()

	m := Measure("sine.wav", dual(sine(t, 440, 0.5, 3)), nil)

	if math.Abs(m.PeakDB-audio.LinearToDB(0.5)) > 0.01 {
		t.Errorf("PeakDB = %.2f, want about -6.02", m.PeakDB)
	}
	// A sine's crest factor is sqrt(2), about 3 dB.
	if math.Abs(m.CrestFactor-math.Sqrt2) > 0.01 {
		t.Errorf("CrestFactor = %.3f, want %.3f", m.CrestFactor, math.Sqrt2)
	}
	if math.Abs(m.DynamicRange-3.01) > 0.05 {
		t.Errorf("DynamicRange = %.2f, want about 3.01", m.DynamicRange)
	}
	if m.Duration != 3 || m.SampleRate != testRate {
		t.Errorf("Duration = %f, SampleRate = %d", m.Duration, m.SampleRate)
	}
	if m.LUFS > -5 || m.LUFS < -12 {
		t.Errorf("LUFS = %.2f, want a plausible level for a -6 dBFS sine", m.LUFS)
	}
	if m.Bands[spectrum.LowMid] < 90 {
		t.Errorf("low_mid = %.1f%%, want the 440 Hz tone there", m.Bands[spectrum.LowMid])
	}
	if m.Tinny() {
		t.Error("440 Hz sine reported tinny")
	}
}

func TestMeasureQuieterIsLower(t *testing.T) {
	t.Parallel()

	loud := Measure("a", dual(sine(t, 440, 0.5, 3)), nil)
	quiet := Measure("b", dual(sine(t, 440, 0.01, 3)), nil)
	if quiet.LUFS >= loud.LUFS-30 {
		t.Errorf("quiet %.1f LUFS vs loud %.1f LUFS, want ~34 dB apart", quiet.LUFS, loud.LUFS)
	}
}

func TestMeasureMonoMatchesDualMono(t *testing.T) {
	t.Parallel()

	x := sine(t, 440, 0.5, 2)
	mono := Measure("m", audio.FromChannels(testRate, x), nil)
	stereo := Measure("s", dual(x), nil)
	if math.Abs(mono.LUFS-stereo.LUFS) > 1e-9 || mono.PeakDB != stereo.PeakDB {
		t.Errorf("mono %.2f/%.2f, dual mono %.2f/%.2f", mono.LUFS, mono.PeakDB, stereo.LUFS, stereo.PeakDB)
	}
}

func TestMeasureSilence(t *testing.T) {
	t.Parallel()

	m := Measure("silent.wav", audio.NewBuffer(2, testRate*2, testRate), nil)
	if !math.IsInf(m.LUFS, -1) || !math.IsInf(m.PeakDB, -1) {
		t.Errorf("silence = %+v, want -Inf loudness and peak", m)
	}
	if m.CrestFactor != 0 || m.Tinniness != 0 {
		t.Errorf("silence crest %.2f tinniness %.2f, want 0", m.CrestFactor, m.Tinniness)
	}
}

func TestMeasureBright(t *testing.T) {
	t.Parallel()

	x := sine(t, 1000, 0.1, 3)
	hi := sine(t, 4000, 0.5, 3)
	for i := range x {
		x[i] += hi[i]
	}
	m := Measure("bright.wav", dual(x), nil)
	if !m.Tinny() {
		t.Errorf("tinniness = %.2f, want > %.1f", m.Tinniness, TinnyThreshold)
	}
}

func TestAnalyzeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sine.wav")
	if err := audio.WritePCM16(path, dual(sine(t, 440, 0.5, 2))); err != nil {
		t.Fatal(err)
	}
	m, err := AnalyzeFile(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Filename != "sine.wav" {
		t.Errorf("Filename = %q", m.Filename)
	}

	if _, err := AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "a.mp3"), nil); err == nil {
		t.Error("non-WAV path should error")
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	a := Summarize([]*Metrics{
		{Filename: "a", LUFS: -14},
		nil,
		{Filename: "b", LUFS: -10},
		{Filename: "c", LUFS: math.Inf(-1)},
		{Filename: "d", LUFS: -12},
	})
	if len(a.Tracks) != 4 || a.Measured != 3 {
		t.Errorf("tracks = %d measured = %d", len(a.Tracks), a.Measured)
	}
	if a.AverageLUFS != -12 || a.LUFSRange != 4 {
		t.Errorf("average = %f range = %f", a.AverageLUFS, a.LUFSRange)
	}

	empty := Summarize(nil)
	if empty.Measured != 0 || !math.IsInf(empty.AverageLUFS, -1) {
		t.Errorf("empty album = %+v", empty)
	}
}

func TestTinnyCut(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ratio float64
		want  float64
	}{
		{0.7, 1.2},
		{1.0, 3.0},
		{1.2, 4.0},
		{3.0, 4.0},
	}
	for _, tt := range tests {
		if got := TinnyCut(tt.ratio); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("TinnyCut(%.1f) = %f, want %f", tt.ratio, got, tt.want)
		}
	}
}

func ruleIDs(recs []Recommendation, track string) []string {
	var ids []string
	for _, r := range recs {
		if r.Track == track {
			ids = append(ids, r.RuleID)
		}
	}
	return ids
}

func TestRecommend(t *testing.T) {
	t.Parallel()

	tracks := []*Metrics{
		{Filename: "ok.wav", LUFS: -14, PeakDB: -3, CrestFactor: 4},
		{Filename: "quiet.wav", LUFS: -19, PeakDB: -8, CrestFactor: 4},
		{Filename: "loud.wav", LUFS: -9, PeakDB: -0.2, CrestFactor: 1.5},
		{Filename: "tinny.wav", LUFS: -14, PeakDB: -3, CrestFactor: 4, Tinniness: 1.0},
		{Filename: "silent.wav", LUFS: math.Inf(-1), PeakDB: math.Inf(-1), Tinniness: 0.9},
	}
	recs := Recommend(Summarize(tracks))

	tests := []struct {
		track string
		want  []string
	}{
		{"ok.wav", nil},
		{"quiet.wav", []string{"quiet"}},
		{"loud.wav", []string{"near_clipping", "loud", "over_compressed"}},
		{"tinny.wav", []string{"tinny"}},
		{"silent.wav", []string{"silent"}},
		{"", []string{"album_range"}},
	}
	for _, tt := range tests {
		got := ruleIDs(recs, tt.track)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("%q rules = %v, want %v", tt.track, got, tt.want)
		}
	}

	for i := 1; i < len(recs); i++ {
		if recs[i].Priority > recs[i-1].Priority {
			t.Fatalf("recommendations not sorted by priority: %v", recs)
		}
	}
	for _, r := range recs {
		if r.RuleID == "tinny" && !strings.Contains(r.Message, "-3.0 dB") {
			t.Errorf("tinny message = %q, want a 3 dB cut", r.Message)
		}
	}
}

func TestRecommendNil(t *testing.T) {
	t.Parallel()

	if Recommend(nil) != nil {
		t.Error("Recommend(nil) should be nil")
	}
}
