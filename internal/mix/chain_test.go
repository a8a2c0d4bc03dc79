package mix

import (
	"errors"
	"testing"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/presets"
)

func TestEveryStageHasChain(t *testing.T) {
	for _, stage := range presets.AllStages {
		if _, err := Chain(stage); err != nil {
			t.Errorf("Chain(%s) error = %v", stage, err)
		}
	}
	if _, err := Chain(presets.Stage("kazoo")); !errors.Is(err, presets.ErrUnknownStage) {
		t.Errorf("Chain(kazoo) error = %v, want ErrUnknownStage", err)
	}
}

func TestProcessOrKeep(t *testing.T) {
	in := stereo(t, 440, 0.9, 0.5)
	bus := presets.Neutral()
	bus.CompressThresholdDB, bus.CompressRatio = -20, 4
	bus.CompressAttackMs, bus.CompressReleaseMs = 10, 100

	if out := processOrKeep(presets.Stage("kazoo"), in, bus, Env{}); out != in {
		t.Error("failed stage should return the unprocessed buffer")
	}
	if out := processOrKeep(presets.Bus, in, bus, Env{}); out == in {
		t.Error("bus compression left the buffer untouched")
	}
}

func TestEnvMains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		env        Env
		configured float64
		want       float64
	}{
		{"configured wins", Env{MainsHz: 50}, 60, 60},
		{"env fills auto", Env{MainsHz: 60}, 0, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.env.mains(tt.configured); got != tt.want {
				t.Errorf("mains(%v) = %v, want %v", tt.configured, got, tt.want)
			}
		})
	}
	if got := (Env{}).mains(0); got != 50 && got != 60 {
		t.Errorf("timezone fallback = %v, want 50 or 60", got)
	}
}

func TestNeutralSettingsAreNoOp(t *testing.T) {
	in := stereo(t, 440, 0.5, 0.5)
	for _, stage := range presets.AllStages {
		t.Run(string(stage), func(t *testing.T) {
			out, err := Process(stage, in, presets.Neutral(), Env{Denoiser: &countingReducer{}})
			if err != nil {
				t.Fatal(err)
			}
			if out != in {
				t.Errorf("%s with neutral settings changed the buffer", stage)
			}
		})
	}
}

func TestDefaultChainsPreserveShape(t *testing.T) {
	store := builtinStore(t)
	env := Env{Denoiser: &countingReducer{}, MainsHz: 50}

	mono := audio.FromChannels(testRate, noisySine(t, 220, 0.4, 0.02, 0.5))
	st := stereo(t, 330, 0.6, 0.5)

	for _, stage := range presets.AllStages {
		settings, err := store.Stage(stage, "")
		if err != nil {
			t.Fatal(err)
		}
		for _, in := range []*audio.Buffer{mono, st} {
			out, err := Process(stage, in, settings, env)
			if err != nil {
				t.Fatal(err)
			}
			assertFinite(t, in, out)
		}
	}
}

func TestNoiseReductionUsesInjectedReducer(t *testing.T) {
	in := audio.FromChannels(testRate, sine(t, 440, 0.3, 0.2))

	s := presets.Neutral()
	s.NoiseReduction = 1.7
	r := &countingReducer{}
	out, err := Process(presets.Vocals, in, s, Env{Denoiser: r})
	if err != nil {
		t.Fatal(err)
	}
	if r.calls != 1 || r.strength != 1 {
		t.Errorf("reducer calls=%d strength=%f, want 1 call at clamped strength 1", r.calls, r.strength)
	}
	if out == in {
		t.Error("vocal chain ignored reducer output")
	}

	// Drums carry no noise reduction step.
	r = &countingReducer{}
	if _, err := Process(presets.Drums, in, s, Env{Denoiser: r}); err != nil {
		t.Fatal(err)
	}
	if r.calls != 0 {
		t.Errorf("drum chain called reducer %d times", r.calls)
	}
}

func TestLowpassOnlyBelowBypass(t *testing.T) {
	in := audio.FromChannels(testRate, sine(t, 440, 0.3, 0.2))
	s := presets.Neutral()

	s.LowpassCutoff = 20000
	if out, _ := Process(presets.Other, in, s, Env{}); out != in {
		t.Error("lowpass at 20 kHz should be bypassed")
	}
	s.LowpassCutoff = 12000
	if out, _ := Process(presets.Other, in, s, Env{}); out == in {
		t.Error("lowpass at 12 kHz should run")
	}
}

func TestHumStepOnlyInFullMix(t *testing.T) {
	in := stereo(t, 1000, 0.3, 0.5)
	s := presets.Neutral()
	s.HumReductionDB = 20
	s.HumFreq = 60

	if out, _ := Process(presets.FullMix, in, s, Env{}); out == in {
		t.Error("full mix hum reduction did not run")
	}
	if out, _ := Process(presets.Guitar, in, s, Env{}); out != in {
		t.Error("guitar chain must not carry hum reduction")
	}
}

func TestStemPresetRelationships(t *testing.T) {
	store := builtinStore(t)
	get := func(stage presets.Stage, genre string) presets.StageSettings {
		t.Helper()
		s, err := store.Stage(stage, genre)
		if err != nil {
			t.Fatalf("Stage(%s, %q): %v", stage, genre, err)
		}
		return s
	}

	lead, backing := get(presets.Vocals, ""), get(presets.BackingVocals, "")
	if backing.PresenceBoostDB >= lead.PresenceBoostDB {
		t.Errorf("backing presence %f >= lead %f", backing.PresenceBoostDB, lead.PresenceBoostDB)
	}
	if backing.GainDB >= 0 {
		t.Errorf("backing gain_db = %f, want negative", backing.GainDB)
	}

	lightest := get(presets.Strings, "").CompressRatio
	if lightest != 1.5 {
		t.Errorf("strings ratio = %f, want 1.5", lightest)
	}
	for _, stage := range []presets.Stage{presets.Bass, presets.Guitar, presets.Keyboard, presets.Brass, presets.Woodwinds, presets.Synth} {
		if r := get(stage, "").CompressRatio; r < lightest {
			t.Errorf("%s ratio %f lighter than strings", stage, r)
		}
	}

	brass := get(presets.Brass, "")
	if brass.HighTameDB != -2.0 || brass.HighTameFreq != 7000 {
		t.Errorf("brass high tame = %f @ %f", brass.HighTameDB, brass.HighTameFreq)
	}
	if w := get(presets.Woodwinds, "").HighTameDB; w != -1.0 {
		t.Errorf("woodwinds high tame = %f, want -1.0", w)
	}
	if p := get(presets.Vocals, "hip-hop").PresenceBoostDB; p != 2.5 {
		t.Errorf("hip-hop vocals presence = %f, want 2.5", p)
	}

	bus := get(presets.Bus, "")
	want := [4]float64{-14, 2.5, 20, 150}
	got := [4]float64{bus.CompressThresholdDB, bus.CompressRatio, bus.CompressAttackMs, bus.CompressReleaseMs}
	if got != want {
		t.Errorf("bus defaults = %v, want %v", got, want)
	}
	for genre, ratio := range map[string]float64{"classical": 1.0, "jazz": 1.0, "edm": 3.0} {
		if r := get(presets.Bus, genre).CompressRatio; r != ratio {
			t.Errorf("%s bus ratio = %f, want %f", genre, r, ratio)
		}
	}
	if w := get(presets.FullMix, "shoegaze").StereoWidth; w != 1.4 {
		t.Errorf("shoegaze full_mix width = %f, want 1.4", w)
	}
}
