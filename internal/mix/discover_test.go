package mix

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/linuxmatters/trackpolish/internal/presets"
)

func TestDiscoverStandardStems(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"vocals.wav", "drums.wav", "bass.wav", "other.wav"} {
		touch(t, dir, name)
	}

	set, err := DiscoverStems(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 4 {
		t.Fatalf("DiscoverStems() = %v, want 4 categories", set)
	}
	for _, stage := range []presets.Stage{presets.Vocals, presets.Drums, presets.Bass, presets.Other} {
		want := []string{filepath.Join(dir, string(stage)+".wav")}
		if !reflect.DeepEqual(set[stage], want) {
			t.Errorf("set[%s] = %v, want %v", stage, set[stage], want)
		}
	}
}

func TestDiscoverStandardWinsOverExtras(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "vocals.wav")
	touch(t, dir, "3 Guitar.wav")

	set, err := DiscoverStems(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 1 || len(set[presets.Vocals]) != 1 {
		t.Errorf("DiscoverStems() = %v, want only vocals", set)
	}
}

func TestDiscoverVendorNames(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"0 Lead Vocals.wav",
		"1 Backing Vocals.wav",
		"2 Drums.wav",
		"3 Bass.wav",
		"4 Guitar.WAV",
		"5 Synth Pad.wav",
		"6 FX.wav",
		"notes.txt",
	}
	for _, f := range files {
		touch(t, dir, f)
	}

	set, err := DiscoverStems(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := StemSet{
		presets.Vocals:        {filepath.Join(dir, "0 Lead Vocals.wav")},
		presets.BackingVocals: {filepath.Join(dir, "1 Backing Vocals.wav")},
		presets.Drums:         {filepath.Join(dir, "2 Drums.wav")},
		presets.Bass:          {filepath.Join(dir, "3 Bass.wav")},
		presets.Guitar:        {filepath.Join(dir, "4 Guitar.WAV")},
		presets.Synth:         {filepath.Join(dir, "5 Synth Pad.wav")},
		presets.Other:         {filepath.Join(dir, "6 FX.wav")},
	}
	if !reflect.DeepEqual(set, want) {
		t.Errorf("DiscoverStems() =\n%v\nwant\n%v", set, want)
	}
	if set.Count() != 7 {
		t.Errorf("Count() = %d, want 7", set.Count())
	}
}

func TestDiscoverGroupsMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "Kick.wav")
	touch(t, dir, "Snare.wav")

	set, err := DiscoverStems(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(set[presets.Drums]); got != 2 {
		t.Errorf("drums = %v, want 2 files", set[presets.Drums])
	}
	if got := set.Stages(); !reflect.DeepEqual(got, []presets.Stage{presets.Drums}) {
		t.Errorf("Stages() = %v", got)
	}
}

func TestDiscoverCaseSensitiveStandardNames(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "Vocals.wav")

	set, err := DiscoverStems(dir)
	if err != nil {
		t.Fatal(err)
	}
	// Not a standard name, but the keyword table still classifies it.
	want := []string{filepath.Join(dir, "Vocals.wav")}
	if !reflect.DeepEqual(set[presets.Vocals], want) {
		t.Errorf("set[vocals] = %v, want %v", set[presets.Vocals], want)
	}
}

func TestDiscoverEmptyAndMissing(t *testing.T) {
	set, err := DiscoverStems(t.TempDir())
	if err != nil || len(set) != 0 {
		t.Errorf("empty dir = %v, %v", set, err)
	}
	if _, err := DiscoverStems(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("missing dir should error")
	}
}

func TestClassifyOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want presets.Stage
	}{
		{"backing vocals", presets.BackingVocals},
		{"harmony vox", presets.BackingVocals},
		{"lead vocal", presets.Vocals},
		{"voice memo", presets.Vocals},
		{"percussion", presets.Percussion},
		{"perc loop", presets.Percussion},
		{"shaker", presets.Percussion},
		{"drum kit", presets.Drums},
		{"hi-hat", presets.Drums},
		{"bassoon", presets.Woodwinds},
		{"alto sax", presets.Woodwinds},
		{"bass di", presets.Bass},
		{"acoustic gtr", presets.Guitar},
		{"rhodes", presets.Keyboard},
		{"piano", presets.Keyboard},
		{"cello", presets.Strings},
		{"trumpet", presets.Brass},
		{"french horn", presets.Brass},
		{"synth lead", presets.Synth},
		{"warm pad", presets.Synth},
		{"room tone", presets.Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}
