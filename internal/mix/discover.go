package mix

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/linuxmatters/trackpolish/internal/presets"
)

// StemSet maps each stem category to its files. A category with several
// files is summed before processing.
type StemSet map[presets.Stage][]string

// Stages returns the populated categories in processing order.
func (s StemSet) Stages() []presets.Stage {
	var out []presets.Stage
	for _, stage := range presets.StemStages {
		if len(s[stage]) > 0 {
			out = append(out, stage)
		}
	}
	return out
}

// Count returns the total number of files across all categories.
func (s StemSet) Count() int {
	n := 0
	for _, paths := range s {
		n += len(paths)
	}
	return n
}

// standardStems are the exact file names produced by common stem separators.
var standardStems = []presets.Stage{presets.Vocals, presets.Drums, presets.Bass, presets.Other}

type stemKeywords struct {
	stage    presets.Stage
	keywords []string
}

// keywordTable is matched in order; the first hit wins. More specific
// categories precede the generic ones they overlap with.
var keywordTable = []stemKeywords{
	{presets.BackingVocals, []string{"backing vocal", "backing", "harmony", "choir", "bgv", "background vocal"}},
	{presets.Vocals, []string{"vocal", "vox", "voice"}},
	{presets.Percussion, []string{"percussion", "perc", "shaker", "tambourine", "conga", "bongo"}},
	{presets.Drums, []string{"drum", "kick", "snare", "hihat", "hi-hat", "cymbal"}},
	{presets.Woodwinds, []string{"woodwind", "sax", "flute", "clarinet", "oboe", "bassoon"}},
	{presets.Bass, []string{"bass"}},
	{presets.Guitar, []string{"guitar", "gtr"}},
	{presets.Keyboard, []string{"keyboard", "keys", "piano", "organ", "rhodes"}},
	{presets.Strings, []string{"string", "violin", "viola", "cello", "orchestra"}},
	{presets.Brass, []string{"brass", "trumpet", "trombone", "horn", "tuba"}},
	{presets.Synth, []string{"synth", "pad"}},
}

// Classify returns the stem category for a lowercased file base name.
func Classify(name string) presets.Stage {
	name = strings.ToLower(name)
	for _, entry := range keywordTable {
		if matchesAny(name, entry.keywords) {
			return entry.stage
		}
	}
	return presets.Other
}

func matchesAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// DiscoverStems categorises the WAV files in dir. Exact standard names
// (vocals.wav, drums.wav, bass.wav, other.wav) take precedence: when any is
// present only those are returned. Otherwise every WAV is keyword matched.
func DiscoverStems(dir string) (StemSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list stems: %w", err)
	}

	// Compare against the real listing so case-insensitive filesystems do
	// not report Vocals.wav as vocals.wav.
	names := make(map[string]bool, len(entries))
	var wavs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names[e.Name()] = true
		if strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			wavs = append(wavs, e.Name())
		}
	}

	set := StemSet{}
	for _, stage := range standardStems {
		name := string(stage) + ".wav"
		if names[name] {
			set[stage] = []string{filepath.Join(dir, name)}
		}
	}
	if len(set) > 0 {
		return set, nil
	}

	sort.Strings(wavs)
	for _, name := range wavs {
		base := strings.TrimSuffix(name, filepath.Ext(name))
		stage := Classify(base)
		set[stage] = append(set[stage], filepath.Join(dir, name))
	}
	return set, nil
}
