package presets

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStage is returned for a stage name outside the closed set.
var ErrUnknownStage = errors.New("unknown stage")

// Stage names a processing stage: one of the twelve stem categories, the
// remix bus, or the full-mix fallback chain.
type Stage string

// Stem stages, then the two mix-level stages.
const (
	Vocals        Stage = "vocals"
	BackingVocals Stage = "backing_vocals"
	Drums         Stage = "drums"
	Bass          Stage = "bass"
	Guitar        Stage = "guitar"
	Keyboard      Stage = "keyboard"
	Strings       Stage = "strings"
	Brass         Stage = "brass"
	Woodwinds     Stage = "woodwinds"
	Percussion    Stage = "percussion"
	Synth         Stage = "synth"
	Other         Stage = "other"

	Bus     Stage = "bus"
	FullMix Stage = "full_mix"
)

// StemStages lists the stem categories in processing order.
var StemStages = []Stage{
	Vocals, BackingVocals, Drums, Bass, Guitar, Keyboard,
	Strings, Brass, Woodwinds, Percussion, Synth, Other,
}

// AllStages is StemStages followed by Bus and FullMix.
var AllStages = append(append([]Stage(nil), StemStages...), Bus, FullMix)

// ParseStage validates a stage name.
func ParseStage(name string) (Stage, error) {
	s := Stage(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllStages {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, name)
}

// IsStem reports whether s is one of the twelve stem categories.
func (s Stage) IsStem() bool {
	return s != Bus && s != FullMix && s.valid()
}

func (s Stage) valid() bool {
	for _, known := range AllStages {
		if s == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	return string(s)
}
