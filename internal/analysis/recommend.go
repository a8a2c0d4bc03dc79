package analysis

import (
	"fmt"
	"math"
	"sort"
)

// Recommendation is one piece of mastering advice for a track or for the
// album as a whole (empty Track).
type Recommendation struct {
	Priority int    // higher is more important (1-10)
	RuleID   string // stable identifier, e.g. "tinny"
	Track    string
	Message  string
}

// Thresholds for the recommendation rules.
const (
	// LoudnessSpread is how far a track may sit from the album average.
	LoudnessSpread = 2.0
	// MaxAlbumRange is the ideal maximum LUFS spread across an album.
	MaxAlbumRange = 2.0
	// MaxTinnyCutDB caps the suggested high-mid cut.
	MaxTinnyCutDB = 4.0

	nearClipDB    = -1.0
	minCrestRatio = 2.0 // about 6 dB
)

// TinnyCut is the suggested high-mid cut in dB for a tinniness ratio.
func TinnyCut(ratio float64) float64 {
	return math.Min((ratio-0.5)*6, MaxTinnyCutDB)
}

type trackRule func(m *Metrics, a *Album) *Recommendation

// Recommend returns prioritised advice for the album. Track rules run in
// track order; recommendations are then sorted by priority, keeping track
// order within a priority.
func Recommend(a *Album) []Recommendation {
	if a == nil {
		return nil
	}

	rules := []trackRule{
		recSilent,
		recClipping,
		recTinny,
		recQuiet,
		recLoud,
		recOverCompressed,
	}

	var recs []Recommendation
	for _, m := range a.Tracks {
		fired := make(map[string]bool)
		var trackRecs []Recommendation
		for _, rule := range rules {
			if r := rule(m, a); r != nil {
				r.Track = m.Filename
				trackRecs = append(trackRecs, *r)
				fired[r.RuleID] = true
			}
		}
		recs = append(recs, applyExclusions(trackRecs, fired)...)
	}
	if r := recAlbumRange(a); r != nil {
		recs = append(recs, *r)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority > recs[j].Priority
	})
	return recs
}

// applyExclusions drops advice made redundant by a more specific rule: a
// silent track gets no other advice.
func applyExclusions(recs []Recommendation, fired map[string]bool) []Recommendation {
	if !fired["silent"] {
		return recs
	}
	var out []Recommendation
	for _, r := range recs {
		if r.RuleID == "silent" {
			out = append(out, r)
		}
	}
	return out
}

func recSilent(m *Metrics, _ *Album) *Recommendation {
	if finite(m.LUFS) {
		return nil
	}
	return &Recommendation{
		Priority: 10,
		RuleID:   "silent",
		Message:  "Track is silent or too quiet to measure; check the export.",
	}
}

// recClipping fires when the sample peak is within 1 dB of full scale.
func recClipping(m *Metrics, _ *Album) *Recommendation {
	if m.PeakDB <= nearClipDB {
		return nil
	}
	return &Recommendation{
		Priority: 9,
		RuleID:   "near_clipping",
		Message:  fmt.Sprintf("Peak at %.1f dBFS; leave headroom before mastering.", m.PeakDB),
	}
}

func recTinny(m *Metrics, _ *Album) *Recommendation {
	if !m.Tinny() {
		return nil
	}
	return &Recommendation{
		Priority: 8,
		RuleID:   "tinny",
		Message:  fmt.Sprintf("Tinny (ratio %.2f); suggest -%.1f dB at 3-5 kHz.", m.Tinniness, TinnyCut(m.Tinniness)),
	}
}

func recQuiet(m *Metrics, a *Album) *Recommendation {
	if a.Measured == 0 || !finite(m.LUFS) || m.LUFS >= a.AverageLUFS-LoudnessSpread {
		return nil
	}
	return &Recommendation{
		Priority: 7,
		RuleID:   "quiet",
		Message:  fmt.Sprintf("Quiet track: %.1f LUFS against an album average of %.1f.", m.LUFS, a.AverageLUFS),
	}
}

func recLoud(m *Metrics, a *Album) *Recommendation {
	if a.Measured == 0 || !finite(m.LUFS) || m.LUFS <= a.AverageLUFS+LoudnessSpread {
		return nil
	}
	return &Recommendation{
		Priority: 7,
		RuleID:   "loud",
		Message:  fmt.Sprintf("Loud track: %.1f LUFS against an album average of %.1f.", m.LUFS, a.AverageLUFS),
	}
}

// recOverCompressed fires when the crest factor is under about 6 dB.
// A zero crest factor means silence and is skipped.
func recOverCompressed(m *Metrics, _ *Album) *Recommendation {
	if m.CrestFactor == 0 || m.CrestFactor >= minCrestRatio {
		return nil
	}
	return &Recommendation{
		Priority: 5,
		RuleID:   "over_compressed",
		Message:  fmt.Sprintf("Crest factor %.1f dB; the mix is already heavily limited.", 20*math.Log10(m.CrestFactor)),
	}
}

func recAlbumRange(a *Album) *Recommendation {
	if a.Measured < 2 || a.LUFSRange <= MaxAlbumRange {
		return nil
	}
	return &Recommendation{
		Priority: 6,
		RuleID:   "album_range",
		Message:  fmt.Sprintf("LUFS range across album is %.1f dB (should be under %.0f dB).", a.LUFSRange, MaxAlbumRange),
	}
}
