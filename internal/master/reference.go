package master

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/dsp"
	"github.com/linuxmatters/trackpolish/internal/loudness"
	"github.com/linuxmatters/trackpolish/internal/spectrum"
)

// Limits on the per-band correction applied when matching a reference.
const (
	MaxMatchGainDB = 6.0
	minMatchGainDB = 0.5
)

// ErrSilentReference is returned when the reference has no measurable loudness.
var ErrSilentReference = errors.New("reference track is silent")

// Reference is the loudness and tonal balance of a mastered track that
// other tracks are matched to.
type Reference struct {
	Name    string
	LUFS    float64
	Balance spectrum.Balance
}

// MeasureReference profiles the WAV at path.
func MeasureReference(path string, meter loudness.Meter) (*Reference, error) {
	buf, _, err := audio.ReadWAV(path)
	if err != nil {
		return nil, err
	}
	if meter == nil {
		meter = loudness.NewBS1770()
	}
	lufs := meter.Integrated(buf.ToStereo())
	if math.IsInf(lufs, 0) || math.IsNaN(lufs) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrSilentReference)
	}
	return &Reference{
		Name:    filepath.Base(path),
		LUFS:    lufs,
		Balance: spectrum.Analyze(buf.MonoMix(), buf.SampleRate),
	}, nil
}

// MatchEQ returns one peaking band per analysis band that moves the track's
// energy share towards the reference's. Each band sits at the geometric
// centre of its range with a Q spanning the range. Corrections are clamped
// to MaxMatchGainDB; small differences, bands empty on either side and
// bands at or above nyquist are left alone.
func MatchEQ(track, ref spectrum.Balance, sampleRate int) []dsp.EQBand {
	var bands []dsp.EQBand
	for _, b := range spectrum.Bands {
		centre := math.Sqrt(b.Low * b.High)
		if centre >= float64(sampleRate)/2 {
			continue
		}
		have, want := track.Percent[b.Name], ref.Percent[b.Name]
		if have <= 0 || want <= 0 {
			continue
		}
		gain := 10 * math.Log10(want/have)
		if math.Abs(gain) < minMatchGainDB {
			continue
		}
		gain = math.Max(-MaxMatchGainDB, math.Min(MaxMatchGainDB, gain))
		bands = append(bands, dsp.EQBand{Freq: centre, GainDB: gain, Q: centre / (b.High - b.Low)})
	}
	return bands
}

// MatchOptions targets the reference loudness and appends the matching EQ
// for buf after any bands already in opts.
func MatchOptions(buf *audio.Buffer, ref *Reference, opts Options) Options {
	bal := spectrum.Analyze(buf.MonoMix(), buf.SampleRate)
	match := MatchEQ(bal, ref.Balance, buf.SampleRate)
	opts.EQ = append(append([]dsp.EQBand(nil), opts.EQ...), match...)
	opts.TargetLUFS = ref.LUFS
	return opts
}

// MatchReference masters in towards ref and writes PCM16 to out. The
// ceiling and meter come from opts; its target is replaced by the
// reference loudness.
func MatchReference(ctx context.Context, in, out string, ref *Reference, opts Options) (*Result, error) {
	return masterFile(ctx, in, out, func(buf *audio.Buffer) Options {
		matched := MatchOptions(buf, ref, opts)
		logrus.WithFields(logrus.Fields{
			"file":      filepath.Base(in),
			"reference": ref.Name,
			"bands":     len(matched.EQ) - len(opts.EQ),
		}).Debug("matched reference balance")
		return matched
	})
}
