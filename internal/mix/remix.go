package mix

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/presets"
)

// ErrNoStems is returned by Remix when given nothing to mix.
var ErrNoStems = errors.New("no stems to remix")

// MixCeiling is the peak the summed mix is scaled down to when it exceeds
// it. It sits below the mastering limiter so the master has headroom.
const MixCeiling = 0.95

// Stem is one processed stem ready for summing.
type Stem struct {
	Stage  presets.Stage
	Buffer *audio.Buffer
}

// Remix sums stems into a stereo mix. Each stem is scaled by its gain in dB
// (0 when absent), mono stems are duplicated to both channels and shorter
// stems are zero padded to the longest. The sample rate is taken from the
// first stem; stems at any other rate are left out with a warning.
func Remix(stems []Stem, gainsDB map[presets.Stage]float64) (*audio.Buffer, error) {
	if len(stems) == 0 {
		return nil, ErrNoStems
	}

	rate := stems[0].Buffer.SampleRate
	frames := 0
	usable := make([]Stem, 0, len(stems))
	for _, s := range stems {
		if s.Buffer.SampleRate != rate {
			logrus.WithFields(logrus.Fields{
				"stem":     s.Stage,
				"rate":     s.Buffer.SampleRate,
				"expected": rate,
			}).Warn("stem sample rate differs, excluding it from the mix")
			continue
		}
		usable = append(usable, s)
		frames = max(frames, s.Buffer.Frames())
	}

	mixed := audio.NewBuffer(2, frames, rate)
	for _, s := range usable {
		gain := audio.DBToLinear(gainsDB[s.Stage])
		src := s.Buffer.ToStereo()
		for ch := 0; ch < 2; ch++ {
			dst := mixed.Samples[ch]
			for i, v := range src.Samples[ch] {
				dst[i] += v * gain
			}
		}
	}

	return ceiling(mixed), nil
}

// ceiling scales buf so its peak does not exceed MixCeiling.
func ceiling(buf *audio.Buffer) *audio.Buffer {
	peak := buf.Peak()
	if peak <= MixCeiling {
		return buf
	}
	return buf.Scale(MixCeiling / peak)
}

// sumStems adds b into a, promoting mono to stereo and padding the shorter
// buffer. Neither input is modified.
func sumStems(a, b *audio.Buffer) *audio.Buffer {
	if a.Channels() != b.Channels() {
		a, b = a.ToStereo(), b.ToStereo()
	}
	frames := max(a.Frames(), b.Frames())
	out := a.PadTo(frames).Clone()
	for ch := range out.Samples {
		dst := out.Samples[ch]
		for i, v := range b.Samples[ch] {
			dst[i] += v
		}
	}
	return out
}
