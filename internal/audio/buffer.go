// Package audio provides the in-memory sample buffer and audio file I/O.
package audio

import (
	"math"
)

// Buffer holds fully decoded audio as float64 samples in [-1, 1].
// Samples is channel-major: Samples[channel][frame].
type Buffer struct {
	Samples    [][]float64
	SampleRate int
}

// NewBuffer allocates a silent buffer with the given shape.
func NewBuffer(channels, frames, sampleRate int) *Buffer {
	samples := make([][]float64, channels)
	for ch := range samples {
		samples[ch] = make([]float64, frames)
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate}
}

// FromChannels wraps existing channel slices without copying.
func FromChannels(sampleRate int, channels ...[]float64) *Buffer {
	return &Buffer{Samples: channels, SampleRate: sampleRate}
}

// Channels returns the channel count.
func (b *Buffer) Channels() int {
	return len(b.Samples)
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// IsStereo reports whether the buffer has exactly two channels.
func (b *Buffer) IsStereo() bool {
	return len(b.Samples) == 2
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Samples: make([][]float64, len(b.Samples)), SampleRate: b.SampleRate}
	for ch, data := range b.Samples {
		out.Samples[ch] = append([]float64(nil), data...)
	}
	return out
}

// ShapeLike allocates a silent buffer with the same shape and rate as b.
func (b *Buffer) ShapeLike() *Buffer {
	return NewBuffer(b.Channels(), b.Frames(), b.SampleRate)
}

// Peak returns the maximum absolute sample value across all channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, data := range b.Samples {
		for _, v := range data {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// PeakDB returns the peak in dBFS, or -Inf for digital silence.
func (b *Buffer) PeakDB() float64 {
	return LinearToDB(b.Peak())
}

// RMS returns the root mean square over every sample of every channel.
func (b *Buffer) RMS() float64 {
	var sum float64
	n := 0
	for _, data := range b.Samples {
		for _, v := range data {
			sum += v * v
		}
		n += len(data)
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// Scale returns a new buffer with every sample multiplied by gain.
func (b *Buffer) Scale(gain float64) *Buffer {
	out := b.ShapeLike()
	for ch, data := range b.Samples {
		dst := out.Samples[ch]
		for i, v := range data {
			dst[i] = v * gain
		}
	}
	return out
}

// ToStereo duplicates a mono buffer into two channels. Stereo input is
// returned as is.
func (b *Buffer) ToStereo() *Buffer {
	if b.Channels() != 1 {
		return b
	}
	left := b.Samples[0]
	right := append([]float64(nil), left...)
	return &Buffer{Samples: [][]float64{left, right}, SampleRate: b.SampleRate}
}

// FirstChannel returns a mono buffer holding channel 0.
func (b *Buffer) FirstChannel() *Buffer {
	if b.Channels() <= 1 {
		return b
	}
	return &Buffer{Samples: [][]float64{b.Samples[0]}, SampleRate: b.SampleRate}
}

// MonoMix returns the per-frame mean of all channels.
func (b *Buffer) MonoMix() []float64 {
	frames := b.Frames()
	mono := make([]float64, frames)
	if len(b.Samples) == 0 {
		return mono
	}
	for _, data := range b.Samples {
		for i, v := range data {
			mono[i] += v
		}
	}
	inv := 1.0 / float64(len(b.Samples))
	for i := range mono {
		mono[i] *= inv
	}
	return mono
}

// PadTo returns a copy zero-padded to frames. Longer buffers are returned
// unchanged; nothing is ever truncated.
func (b *Buffer) PadTo(frames int) *Buffer {
	if b.Frames() >= frames {
		return b
	}
	out := NewBuffer(b.Channels(), frames, b.SampleRate)
	for ch, data := range b.Samples {
		copy(out.Samples[ch], data)
	}
	return out
}

// IsFinite reports whether every sample is a finite number.
func (b *Buffer) IsFinite() bool {
	for _, data := range b.Samples {
		for _, v := range data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// LinearToDB converts a linear amplitude to dBFS. Zero maps to -Inf.
func LinearToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

// DBToLinear converts dB to a linear gain factor.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
