// Package denoise provides the noise-reduction capability used by the mix
// chains. Callers depend on the NoiseReducer interface; SpectralGate is the
// shipped implementation and Nop is the fallback when gating is disabled.
package denoise

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/trackpolish/internal/audio"
)

// NoiseReducer removes broadband noise from a buffer. strength runs from 0
// (bypass) to 1 (full attenuation of gated bins). Implementations return a
// buffer with the same shape and never mutate the input.
type NoiseReducer interface {
	Reduce(buf *audio.Buffer, strength float64) *audio.Buffer
}

// Reduce applies r with the shared strength policy: strength <= 0 is a no-op
// whatever the implementation, and values above 1 clamp to 1.
func Reduce(r NoiseReducer, buf *audio.Buffer, strength float64) *audio.Buffer {
	if strength <= 0 || r == nil {
		return buf
	}
	return r.Reduce(buf, math.Min(strength, 1))
}

// Nop is a NoiseReducer that logs once and passes audio through.
type Nop struct {
	once sync.Once
}

// Reduce implements NoiseReducer.
func (n *Nop) Reduce(buf *audio.Buffer, strength float64) *audio.Buffer {
	if strength > 0 {
		n.once.Do(func() {
			logrus.Warn("noise reduction unavailable, skipping")
		})
	}
	return buf
}

// New returns the default reducer. When enabled is false the Nop reducer is
// returned so chains still run without spectral gating.
func New(enabled bool) NoiseReducer {
	if !enabled {
		return &Nop{}
	}
	return NewSpectralGate()
}
