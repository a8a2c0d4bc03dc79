// Package mix polishes stems and full mixes: per-stem processing chains,
// stem discovery, the remix bus, and the full-mix fallback chain.
package mix

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/denoise"
	"github.com/linuxmatters/trackpolish/internal/dsp"
	"github.com/linuxmatters/trackpolish/internal/hum"
	"github.com/linuxmatters/trackpolish/internal/presets"
)

// StepID identifies one processing step in a chain.
type StepID string

// Chain steps. Each step is a no-op at its neutral setting.
const (
	StepNoiseReduction StepID = "noise_reduction"
	StepHighpass       StepID = "highpass"
	StepHum            StepID = "hum"
	StepClickRemoval   StepID = "click_removal"
	StepMudCut         StepID = "mud_cut"   // peaking cut, Q 1.0
	StepPresence       StepID = "presence"  // peaking boost, Q 1.5
	StepMidBoost       StepID = "mid_boost" // peaking boost, Q 1.0
	StepHighTame       StepID = "high_tame" // high shelf
	StepCompress       StepID = "compress"
	StepSaturation     StepID = "saturation"
	StepLowpass        StepID = "lowpass" // below 20 kHz only
	StepStereoWidth    StepID = "stereo_width"
)

// Filter Q values used by the chains.
const (
	mudQ      = 1.0
	presenceQ = 1.5
	midQ      = 1.0
)

// lowpassBypass is the cutoff at and above which the lowpass step is skipped.
const lowpassBypass = 20000.0

// instrumentOrder is shared by the pitched instrument stems.
var instrumentOrder = []StepID{
	StepHighpass,
	StepMudCut,
	StepPresence,
	StepHighTame,
	StepCompress,
	StepSaturation,
	StepStereoWidth,
}

var vocalOrder = []StepID{
	StepNoiseReduction,
	StepPresence,
	StepHighTame,
	StepCompress,
	StepSaturation,
	StepLowpass,
}

// StageOrder is the ordered step list for each stage.
var StageOrder = map[presets.Stage][]StepID{
	presets.Vocals:        vocalOrder,
	presets.BackingVocals: vocalOrder,
	presets.Drums: {
		StepClickRemoval,
		StepCompress,
		StepSaturation,
	},
	presets.Percussion: {
		StepClickRemoval,
		StepHighpass,
		StepPresence,
		StepCompress,
		StepSaturation,
	},
	presets.Bass:      instrumentOrder,
	presets.Guitar:    instrumentOrder,
	presets.Keyboard:  instrumentOrder,
	presets.Strings:   instrumentOrder,
	presets.Brass:     instrumentOrder,
	presets.Woodwinds: instrumentOrder,
	presets.Synth: {
		StepHighpass,
		StepMidBoost,
		StepHighTame,
		StepCompress,
		StepSaturation,
		StepStereoWidth,
	},
	presets.Other: {
		StepNoiseReduction,
		StepMudCut,
		StepHighTame,
		StepLowpass,
	},
	presets.Bus: {
		StepCompress,
	},
	presets.FullMix: {
		StepNoiseReduction,
		StepHighpass,
		StepHum,
		StepClickRemoval,
		StepMudCut,
		StepPresence,
		StepHighTame,
		StepCompress,
		StepSaturation,
		StepLowpass,
		StepStereoWidth,
	},
}

// Env carries the collaborators a chain needs beyond its settings.
type Env struct {
	// Denoiser performs noise reduction. Nil disables the step.
	Denoiser denoise.NoiseReducer
	// MainsHz is the resolved grid frequency used when a stage leaves
	// hum_freq at 0. Zero means look it up from the local timezone.
	MainsHz float64
}

func (e Env) mains(configured float64) float64 {
	if configured <= 0 && e.MainsHz > 0 {
		return e.MainsHz
	}
	return hum.Resolve(configured)
}

// ChainFunc processes one buffer with resolved settings.
type ChainFunc func(buf *audio.Buffer, s presets.StageSettings, env Env) *audio.Buffer

type stepFunc func(buf *audio.Buffer, s presets.StageSettings, env Env) *audio.Buffer

var steps = map[StepID]stepFunc{
	StepNoiseReduction: func(buf *audio.Buffer, s presets.StageSettings, env Env) *audio.Buffer {
		return denoise.Reduce(env.Denoiser, buf, s.NoiseReduction)
	},
	StepHighpass: func(buf *audio.Buffer, s presets.StageSettings, _ Env) *audio.Buffer {
		return dsp.Highpass(buf, s.HighpassCutoff)
	},
	StepHum: func(buf *audio.Buffer, s presets.StageSettings, env Env) *audio.Buffer {
		if s.HumReductionDB == 0 {
			return buf
		}
		return hum.Reduce(buf, env.mains(s.HumFreq), s.HumReductionDB)
	},
	StepClickRemoval: func(buf *audio.Buffer, s presets.StageSettings, _ Env) *audio.Buffer {
		if !s.ClickRemoval {
			return buf
		}
		return dsp.RemoveClicks(buf, s.ClickThreshold)
	},
	StepMudCut: func(buf *audio.Buffer, s presets.StageSettings, _ Env) *audio.Buffer {
		return dsp.PeakingEQ(buf, s.MudFreq, s.MudCutDB, mudQ)
	},
	StepPresence: func(buf *audio.Buffer, s presets.StageSettings, _ Env) *audio.Buffer {
		return dsp.PeakingEQ(buf, s.PresenceFreq, s.PresenceBoostDB, presenceQ)
	},
	StepMidBoost: func(buf *audio.Buffer, s presets.StageSettings, _ Env) *audio.Buffer {
		return dsp.PeakingEQ(buf, s.MidFreq, s.MidBoostDB, midQ)
	},
	StepHighTame: func(buf *audio.Buffer, s presets.StageSettings, _ Env) *audio.Buffer {
		return dsp.HighShelf(buf, s.HighTameFreq, s.HighTameDB)
	},
	StepCompress: func(buf *audio.Buffer, s presets.StageSettings, _ Env) *audio.Buffer {
		return dsp.Compress(buf, s.Compressor())
	},
	StepSaturation: func(buf *audio.Buffer, s presets.StageSettings, _ Env) *audio.Buffer {
		return dsp.Saturate(buf, s.SaturationDrive, s.SaturationTone)
	},
	StepLowpass: func(buf *audio.Buffer, s presets.StageSettings, _ Env) *audio.Buffer {
		if s.LowpassCutoff >= lowpassBypass {
			return buf
		}
		return dsp.Lowpass(buf, s.LowpassCutoff)
	},
	StepStereoWidth: func(buf *audio.Buffer, s presets.StageSettings, _ Env) *audio.Buffer {
		return dsp.StereoWidth(buf, s.StereoWidth)
	},
}

// Chain returns the processing function for stage.
func Chain(stage presets.Stage) (ChainFunc, error) {
	order, ok := StageOrder[stage]
	if !ok {
		return nil, fmt.Errorf("%w: %q", presets.ErrUnknownStage, string(stage))
	}
	return func(buf *audio.Buffer, s presets.StageSettings, env Env) *audio.Buffer {
		for _, id := range order {
			next := steps[id](buf, s, env)
			if next != buf {
				logrus.WithFields(logrus.Fields{"stage": stage, "step": id}).Debug("applied")
			}
			buf = next
		}
		return buf
	}, nil
}

// Process runs stage's chain over buf.
func Process(stage presets.Stage, buf *audio.Buffer, s presets.StageSettings, env Env) (*audio.Buffer, error) {
	chain, err := Chain(stage)
	if err != nil {
		return nil, err
	}
	return chain(buf, s, env), nil
}

// processOrKeep is Process for optional stages: a failure is logged and buf
// is returned unprocessed.
func processOrKeep(stage presets.Stage, buf *audio.Buffer, s presets.StageSettings, env Env) *audio.Buffer {
	out, err := Process(stage, buf, s, env)
	if err != nil {
		logrus.WithError(err).WithField("stage", stage).Warn("stage failed, keeping unprocessed audio")
		return buf
	}
	return out
}
