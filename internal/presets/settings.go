package presets

import (
	"github.com/linuxmatters/trackpolish/internal/dsp"
)

// StageSettings is the fully resolved parameter set for one stage. Zero or
// neutral values disable the corresponding chain step.
type StageSettings struct {
	NoiseReduction float64 `yaml:"noise_reduction" json:"noise_reduction"`

	HighpassCutoff float64 `yaml:"highpass_cutoff" json:"highpass_cutoff"`
	LowpassCutoff  float64 `yaml:"lowpass_cutoff" json:"lowpass_cutoff"`

	PresenceBoostDB float64 `yaml:"presence_boost_db" json:"presence_boost_db"`
	PresenceFreq    float64 `yaml:"presence_freq" json:"presence_freq"`
	HighTameDB      float64 `yaml:"high_tame_db" json:"high_tame_db"`
	HighTameFreq    float64 `yaml:"high_tame_freq" json:"high_tame_freq"`
	MudCutDB        float64 `yaml:"mud_cut_db" json:"mud_cut_db"`
	MudFreq         float64 `yaml:"mud_freq" json:"mud_freq"`
	MidBoostDB      float64 `yaml:"mid_boost_db" json:"mid_boost_db"`
	MidFreq         float64 `yaml:"mid_freq" json:"mid_freq"`

	CompressThresholdDB float64 `yaml:"compress_threshold_db" json:"compress_threshold_db"`
	CompressRatio       float64 `yaml:"compress_ratio" json:"compress_ratio"`
	CompressAttackMs    float64 `yaml:"compress_attack_ms" json:"compress_attack_ms"`
	CompressReleaseMs   float64 `yaml:"compress_release_ms" json:"compress_release_ms"`

	SaturationDrive float64 `yaml:"saturation_drive" json:"saturation_drive"`
	SaturationTone  string  `yaml:"saturation_tone" json:"saturation_tone"`

	ClickRemoval   bool    `yaml:"click_removal" json:"click_removal"`
	ClickThreshold float64 `yaml:"click_threshold" json:"click_threshold"`

	HumReductionDB float64 `yaml:"hum_reduction_db" json:"hum_reduction_db"`
	HumFreq        float64 `yaml:"hum_freq" json:"hum_freq"`

	StereoWidth float64 `yaml:"stereo_width" json:"stereo_width"`
	GainDB      float64 `yaml:"gain_db" json:"gain_db"`
}

// Neutral returns settings where every step is bypassed. Decoding a preset
// on top of Neutral leaves unspecified parameters inert.
func Neutral() StageSettings {
	return StageSettings{
		LowpassCutoff:       20000,
		PresenceFreq:        3000,
		HighTameFreq:        7000,
		MudFreq:             250,
		MidFreq:             1000,
		CompressThresholdDB: -15,
		CompressRatio:       1.0,
		CompressAttackMs:    10,
		CompressReleaseMs:   100,
		SaturationTone:      dsp.ToneWarm,
		ClickThreshold:      dsp.DefaultClickThreshold,
		StereoWidth:         1.0,
	}
}

// Compressor returns the compressor parameters for this stage.
func (s StageSettings) Compressor() dsp.CompressorParams {
	return dsp.CompressorParams{
		ThresholdDB: s.CompressThresholdDB,
		Ratio:       s.CompressRatio,
		AttackMs:    s.CompressAttackMs,
		ReleaseMs:   s.CompressReleaseMs,
	}
}

// MasterPreset is a genre's mastering target.
type MasterPreset struct {
	TargetLUFS float64 `yaml:"target_lufs" json:"target_lufs"`
	CutHighmid float64 `yaml:"cut_highmid" json:"cut_highmid"`
	CutHighs   float64 `yaml:"cut_highs" json:"cut_highs"`
}

// DefaultMasterPreset is used when neither built-in nor user documents set a
// field.
var DefaultMasterPreset = MasterPreset{TargetLUFS: -14.0}

// Mastering EQ band placement.
const (
	HighmidFreq = 3500.0
	HighmidQ    = 1.5
	HighsFreq   = 8000.0
	HighsQ      = 0.7
)

// EQBands renders the preset cuts as peaking bands. Zero cuts are omitted.
func (p MasterPreset) EQBands() []dsp.EQBand {
	return EQBands(p.CutHighmid, p.CutHighs)
}

// EQBands builds the mastering EQ from explicit cut amounts.
func EQBands(cutHighmid, cutHighs float64) []dsp.EQBand {
	var bands []dsp.EQBand
	if cutHighmid != 0 {
		bands = append(bands, dsp.EQBand{Freq: HighmidFreq, GainDB: cutHighmid, Q: HighmidQ})
	}
	if cutHighs != 0 {
		bands = append(bands, dsp.EQBand{Freq: HighsFreq, GainDB: cutHighs, Q: HighsQ})
	}
	return bands
}
