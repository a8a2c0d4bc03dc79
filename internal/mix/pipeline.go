package mix

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/presets"
)

// ErrNoStemsLoaded is returned when none of a track's stem files could be read.
var ErrNoStemsLoaded = errors.New("no stems could be loaded")

// Processing modes reported in Result.Mode.
const (
	ModeStems   = "stems"
	ModeFullMix = "full_mix"
)

// StemResult reports levels for one stem category before and after its chain.
type StemResult struct {
	Stage    presets.Stage `json:"stem"`
	Files    int           `json:"files"`
	PrePeak  float64       `json:"pre_peak"`
	PreRMS   float64       `json:"pre_rms"`
	PostPeak float64       `json:"post_peak"`
	PostRMS  float64       `json:"post_rms"`
}

// BusCompression reports the remix bus compressor when it was engaged.
type BusCompression struct {
	Ratio    float64 `json:"ratio"`
	PostPeak float64 `json:"post_peak"`
}

// Result is the outcome of polishing one track.
type Result struct {
	Mode       string `json:"mode"`
	Name       string `json:"name"`
	OutputPath string `json:"output_path,omitempty"`
	DryRun     bool   `json:"dry_run"`
	Skipped    bool   `json:"skipped"`

	Stems []StemResult       `json:"stems_processed,omitempty"`
	Bus   *BusCompression    `json:"bus_compression,omitempty"`
	Gains map[string]float64 `json:"gains_db,omitempty"`

	PrePeak     float64 `json:"pre_peak"`
	PreRMS      float64 `json:"pre_rms"`
	PostPeak    float64 `json:"post_peak"`
	PostRMS     float64 `json:"post_rms"`
	StereoWidth float64 `json:"stereo_width,omitempty"`
}

// Mixer runs the stems and full-mix pipelines for one genre.
type Mixer struct {
	Store  *presets.Store
	Genre  string
	Env    Env
	DryRun bool
}

// MixStems loads each stem category, runs its chain, remixes, applies bus
// compression and writes out as PCM16. Unreadable stems are skipped with a
// warning; ErrNoStemsLoaded is returned when nothing could be read. In dry
// run mode only the input levels are measured.
func (m *Mixer) MixStems(ctx context.Context, set StemSet, name, out string) (*Result, error) {
	res := &Result{Mode: ModeStems, Name: name, DryRun: m.DryRun}

	var stems []Stem
	gains := map[presets.Stage]float64{}
	for _, stage := range set.Stages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buf, files := loadStemGroup(set[stage])
		if buf == nil {
			continue
		}

		sr := StemResult{Stage: stage, Files: files, PrePeak: buf.Peak(), PreRMS: buf.RMS()}
		if !m.DryRun {
			settings, err := m.Store.Stage(stage, m.Genre)
			if err != nil {
				return nil, err
			}
			buf, err = Process(stage, buf, settings, m.Env)
			if err != nil {
				return nil, err
			}
			gains[stage] = settings.GainDB
		}
		sr.PostPeak, sr.PostRMS = buf.Peak(), buf.RMS()

		stems = append(stems, Stem{Stage: stage, Buffer: buf})
		res.Stems = append(res.Stems, sr)
	}

	if len(stems) == 0 {
		return res, ErrNoStemsLoaded
	}
	if m.DryRun {
		return res, nil
	}

	mixed, err := Remix(stems, gains)
	if err != nil {
		return nil, err
	}

	bus, err := m.Store.Stage(presets.Bus, m.Genre)
	if err != nil {
		return nil, err
	}
	if compressed := processOrKeep(presets.Bus, mixed, bus, m.Env); compressed != mixed {
		mixed = ceiling(compressed)
		res.Bus = &BusCompression{Ratio: bus.CompressRatio, PostPeak: mixed.Peak()}
	}

	if err := audio.WritePCM16(out, mixed); err != nil {
		return nil, err
	}
	res.OutputPath = out
	res.PostPeak, res.PostRMS = mixed.Peak(), mixed.RMS()
	res.Gains = make(map[string]float64, len(gains))
	for stage, g := range gains {
		res.Gains[string(stage)] = g
	}
	return res, nil
}

// loadStemGroup reads and sums every file of one category. It returns nil
// when no file could be used.
func loadStemGroup(paths []string) (*audio.Buffer, int) {
	var (
		sum   *audio.Buffer
		files int
	)
	for _, p := range paths {
		fields := logrus.Fields{"stem": filepath.Base(p)}
		buf, _, err := audio.ReadWAV(p)
		if err != nil {
			logrus.WithFields(fields).WithError(err).Warn("cannot load stem, skipping")
			continue
		}
		if sum == nil {
			sum, files = buf, 1
			continue
		}
		if buf.SampleRate != sum.SampleRate {
			fields["rate"], fields["expected"] = buf.SampleRate, sum.SampleRate
			logrus.WithFields(fields).Warn("stem sample rate mismatch, skipping")
			continue
		}
		sum = sumStems(sum, buf)
		files++
	}
	return sum, files
}

// MixFull runs the full-mix fallback chain on a single file. Mono input is
// processed as dual mono and written back as mono; stereo width is not
// applied to it.
func (m *Mixer) MixFull(ctx context.Context, in, out string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{Mode: ModeFullMix, Name: filepath.Base(in), DryRun: m.DryRun}

	buf, _, err := audio.ReadWAV(in)
	if errors.Is(err, audio.ErrEmpty) {
		logrus.WithField("file", res.Name).Warn("audio is empty, skipping")
		res.Skipped = true
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	wasMono := buf.Channels() == 1
	buf = buf.ToStereo()
	res.PrePeak, res.PreRMS = buf.Peak(), buf.RMS()
	if m.DryRun {
		return res, nil
	}

	settings, err := m.Store.Stage(presets.FullMix, m.Genre)
	if err != nil {
		return nil, err
	}
	if wasMono {
		settings.StereoWidth = 1.0
	}
	buf, err = Process(presets.FullMix, buf, settings, m.Env)
	if err != nil {
		return nil, err
	}
	if wasMono {
		buf = buf.FirstChannel()
	}

	if err := audio.WritePCM16(out, buf); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", out, err)
	}
	res.OutputPath = out
	res.StereoWidth = settings.StereoWidth
	res.PostPeak, res.PostRMS = buf.Peak(), buf.RMS()
	return res, nil
}
