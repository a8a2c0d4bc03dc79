package qc

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/spectrum"
)

// Thresholds.
const (
	clipLevel         = 0.99
	clipMinRun        = 3
	clickWindowSec    = 0.01
	clickRatio        = 6.0
	clickFloor        = 1e-8
	phaseWindowSec    = 0.5
	phaseFloor        = 1e-6
	silenceDB         = -60.0
	maxLeadingSec     = 0.5
	maxTrailingSec    = 3.0
	maxGapSec         = 0.5
	monoWarnDB        = 1.0
	monoFailDB        = 3.0
	tinnyWarn         = 0.8
	tinnyFail         = 1.2
	minSubBassPercent = 1.0
	minHighsPercent   = 1.0
)

var (
	validRates    = map[int]bool{44100: true, 48000: true}
	validSubtypes = map[string]bool{"PCM_16": true, "PCM_24": true, "FLOAT": true, "DOUBLE": true}
)

func checkFormat(meta *audio.Metadata) Result {
	status := Pass
	var issues []string

	if meta.Format != "WAV" {
		issues = append(issues, fmt.Sprintf("Format is %s, expected WAV", meta.Format))
		status = Fail
	}
	if !validRates[meta.SampleRate] {
		issues = append(issues, fmt.Sprintf("Sample rate %d Hz, expected 44100 or 48000", meta.SampleRate))
		status = Fail
	}
	if !validSubtypes[meta.Subtype] {
		issues = append(issues, fmt.Sprintf("Bit depth %s not standard", meta.Subtype))
		status = Fail
	}
	switch meta.Channels {
	case 1:
		status = status.Worse(Warn)
		issues = append(issues, "Mono file (auto-fixable)")
	case 2:
	default:
		issues = append(issues, fmt.Sprintf("%d channels, expected stereo", meta.Channels))
		status = Fail
	}

	detail := strings.Join(issues, "; ")
	if detail == "" {
		detail = fmt.Sprintf("%s %dHz %dch %s", meta.Subtype, meta.SampleRate, meta.Channels, meta.Format)
	}
	return Result{
		Status: status,
		Value:  fmt.Sprintf("%s %dHz %dch", meta.Subtype, meta.SampleRate, meta.Channels),
		Detail: detail,
	}
}

// checkMono compares the energy of the L+R fold with twice the summed
// channel energy; identical channels lose nothing.
func checkMono(data *audio.Buffer) Result {
	if data.Channels() < 2 {
		return Result{Status: Pass, Value: "0.0 dB", Detail: "Mono file, N/A"}
	}
	left, right := data.Samples[0], data.Samples[1]

	var stereoEnergy, monoEnergy float64
	for i := range left {
		stereoEnergy += left[i]*left[i] + right[i]*right[i]
		m := left[i] + right[i]
		monoEnergy += m * m
	}
	if stereoEnergy == 0 {
		return Result{Status: Pass, Value: "0.0 dB", Detail: "Silent file"}
	}

	ratio := monoEnergy / (2 * stereoEnergy)
	loss := 99.0
	if ratio > 0 {
		loss = math.Abs(10 * math.Log10(ratio))
	}

	res := Result{Value: fmt.Sprintf("%.1f dB loss", loss)}
	switch {
	case loss < monoWarnDB:
		res.Status = Pass
		res.Detail = "Mono fold energy OK"
	case loss < monoFailDB:
		res.Status = Warn
	default:
		res.Status = Fail
	}
	if res.Detail == "" {
		res.Detail = fmt.Sprintf("Mono fold energy loss of %.1f dB", loss)
	}
	return res
}

// checkPhase averages the channel correlation over 500 ms windows, skipping
// windows where either channel is silent.
func checkPhase(data *audio.Buffer, rate int) Result {
	if data.Channels() < 2 {
		return Result{Status: Pass, Value: "1.00", Detail: "Mono file, N/A"}
	}
	left, right := data.Samples[0], data.Samples[1]
	win := int(float64(rate) * phaseWindowSec)

	var sum float64
	var n int
	for start := 0; win > 0 && start < len(left)-win; start += win {
		l := left[start : start+win]
		r := right[start : start+win]
		if peak(l) < phaseFloor || peak(r) < phaseFloor {
			continue
		}
		corr := stat.Correlation(l, r, nil)
		if math.IsNaN(corr) {
			continue
		}
		sum += corr
		n++
	}
	if n == 0 {
		return Result{Status: Pass, Value: "N/A", Detail: "No significant audio to measure"}
	}

	mean := sum / float64(n)
	res := Result{Value: fmt.Sprintf("%.2f", mean)}
	switch {
	case mean > 0.5:
		res.Status = Pass
		res.Detail = "Phase correlation good"
	case mean >= 0:
		res.Status = Warn
		res.Detail = "Phase correlation weak, may have mono issues"
	default:
		res.Status = Fail
		res.Detail = "Phase correlation out of phase"
	}
	return res
}

// checkClipping counts runs of at least three frames where any channel
// reaches the clip level.
func checkClipping(data *audio.Buffer) Result {
	regions, run := 0, 0
	for i := 0; i < data.Frames(); i++ {
		clipped := false
		for _, ch := range data.Samples {
			if math.Abs(ch[i]) >= clipLevel {
				clipped = true
				break
			}
		}
		if clipped {
			run++
			continue
		}
		if run >= clipMinRun {
			regions++
		}
		run = 0
	}
	if run >= clipMinRun {
		regions++
	}

	detail := "No clipping detected"
	if regions > 0 {
		detail = fmt.Sprintf("%d clipping region(s) found", regions)
	}
	return Result{
		Status: countStatus(regions),
		Value:  fmt.Sprintf("%d regions", regions),
		Detail: detail,
	}
}

// checkClicks flags 10 ms windows of the mono mix whose peak exceeds six
// times their RMS.
func checkClicks(data *audio.Buffer, rate int) Result {
	mono := data.MonoMix()
	win := max(int(float64(rate)*clickWindowSec), 1)

	clicks := 0
	for start := 0; start < len(mono)-win; start += win {
		w := mono[start : start+win]
		var sq float64
		for _, v := range w {
			sq += v * v
		}
		rms := math.Sqrt(sq / float64(win))
		if rms < clickFloor {
			continue
		}
		if peak(w) > clickRatio*rms {
			clicks++
		}
	}

	detail := "No clicks/pops"
	if clicks > 0 {
		detail = fmt.Sprintf("%d transient spike(s) detected", clicks)
	}
	return Result{
		Status: countStatus(clicks),
		Value:  fmt.Sprintf("%d found", clicks),
		Detail: detail,
	}
}

// checkSilence measures leading, trailing and interior silence of the mono
// mix at -60 dBFS. Long leading silence and interior gaps fail; trailing
// silence only warns. An all-silent file counts as both leading and
// trailing silence, so one of 0.5s or less passes the check.
func checkSilence(data *audio.Buffer, rate int) Result {
	mono := data.MonoMix()
	threshold := audio.DBToLinear(silenceDB)
	silent := func(i int) bool { return math.Abs(mono[i]) < threshold }

	leading := 0
	for leading < len(mono) && silent(leading) {
		leading++
	}
	trailing := 0
	for trailing < len(mono) && silent(len(mono)-1-trailing) {
		trailing++
	}
	leadingSec := float64(leading) / float64(rate)
	trailingSec := float64(trailing) / float64(rate)

	status := Pass
	var issues []string
	if leadingSec > maxLeadingSec {
		status = Fail
		issues = append(issues, fmt.Sprintf("Leading silence: %.1fs", leadingSec))
	}
	if trailingSec > maxTrailingSec {
		status = status.Worse(Warn)
		issues = append(issues, fmt.Sprintf("Trailing silence: %.1fs", trailingSec))
	}

	gapMin := int(float64(rate) * maxGapSec)
	end := len(mono) - trailing
	if end > leading {
		gaps, run := 0, 0
		for i := leading; i < end; i++ {
			if silent(i) {
				run++
				continue
			}
			if run >= gapMin {
				gaps++
			}
			run = 0
		}
		if run >= gapMin {
			gaps++
		}
		if gaps > 0 {
			status = Fail
			issues = append(issues, fmt.Sprintf("%d internal gap(s) > 0.5s", gaps))
		}
	}
	detail := strings.Join(issues, "; ")
	if detail == "" {
		detail = "No silence issues"
	}
	return Result{
		Status: status,
		Value:  fmt.Sprintf("L:%.1fs T:%.1fs", leadingSec, trailingSec),
		Detail: detail,
	}
}

// checkSpectral looks for missing sub-bass, missing highs and a high-mid
// spike relative to the mids.
func checkSpectral(data *audio.Buffer, rate int) Result {
	bal := spectrum.Analyze(data.MonoMix(), rate)
	if bal.Total == 0 {
		return Result{Status: Warn, Value: "silent", Detail: "No spectral energy"}
	}

	status := Pass
	var issues []string
	if sub := bal.Percent[spectrum.SubBass]; sub < minSubBassPercent {
		issues = append(issues, fmt.Sprintf("Sub-bass very low (%.1f%%)", sub))
		status = Warn
	}
	if bal.Percent[spectrum.Mid] > 0 {
		if t := bal.Tinniness(); t > tinnyWarn {
			issues = append(issues, fmt.Sprintf("High-mid spike (tinniness ratio %.2f)", t))
			status = Warn
			if t > tinnyFail {
				status = Fail
			}
		}
	}
	highs := bal.Highs()
	if highs < minHighsPercent {
		issues = append(issues, fmt.Sprintf("No highs (%.1f%%)", highs))
		status = status.Worse(Warn)
	}

	detail := strings.Join(issues, "; ")
	if detail == "" {
		detail = "Balanced spectrum"
	}
	return Result{
		Status: status,
		Value:  fmt.Sprintf("B:%.0f%% M:%.0f%% H:%.0f%%", bal.Lows(), bal.Mids(), highs),
		Detail: detail,
	}
}

// countStatus grades a defect count: none passes, up to three warns.
func countStatus(n int) Status {
	switch {
	case n == 0:
		return Pass
	case n <= 3:
		return Warn
	default:
		return Fail
	}
}

func peak(x []float64) float64 {
	var p float64
	for _, v := range x {
		p = math.Max(p, math.Abs(v))
	}
	return p
}
