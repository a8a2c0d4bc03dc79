// Package qc runs technical quality checks on rendered tracks and reports a
// PASS/WARN/FAIL verdict per check and per track.
package qc

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/linuxmatters/trackpolish/internal/audio"
)

// Check names one QC check.
type Check string

// Available checks, in report order.
const (
	Format   Check = "format"
	Mono     Check = "mono"
	Phase    Check = "phase"
	Clipping Check = "clipping"
	Clicks   Check = "clicks"
	Silence  Check = "silence"
	Spectral Check = "spectral"
)

// AllChecks lists every check in report order.
var AllChecks = []Check{Format, Mono, Phase, Clipping, Clicks, Silence, Spectral}

// ErrUnknownCheck is returned by ParseChecks for names outside AllChecks.
var ErrUnknownCheck = errors.New("unknown check")

// Status is a check outcome. Statuses order PASS < WARN < FAIL.
type Status string

const (
	Pass Status = "PASS"
	Warn Status = "WARN"
	Fail Status = "FAIL"
)

func (s Status) rank() int {
	switch s {
	case Fail:
		return 2
	case Warn:
		return 1
	default:
		return 0
	}
}

// Worse returns the more severe of s and o.
func (s Status) Worse(o Status) Status {
	if o.rank() > s.rank() {
		return o
	}
	return s
}

// Result is the outcome of a single check.
type Result struct {
	Status Status `json:"status"`
	Value  string `json:"value"`
	Detail string `json:"detail"`
}

// Report holds the requested checks for one file. Checks that were not
// requested are absent.
type Report struct {
	Filename string           `json:"filename"`
	Checks   map[Check]Result `json:"checks"`
	Verdict  Status           `json:"verdict"`
}

// Ran returns the checks present in the report, in report order.
func (r *Report) Ran() []Check {
	var out []Check
	for _, c := range AllChecks {
		if _, ok := r.Checks[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Issues returns the non-passing checks in report order.
func (r *Report) Issues() []Check {
	var out []Check
	for _, c := range r.Ran() {
		if r.Checks[c].Status != Pass {
			out = append(out, c)
		}
	}
	return out
}

// ParseChecks parses a comma separated list of check names. An empty string
// selects every check.
func ParseChecks(s string) ([]Check, error) {
	if strings.TrimSpace(s) == "" {
		return AllChecks, nil
	}
	var (
		out     []Check
		invalid []string
	)
	for _, part := range strings.Split(s, ",") {
		name := Check(strings.ToLower(strings.TrimSpace(part)))
		if !valid(name) {
			invalid = append(invalid, string(name))
			continue
		}
		out = append(out, name)
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCheck, strings.Join(invalid, ", "))
	}
	return out, nil
}

func valid(c Check) bool {
	for _, known := range AllChecks {
		if c == known {
			return true
		}
	}
	return false
}

// Run checks the audio file at path. A nil or empty checks slice runs every
// check.
func Run(path string, checks []Check) (*Report, error) {
	buf, meta, err := audio.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Inspect(filepath.Base(path), buf, meta, checks), nil
}

// Inspect checks a decoded buffer. meta is only consulted by the format
// check. Mono input is analysed as two identical channels.
func Inspect(name string, buf *audio.Buffer, meta *audio.Metadata, checks []Check) *Report {
	if len(checks) == 0 {
		checks = AllChecks
	}
	want := make(map[Check]bool, len(checks))
	for _, c := range checks {
		want[c] = true
	}

	data := buf.ToStereo()
	rate := buf.SampleRate
	r := &Report{Filename: name, Checks: make(map[Check]Result, len(checks)), Verdict: Pass}

	for _, c := range AllChecks {
		if !want[c] {
			continue
		}
		var res Result
		switch c {
		case Format:
			res = checkFormat(meta)
		case Mono:
			res = checkMono(data)
		case Phase:
			res = checkPhase(data, rate)
		case Clipping:
			res = checkClipping(data)
		case Clicks:
			res = checkClicks(data, rate)
		case Silence:
			res = checkSilence(data, rate)
		case Spectral:
			res = checkSpectral(data, rate)
		}
		r.Checks[c] = res
		r.Verdict = r.Verdict.Worse(res.Status)
		logrus.WithFields(logrus.Fields{
			"file":   name,
			"check":  c,
			"status": res.Status,
			"value":  res.Value,
		}).Debug("qc")
	}
	return r
}

// Tally counts verdicts across reports.
type Tally struct {
	Total int
	Pass  int
	Warn  int
	Fail  int
}

// Count tallies the verdicts of reports, ignoring nil entries.
func Count(reports []*Report) Tally {
	var t Tally
	for _, r := range reports {
		if r == nil {
			continue
		}
		t.Total++
		switch r.Verdict {
		case Pass:
			t.Pass++
		case Warn:
			t.Warn++
		case Fail:
			t.Fail++
		}
	}
	return t
}
