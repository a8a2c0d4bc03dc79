// Package hum removes mains hum. The fundamental is either configured or
// inferred from the host timezone's country grid frequency.
package hum

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/sirupsen/logrus"
	"github.com/thlib/go-timezone-local/tzlocal"

	"github.com/linuxmatters/trackpolish/internal/audio"
	"github.com/linuxmatters/trackpolish/internal/dsp"
)

// Grid frequencies in Hz.
const (
	Hz50 = 50.0
	Hz60 = 60.0
)

// Harmonics is the number of partials notched, fundamental included.
const Harmonics = 4

// notchQ is the Q of the fundamental notch; harmonics scale it so every
// notch has the same absolute bandwidth.
const notchQ = 10.0

// LocalFrequency returns the grid frequency for the host timezone, falling
// back to 50 Hz when the zone cannot be resolved.
func LocalFrequency() float64 {
	zone, err := tzlocal.RuntimeTZ()
	if err != nil {
		logrus.WithError(err).Debug("cannot resolve local timezone, assuming 50 Hz mains")
		return Hz50
	}
	return FrequencyForTimezone(zone)
}

// FrequencyForTimezone maps an IANA zone to its country's grid frequency.
func FrequencyForTimezone(zone string) float64 {
	if zone == "UTC" || zone == "GMT" || strings.HasPrefix(zone, "Etc/") {
		return Hz50
	}

	countries, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return Hz50
	}
	country, err := countries.GetCountry(zone)
	if err != nil {
		return Hz50
	}
	if sixtyHertz[country] {
		return Hz60
	}
	// Japan runs both; the eastern 50 Hz grid serves Tokyo.
	return Hz50
}

// Resolve returns configured when positive, otherwise the local grid frequency.
func Resolve(configured float64) float64 {
	if configured > 0 {
		return configured
	}
	return LocalFrequency()
}

// Reduce notches the fundamental and its harmonics by depthDB. A zero depth
// or fundamental returns buf unchanged; harmonics at or above nyquist are
// skipped by the filter bank.
func Reduce(buf *audio.Buffer, fundamental, depthDB float64) *audio.Buffer {
	if depthDB == 0 || fundamental <= 0 {
		return buf
	}
	nyquist := float64(buf.SampleRate) / 2
	for h := 1; h <= Harmonics; h++ {
		freq := fundamental * float64(h)
		if freq >= nyquist {
			break
		}
		buf = dsp.Notch(buf, freq, notchQ*float64(h), depthDB)
	}
	return buf
}

// sixtyHertz lists countries on a 60 Hz grid. Everything else is 50 Hz.
var sixtyHertz = map[string]bool{
	"American Samoa":      true,
	"Bahamas":             true,
	"Barbados":            true,
	"Belize":              true,
	"Brazil":              true,
	"Canada":              true,
	"Cayman Islands":      true,
	"Colombia":            true,
	"Costa Rica":          true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Ecuador":             true,
	"El Salvador":         true,
	"Guam":                true,
	"Guatemala":           true,
	"Guyana":              true,
	"Haiti":               true,
	"Honduras":            true,
	"Jamaica":             true,
	"Marshall Islands":    true,
	"Mexico":              true,
	"Micronesia":          true,
	"Nicaragua":           true,
	"Palau":               true,
	"Panama":              true,
	"Peru":                true,
	"Philippines":         true,
	"Puerto Rico":         true,
	"Saudi Arabia":        true,
	"South Korea":         true,
	"Suriname":            true,
	"Taiwan":              true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,
	"United States":       true,
	"Venezuela":           true,
}
