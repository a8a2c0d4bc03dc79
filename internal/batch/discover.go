// Package batch discovers album inputs and runs per-track work across a
// bounded worker pool, reassembling results in input order.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Album layout.
const (
	StemsDir     = "stems"
	OriginalsDir = "originals"
)

var (
	// ErrDirectoryNotFound is returned when the album directory is missing.
	ErrDirectoryNotFound = errors.New("directory not found")
	// ErrOutputOutsideInput is returned when an output path escapes the
	// input directory.
	ErrOutputOutsideInput = errors.New("output directory must be within input directory")
	// ErrNoInputs is returned when discovery finds nothing to process.
	ErrNoInputs = errors.New("no inputs found")
)

// excluded path fragments belong to tooling environments, not audio.
var excluded = []string{"venv", "mastering-env"}

// ResolveDir expands a leading ~ and returns the absolute path of dir,
// failing with ErrDirectoryNotFound when it is not a directory.
func ResolveDir(dir string) (string, error) {
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, abs)
	}
	return abs, nil
}

// EnsureWithin returns target made absolute, or ErrOutputOutsideInput when
// it does not lie inside base. base itself is allowed.
func EnsureWithin(base, target string) (string, error) {
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)
	rel, err := filepath.Rel(filepath.Clean(base), target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutputOutsideInput, target)
	}
	return target, nil
}

// WAVFiles lists the .wav files (any case) directly inside dir, sorted by
// name, skipping tooling environments.
func WAVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if isExcluded(path) {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

func isExcluded(path string) bool {
	for _, frag := range excluded {
		if strings.Contains(path, frag) {
			return true
		}
	}
	return false
}

// FullMixSource returns the directory holding full-mix inputs: the
// originals subdirectory when present, otherwise dir itself.
func FullMixSource(dir string) string {
	originals := filepath.Join(dir, OriginalsDir)
	if info, err := os.Stat(originals); err == nil && info.IsDir() {
		return originals
	}
	return dir
}

// TrackDir is one track's stem folder.
type TrackDir struct {
	Name string
	Path string
}

// StemTracks lists the per-track folders under dir/stems, sorted by name.
func StemTracks(dir string) ([]TrackDir, error) {
	root := filepath.Join(dir, StemsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no %s/ directory in %s", ErrNoInputs, StemsDir, dir)
		}
		return nil, err
	}
	var tracks []TrackDir
	for _, e := range entries {
		if !e.IsDir() || isExcluded(e.Name()) {
			continue
		}
		tracks = append(tracks, TrackDir{Name: e.Name(), Path: filepath.Join(root, e.Name())})
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Name < tracks[j].Name })
	return tracks, nil
}
