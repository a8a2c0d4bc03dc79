// Package presets resolves per-stage mix settings and mastering targets from
// the built-in genre documents and an optional user override directory.
package presets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrUnknownGenre is returned when a genre is in neither the built-in nor
// the user documents.
var ErrUnknownGenre = errors.New("unknown genre")

// Override file names looked up inside Options.OverridesDir.
const (
	MixOverrideFile    = "mix-presets.yaml"
	MasterOverrideFile = "mastering-presets.yaml"
)

//go:embed mix-presets.yaml
var builtinMix []byte

//go:embed mastering-presets.yaml
var builtinMaster []byte

// Options configures Load.
type Options struct {
	// OverridesDir holds optional user mix-presets.yaml and
	// mastering-presets.yaml files. Empty disables user overrides.
	OverridesDir string
}

// document is one parsed {defaults, genres} preset file.
type document struct {
	defaults map[string]any
	genres   map[string]map[string]any
}

// Store holds the resolved preset documents. It is read-only after Load and
// safe for concurrent use.
type Store struct {
	mixBuiltin    document
	mixUser       document
	masterBuiltin document
	masterUser    document
}

// Load parses the embedded presets and any user overrides. A missing, empty
// or malformed override file is logged and ignored; only a broken built-in
// document is an error.
func Load(opts Options) (*Store, error) {
	s := &Store{}
	var err error
	if s.mixBuiltin, err = parseDocument(builtinMix); err != nil {
		return nil, fmt.Errorf("built-in mix presets: %w", err)
	}
	if s.masterBuiltin, err = parseDocument(builtinMaster); err != nil {
		return nil, fmt.Errorf("built-in mastering presets: %w", err)
	}
	if opts.OverridesDir != "" {
		s.mixUser = loadOverride(filepath.Join(opts.OverridesDir, MixOverrideFile))
		s.masterUser = loadOverride(filepath.Join(opts.OverridesDir, MasterOverrideFile))
	}
	return s, nil
}

// loadOverride reads a user document, degrading to an empty one on any error.
func loadOverride(path string) document {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logrus.WithError(err).WithField("path", path).Warn("cannot read preset overrides, ignoring")
		}
		return document{}
	}
	doc, err := parseDocument(data)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Warn("invalid preset overrides, ignoring")
		return document{}
	}
	logrus.WithField("path", path).Debug("loaded preset overrides")
	return doc
}

func parseDocument(data []byte) (document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return document{}, err
	}
	doc := document{genres: map[string]map[string]any{}}
	if d, ok := raw["defaults"].(map[string]any); ok {
		doc.defaults = d
	}
	if g, ok := raw["genres"].(map[string]any); ok {
		for name, v := range g {
			if m, ok := v.(map[string]any); ok {
				doc.genres[strings.ToLower(name)] = m
			}
		}
	}
	return doc, nil
}

func (d document) genre(name string) (map[string]any, bool) {
	g, ok := d.genres[name]
	return g, ok
}

// section returns m[key] as a map, or nil.
func section(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

// normaliseGenre lower-cases a genre and checks it against both documents.
func normaliseGenre(genre string, builtin, user document) (string, error) {
	key := strings.ToLower(strings.TrimSpace(genre))
	if key == "" {
		return "", nil
	}
	if _, ok := builtin.genre(key); ok {
		return key, nil
	}
	if _, ok := user.genre(key); ok {
		return key, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownGenre, genre)
}

// Stage resolves settings for stage under genre. An empty genre returns the
// defaults. Layers apply lowest to highest: built-in defaults, built-in
// genre, user defaults, user genre.
func (s *Store) Stage(stage Stage, genre string) (StageSettings, error) {
	if !stage.valid() {
		return StageSettings{}, fmt.Errorf("%w: %q", ErrUnknownStage, string(stage))
	}
	key, err := normaliseGenre(genre, s.mixBuiltin, s.mixUser)
	if err != nil {
		return StageSettings{}, err
	}

	name := string(stage)
	merged := section(s.mixBuiltin.defaults, name)
	if key != "" {
		bg, _ := s.mixBuiltin.genre(key)
		merged = DeepMerge(merged, section(bg, name))
	}
	merged = DeepMerge(merged, validKeys[StageSettings](section(s.mixUser.defaults, name), name))
	if key != "" {
		ug, _ := s.mixUser.genre(key)
		merged = DeepMerge(merged, validKeys[StageSettings](section(ug, name), name))
	}

	settings := Neutral()
	if err := decode(merged, &settings); err != nil {
		return StageSettings{}, fmt.Errorf("%s settings: %w", name, err)
	}
	return settings, nil
}

// Master resolves the mastering preset for genre using the same layering as
// Stage.
func (s *Store) Master(genre string) (MasterPreset, error) {
	key, err := normaliseGenre(genre, s.masterBuiltin, s.masterUser)
	if err != nil {
		return MasterPreset{}, err
	}

	merged := s.masterBuiltin.defaults
	if key != "" {
		bg, _ := s.masterBuiltin.genre(key)
		merged = DeepMerge(merged, bg)
	}
	merged = DeepMerge(merged, validKeys[MasterPreset](s.masterUser.defaults, "mastering"))
	if key != "" {
		ug, _ := s.masterUser.genre(key)
		merged = DeepMerge(merged, validKeys[MasterPreset](ug, "mastering"))
	}

	preset := DefaultMasterPreset
	if err := decode(merged, &preset); err != nil {
		return MasterPreset{}, fmt.Errorf("mastering preset: %w", err)
	}
	return preset, nil
}

// MixGenres returns the sorted mix genre names.
func (s *Store) MixGenres() []string {
	return genreNames(s.mixBuiltin, s.mixUser)
}

// MasterGenres returns the sorted mastering genre names.
func (s *Store) MasterGenres() []string {
	return genreNames(s.masterBuiltin, s.masterUser)
}

// HasMixGenre reports whether genre has mix presets (case-insensitive).
func (s *Store) HasMixGenre(genre string) bool {
	_, err := normaliseGenre(genre, s.mixBuiltin, s.mixUser)
	return err == nil
}

// HasMasterGenre reports whether genre has a mastering preset.
func (s *Store) HasMasterGenre(genre string) bool {
	_, err := normaliseGenre(genre, s.masterBuiltin, s.masterUser)
	return err == nil
}

func genreNames(docs ...document) []string {
	seen := map[string]bool{}
	var names []string
	for _, d := range docs {
		for name := range d.genres {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// decode round-trips a generic map through YAML into a typed struct. Fields
// absent from m keep their current value in out.
func decode(m map[string]any, out any) error {
	if len(m) == 0 {
		return nil
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// validKeys returns the override entries that decode into T. Entries of the
// wrong type are dropped with a warning so the lower layers apply instead.
func validKeys[T any](m map[string]any, preset string) map[string]any {
	var probe T
	if len(m) == 0 || decode(m, &probe) == nil {
		return m
	}
	kept := make(map[string]any, len(m))
	for k, v := range m {
		var one T
		if err := decode(map[string]any{k: v}, &one); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"preset": preset,
				"key":    k,
			}).Warn("invalid override value, ignoring")
			continue
		}
		kept[k] = v
	}
	return kept
}
