package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mudler/xlog"
	"gopkg.in/yaml.v3"
)

// PresetLoader keeps the presets read from the presets directory. The
// built-in default preset is always resolvable even when the directory is
// empty or missing.
type PresetLoader struct {
	presets     map[string]Preset
	presetsPath string
	sync.Mutex
}

func NewPresetLoader(presetsPath string) *PresetLoader {
	return &PresetLoader{
		presets:     make(map[string]Preset),
		presetsPath: presetsPath,
	}
}

func readPresetFromFile(file string) (*Preset, error) {
	p := &Preset{}
	f, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("readPresetFromFile cannot read preset file %q: %w", file, err)
	}
	if err := yaml.Unmarshal(f, p); err != nil {
		return nil, fmt.Errorf("readPresetFromFile cannot unmarshal preset file %q: %w", file, err)
	}

	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	if err := p.SetDefaults(); err != nil {
		return nil, fmt.Errorf("readPresetFromFile cannot apply defaults to %q: %w", file, err)
	}

	p.presetFile = file
	return p, nil
}

// LoadPresetsFromPath reads all preset files from a path (non-recursive).
// Invalid files are logged and skipped so one bad preset does not take the
// directory down.
func (pl *PresetLoader) LoadPresetsFromPath(path string) error {
	pl.Lock()
	defer pl.Unlock()

	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			xlog.Debug("presets directory does not exist, using built-in presets only", "path", path)
			return nil
		}
		return fmt.Errorf("LoadPresetsFromPath cannot read directory %q: %w", path, err)
	}

	loaded := make(map[string]Preset, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") ||
			(!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		p, err := readPresetFromFile(filepath.Join(path, name))
		if err != nil {
			xlog.Error("cannot read preset file", "file", name, "error", err)
			continue
		}
		if !p.Validate() {
			xlog.Error("preset is not valid", "file", name, "name", p.Name)
			continue
		}
		loaded[p.Name] = *p
	}

	pl.presets = loaded
	return nil
}

// GetPreset resolves a preset by name. The empty name and "default" resolve
// to the built-in default unless a file shadows it.
func (pl *PresetLoader) GetPreset(name string) (Preset, bool) {
	pl.Lock()
	defer pl.Unlock()
	if name == "" {
		name = "default"
	}
	if p, exists := pl.presets[name]; exists {
		return p, true
	}
	if name == "default" {
		return DefaultPreset(), true
	}
	return Preset{}, false
}

func (pl *PresetLoader) GetAllPresets() []Preset {
	pl.Lock()
	defer pl.Unlock()

	res := make([]Preset, 0, len(pl.presets)+1)
	if _, shadowed := pl.presets["default"]; !shadowed {
		res = append(res, DefaultPreset())
	}
	for _, p := range pl.presets {
		res = append(res, p)
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Name < res[j].Name
	})

	return res
}

// SearchPresets fuzzy-matches term against preset names and descriptions.
func (pl *PresetLoader) SearchPresets(term string) []Preset {
	var res []Preset
	for _, p := range pl.GetAllPresets() {
		if fuzzy.MatchNormalizedFold(term, p.Name) ||
			fuzzy.MatchNormalizedFold(term, p.Description) {
			res = append(res, p)
		}
	}
	return res
}

func (pl *PresetLoader) RemovePreset(name string) {
	pl.Lock()
	defer pl.Unlock()
	delete(pl.presets, name)
}
