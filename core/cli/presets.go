package cli

import (
	"fmt"

	"gopkg.in/yaml.v3"

	cliContext "github.com/mudler/LocalSRS/core/cli/context"
	"github.com/mudler/LocalSRS/core/config"
)

type PresetsCMDFlags struct {
	PresetsPath string `env:"LOCALSRS_PRESETS_PATH,PRESETS_PATH" type:"path" help:"Directory of preset YAML files" group:"storage"`
}

type PresetsList struct {
	PresetsCMDFlags `embed:""`
}

type PresetsShow struct {
	Name string `arg:"" help:"Preset name to print"`

	PresetsCMDFlags `embed:""`
}

type PresetsCMD struct {
	List PresetsList `cmd:"" help:"List the available deck presets" default:"withargs"`
	Show PresetsShow `cmd:"" help:"Print one preset's full configuration"`
}

func loadPresets(path string) *config.PresetLoader {
	pl := config.NewPresetLoader(path)
	if path != "" {
		if err := pl.LoadPresetsFromPath(path); err != nil {
			fmt.Printf("warning: %s\n", err)
		}
	}
	return pl
}

func (p *PresetsList) Run(ctx *cliContext.Context) error {
	for _, preset := range loadPresets(p.PresetsPath).GetAllPresets() {
		if preset.Description != "" {
			fmt.Printf(" * %s - %s\n", preset.Name, preset.Description)
		} else {
			fmt.Printf(" * %s\n", preset.Name)
		}
	}
	return nil
}

func (p *PresetsShow) Run(ctx *cliContext.Context) error {
	preset, ok := loadPresets(p.PresetsPath).GetPreset(p.Name)
	if !ok {
		return fmt.Errorf("preset not found: %s", p.Name)
	}
	out, err := yaml.Marshal(preset)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
