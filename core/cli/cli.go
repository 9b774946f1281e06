package cli

import (
	cliContext "github.com/mudler/LocalSRS/core/cli/context"
)

var CLI struct {
	cliContext.Context `embed:""`

	Run      RunCMD      `cmd:"" help:"Run the LocalSRS API server, this is the default command if no other command is specified. Run 'local-srs run --help' for more information" default:"withargs"`
	Build    BuildCMD    `cmd:"" help:"Build a deck from local files or URLs without starting the server"`
	Sessions SessionsCMD `cmd:"" help:"Inspect and clean up sessions"`
	Presets  PresetsCMD  `cmd:"" help:"List and inspect deck presets"`
}
