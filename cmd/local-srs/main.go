package main

import (
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/mudler/LocalSRS/core/cli"
	"github.com/mudler/LocalSRS/internal"
	"github.com/mudler/xlog"

	_ "github.com/mudler/LocalSRS/swagger"
)

// loadEnvFiles overlays environment variables from the usual spots: the
// working directory, the user's home and config dir, then /etc. Variables
// already set in the environment win.
func loadEnvFiles() {
	files := []string{".env", "localsrs.env"}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, "localsrs.env"), filepath.Join(home, ".config/localsrs.env"))
	}
	files = append(files, "/etc/localsrs.env")

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		xlog.Debug("loading environment from file", "envFile", f)
		if err := godotenv.Load(f); err != nil {
			xlog.Error("failed to load environment file", "error", err, "envFile", f)
		}
	}
}

func main() {
	// log at info until the flags tell us otherwise
	xlog.SetLogger(xlog.NewLogger(xlog.LogLevel("info"), "text"))

	loadEnvFiles()

	ctx := kong.Parse(&cli.CLI,
		kong.Description(
			`  LocalSRS turns spoken video and audio into spaced-repetition flashcard decks: one audio clip, one still frame and one transcribed sentence per card.

Run 'local-srs run' to start the API server, 'local-srs build' to build a deck directly from files or URLs, and 'local-srs sessions' or 'local-srs presets' to inspect state.

Version: ${version}
`,
		),
		kong.UsageOnError(),
		kong.Vars{
			"basepath": kong.ExpandPath("."),
			"version":  internal.PrintableVersion(),
		},
	)

	// --debug is a shorthand kept for muscle memory; an explicit
	// --log-level wins
	logLevel := "info"
	if cli.CLI.Debug && cli.CLI.LogLevel == nil {
		logLevel = "debug"
	}
	if cli.CLI.LogLevel == nil {
		cli.CLI.LogLevel = &logLevel
	}
	xlog.SetLogger(xlog.NewLogger(xlog.LogLevel(*cli.CLI.LogLevel), *cli.CLI.LogFormat))

	if err := ctx.Run(&cli.CLI.Context); err != nil {
		xlog.Fatal("error running the application", "error", err)
	}
}
