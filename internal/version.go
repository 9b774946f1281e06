package internal

import "fmt"

var (
	Version = "v0.4.0"
	Commit  = ""
)

func PrintableVersion() string {
	if Commit != "" {
		return fmt.Sprintf("LocalSRS %s (%s)", Version, Commit)
	}
	return fmt.Sprintf("LocalSRS %s", Version)
}
