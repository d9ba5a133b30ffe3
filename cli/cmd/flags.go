// Package cmd provides CLI commands for the deckbrief binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// ConfigFlag points at a deckbrief.yaml file. Without it, configuration
	// comes from DECKBRIEF_* environment variables.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to deckbrief.yaml (default: DECKBRIEF_* environment)",
	}

	// FileFlag points at the presentation to submit or extract.
	FileFlag = &cli.StringFlag{
		Name:     "file",
		Usage:    "Path to the presentation file (.pptx)",
		Required: true,
	}

	// ServerFlag is the summary server base URL for client commands.
	ServerFlag = &cli.StringFlag{
		Name:  "server",
		Usage: "Summary server base URL",
		Value: "http://localhost:8080",
	}
)

// ReadOnlyFlags returns the shared flags for read-only commands.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
	}
}
