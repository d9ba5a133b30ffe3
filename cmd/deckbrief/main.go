// Package main provides the deckbrief CLI entrypoint.
//
// Usage:
//
//	deckbrief <command> [options]
//
// Commands:
//   - serve: run the summary server
//   - summarize: submit a presentation and stream summaries
//   - extract: extract slide text locally (debug)
//   - version: show version information
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/deckbrief/cli/cmd"
	"github.com/pithecene-io/deckbrief/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "deckbrief",
		Usage:          "Per-slide presentation summaries over a streaming API",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.ServeCommand(),
			cmd.SummarizeCommand(),
			cmd.ExtractCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() across wrapping.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		// cli.Exit("", N) carries no message; print only when one exists.
		if msg := exitCoder.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(exitCoder.ExitCode())
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
