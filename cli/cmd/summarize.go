package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/deckbrief/cli/render"
	"github.com/pithecene-io/deckbrief/client"
)

// SummarizeCommand returns the summarize command: submit a presentation
// and print each summary as it arrives.
func SummarizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "summarize",
		Usage: "Submit a presentation and stream per-slide summaries",
		Flags: []cli.Flag{
			FileFlag,
			ServerFlag,
			NoColorFlag,
		},
		Action: summarizeAction,
	}
}

func summarizeAction(c *cli.Context) error {
	path := c.String("file")
	archive, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("read %s: %v", path, err), 1)
	}

	out := render.NewStreamRenderer(os.Stdout, c.Bool("no-color"))

	cl := client.NewClient(c.String("server"), nil)
	cl.OnSummary = func(index int, summary string, total int) {
		out.Summary(index, summary, total)
	}

	// Ctrl-C cancels the in-flight submission; recorded summaries are
	// still reported below.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cl.Cancel()
	}()

	session, err := cl.Submit(c.Context, filepath.Base(path), archive)
	if err != nil {
		if session != nil && session.Err() != nil {
			out.Error(session.Err().Error())
			return cli.Exit("", 1)
		}
		return cli.Exit(err.Error(), 1)
	}

	switch session.Phase() {
	case client.PhaseDone:
		out.Done(session.Completed())
	case client.PhaseCancelled:
		out.Cancelled(session.Completed())
	}
	return nil
}
