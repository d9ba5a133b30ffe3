package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/deckbrief/cli/render"
	"github.com/pithecene-io/deckbrief/deck"
)

// SlideRow is one extracted slide in the extract command's output.
type SlideRow struct {
	Slide int    `json:"slide"`
	Chars int    `json:"chars"`
	Text  string `json:"text"`
}

// ExtractCommand returns the extract command: local extraction without
// any summarization, as a debugging surface for archive issues.
func ExtractCommand() *cli.Command {
	return &cli.Command{
		Name:   "extract",
		Usage:  "Extract slide text locally without summarizing",
		Flags:  append(ReadOnlyFlags(), FileFlag),
		Action: extractAction,
	}
}

func extractAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	path := c.String("file")
	if !deck.IsPresentation(filepath.Base(path)) {
		return cli.Exit(fmt.Sprintf("%s is not a presentation file", path), 1)
	}

	archive, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("read %s: %v", path, err), 1)
	}

	slides, err := deck.Extract(archive)
	if err != nil {
		return cli.Exit(fmt.Sprintf("extract %s: %v", path, err), 1)
	}

	rows := make([]SlideRow, len(slides))
	for i, text := range slides {
		rows[i] = SlideRow{
			Slide: i + 1,
			Chars: utf8.RuneCountInString(text),
			Text:  text,
		}
	}
	return r.Render(rows)
}
