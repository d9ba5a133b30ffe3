package main

import (
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

// The exit handler prints exitCoder.Error() only when non-empty; cli.Exit
// with an empty message must yield an empty string, so nothing is echoed
// for message-less exits.
func TestExitCoderEmptyMessage(t *testing.T) {
	err := cli.Exit("", 3)

	var coder cli.ExitCoder
	if !errors.As(err, &coder) {
		t.Fatal("cli.Exit does not yield an ExitCoder")
	}
	if got := coder.Error(); got != "" {
		t.Errorf("Error() = %q, want empty", got)
	}
	if got := coder.ExitCode(); got != 3 {
		t.Errorf("ExitCode() = %d, want 3", got)
	}
}

func TestExitCoderMessagePreserved(t *testing.T) {
	err := cli.Exit("boom", 2)

	var coder cli.ExitCoder
	if !errors.As(err, &coder) {
		t.Fatal("cli.Exit does not yield an ExitCoder")
	}
	if got := coder.Error(); got != "boom" {
		t.Errorf("Error() = %q, want %q", got, "boom")
	}
	if got := coder.ExitCode(); got != 2 {
		t.Errorf("ExitCode() = %d, want 2", got)
	}
}
