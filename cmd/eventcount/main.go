// Command eventcount recursively counts the entries of a ROOT tree across
// files and directories and prints the grand total.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/hepscan/internal/app"
	"github.com/specialistvlad/hepscan/internal/cli"
)

// main is the entrypoint for the eventcount tool.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW, errW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.ParseCount(args, errW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	a := app.NewApp(outW, errW, cfg)
	if err := a.Count(context.Background()); err != nil {
		if errors.Is(err, app.ErrNoFiles) {
			return &cli.ExitError{Code: 1, Message: err.Error()}
		}
		return err
	}
	return nil
}
