package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/gasgen/internal/app"
	"github.com/specialistvlad/gasgen/internal/cli"
)

// main is the entrypoint for the gasgen application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		exitErr := cli.ToExitError(err)
		fmt.Fprintln(os.Stderr, exitErr.Message)
		os.Exit(exitErr.Code)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Duplicate registry definitions panic while the app is built.
	defer func() {
		if r := recover(); r != nil {
			err = &cli.ExitError{Code: cli.ExitFailed, Message: fmt.Sprintf("application startup panicked: %v", r)}
		}
	}()

	gasgen, err := app.NewApp(outW, appConfig)
	if err != nil {
		return err
	}
	outcome, err := gasgen.Run(context.Background())
	if err != nil {
		return err
	}
	if outcome.Failed() {
		return &cli.ExitError{Code: cli.ExitFailed, Message: fmt.Sprintf("generation finished with failures, see %s", outcome.ReportPath)}
	}
	return nil
}
