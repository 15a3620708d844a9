package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/specialistvlad/gasgen/internal/app"
	"github.com/specialistvlad/gasgen/internal/config"
	"github.com/specialistvlad/gasgen/internal/manifest"
)

// Exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("gasgen", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
gasgen - Generates gameplay assets from a declarative manifest.

Usage:
  gasgen [options] [MANIFEST]

Arguments:
  MANIFEST
    Path to the manifest file. May also come from gasgen.hcl.

Exit codes:
  0  every record generated or skipped
  1  a record failed or verification found errors
  2  usage error or malformed manifest

Options:
`)
		flagSet.PrintDefaults()
	}

	manifestFlag := flagSet.String("manifest", "", "Path to the manifest file.")
	mFlag := flagSet.String("m", "", "Path to the manifest file (shorthand).")
	configFlag := flagSet.String("config", "", "Path to the pipeline file. Defaults to ./"+config.DefaultFileName+" when present.")
	envFileFlag := flagSet.String("env-file", "", "Path to a .env file exposed to the pipeline file as env.*.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Classify every record and print a preview without writing anything.")
	forceFlag := flagSet.Bool("force", false, "Regenerate records even when their assets were edited by hand.")
	tagsOnlyFlag := flagSet.Bool("tags-only", false, "Only register gameplay tags.")
	assetsOnlyFlag := flagSet.Bool("assets-only", false, "Only generate assets, leaving the tags file alone.")
	dialoguesFlag := flagSet.String("dialogues", "", "Path to a dialogue table (.csv or .xlsx) merged into the manifest.")
	sheetFlag := flagSet.String("dialogue-sheet", "", "Worksheet of an .xlsx dialogue table.")
	contentRootFlag := flagSet.String("content-root", "", "Content path prefix of generated assets. Default \""+app.DefaultContentRoot+"\".")
	storeDirFlag := flagSet.String("store-dir", "", "Directory holding generated assets. Default \""+app.DefaultStoreDir+"\".")
	reportDirFlag := flagSet.String("report-dir", "", "Directory receiving run reports. Default \""+app.DefaultReportDir+"\".")
	registryFlag := flagSet.String("registry", "", "Path to a file or directory of extra node and function definitions (.hcl).")
	tagsIniFlag := flagSet.String("tags-ini", "", "Path to the gameplay tags ini file.")
	retriesFlag := flagSet.Int("max-retries", 0, "Maximum retry passes for deferred records. Default 3.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *manifestFlag != "" {
		path = *manifestFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Manifest path determined.", "path", path)

	if path == "" && *configFlag == "" && !exists(config.DefaultFileName) {
		slog.Debug("No manifest or pipeline file, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	cfg, err := app.NewConfig(app.Config{
		ManifestPath:  path,
		PipelinePath:  *configFlag,
		EnvFile:       *envFileFlag,
		ContentRoot:   *contentRootFlag,
		StoreDir:      *storeDirFlag,
		ReportDir:     *reportDirFlag,
		DialoguesPath: *dialoguesFlag,
		DialogueSheet: *sheetFlag,
		RegistryPath:  *registryFlag,
		TagsIniPath:   *tagsIniFlag,
		DryRun:        *dryRunFlag,
		Force:         *forceFlag,
		TagsOnly:      *tagsOnlyFlag,
		AssetsOnly:    *assetsOnlyFlag,
		MaxRetries:    *retriesFlag,
		LogFormat:     strings.ToLower(*logFormatFlag),
		LogLevel:      strings.ToLower(*logLevelFlag),
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}

// ToExitError maps an error from building or running the app onto an
// ExitError. A nil error maps to nil.
func ToExitError(err error) *ExitError {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	var parseErr *manifest.ParseError
	var usageErr *app.UsageError
	if errors.As(err, &parseErr) || errors.As(err, &usageErr) {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return &ExitError{Code: ExitFailed, Message: err.Error()}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
