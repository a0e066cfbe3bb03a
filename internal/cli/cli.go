// Package cli parses command-line arguments for the gridpath command,
// validates them and maps failures onto process exit codes.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pdrpinto/gridpath/internal/render"
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

// Options is the parsed command line.
type Options struct {
	ConfigPath string
	EnvFile    string
	LogFormat  string
	LogLevel   string
	PNGPath    string
	CellSize   int
	Instant    bool
	Walls      string
}

// Parse processes command-line arguments. It returns the parsed Options, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("gridpath", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
gridpath - run and replay a shortest-path search on a grid.

Usage:
  gridpath [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Optional .hcl or .yaml grid configuration file.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the grid configuration file.")
	envFileFlag := flagSet.String("env-file", ".env", "Path to a .env file with GRIDPATH_* overrides.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pngFlag := flagSet.String("png", "", "Write the final grid to this PNG file.")
	cellSizeFlag := flagSet.Int("cell-size", render.DefaultCellSize, "PNG cell size in pixels.")
	instantFlag := flagSet.Bool("instant", false, "Replay without per-step delays.")
	wallsFlag := flagSet.String("walls", "", "Extra walls as 'row,col;row,col'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *configFlag
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *cellSizeFlag < 1 {
		return nil, false, &ExitError{Code: 2, Message: "invalid cell-size: must be positive"}
	}

	options := &Options{
		ConfigPath: path,
		EnvFile:    *envFileFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
		PNGPath:    *pngFlag,
		CellSize:   *cellSizeFlag,
		Instant:    *instantFlag,
		Walls:      *wallsFlag,
	}
	slog.Debug("CLI parser finished successfully.", "options", options)
	return options, false, nil
}

// NewLogger builds the process logger selected by the options.
func (o *Options) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch o.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	handlerOptions := &slog.HandlerOptions{Level: level}
	if o.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOptions))
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions))
}
