package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/axisem/internal/app"
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

// Parse processes command-line arguments on top of the environment. It
// returns a populated Config, a boolean indicating if the program should
// exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	defaults, err := app.ConfigFromEnv()
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("axisem", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
axisem - Preloop orchestrator and time loop of an axisymmetric spectral-element solver.

Usage:
  axisem [options] [INPUT_PATH...]

Arguments:
  INPUT_PATH
    Inparam files (.hcl, .toml) or directories containing them.

Every option can also be set through its AXISEM_* environment variable.

Options:
`)
		flagSet.PrintDefaults()
	}

	inputFlag := flagSet.String("input", strings.Join(defaults.InputPaths, ","), "Comma-separated inparam files or directories.")
	iFlag := flagSet.String("i", "", "Comma-separated inparam files or directories (shorthand).")
	outputFlag := flagSet.String("output", defaults.OutputDir, "Output directory.")
	ranksFlag := flagSet.Int("ranks", defaults.Ranks, "Number of ranks in the world.")
	rankFlag := flagSet.Int("rank", defaults.Rank, "Rank of this process when a coordinator is used.")
	coordinatorFlag := flagSet.String("coordinator", defaults.Coordinator, "socket.io URL of the rank 0 hub. Empty runs every rank in this process.")
	listenFlag := flagSet.String("listen", defaults.Listen, "Address rank 0 serves the hub on.")
	planCacheFlag := flagSet.Bool("plan-cache", defaults.PlanCache, "Persist transform plans under <output>/develop.")
	otelFlag := flagSet.String("otel-endpoint", defaults.OTelEndpoint, "OTLP/HTTP endpoint for traces. Empty disables tracing.")
	healthPortFlag := flagSet.Int("healthcheck-port", defaults.HealthcheckPort, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	for _, list := range []string{*inputFlag, *iFlag} {
		paths = append(paths, splitList(list)...)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Input paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No input path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
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
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		InputPaths:      paths,
		OutputDir:       *outputFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		Ranks:           *ranksFlag,
		Rank:            *rankFlag,
		Coordinator:     *coordinatorFlag,
		Listen:          *listenFlag,
		PlanCache:       *planCacheFlag,
		OTelEndpoint:    *otelFlag,
		HealthcheckPort: *healthPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
