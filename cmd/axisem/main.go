package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/axisem/internal/app"
	"github.com/vk/axisem/internal/cli"
	"github.com/vk/axisem/internal/comm"
	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/hcl_adapter"
	"github.com/vk/axisem/internal/toml_adapter"
)

// main is the entrypoint for the axisem application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(comm.AbortExitCode)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW, logW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	loader := config.NewDispatcher(hcl_adapter.NewLoader(), toml_adapter.NewLoader())
	a, err := app.NewApp(outW, logW, appConfig, loader)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	return a.Run(ctx)
}
