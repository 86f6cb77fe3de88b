package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logW   io.Writer
	logger *slog.Logger
	config *Config
	params *config.Parameters
	runID  string

	httpServer *http.Server
	status     *status
}

// NewApp builds the logger and loads the run parameters through loader.
// Program output goes to outW and logs to logW.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW).With("run", runID)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	params, err := loader.Load(ctx, cfg.InputPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}
	logger.Debug("Parameters loaded.", "count", params.Len(), "paths", cfg.InputPaths)

	return &App{
		outW:   outW,
		logW:   logW,
		logger: logger,
		config: cfg,
		params: params,
		runID:  runID,
		status: newStatus(),
	}, nil
}

// RunID returns the identifier attached to every log record of this run.
func (a *App) RunID() string {
	return a.runID
}

// Params returns the loaded run parameters.
func (a *App) Params() *config.Parameters {
	return a.params
}
