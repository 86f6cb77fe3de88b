package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/vk/axisem/internal/comm"
	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/ctxlog"
	"github.com/vk/axisem/internal/failure"
	"github.com/vk/axisem/internal/resources"
	"github.com/vk/axisem/internal/timer"
)

// Env is what a rank brings to a run.
type Env struct {
	Comm      comm.Communicator
	Stream    *comm.Stream
	Params    *config.Parameters
	OutputDir string

	// Optional; Run fills in defaults.
	Resources *resources.Manager
	Timer     *timer.Timer
	Failure   *failure.Handler
	Stages    []Stage
}

// TimerPath returns where the diagnostic timer is written.
func TimerPath(outputDir string) string {
	return filepath.Join(outputDir, "develop", "preloop_timer.txt")
}

// PlanCachePath returns where transform plans are cached.
func PlanCachePath(outputDir string) string {
	return filepath.Join(outputDir, "develop", "fft_plans.db")
}

func (env *Env) setDefaults() {
	if env.Stream == nil {
		env.Stream = comm.NewStream(io.Discard, env.Comm.Rank())
	}
	if env.Resources == nil {
		env.Resources = resources.New()
	}
	if env.Timer == nil {
		env.Timer = timer.New()
	}
	if env.Failure == nil {
		env.Failure = failure.New(env.Comm, env.Stream)
	}
	if env.Stages == nil {
		env.Stages = DefaultStages()
	}
}

// Run builds the preloop and runs the time loop on this rank. On error the
// failure handler reports it and aborts the world before Run returns it,
// unless the error is the abort of another rank.
// The returned Preloop is finalized after a successful build.
func Run(ctx context.Context, env *Env) (*Preloop, error) {
	env.setDefaults()

	env.Failure.OnFailure("static resources", func(ctx context.Context) error {
		env.Resources.LeaveTimeLoop()
		return env.Resources.Release(ctx)
	})
	env.Failure.OnFailure("timer", func(context.Context) error {
		return env.Timer.Close()
	})

	p := &Preloop{Params: env.Params}
	if err := run(ctx, env, p); err != nil {
		if errors.Is(err, comm.ErrAborted) {
			// Another rank failed and already reported; nothing is cleaned up here.
			ctxlog.FromContext(ctx).Warn("World aborted by another rank.", "error", err)
			return p, err
		}
		env.Failure.Handle(ctx, err)
		return p, err
	}
	return p, nil
}

func run(ctx context.Context, env *Env, p *Preloop) error {
	logger := ctxlog.FromContext(ctx)

	if err := Validate(env.Stages); err != nil {
		return err
	}

	diagnose, err := env.Params.BoolOr(KeyDiagnosePreloop, false)
	if err != nil {
		return err
	}
	if diagnose && comm.IsRoot(env.Comm) {
		path := TimerPath(env.OutputDir)
		if err := env.Timer.EnableFile(path); err != nil {
			return err
		}
		logger.Info("Preloop timer enabled.", "path", path)
	}

	logger.Info("Preloop started.", "stages", len(env.Stages))
	for _, st := range env.Stages {
		if err := runStage(ctx, env, p, st); err != nil {
			return err
		}
	}
	if err := env.Timer.Close(); err != nil {
		return fmt.Errorf("close timer: %w", err)
	}
	logger.Info("Preloop finished.", "dt", p.DeltaT)

	driver := p.Driver
	if driver == nil {
		return errors.New("preloop finished without a driver")
	}
	p.Finalize()

	env.Resources.EnterTimeLoop()
	if err := env.Comm.Barrier(ctx); err != nil {
		return fmt.Errorf("barrier before time loop: %w", err)
	}
	if err := driver.Solve(ctx); err != nil {
		return fmt.Errorf("time loop: %w", err)
	}
	env.Resources.LeaveTimeLoop()

	if err := driver.Finalize(ctx); err != nil {
		return fmt.Errorf("finalize driver: %w", err)
	}
	if err := env.Resources.Release(ctx); err != nil {
		return fmt.Errorf("release static resources: %w", err)
	}
	if err := env.Stream.Flush(); err != nil {
		logger.Warn("Failed to flush output stream.", "error", err)
	}
	if err := env.Comm.Finalize(ctx); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	logger.Info("Run finished.")
	return nil
}

// runStage runs st and its substages inside st's timer section.
func runStage(ctx context.Context, env *Env, p *Preloop, st Stage) error {
	logger := ctxlog.FromContext(ctx)
	timed := st.Level != Untimed
	if timed {
		ctx = env.Timer.Begin(ctx, st.Name, st.Level)
	}
	logger.Debug("Stage started.", "stage", st.Name, "level", st.Level)

	err := runBody(ctx, env, p, st)
	if timed {
		if terr := env.Timer.End(st.Name, st.Level); terr != nil && err == nil {
			err = &StageError{Stage: st.Name, Err: terr}
		}
	}
	if err != nil {
		return err
	}
	p.Completed = append(p.Completed, st.Name)
	logger.Debug("Stage finished.", "stage", st.Name)
	return nil
}

func runBody(ctx context.Context, env *Env, p *Preloop, st Stage) error {
	if st.Run != nil {
		if err := st.Run(ctx, env, p); err != nil {
			return &StageError{Stage: st.Name, Err: err}
		}
	}
	for _, sub := range st.Substages {
		if err := runStage(ctx, env, p, sub); err != nil {
			return err
		}
	}
	return nil
}
