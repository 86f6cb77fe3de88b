package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vk/axisem/internal/comm"
	"github.com/vk/axisem/internal/ctxlog"
	"github.com/vk/axisem/internal/pipeline"
	"github.com/vk/axisem/internal/plancache"
	"github.com/vk/axisem/internal/resources"
	"github.com/vk/axisem/internal/telemetry"
)

// Run executes the ranks hosted by this process and returns the first
// rank error.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := a.logger
	logger.Debug("App.Run method started.")

	shutdown, err := telemetry.Setup(ctx, a.config.OTelEndpoint, "axisem", attribute.String("axisem.run", a.runID))
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed.", "error", err)
		}
	}()

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
		defer a.closeHealthcheckServer(ctx)
	}

	store := a.openPlanCache(ctx)
	if store != nil {
		defer store.Close()
	}

	if a.config.Coordinator == "" {
		err = a.runLocal(ctx, store)
	} else {
		err = a.runSocket(ctx, store)
	}
	if err != nil {
		return err
	}
	logger.Info("🏁 Run finished.")
	return nil
}

// openPlanCache opens the durable plan cache. A cache that cannot be read
// is recreated; when that fails too the plans are kept in memory.
func (a *App) openPlanCache(ctx context.Context) plancache.Store {
	if !a.config.PlanCache {
		return nil
	}
	path := pipeline.PlanCachePath(a.config.OutputDir)
	store, err := plancache.Open(ctx, path)
	if err == nil {
		return store
	}
	a.logger.Warn("Plan cache unreadable, rebuilding it.", "path", path, "error", err)
	if store, err = plancache.Recreate(ctx, path); err == nil {
		return store
	}
	a.logger.Warn("Plan cache unavailable, plans will not persist.", "path", path, "error", err)
	return plancache.NewMemory()
}

// runLocal runs every rank as a goroutine of this process.
func (a *App) runLocal(ctx context.Context, store plancache.Store) error {
	world, err := comm.NewLocalWorld(a.config.Ranks)
	if err != nil {
		return err
	}
	a.logger.Info("🚀 Starting local world.", "ranks", a.config.Ranks)
	return world.Run(ctx, func(ctx context.Context, c comm.Communicator) error {
		return a.runRank(ctx, c, store)
	})
}

// runSocket runs one rank of a world spread over processes. Rank 0 hosts
// the hub and dials it like every other rank.
func (a *App) runSocket(ctx context.Context, store plancache.Store) error {
	url := a.config.Coordinator
	var opts []comm.SocketOption
	var hub *comm.Hub
	if a.config.Rank == 0 {
		var err error
		hub, err = comm.NewHub(ctx, a.config.Listen, a.config.Ranks)
		if err != nil {
			return fmt.Errorf("failed to start hub: %w", err)
		}
		url = hub.URL()
		opts = append(opts, comm.WithHub(hub))
		a.logger.Info("🚀 Hub listening.", "url", url, "ranks", a.config.Ranks)
	}

	world, err := comm.Dial(ctx, url, a.config.Rank, a.config.Ranks, opts...)
	if err != nil {
		if hub != nil {
			_ = hub.Close(ctx)
		}
		return fmt.Errorf("failed to join world: %w", err)
	}
	return a.runRank(ctx, world, store)
}

func (a *App) runRank(ctx context.Context, c comm.Communicator, store plancache.Store) error {
	ctx = ctxlog.With(ctx, "rank", c.Rank())
	a.status.start(c.Rank())

	var opts []resources.Option
	if store != nil {
		opts = append(opts, resources.WithStore(store))
	}
	env := &pipeline.Env{
		Comm:      c,
		Stream:    comm.NewStream(a.outW, c.Rank()),
		Params:    a.params,
		OutputDir: a.config.OutputDir,
		Resources: resources.New(opts...),
	}
	_, err := pipeline.Run(ctx, env)
	a.status.finish(c.Rank(), err)
	return err
}
