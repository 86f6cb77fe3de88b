package pipeline_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/axisem/internal/comm"
	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/domain"
	"github.com/vk/axisem/internal/pipeline"
	"github.com/vk/axisem/internal/plancache"
	"github.com/vk/axisem/internal/resources"
	"github.com/vk/axisem/internal/solver"
	"github.com/vk/axisem/internal/testutil"
)

// baseParams describe a run of 14 steps: 3 before the origin, 10 after
// and the origin itself.
func baseParams() map[string]any {
	return map[string]any{
		"TIME_DELTA_T":              1.0,
		"TIME_RECORD_LENGTH":        10.0,
		"SOURCE_STF_HALF_DURATION":  2.0,
		"MODEL_ELEMENTS":            8,
		"NU_CONSTANT":               2,
		"OUT_STATIONS":              "AAK 0 90 0",
		"OPTION_LOOP_INFO_INTERVAL": 5,
		"OPTION_STABILITY_INTERVAL": 5,
	}
}

func with(values map[string]any, extra map[string]any) map[string]any {
	for k, v := range extra {
		values[k] = v
	}
	return values
}

var defaultOrder = []string{
	"Exodus", "NrField", "Source", "3D Models", "Mesh Definition",
	"Unweighted Mesh", "Initialize FFT", "DT", "Attenuation", "Weighted Mesh",
	"Source Time Function", "Receivers",
	"Release Mesh", "Release Source", "Release STF", "Release Receivers", "Verbose",
	"Computational Domain", "Newmark",
}

type rankResult struct {
	preloop *pipeline.Preloop
	err     error
	res     *resources.Manager
	banks   *testutil.BankRecorder
	comm    *testutil.RecordingComm
}

type world struct {
	size      int
	params    *config.Parameters
	outputDir string
	stages    func(rank int) []pipeline.Stage
	store     plancache.Store
}

type outcome struct {
	world *comm.LocalWorld
	ranks []rankResult
	out   *testutil.SafeBuffer
	logs  *testutil.SafeBuffer
}

func (w world) run(t *testing.T) outcome {
	t.Helper()
	lw, err := comm.NewLocalWorld(w.size)
	require.NoError(t, err)
	ctx, logs := testutil.LogContext(t)
	out := &testutil.SafeBuffer{}
	ranks := make([]rankResult, w.size)

	_ = lw.Run(ctx, func(ctx context.Context, c comm.Communicator) error {
		r := c.Rank()
		rec := &testutil.BankRecorder{}
		opts := []resources.Option{resources.WithObserver(rec.Observe)}
		if w.store != nil {
			opts = append(opts, resources.WithStore(w.store))
		}
		env := &pipeline.Env{
			Comm:      testutil.Record(c),
			Stream:    comm.NewStream(out, r),
			Params:    w.params,
			OutputDir: w.outputDir,
			Resources: resources.New(opts...),
		}
		if w.stages != nil {
			env.Stages = w.stages(r)
		}
		p, err := pipeline.Run(ctx, env)
		ranks[r] = rankResult{preloop: p, err: err, res: env.Resources, banks: rec, comm: env.Comm.(*testutil.RecordingComm)}
		return err
	})
	return outcome{world: lw, ranks: ranks, out: out, logs: logs}
}

func assertSymmetric(t *testing.T, r rankResult) {
	t.Helper()
	assert.Equal(t, r.banks.Count(resources.Build), r.banks.Count(resources.Destroy))
}

func TestRunSingleRank(t *testing.T) {
	o := world{size: 1, params: testutil.Params(t, baseParams())}.run(t)
	r := o.ranks[0]
	require.NoError(t, r.err)

	p := r.preloop
	assert.Equal(t, defaultOrder, p.Completed)
	assert.Equal(t, domain.ReleaseOrder, p.Domain.Released())
	assert.Nil(t, p.Params, "preloop state is discarded before the time loop")
	assert.Nil(t, p.MeshWeighted)
	assert.Equal(t, 1.0, p.DeltaT)

	nm, ok := p.Driver.(*solver.Newmark)
	require.True(t, ok)
	assert.Equal(t, 14, nm.Steps())
	require.Len(t, p.Domain.Receivers(), 1)
	assert.Len(t, p.Domain.Receivers()[0].Trace, 14)

	assert.Equal(t, resources.Released, r.res.State())
	assert.Equal(t, resources.Postloop, r.res.Phase())
	assertSymmetric(t, r)
	assert.Len(t, r.banks.Count(resources.Build), 7)

	assert.Equal(t, 1, r.comm.Barriers())
	assert.Equal(t, 1, r.comm.Finalizes())
	assert.Empty(t, r.comm.Aborts())
	assert.Equal(t, 1, o.world.Finalized())
	assert.Zero(t, o.world.Aborts())
}

func TestRunSplitsAcrossRanks(t *testing.T) {
	o := world{size: 2, params: testutil.Params(t, baseParams())}.run(t)
	for rank, r := range o.ranks {
		require.NoError(t, r.err, "rank %d", rank)
		assert.Equal(t, domain.ReleaseOrder, r.preloop.Domain.Released())
		assert.Equal(t, 4, r.preloop.Domain.Mesh().LocalElements)
		assertSymmetric(t, r)
	}
	// Source and station sit at the surface, in the elements of rank 0.
	assert.Len(t, o.ranks[0].preloop.Domain.Sources(), 1)
	assert.Len(t, o.ranks[0].preloop.Domain.Receivers(), 1)
	assert.Empty(t, o.ranks[1].preloop.Domain.Sources())
	assert.Empty(t, o.ranks[1].preloop.Domain.Receivers())

	assert.Equal(t, 2, o.world.Finalized())
	assert.Zero(t, o.world.Aborts())
}

func TestRunInjectedFailureAbortsOnce(t *testing.T) {
	injected := errors.New("injected receivers failure")
	o := world{
		size:   3,
		params: testutil.Params(t, baseParams()),
		stages: func(rank int) []pipeline.Stage {
			stages := pipeline.DefaultStages()
			if rank != 1 {
				return stages
			}
			for i := range stages {
				if stages[i].Name == "Receivers" {
					stages[i].Run = func(context.Context, *pipeline.Env, *pipeline.Preloop) error { return injected }
				}
			}
			return stages
		},
	}.run(t)

	assert.Equal(t, 1, o.world.Aborts())
	assert.Zero(t, o.world.Finalized())
	require.NotNil(t, o.world.Aborted())
	assert.Equal(t, 1, o.world.Aborted().Rank)

	failed := o.ranks[1]
	var stageErr *pipeline.StageError
	require.ErrorAs(t, failed.err, &stageErr)
	assert.Equal(t, "Receivers", stageErr.Stage)
	assert.ErrorIs(t, failed.err, injected)
	assert.NotContains(t, failed.preloop.Completed, "Receivers")

	assert.Len(t, failed.comm.Aborts(), 1)
	assert.Equal(t, resources.Released, failed.res.State())
	assertSymmetric(t, failed)

	for _, rank := range []int{0, 2} {
		r := o.ranks[rank]
		assert.ErrorIs(t, r.err, comm.ErrAborted, "rank %d", rank)
		assert.Empty(t, r.comm.Aborts(), "rank %d", rank)
		assert.Zero(t, r.comm.Finalizes(), "rank %d", rank)
		assert.Equal(t, resources.Acquired, r.res.State(), "rank %d keeps its resources", rank)
		assert.Empty(t, r.banks.Count(resources.Destroy), "rank %d", rank)
	}

	out := o.out.String()
	assert.Equal(t, 1, strings.Count(out, " ERROR ON RANK "))
	assert.Contains(t, out, " ERROR ON RANK 1 ")
	assert.Contains(t, out, "injected receivers failure")
	assert.Contains(t, o.logs.String(), "World aborted by another rank.")
}

func TestRunConfigurationErrorBeforeAcquire(t *testing.T) {
	params := testutil.Params(t, with(baseParams(), map[string]any{"MODEL_ELEMENTS": 0}))
	o := world{size: 1, params: params}.run(t)
	r := o.ranks[0]

	var stageErr *pipeline.StageError
	require.ErrorAs(t, r.err, &stageErr)
	assert.Equal(t, "Mesh Definition", stageErr.Stage)
	assert.ErrorIs(t, r.err, config.ErrInvalidValue)
	assert.Equal(t, defaultOrder[:4], r.preloop.Completed)

	// Release without acquire does nothing.
	assert.Equal(t, resources.Uninitialized, r.res.State())
	assert.Empty(t, r.banks.Events())
	assert.Equal(t, 1, o.world.Aborts())
	assert.Len(t, r.comm.Aborts(), 1)
}

func TestRunInvalidPipeline(t *testing.T) {
	o := world{
		size:   1,
		params: testutil.Params(t, baseParams()),
		stages: func(int) []pipeline.Stage {
			stages := pipeline.DefaultStages()
			stages[0], stages[1] = stages[1], stages[0]
			return stages
		},
	}.run(t)
	r := o.ranks[0]
	assert.ErrorIs(t, r.err, pipeline.ErrInvalidPipeline)
	assert.Empty(t, r.preloop.Completed)
	assert.Equal(t, 1, o.world.Aborts())
}

func TestRunWithoutDriver(t *testing.T) {
	o := world{
		size:   1,
		params: testutil.Params(t, baseParams()),
		stages: func(int) []pipeline.Stage {
			stages := pipeline.DefaultStages()
			return stages[:len(stages)-1]
		},
	}.run(t)
	r := o.ranks[0]
	assert.ErrorContains(t, r.err, "without a driver")
	assert.Equal(t, resources.Released, r.res.State())
	assertSymmetric(t, r)
}

func TestRunDiagnosticTimer(t *testing.T) {
	dir := t.TempDir()
	params := testutil.Params(t, with(baseParams(), map[string]any{pipeline.KeyDiagnosePreloop: true}))
	o := world{size: 1, params: params, outputDir: dir}.run(t)
	require.NoError(t, o.ranks[0].err)

	raw, err := os.ReadFile(pipeline.TimerPath(dir))
	require.NoError(t, err)
	text := string(raw)
	lines := strings.Split(strings.TrimSpace(text), "\n")

	assert.Equal(t, "BEGIN Exodus", lines[0])
	assert.Contains(t, text, "\n    BEGIN Release Mesh\n")
	assert.Contains(t, text, "\nEND Computational Domain, elapsed = ")
	assert.NotContains(t, text, "Newmark")
	assert.Equal(t, 18, strings.Count(text, "BEGIN "))
	assert.Equal(t, 18, strings.Count(text, "END "))
}

func TestRunVerboseOnRootOnly(t *testing.T) {
	params := testutil.Params(t, with(baseParams(), map[string]any{pipeline.KeyVerbose: true}))
	o := world{size: 2, params: params}.run(t)
	for _, r := range o.ranks {
		require.NoError(t, r.err)
	}
	out := o.out.String()
	assert.Equal(t, 2, strings.Count(out, "Computational Domain ====="))
	assert.Contains(t, out, "Receivers: 1 stations")
	assert.Contains(t, out, "rank 0 holds [0, 4)")
	assert.NotContains(t, out, "rank 1 holds")
}

func TestRunReusesPlanCache(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := plancache.Open(ctx, pipeline.PlanCachePath(dir))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	params := testutil.Params(t, baseParams())
	first := world{size: 1, params: params, store: store}.run(t)
	require.NoError(t, first.ranks[0].err)

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	// Five banks, one plan per length up to nr = 2·2+1.
	assert.Len(t, entries, 25)

	second := world{size: 1, params: params, store: store}.run(t)
	require.NoError(t, second.ranks[0].err)
	assert.Contains(t, second.logs.String(), "cached_plans=25")
}
