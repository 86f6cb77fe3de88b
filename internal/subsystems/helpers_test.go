package subsystems

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/resources"
)

func params(t *testing.T, values map[string]any) *config.Parameters {
	t.Helper()
	p, err := config.FromMap(values, "test")
	require.NoError(t, err)
	return p
}

// buildMesh runs the mesh chain for one rank with attenuation off.
func buildMesh(t *testing.T, values map[string]any, rank, size int) *WeightedMesh {
	t.Helper()
	p := params(t, values)
	ex, att, err := BuildExodus(p)
	require.NoError(t, err)
	nr, err := BuildNrField(p, ex)
	require.NoError(t, err)
	src, err := BuildSource(p)
	require.NoError(t, err)
	models, err := BuildModels3D(p, ex, src)
	require.NoError(t, err)
	def, err := DefineMesh(p, ex, nr, src, models)
	require.NoError(t, err)
	um, err := def.BuildUnweighted(rank, size)
	require.NoError(t, err)
	ab, err := BuildAttenuation(att, um.DeltaT())
	require.NoError(t, err)
	wm, err := um.Weigh(ab)
	require.NoError(t, err)
	return wm
}

func acquired(t *testing.T, maxNr int) *resources.Manager {
	t.Helper()
	res := resources.New()
	require.NoError(t, res.Acquire(context.Background(), maxNr))
	t.Cleanup(func() { _ = res.Release(context.Background()) })
	return res
}
