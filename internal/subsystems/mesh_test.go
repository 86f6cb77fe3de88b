package subsystems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/domain"
	"github.com/vk/axisem/internal/resources"
)

func releasedMesh(t *testing.T, mesh *WeightedMesh) *domain.Domain {
	t.Helper()
	d := domain.New()
	require.NoError(t, mesh.Release(d, acquired(t, mesh.MaxNr())))
	return d
}

func TestDefineMesh(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		mesh := buildMesh(t, nil, 0, 1)
		assert.Equal(t, 64, mesh.Def.Elements)
		assert.InDelta(t, EarthRadius/64, mesh.Def.MinSpacing, 1e-9)
		assert.InDelta(t, 0.6*EarthRadius/64/8000, mesh.DeltaT(), 1e-12)
		assert.Equal(t, 11, mesh.MaxNr())
	})

	for _, tc := range []struct {
		key   string
		value any
	}{
		{"MODEL_ELEMENTS", 0},
		{"MODEL_MIN_SPACING", -1.0},
		{"MODEL_MAX_VELOCITY", 0.0},
		{"MODEL_COURANT", -0.5},
	} {
		t.Run(tc.key, func(t *testing.T) {
			p := params(t, map[string]any{tc.key: tc.value})
			_, err := DefineMesh(p, &Exodus{RadiusOuter: EarthRadius}, &NrField{Nu: 1}, &Source{}, &Models3D{})
			var keyErr *config.KeyError
			require.ErrorAs(t, err, &keyErr)
			assert.Equal(t, tc.key, keyErr.Key)
		})
	}
}

func TestBuildUnweightedPartition(t *testing.T) {
	def := &MeshDefinition{Elements: 10, NrField: &NrField{Nu: 2}}
	want := [][2]int{{0, 4}, {4, 7}, {7, 10}}
	for rank, bounds := range want {
		um, err := def.BuildUnweighted(rank, 3)
		require.NoError(t, err)
		assert.Equal(t, bounds, [2]int{um.Start, um.End}, "rank %d", rank)
	}

	// More ranks than elements leaves some ranks empty.
	um, err := def.BuildUnweighted(11, 12)
	require.NoError(t, err)
	assert.Zero(t, um.LocalElements())

	_, err = def.BuildUnweighted(3, 3)
	assert.Error(t, err)
}

func TestWeigh(t *testing.T) {
	um := &UnweightedMesh{Def: &MeshDefinition{NrField: &NrField{Nu: 2}}, Start: 0, End: 3}

	wm, err := um.Weigh(&AttBuilder{DeltaT: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 5}, wm.Weights)

	wm, err = um.Weigh(&AttBuilder{DeltaT: 1, Factors: []float64{0.5, 0.5}})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 10}, wm.Weights)

	_, err = um.Weigh(nil)
	assert.Error(t, err)
}

func TestLocate(t *testing.T) {
	values := map[string]any{"MODEL_ELEMENTS": 4, "MODEL_RADIUS_OUTER": 4000.0}
	mesh := buildMesh(t, values, 1, 2) // elements [2, 4)

	for _, tc := range []struct {
		depth float64
		elem  int
		local bool
	}{
		{0, 0, false},
		{1999, 1, false},
		{2000, 2, true},
		{4000, 3, true},
	} {
		elem, local, err := mesh.Locate(tc.depth)
		require.NoError(t, err)
		assert.Equal(t, tc.elem, elem, "depth %g", tc.depth)
		assert.Equal(t, tc.local, local, "depth %g", tc.depth)
	}

	_, _, err := mesh.Locate(4001)
	assert.Error(t, err)
	_, _, err = mesh.Locate(-1)
	assert.Error(t, err)
}

func TestMeshRelease(t *testing.T) {
	mesh := buildMesh(t, map[string]any{"MODEL_ELEMENTS": 8, "NU_CONSTANT": 3}, 1, 2)
	d := releasedMesh(t, mesh)

	got := d.Mesh()
	assert.Equal(t, 4, got.LocalElements)
	assert.Equal(t, 8, got.GlobalElements)
	assert.Equal(t, 7, got.MaxNr)
	assert.Equal(t, mesh.DeltaT(), got.DeltaT)
	assert.NotNil(t, got.Kernel)
	assert.Contains(t, mesh.Verbose(), "rank 1 holds [4, 8)")
}

func TestMeshReleaseNeedsResources(t *testing.T) {
	mesh := buildMesh(t, nil, 0, 1)
	err := mesh.Release(domain.New(), resources.New())
	assert.ErrorIs(t, err, resources.ErrNotAcquired)
	assert.Contains(t, err.Error(), "build kernel")
}
