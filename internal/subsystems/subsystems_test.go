package subsystems

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/domain"
)

func TestBuildExodus(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		ex, att, err := BuildExodus(params(t, nil))
		require.NoError(t, err)
		assert.Equal(t, EarthRadius, ex.RadiusOuter)
		assert.False(t, ex.Attenuation)
		assert.Nil(t, att)
	})

	t.Run("attenuation", func(t *testing.T) {
		_, att, err := BuildExodus(params(t, map[string]any{
			"MODEL_ATTENUATION":      true,
			"ATTENUATION_SLS_NUMBER": 3,
		}))
		require.NoError(t, err)
		require.NotNil(t, att)
		assert.Equal(t, 3, att.SLSNumber)
		assert.Equal(t, 0.001, att.FreqMin)
	})

	t.Run("bad radius", func(t *testing.T) {
		_, _, err := BuildExodus(params(t, map[string]any{"MODEL_RADIUS_OUTER": -1.0}))
		assert.ErrorIs(t, err, config.ErrInvalidValue)
	})

	t.Run("bad attenuation band", func(t *testing.T) {
		_, _, err := BuildExodus(params(t, map[string]any{
			"MODEL_ATTENUATION":    true,
			"ATTENUATION_FREQ_MIN": 2.0,
			"ATTENUATION_FREQ_MAX": 1.0,
		}))
		assert.ErrorIs(t, err, config.ErrInvalidValue)
	})
}

func TestBuildNrField(t *testing.T) {
	nr, err := BuildNrField(params(t, map[string]any{"NU_CONSTANT": 8}), nil)
	require.NoError(t, err)
	assert.Equal(t, 17, nr.Nr())

	_, err = BuildNrField(params(t, map[string]any{"NU_CONSTANT": -1}), nil)
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func TestBuildSource(t *testing.T) {
	src, err := BuildSource(params(t, map[string]any{
		"SOURCE_LATITUDE":  10.0,
		"SOURCE_LONGITUDE": -90.0,
		"SOURCE_DEPTH":     50e3,
	}))
	require.NoError(t, err)
	assert.InDelta(t, 1.5*math.Pi, src.Phi(), 1e-12)
	assert.Contains(t, src.Verbose(), "depth 50.0 km")

	_, err = BuildSource(params(t, map[string]any{"SOURCE_LATITUDE": 91.0}))
	var keyErr *config.KeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "SOURCE_LATITUDE", keyErr.Key)

	_, err = BuildSource(params(t, map[string]any{"SOURCE_DEPTH": -1.0}))
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func TestSourceRelease(t *testing.T) {
	values := map[string]any{"MODEL_ELEMENTS": 4, "SOURCE_DEPTH": 0.0}

	t.Run("local", func(t *testing.T) {
		mesh := buildMesh(t, values, 0, 2)
		d := releasedMesh(t, mesh)
		src, err := BuildSource(params(t, values))
		require.NoError(t, err)
		require.NoError(t, src.Release(d, mesh))
		require.Len(t, d.Sources(), 1)
		assert.Equal(t, 0, d.Sources()[0].Element)
	})

	t.Run("elsewhere", func(t *testing.T) {
		mesh := buildMesh(t, values, 1, 2)
		d := releasedMesh(t, mesh)
		src, err := BuildSource(params(t, values))
		require.NoError(t, err)
		require.NoError(t, src.Release(d, mesh))
		assert.Empty(t, d.Sources())
		assert.Equal(t, []domain.Kind{domain.Mesh, domain.Source}, d.Released())
	})
}

func TestBuildModels3D(t *testing.T) {
	m, err := BuildModels3D(params(t, map[string]any{
		"MODEL_3D_VOLUMETRIC_LIST": []any{"s40rts", "NONE"},
		"MODEL_3D_GEOMETRIC_LIST":  "none",
		"MODEL_3D_OCEAN_LOAD":      "etopo",
	}), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"s40rts"}, m.Volumetric)
	assert.Empty(t, m.Geometric)
	assert.Equal(t, "etopo", m.OceanLoad)

	m, err = BuildModels3D(params(t, nil), nil, nil)
	require.NoError(t, err)
	assert.Contains(t, m.Verbose(), "ocean load none")
}

func TestBuildAttenuation(t *testing.T) {
	t.Run("off", func(t *testing.T) {
		b, err := BuildAttenuation(nil, 0.1)
		require.NoError(t, err)
		assert.False(t, b.Enabled())
		assert.Zero(t, b.Decay())
		assert.Equal(t, "Attenuation: off\n", b.Verbose())
	})

	t.Run("log spaced", func(t *testing.T) {
		b, err := BuildAttenuation(&AttParams{SLSNumber: 3, FreqMin: 0.01, FreqMax: 1}, 0.1)
		require.NoError(t, err)
		require.Len(t, b.Freqs, 3)
		assert.InDelta(t, 0.1, b.Freqs[1], 1e-12)
		for _, f := range b.Factors {
			assert.Greater(t, f, 0.0)
			assert.Less(t, f, 1.0)
		}
		// Higher frequencies relax faster.
		assert.Less(t, b.Factors[2], b.Factors[0])
		assert.Greater(t, b.Decay(), 0.0)
	})

	t.Run("bad step", func(t *testing.T) {
		_, err := BuildAttenuation(nil, 0)
		assert.Error(t, err)
	})
}
