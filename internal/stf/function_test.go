package stf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/domain"
)

func params(t *testing.T, values map[string]any) *config.Parameters {
	t.Helper()
	p, err := config.FromMap(values, "test")
	require.NoError(t, err)
	return p
}

func TestBuild(t *testing.T) {
	t.Run("gaussian by default", func(t *testing.T) {
		f, err := Build(params(t, map[string]any{
			KeyHalfDuration: 1.0,
			KeyRecordLength: 5.0,
		}), 0.1)
		require.NoError(t, err)
		assert.Equal(t, "Gaussian", f.Series().Shape)
		assert.Equal(t, 66, f.Series().Len())
		assert.Contains(t, f.Verbose(), "Gaussian")
	})

	t.Run("erf", func(t *testing.T) {
		f, err := Build(params(t, map[string]any{
			KeyType:         "erf",
			KeyHalfDuration: 2.0,
			KeyDecay:        2.0,
			KeyRecordLength: 1.0,
		}), 0.5)
		require.NoError(t, err)
		assert.Equal(t, "Error Function", f.Series().Shape)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := Build(params(t, map[string]any{
			KeyType:         "ricker",
			KeyHalfDuration: 1.0,
			KeyRecordLength: 1.0,
		}), 0.1)
		assert.ErrorIs(t, err, config.ErrInvalidValue)
	})

	t.Run("missing half duration", func(t *testing.T) {
		_, err := Build(params(t, map[string]any{KeyRecordLength: 1.0}), 0.1)
		assert.ErrorIs(t, err, config.ErrMissingKey)
	})

	t.Run("invalid dt", func(t *testing.T) {
		_, err := Build(params(t, map[string]any{
			KeyHalfDuration: 1.0,
			KeyRecordLength: 1.0,
		}), 0)
		assert.ErrorIs(t, err, ErrInvalidShape)
	})
}

type stillKernel struct{}

func (stillKernel) Step(float64, float64) error  { return nil }
func (stillKernel) Displacement(float64) float64 { return 0 }
func (stillKernel) Stable() bool                 { return true }

func TestRelease(t *testing.T) {
	f, err := Build(params(t, map[string]any{
		KeyHalfDuration: 1.0,
		KeyRecordLength: 1.0,
	}), 0.1)
	require.NoError(t, err)

	d := domain.New()
	require.NoError(t, d.ReleaseMesh(domain.MeshContribution{Kernel: stillKernel{}}))
	require.NoError(t, d.ReleaseSource(nil))
	require.NoError(t, f.Release(d))
	assert.Equal(t, f.Series().Len(), d.STF().Len())

	assert.ErrorIs(t, f.Release(d), domain.ErrAlreadyReleased)
}
