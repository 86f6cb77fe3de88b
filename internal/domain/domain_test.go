package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flatKernel struct{}

func (flatKernel) Step(float64, float64) error  { return nil }
func (flatKernel) Displacement(float64) float64 { return 0 }
func (flatKernel) Stable() bool                 { return true }

type constant []float64

func (c constant) Len() int            { return len(c) }
func (c constant) Value(i int) float64 { return c[i] }
func (c constant) Time(i int) float64  { return float64(i) }

func releaseAll(t *testing.T, d *Domain) {
	t.Helper()
	require.NoError(t, d.ReleaseMesh(MeshContribution{LocalElements: 4, Kernel: flatKernel{}}))
	require.NoError(t, d.ReleaseSource([]PointSource{{Element: 1, Scale: 1}}))
	require.NoError(t, d.ReleaseSTF(constant{0, 1, 0}))
	require.NoError(t, d.ReleaseReceivers([]*Receiver{{Name: "AAK"}}))
}

func TestReleaseInOrder(t *testing.T) {
	d := New()
	assert.False(t, d.Ready())
	assert.ErrorIs(t, d.CheckReady(), ErrIncomplete)

	releaseAll(t, d)

	assert.True(t, d.Ready())
	assert.NoError(t, d.CheckReady())
	assert.Equal(t, ReleaseOrder, d.Released())
	assert.Len(t, d.Sources(), 1)
	assert.Equal(t, 3, d.STF().Len())
	assert.Equal(t, "AAK", d.Receivers()[0].Name)
	assert.Equal(t, 4, d.Mesh().LocalElements)
}

func TestReleaseOutOfOrder(t *testing.T) {
	t.Run("source before mesh", func(t *testing.T) {
		d := New()
		assert.ErrorIs(t, d.ReleaseSource(nil), ErrReleaseOrder)
		assert.Empty(t, d.Released())
	})

	t.Run("receivers before stf", func(t *testing.T) {
		d := New()
		require.NoError(t, d.ReleaseMesh(MeshContribution{Kernel: flatKernel{}}))
		require.NoError(t, d.ReleaseSource(nil))
		assert.ErrorIs(t, d.ReleaseReceivers(nil), ErrReleaseOrder)
	})
}

func TestReleaseTwice(t *testing.T) {
	d := New()
	require.NoError(t, d.ReleaseMesh(MeshContribution{Kernel: flatKernel{}}))
	assert.ErrorIs(t, d.ReleaseMesh(MeshContribution{Kernel: flatKernel{}}), ErrAlreadyReleased)

	rest := func() {
		require.NoError(t, d.ReleaseSource(nil))
		require.NoError(t, d.ReleaseSTF(constant{1}))
		require.NoError(t, d.ReleaseReceivers(nil))
	}
	rest()
	assert.ErrorIs(t, d.ReleaseReceivers(nil), ErrAlreadyReleased)
}

func TestReleaseRejectsEmpty(t *testing.T) {
	d := New()
	assert.Error(t, d.ReleaseMesh(MeshContribution{}))
	require.NoError(t, d.ReleaseMesh(MeshContribution{Kernel: flatKernel{}}))
	require.NoError(t, d.ReleaseSource(nil))
	assert.Error(t, d.ReleaseSTF(constant{}))
	assert.Equal(t, []Kind{Mesh, Source}, d.Released())
}

func TestVerbose(t *testing.T) {
	d := New()
	releaseAll(t, d)
	out := d.Verbose()
	assert.Contains(t, out, "Computational Domain")
	assert.Contains(t, out, "[mesh source stf receivers]")
	assert.Contains(t, out, "AAK")
}
