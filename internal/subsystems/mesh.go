package subsystems

import (
	"fmt"
	"strings"

	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/domain"
	"github.com/vk/axisem/internal/resources"
)

// MeshDefinition is the global mesh description, before any rank builds
// its part.
type MeshDefinition struct {
	Exodus  *Exodus
	NrField *NrField
	Source  *Source
	Models  *Models3D

	Elements    int
	MinSpacing  float64
	MaxVelocity float64
	Courant     float64
}

// DefineMesh reads the mesh description.
func DefineMesh(params *config.Parameters, ex *Exodus, nr *NrField, src *Source, models *Models3D) (*MeshDefinition, error) {
	m := &MeshDefinition{Exodus: ex, NrField: nr, Source: src, Models: models}
	var err error
	if m.Elements, err = params.IntOr("MODEL_ELEMENTS", 64); err != nil {
		return nil, err
	}
	if m.Elements < 1 {
		return nil, &config.KeyError{Key: "MODEL_ELEMENTS", Err: fmt.Errorf("%w: need at least one element", config.ErrInvalidValue)}
	}
	if m.MinSpacing, err = params.FloatOr("MODEL_MIN_SPACING", ex.RadiusOuter/float64(m.Elements)); err != nil {
		return nil, err
	}
	if m.MaxVelocity, err = params.FloatOr("MODEL_MAX_VELOCITY", 8000); err != nil {
		return nil, err
	}
	if m.Courant, err = params.FloatOr("MODEL_COURANT", 0.6); err != nil {
		return nil, err
	}
	for key, v := range map[string]float64{
		"MODEL_MIN_SPACING":  m.MinSpacing,
		"MODEL_MAX_VELOCITY": m.MaxVelocity,
		"MODEL_COURANT":      m.Courant,
	} {
		if !(v > 0) {
			return nil, &config.KeyError{Key: key, Err: fmt.Errorf("%w: %g must be positive", config.ErrInvalidValue, v)}
		}
	}
	return m, nil
}

// BuildUnweighted assigns this rank an even contiguous share of the
// elements.
func (m *MeshDefinition) BuildUnweighted(rank, size int) (*UnweightedMesh, error) {
	if size < 1 || rank < 0 || rank >= size {
		return nil, fmt.Errorf("mesh: rank %d outside world of size %d", rank, size)
	}
	base, rem := m.Elements/size, m.Elements%size
	start := rank*base + min(rank, rem)
	count := base
	if rank < rem {
		count++
	}
	return &UnweightedMesh{Def: m, Rank: rank, Size: size, Start: start, End: start + count}, nil
}

// UnweightedMesh is this rank's part of the mesh, without cost weights.
type UnweightedMesh struct {
	Def        *MeshDefinition
	Rank, Size int
	// Start and End bound the local elements, [Start, End).
	Start, End int
}

// LocalElements returns the number of elements on this rank.
func (m *UnweightedMesh) LocalElements() int {
	return m.End - m.Start
}

// DeltaT returns the time step allowed by the Courant condition.
func (m *UnweightedMesh) DeltaT() float64 {
	return m.Def.Courant * m.Def.MinSpacing / m.Def.MaxVelocity
}

// MaxNr returns the largest ring size in the mesh.
func (m *UnweightedMesh) MaxNr() int {
	return m.Def.NrField.Nr()
}

// Weigh attaches attenuation and computes per-element cost weights.
func (m *UnweightedMesh) Weigh(att *AttBuilder) (*WeightedMesh, error) {
	if att == nil {
		return nil, fmt.Errorf("mesh: weighting needs an attenuation builder")
	}
	cost := float64(m.MaxNr())
	if att.Enabled() {
		cost *= 1 + 0.5*float64(len(att.Factors))
	}
	weights := make([]float64, m.LocalElements())
	for i := range weights {
		weights[i] = cost
	}
	return &WeightedMesh{UnweightedMesh: m, Att: att, Weights: weights}, nil
}

// WeightedMesh is the final local mesh, ready to be released.
type WeightedMesh struct {
	*UnweightedMesh
	Att     *AttBuilder
	Weights []float64
}

// Locate returns the element containing depth and whether it is local.
func (m *WeightedMesh) Locate(depth float64) (int, bool, error) {
	radius := m.Def.Exodus.RadiusOuter
	if depth < 0 || depth > radius {
		return 0, false, fmt.Errorf("depth %g outside [0, %g]", depth, radius)
	}
	h := radius / float64(m.Def.Elements)
	elem := min(int(depth/h), m.Def.Elements-1)
	return elem, elem >= m.Start && elem < m.End, nil
}

// Release builds the ring kernel on the acquired resources and hands the
// mesh to d.
func (m *WeightedMesh) Release(d *domain.Domain, res *resources.Manager) error {
	kernel, err := NewRingKernel(res, m.MaxNr(), m.Att.DeltaT, m.Def.MaxVelocity/m.Def.Exodus.RadiusOuter, m.Att.Decay())
	if err != nil {
		return fmt.Errorf("build kernel: %w", err)
	}
	return d.ReleaseMesh(domain.MeshContribution{
		LocalElements:  m.LocalElements(),
		GlobalElements: m.Def.Elements,
		MaxNr:          m.MaxNr(),
		DeltaT:         m.Att.DeltaT,
		Kernel:         kernel,
	})
}

// Verbose returns a summary.
func (m *WeightedMesh) Verbose() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Mesh: %d elements, rank %d holds [%d, %d)\n", m.Def.Elements, m.Rank, m.Start, m.End)
	fmt.Fprintf(&sb, "  time step %g s, max nr %d\n", m.Att.DeltaT, m.MaxNr())
	return sb.String()
}
