package pipeline

import (
	"strings"

	"github.com/vk/axisem/internal/config"
	"github.com/vk/axisem/internal/domain"
	"github.com/vk/axisem/internal/solver"
	"github.com/vk/axisem/internal/stf"
	"github.com/vk/axisem/internal/subsystems"
)

// Preloop is the transient build context. Fields are populated in stage
// order; Finalize drops everything the time loop does not need.
type Preloop struct {
	Params *config.Parameters

	Exodus         *subsystems.Exodus
	AttParams      *subsystems.AttParams
	NrField        *subsystems.NrField
	Source         *subsystems.Source
	Models3D       *subsystems.Models3D
	Mesh           *subsystems.MeshDefinition
	MeshUnweighted *subsystems.UnweightedMesh
	DeltaT         float64
	AttBuilder     *subsystems.AttBuilder
	MeshWeighted   *subsystems.WeightedMesh
	STF            *stf.Function
	Receivers      *subsystems.Receivers

	Domain *domain.Domain
	Driver solver.Driver

	// Completed lists the stages that finished, substages included, in
	// the order they finished.
	Completed []string
}

// Finalize discards the preloop-only state. The domain, the driver and the
// time step survive.
func (p *Preloop) Finalize() {
	p.Params = nil
	p.Exodus = nil
	p.AttParams = nil
	p.NrField = nil
	p.Source = nil
	p.Models3D = nil
	p.Mesh = nil
	p.MeshUnweighted = nil
	p.AttBuilder = nil
	p.MeshWeighted = nil
	p.STF = nil
	p.Receivers = nil
}

type verboser interface {
	Verbose() string
}

// Verbose concatenates the summaries of every built subsystem and of the
// domain.
func (p *Preloop) Verbose() string {
	var parts []verboser
	if p.Exodus != nil {
		parts = append(parts, p.Exodus)
	}
	if p.Source != nil {
		parts = append(parts, p.Source)
	}
	if p.Models3D != nil {
		parts = append(parts, p.Models3D)
	}
	if p.MeshWeighted != nil {
		parts = append(parts, p.MeshWeighted)
	}
	if p.AttBuilder != nil {
		parts = append(parts, p.AttBuilder)
	}
	if p.STF != nil {
		parts = append(parts, p.STF)
	}
	if p.Receivers != nil {
		parts = append(parts, p.Receivers)
	}
	if p.Domain != nil {
		parts = append(parts, p.Domain)
	}
	var sb strings.Builder
	for _, v := range parts {
		sb.WriteString(v.Verbose())
	}
	return sb.String()
}
