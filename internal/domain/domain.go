package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrReleaseOrder is returned when a subsystem releases out of turn.
	ErrReleaseOrder = errors.New("domain: release out of order")
	// ErrAlreadyReleased is returned when a subsystem releases twice.
	ErrAlreadyReleased = errors.New("domain: subsystem already released")
	// ErrIncomplete is returned when time stepping is requested before all
	// subsystems have released.
	ErrIncomplete = errors.New("domain: not all subsystems released")
)

// Kind identifies a subsystem contributing to the domain.
type Kind int

const (
	Mesh Kind = iota
	Source
	STF
	Receivers
)

// ReleaseOrder is the only accepted release sequence.
var ReleaseOrder = []Kind{Mesh, Source, STF, Receivers}

func (k Kind) String() string {
	switch k {
	case Mesh:
		return "mesh"
	case Source:
		return "source"
	case STF:
		return "stf"
	case Receivers:
		return "receivers"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Kernel advances the local wavefield. It is supplied by the mesh.
type Kernel interface {
	// Step advances the field by one time step with force applied at
	// azimuth phi of the local source, if any.
	Step(force, phi float64) error
	// Displacement samples the current field at azimuth phi.
	Displacement(phi float64) float64
	// Stable reports whether the field is still bounded.
	Stable() bool
}

// Excitation is the sampled source time function.
type Excitation interface {
	Len() int
	Value(i int) float64
	Time(i int) float64
}

// MeshContribution is what the mesh releases into the domain.
type MeshContribution struct {
	LocalElements  int
	GlobalElements int
	MaxNr          int
	DeltaT         float64
	Kernel         Kernel
}

// PointSource is a source located on this rank.
type PointSource struct {
	Element int
	Phi     float64
	Scale   float64
}

// Receiver is a station located on this rank. Trace is filled during time
// stepping, one sample per step.
type Receiver struct {
	Name    string
	Element int
	Phi     float64
	Trace   []float64
}

// Domain is the runtime aggregate consumed by the time-stepping driver.
type Domain struct {
	released []Kind

	mesh      MeshContribution
	sources   []PointSource
	stf       Excitation
	receivers []*Receiver
}

// New returns an empty domain.
func New() *Domain {
	return &Domain{}
}

// admit checks that kind is the next release in ReleaseOrder.
func (d *Domain) admit(kind Kind) error {
	for _, k := range d.released {
		if k == kind {
			return fmt.Errorf("%w: %s", ErrAlreadyReleased, kind)
		}
	}
	next := len(d.released)
	if next >= len(ReleaseOrder) || ReleaseOrder[next] != kind {
		return fmt.Errorf("%w: %s released after %v", ErrReleaseOrder, kind, d.released)
	}
	d.released = append(d.released, kind)
	return nil
}

// ReleaseMesh installs the mesh contribution.
func (d *Domain) ReleaseMesh(c MeshContribution) error {
	if c.Kernel == nil {
		return errors.New("domain: mesh released without a kernel")
	}
	if err := d.admit(Mesh); err != nil {
		return err
	}
	d.mesh = c
	return nil
}

// ReleaseSource installs the sources located on this rank; the slice may be
// empty when the source lives on another rank.
func (d *Domain) ReleaseSource(sources []PointSource) error {
	if err := d.admit(Source); err != nil {
		return err
	}
	d.sources = append([]PointSource(nil), sources...)
	return nil
}

// ReleaseSTF installs the source time function.
func (d *Domain) ReleaseSTF(e Excitation) error {
	if e == nil || e.Len() == 0 {
		return errors.New("domain: empty source time function")
	}
	if err := d.admit(STF); err != nil {
		return err
	}
	d.stf = e
	return nil
}

// ReleaseReceivers installs the receivers located on this rank.
func (d *Domain) ReleaseReceivers(receivers []*Receiver) error {
	if err := d.admit(Receivers); err != nil {
		return err
	}
	d.receivers = append([]*Receiver(nil), receivers...)
	return nil
}

// Released returns the kinds released so far, in order.
func (d *Domain) Released() []Kind {
	return append([]Kind(nil), d.released...)
}

// Ready reports whether all subsystems have released.
func (d *Domain) Ready() bool {
	return len(d.released) == len(ReleaseOrder)
}

// CheckReady returns ErrIncomplete unless the domain is ready.
func (d *Domain) CheckReady() error {
	if !d.Ready() {
		return fmt.Errorf("%w: have %v", ErrIncomplete, d.released)
	}
	return nil
}

// Mesh returns the mesh contribution.
func (d *Domain) Mesh() MeshContribution { return d.mesh }

// Sources returns the local sources.
func (d *Domain) Sources() []PointSource { return d.sources }

// STF returns the source time function.
func (d *Domain) STF() Excitation { return d.stf }

// Receivers returns the local receivers.
func (d *Domain) Receivers() []*Receiver { return d.receivers }

// Verbose returns a human-readable dump of the assembled domain.
func (d *Domain) Verbose() string {
	var sb strings.Builder
	line := func(name string, value any) {
		fmt.Fprintf(&sb, "  %-24s=   %v\n", name, value)
	}
	sb.WriteString("\n======================= Computational Domain =======================\n")
	line("Released", d.released)
	line("Local Elements", d.mesh.LocalElements)
	line("Global Elements", d.mesh.GlobalElements)
	line("Max Nr", d.mesh.MaxNr)
	line("Time Step", d.mesh.DeltaT)
	line("Local Sources", len(d.sources))
	if d.stf != nil {
		line("STF Steps", d.stf.Len())
	}
	line("Local Receivers", len(d.receivers))
	for _, r := range d.receivers {
		fmt.Fprintf(&sb, "    %-20s element %d, phi %.4f\n", r.Name, r.Element, r.Phi)
	}
	sb.WriteString("======================= Computational Domain =======================\n\n")
	return sb.String()
}
