package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/axisem/internal/ctxlog"
	"github.com/vk/axisem/internal/domain"
)

var (
	// ErrUnstable is returned when the wavefield stops being bounded.
	ErrUnstable = errors.New("solver: wavefield is unstable")
	// ErrSolved is returned by a second Solve.
	ErrSolved = errors.New("solver: already solved")
)

// Driver advances a domain through time.
type Driver interface {
	Solve(ctx context.Context) error
	Finalize(ctx context.Context) error
}

// Newmark is an explicit second-order driver. It performs one kernel step
// per excitation sample and records every local receiver after each step.
type Newmark struct {
	domain       *domain.Domain
	infoInterval int
	stabInterval int

	steps     int
	solved    bool
	finalized bool
}

var _ Driver = (*Newmark)(nil)

// NewNewmark creates the driver and preallocates the receiver traces. A
// non-positive interval disables the matching report or check.
func NewNewmark(d *domain.Domain, infoInterval, stabInterval int) (*Newmark, error) {
	if err := d.CheckReady(); err != nil {
		return nil, err
	}
	n := d.STF().Len()
	for _, r := range d.Receivers() {
		r.Trace = make([]float64, 0, n)
	}
	return &Newmark{domain: d, infoInterval: infoInterval, stabInterval: stabInterval}, nil
}

// Steps returns the number of completed steps.
func (nm *Newmark) Steps() int {
	return nm.steps
}

// Solve runs the time loop.
func (nm *Newmark) Solve(ctx context.Context) error {
	if nm.solved {
		return ErrSolved
	}
	nm.solved = true
	logger := ctxlog.FromContext(ctx)

	kernel := nm.domain.Mesh().Kernel
	stf := nm.domain.STF()
	sources := nm.domain.Sources()
	receivers := nm.domain.Receivers()
	total := stf.Len()

	logger.Info("Time loop started.", "steps", total, "sources", len(sources), "receivers", len(receivers))
	for i := range total {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("time loop interrupted at step %d: %w", i, err)
		}

		// The kernel takes a single forcing point; co-located local
		// sources add up at the first one.
		var force, phi float64
		for j, s := range sources {
			if j == 0 {
				phi = s.Phi
			}
			force += stf.Value(i) * s.Scale
		}
		if err := kernel.Step(force, phi); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		for _, r := range receivers {
			r.Trace = append(r.Trace, kernel.Displacement(r.Phi))
		}
		nm.steps = i + 1

		if nm.stabInterval > 0 && nm.steps%nm.stabInterval == 0 && !kernel.Stable() {
			return fmt.Errorf("%w at step %d, t = %g", ErrUnstable, nm.steps, stf.Time(i))
		}
		if nm.infoInterval > 0 && nm.steps%nm.infoInterval == 0 {
			logger.Info("Time loop progress.", "step", nm.steps, "of", total, "t", stf.Time(i))
		}
	}
	if !kernel.Stable() {
		return fmt.Errorf("%w after the last step", ErrUnstable)
	}
	logger.Info("Time loop finished.", "steps", nm.steps)
	return nil
}

// Finalize reports the recorded traces. Later calls do nothing.
func (nm *Newmark) Finalize(ctx context.Context) error {
	if nm.finalized {
		return nil
	}
	nm.finalized = true
	logger := ctxlog.FromContext(ctx)
	for _, r := range nm.domain.Receivers() {
		logger.Debug("Receiver recorded.", "station", r.Name, "samples", len(r.Trace))
	}
	return nil
}
