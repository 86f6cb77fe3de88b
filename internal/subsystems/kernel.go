package subsystems

import (
	"fmt"
	"math"

	"github.com/vk/axisem/internal/fourier"
	"github.com/vk/axisem/internal/resources"
)

// RingKernel advances a scalar wave on an azimuthal ring in Fourier space,
// one explicit central-difference step at a time. All buffers are
// allocated up front; Step and Displacement do not allocate.
type RingKernel struct {
	nr    int
	dt    float64
	decay float64
	omega []float64

	plan *fourier.Plan
	ws   *fourier.Workspace

	prev, curr, next []complex128
	fresh            bool
}

// NewRingKernel builds a kernel for a ring of nr samples. speed is the
// angular wave speed in radians per second.
func NewRingKernel(res *resources.Manager, nr int, dt, speed, decay float64) (*RingKernel, error) {
	if err := res.Ensure(fourier.Single, nr); err != nil {
		return nil, err
	}
	plan, err := res.Plan(fourier.Single, nr)
	if err != nil {
		return nil, err
	}
	ws, err := res.Workspace(fourier.Single)
	if err != nil {
		return nil, err
	}
	nc := plan.Coefficients()
	k := &RingKernel{
		nr:    nr,
		dt:    dt,
		decay: decay,
		omega: make([]float64, nc),
		plan:  plan,
		ws:    ws,
		prev:  make([]complex128, nc),
		curr:  make([]complex128, nc),
		next:  make([]complex128, nc),
	}
	for i := range k.omega {
		k.omega[i] = speed * float64(i)
	}
	if wmax := k.omega[nc-1] * dt; wmax >= 2 {
		return nil, fmt.Errorf("ring kernel unstable: omega·dt = %g >= 2", wmax)
	}
	return k, nil
}

func (k *RingKernel) index(phi float64) int {
	j := int(math.Round(phi / (2 * math.Pi) * float64(k.nr)))
	return ((j % k.nr) + k.nr) % k.nr
}

// Step implements domain.Kernel.
func (k *RingKernel) Step(force, phi float64) error {
	nc := len(k.curr)
	spectrum := k.ws.Complex[:nc]
	if force != 0 {
		field := k.ws.Real[:k.nr]
		clear(field)
		field[k.index(phi)] = force
		if err := k.plan.Forward(field, spectrum); err != nil {
			return err
		}
	}
	dt2 := k.dt * k.dt
	keep := 1 - k.decay
	for i := range nc {
		wdt := k.omega[i] * k.dt
		v := complex(2-wdt*wdt, 0)*k.curr[i] - k.prev[i]
		if force != 0 {
			v += complex(dt2, 0) * spectrum[i]
		}
		k.next[i] = v * complex(keep, 0)
	}
	k.prev, k.curr, k.next = k.curr, k.next, k.prev
	k.fresh = false
	return nil
}

// Displacement implements domain.Kernel.
func (k *RingKernel) Displacement(phi float64) float64 {
	field := k.ws.Real[:k.nr]
	if !k.fresh {
		if err := k.plan.Backward(k.curr, field); err != nil {
			return math.NaN()
		}
		k.fresh = true
	}
	return field[k.index(phi)]
}

// Stable implements domain.Kernel.
func (k *RingKernel) Stable() bool {
	for _, c := range k.curr {
		re, im := real(c), imag(c)
		if math.IsNaN(re) || math.IsNaN(im) || math.Abs(re) > 1e30 || math.Abs(im) > 1e30 {
			return false
		}
	}
	return true
}
