package fourier

import (
	"errors"
	"fmt"
	"math"
)

// ErrShape is returned when buffers or tables do not match a plan.
var ErrShape = errors.New("fourier: shape mismatch")

// Plan is a batched real-to-complex transform of fixed length.
type Plan struct {
	N       int
	Howmany int

	cos []float64
	sin []float64
}

// NewPlan computes a plan for howmany sequences of length n.
func NewPlan(n, howmany int) (*Plan, error) {
	if n < 1 || howmany < 1 {
		return nil, fmt.Errorf("%w: length %d, howmany %d", ErrShape, n, howmany)
	}
	p := &Plan{N: n, Howmany: howmany, cos: make([]float64, n), sin: make([]float64, n)}
	for k := range n {
		theta := 2 * math.Pi * float64(k) / float64(n)
		p.cos[k], p.sin[k] = math.Cos(theta), math.Sin(theta)
	}
	return p, nil
}

// RestorePlan rebuilds a plan from a previously exported twiddle table.
func RestorePlan(n, howmany int, cos, sin []float64) (*Plan, error) {
	if n < 1 || howmany < 1 || len(cos) != n || len(sin) != n {
		return nil, fmt.Errorf("%w: length %d, howmany %d, table %d/%d", ErrShape, n, howmany, len(cos), len(sin))
	}
	return &Plan{
		N:       n,
		Howmany: howmany,
		cos:     append([]float64(nil), cos...),
		sin:     append([]float64(nil), sin...),
	}, nil
}

// Twiddles returns the plan's table for persistence. The slices must not be
// modified.
func (p *Plan) Twiddles() (cos, sin []float64) {
	return p.cos, p.sin
}

// Coefficients returns the number of complex outputs per sequence.
func (p *Plan) Coefficients() int {
	return p.N/2 + 1
}

// Forward transforms in (Howmany·N reals) into out (Howmany·(N/2+1)
// complex coefficients).
func (p *Plan) Forward(in []float64, out []complex128) error {
	nc := p.Coefficients()
	if len(in) < p.Howmany*p.N || len(out) < p.Howmany*nc {
		return fmt.Errorf("%w: forward n=%d howmany=%d with %d in, %d out", ErrShape, p.N, p.Howmany, len(in), len(out))
	}
	scale := 1 / float64(p.N)
	for t := range p.Howmany {
		x := in[t*p.N : (t+1)*p.N]
		X := out[t*nc : (t+1)*nc]
		for k := range nc {
			var re, im float64
			for j, v := range x {
				w := (j * k) % p.N
				re += v * p.cos[w]
				im -= v * p.sin[w]
			}
			X[k] = complex(re*scale, im*scale)
		}
	}
	return nil
}

// Backward is the inverse of Forward.
func (p *Plan) Backward(in []complex128, out []float64) error {
	nc := p.Coefficients()
	if len(in) < p.Howmany*nc || len(out) < p.Howmany*p.N {
		return fmt.Errorf("%w: backward n=%d howmany=%d with %d in, %d out", ErrShape, p.N, p.Howmany, len(in), len(out))
	}
	// Coefficients above the Nyquist index are conjugates and counted twice.
	even := p.N%2 == 0
	for t := range p.Howmany {
		X := in[t*nc : (t+1)*nc]
		x := out[t*p.N : (t+1)*p.N]
		for j := range x {
			v := real(X[0])
			for k := 1; k < nc; k++ {
				w := (j * k) % p.N
				c := real(X[k])*p.cos[w] - imag(X[k])*p.sin[w]
				if even && k == nc-1 {
					v += c
				} else {
					v += 2 * c
				}
			}
			x[j] = v
		}
	}
	return nil
}
