package subsystems

import (
	"fmt"

	"github.com/vk/axisem/internal/config"
)

// NrField assigns the number of azimuthal samples to every point.
type NrField struct {
	Nu int
}

// BuildNrField reads a constant Fourier order.
func BuildNrField(params *config.Parameters, ex *Exodus) (*NrField, error) {
	nu, err := params.IntOr("NU_CONSTANT", 5)
	if err != nil {
		return nil, err
	}
	if nu < 0 {
		return nil, &config.KeyError{Key: "NU_CONSTANT", Err: fmt.Errorf("%w: order %d is negative", config.ErrInvalidValue, nu)}
	}
	return &NrField{Nu: nu}, nil
}

// Nr returns the ring size, 2·nu+1.
func (f *NrField) Nr() int {
	return 2*f.Nu + 1
}
