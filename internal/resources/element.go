package resources

import "github.com/vk/axisem/internal/fourier"

// Components held per GLL point by the element workspaces.
const (
	SolidComponents = 9
	FluidComponents = 3
)

// ElementWorkspace is the scratch space one element uses while computing
// stiffness terms in the Fourier domain.
type ElementWorkspace struct {
	Name       string
	Nu         int
	Components int
	// Coefs holds (Nu+1) complex coefficients per point and component.
	Coefs []complex128
}

// NewElementWorkspace sizes a workspace for Fourier orders 0..nu.
func NewElementWorkspace(name string, nu, components int) *ElementWorkspace {
	return &ElementWorkspace{
		Name:       name,
		Nu:         nu,
		Components: components,
		Coefs:      make([]complex128, (nu+1)*fourier.PointsPerElement*components),
	}
}

// Bytes returns the memory held by the workspace.
func (w *ElementWorkspace) Bytes() uint64 {
	return uint64(len(w.Coefs)) * 16
}
