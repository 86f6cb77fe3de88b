package fourier

// Workspace holds the real and complex buffers a bank transforms through.
type Workspace struct {
	Howmany int
	Real    []float64
	Complex []complex128
}

// NewWorkspace sizes a workspace for sequences up to length n.
func NewWorkspace(n, howmany int) *Workspace {
	w := &Workspace{Howmany: howmany}
	w.Resize(n)
	return w
}

// Capacity returns the longest sequence the workspace can hold.
func (w *Workspace) Capacity() int {
	if w.Howmany == 0 {
		return 0
	}
	return len(w.Real) / w.Howmany
}

// Fits reports whether sequences of length n fit without growing.
func (w *Workspace) Fits(n int) bool {
	return n <= w.Capacity()
}

// Resize reallocates the buffers for sequences up to length n.
func (w *Workspace) Resize(n int) {
	w.Real = make([]float64, n*w.Howmany)
	w.Complex = make([]complex128, (n/2+1)*w.Howmany)
}

// Bytes returns the memory held by the buffers.
func (w *Workspace) Bytes() uint64 {
	return uint64(len(w.Real))*8 + uint64(len(w.Complex))*16
}
