// Package fourier implements the real-to-complex transforms used along the
// azimuthal direction.
//
// A Plan transforms Howmany real sequences of length N at once. Sequences
// are stored back to back: transform t reads in[t*N:(t+1)*N] and writes
// out[t*(N/2+1):(t+1)*(N/2+1)]. The forward transform is scaled by 1/N so
// that coefficients are amplitudes; the backward transform is unscaled.
//
// Plans only hold the twiddle table for their length, which makes them
// cheap to persist and restore (see internal/plancache).
package fourier
