// Package resources owns the process-wide numerical resources of a rank:
// the transform plans and workspaces for every azimuthal transform bank and
// the element-local solid and fluid workspaces.
//
// # Lifecycle
//
// A Manager moves through Uninitialized → Acquired → Released exactly once.
// Acquire needs the largest ring size in the mesh, so it can only run after
// the unweighted mesh has been built. Release undoes Acquire in reverse
// order and is a silent no-op on a Manager that was never acquired, which
// lets failure cleanup call it unconditionally.
//
// # Phases
//
// Independently of the lifecycle, a Manager carries a phase tag: Preloop,
// TimeLoop, Postloop. During TimeLoop nothing may be built, rebuilt or
// destroyed. Builds compiled without the "release" tag check this and fail
// with ErrAllocationForbidden; release builds skip the check.
package resources
