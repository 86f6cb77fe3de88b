// Package domain holds the runtime domain: the aggregate the time-stepping
// driver operates on.
//
// A Domain is created empty and populated by exactly four releases, in a
// fixed order: mesh, source, source time function, receivers. Source and
// receiver placement query mesh-derived local geometry, so the mesh must be
// released first; the relative order of the remaining three carries no data
// dependency but is fixed so runs are reproducible. Each kind may be released
// at most once, and the domain refuses to start time stepping until all four
// are in.
package domain
