// Package solver holds the time-stepping drivers that consume a fully
// released computational domain.
package solver
