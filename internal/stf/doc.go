// Package stf builds source time functions: discretely sampled excitation
// series injected at the source during time stepping.
//
// Every shape family uses the same sizing policy. Given a time step dt, a
// half duration hdur and a post-origin duration, the series starts
// ceil(1.5·hdur/dt) steps before the origin and ends ceil(duration/dt)
// steps after it, so the pre-origin tail is sampled beyond 1.5 half
// durations. The sample at index Series.Origin() sits exactly at t = 0.
package stf
