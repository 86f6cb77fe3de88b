// Package pipeline runs the preloop: a fixed list of build stages that turn
// run parameters into a computational domain and a time-stepping driver,
// followed by the time loop itself.
//
// Stages declare the Preloop fields they need and provide. The list is
// checked as a dependency graph before anything runs, so a stage can never
// read a field that a later stage populates. Timed stages are bracketed by
// the diagnostic timer. Any error stops the run and is handed to the
// failure handler, which aborts every rank exactly once.
package pipeline
