// Package subsystems holds the reference collaborators the build pipeline
// wires together: the background (exodus) model, the Fourier order field,
// the point source, 3-D model lists, the mesh in its three phases, the
// attenuation builder and the receiver collection.
//
// They are deliberately small. The mesh is an even contiguous split of a
// radial column of elements and the wavefield it releases is a single
// azimuthal ring advanced in Fourier space. They exist so that a run goes
// end to end through the real pipeline, not to model the Earth.
package subsystems
