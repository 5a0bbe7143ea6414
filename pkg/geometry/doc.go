// Package geometry provides the planar value types used by the layout engine.
//
// All coordinates are in micrometers and all angles in degrees. Types in this
// package are plain values: transforming a [Polygon] or a [Point] returns a new
// value and never mutates the receiver, so geometry can be shared freely
// between locked components and across goroutines.
//
// # Transforms
//
// [Transform] is the rigid map used for every placement in a hierarchy. It
// applies, in order, an optional mirror across the x axis, a rotation about
// the origin and a translation:
//
//	t := geometry.Transform{Rotation: 90, Translation: geometry.Pt(10, 0)}
//	p := t.Apply(geometry.Pt(1, 0)) // (10, 1)
//
// Rotations by multiples of 90 degrees are exact, so Manhattan layouts do not
// accumulate floating point drift through deep hierarchies.
//
// # Tolerance
//
// Coordinates are compared with [Tolerance] (1e-6 µm), well below any
// database unit used for mask output.
package geometry
