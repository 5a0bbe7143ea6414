package component

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
)

// ConnectOptions relaxes the compatibility checks done by
// [Reference.Connect].
type ConnectOptions struct {
	AllowWidthMismatch bool
	AllowLayerMismatch bool
	AllowTypeMismatch  bool
}

// Align returns the rotation plus translation that moves port moving onto
// port fixed, facing it. Applying the result to moving yields a port at
// fixed.Center with orientation fixed.Orientation+180.
func Align(moving, fixed Port) geometry.Transform {
	rot := geometry.SnapAngle(fixed.Orientation + 180 - moving.Orientation)
	rotated := geometry.Rotate(moving.Center, rot)
	return geometry.Transform{
		Translation: r2.Sub(fixed.Center, rotated),
		Rotation:    rot,
	}
}

// CheckCompatible reports whether two ports may be joined.
func CheckCompatible(a, b Port, opts ConnectOptions) error {
	if !opts.AllowWidthMismatch && !geometry.Equal(a.Width, b.Width) {
		return errors.PortMismatch("width %g (%s) != %g (%s)", a.Width, a.Name, b.Width, b.Name)
	}
	if !opts.AllowLayerMismatch && a.Layer != b.Layer {
		return errors.PortMismatch("layer %s (%s) != %s (%s)", a.Layer, a.Name, b.Layer, b.Name)
	}
	if !opts.AllowTypeMismatch && a.Type() != b.Type() {
		return errors.PortMismatch("type %s (%s) != %s (%s)", a.Type(), a.Name, b.Type(), b.Name)
	}
	return nil
}

// Facing reports whether a and b coincide and point in opposite directions.
func Facing(a, b Port) bool {
	return geometry.Close(a.Center, b.Center) && geometry.AngleClose(a.Orientation, b.Orientation+180)
}
