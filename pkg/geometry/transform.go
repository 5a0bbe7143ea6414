package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Transform is a rigid planar map: mirror across the x axis (when Mirror is
// set), then rotation by Rotation degrees about the origin, then translation.
//
// The zero value is the identity.
type Transform struct {
	Translation Point   `json:"translation" bson:"translation"`
	Rotation    float64 `json:"rotation" bson:"rotation"`
	Mirror      bool    `json:"mirror,omitempty" bson:"mirror,omitempty"`
}

// Identity returns the identity transform.
func Identity() Transform { return Transform{} }

// Translate returns a pure translation.
func Translate(dx, dy float64) Transform {
	return Transform{Translation: Pt(dx, dy)}
}

// Rotation returns a pure rotation about the origin.
func Rotation(deg float64) Transform {
	return Transform{Rotation: NormalizeAngle(deg)}
}

// MirrorX returns the reflection y -> -y.
func MirrorX() Transform {
	return Transform{Mirror: true}
}

// linear applies mirror and rotation, without translation.
func (t Transform) linear(p Point) Point {
	if t.Mirror {
		p.Y = -p.Y
	}
	return Rotate(p, t.Rotation)
}

// Apply maps p through t.
func (t Transform) Apply(p Point) Point {
	return r2.Add(t.linear(p), t.Translation)
}

// ApplyAll maps every point through t into a new slice.
func (t Transform) ApplyAll(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = t.Apply(p)
	}
	return out
}

// ApplyAngle maps a direction angle through t. Mirroring flips the sign of
// the angle before the rotation is added.
func (t Transform) ApplyAngle(deg float64) float64 {
	if t.Mirror {
		deg = -deg
	}
	return SnapAngle(deg + t.Rotation)
}

// Compose returns the transform that applies inner first and then t.
func (t Transform) Compose(inner Transform) Transform {
	rot := t.Rotation + inner.Rotation
	if t.Mirror {
		rot = t.Rotation - inner.Rotation
	}
	return Transform{
		Translation: t.Apply(inner.Translation),
		Rotation:    SnapAngle(rot),
		Mirror:      t.Mirror != inner.Mirror,
	}
}

// Inverse returns the transform u with u.Compose(t) equal to the identity.
func (t Transform) Inverse() Transform {
	inv := Transform{Rotation: SnapAngle(-t.Rotation), Mirror: t.Mirror}
	if t.Mirror {
		inv.Rotation = SnapAngle(t.Rotation)
	}
	inv.Translation = r2.Scale(-1, inv.linear(t.Translation))
	return inv
}

// IsIdentity reports whether t leaves every point in place.
func (t Transform) IsIdentity() bool {
	return !t.Mirror && AngleClose(t.Rotation, 0) && Close(t.Translation, Point{})
}

// Equal reports whether t and u are the same map within tolerance.
func (t Transform) Equal(u Transform) bool {
	return t.Mirror == u.Mirror && AngleClose(t.Rotation, u.Rotation) && Close(t.Translation, u.Translation)
}

func (t Transform) String() string {
	return fmt.Sprintf("T(%.4g,%.4g r%.4g m%t)", t.Translation.X, t.Translation.Y, t.Rotation, t.Mirror)
}
