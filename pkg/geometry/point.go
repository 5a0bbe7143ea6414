package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

// Tolerance is the absolute tolerance used for coordinate and length
// comparisons, in micrometers.
const Tolerance = 1e-6

// AngleTolerance is the absolute tolerance for angle comparisons, in degrees.
const AngleTolerance = 1e-6

// Point is a 2D position or displacement in micrometers.
type Point = r2.Vec

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Close reports whether a and b are within [Tolerance] on both axes.
func Close(a, b Point) bool {
	return scalar.EqualWithinAbs(a.X, b.X, Tolerance) && scalar.EqualWithinAbs(a.Y, b.Y, Tolerance)
}

// Equal reports whether two scalars are within [Tolerance].
func Equal(a, b float64) bool {
	return scalar.EqualWithinAbs(a, b, Tolerance)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// Finite reports whether both coordinates are finite numbers.
func Finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// NormalizeAngle maps deg into [0, 360). Values within [AngleTolerance] of
// 360 collapse to 0.
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360-AngleTolerance {
		a = 0
	}
	if math.Abs(a) < AngleTolerance {
		a = 0
	}
	return a
}

// AngleClose reports whether two angles denote the same direction.
func AngleClose(a, b float64) bool {
	d := NormalizeAngle(a - b)
	return d < AngleTolerance || d > 360-AngleTolerance
}

// IsManhattan reports whether deg is a multiple of 90 degrees.
func IsManhattan(deg float64) bool {
	q := deg / 90
	return math.Abs(q-math.Round(q)) < AngleTolerance/90
}

// SnapAngle rounds deg to the nearest multiple of 90 when it is within
// tolerance of one, and normalizes it.
func SnapAngle(deg float64) float64 {
	if IsManhattan(deg) {
		return NormalizeAngle(90 * math.Round(deg/90))
	}
	return NormalizeAngle(deg)
}

// Direction returns the unit vector pointing along deg.
func Direction(deg float64) Point {
	c, s := sincos(deg)
	return Point{X: c, Y: s}
}

// Heading returns the angle of v in degrees, normalized to [0, 360).
func Heading(v Point) float64 {
	return SnapAngle(math.Atan2(v.Y, v.X) * 180 / math.Pi)
}

// sincos returns cos and sin of deg, exact for multiples of 90.
func sincos(deg float64) (c, s float64) {
	if IsManhattan(deg) {
		switch int(NormalizeAngle(90*math.Round(deg/90))) / 90 {
		case 0:
			return 1, 0
		case 1:
			return 0, 1
		case 2:
			return -1, 0
		default:
			return 0, -1
		}
	}
	rad := deg * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}

// Rotate rotates p by deg about the origin.
func Rotate(p Point, deg float64) Point {
	c, s := sincos(deg)
	return Point{X: c*p.X - s*p.Y, Y: s*p.X + c*p.Y}
}
