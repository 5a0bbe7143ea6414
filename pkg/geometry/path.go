package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/pcellkit/pkg/errors"
)

// Path is a waveguide centerline. Angles holds the tangent direction at each
// point in degrees; when nil, tangents are estimated from neighboring points.
type Path struct {
	Points []Point
	Angles []float64
}

// Length returns the polyline length of the centerline.
func (p Path) Length() float64 {
	var l float64
	for i := 1; i < len(p.Points); i++ {
		l += Distance(p.Points[i-1], p.Points[i])
	}
	return l
}

// Start returns the first point.
func (p Path) Start() Point { return p.Points[0] }

// End returns the last point.
func (p Path) End() Point { return p.Points[len(p.Points)-1] }

// tangent returns the tangent angle at point i.
func (p Path) tangent(i int) float64 {
	if p.Angles != nil {
		return p.Angles[i]
	}
	n := len(p.Points)
	switch {
	case i == 0:
		return heading(r2.Sub(p.Points[1], p.Points[0]))
	case i == n-1:
		return heading(r2.Sub(p.Points[n-1], p.Points[n-2]))
	default:
		return heading(r2.Sub(p.Points[i+1], p.Points[i-1]))
	}
}

func heading(v Point) float64 {
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}

// Extrude sweeps a band of the given width along the centerline and returns
// it as a closed polygon: the left edge forward, then the right edge back.
func (p Path) Extrude(width float64) (Polygon, error) {
	if len(p.Points) < 2 {
		return nil, errors.Geometry("path needs at least 2 points, got %d", len(p.Points))
	}
	if p.Angles != nil && len(p.Angles) != len(p.Points) {
		return nil, errors.Geometry("path has %d points but %d angles", len(p.Points), len(p.Angles))
	}
	if !(width > 0) {
		return nil, errors.Geometry("extrusion width must be positive, got %g", width)
	}
	if p.Length() < Tolerance {
		return nil, errors.Geometry("path has zero length")
	}

	n := len(p.Points)
	poly := make(Polygon, 2*n)
	for i, pt := range p.Points {
		normal := r2.Scale(width/2, Direction(p.tangent(i)+90))
		poly[i] = r2.Add(pt, normal)
		poly[2*n-1-i] = r2.Sub(pt, normal)
	}
	return poly, nil
}

// Transform returns the path mapped through t, tangents included.
func (p Path) Transform(t Transform) Path {
	out := Path{Points: t.ApplyAll(p.Points)}
	if p.Angles != nil {
		out.Angles = make([]float64, len(p.Angles))
		for i, a := range p.Angles {
			out.Angles[i] = t.ApplyAngle(a)
		}
	}
	return out
}

// Arc returns a circular arc centerline starting at the origin heading east
// and turning counter-clockwise by angle degrees with the given radius.
// The arc is sampled every ~1 degree.
func Arc(radius, angle float64) Path {
	n := int(math.Ceil(math.Abs(angle))) + 1
	if n < 3 {
		n = 3
	}
	p := Path{Points: make([]Point, n), Angles: make([]float64, n)}
	for i := 0; i < n; i++ {
		a := angle * float64(i) / float64(n-1)
		c, s := sincos(a)
		p.Points[i] = Pt(radius*s, radius*(1-c))
		p.Angles[i] = a
	}
	return p
}
