package geometry

import (
	"math"

	"github.com/matzehuels/pcellkit/pkg/errors"
)

// Polygon is a closed ring of points. The closing edge from the last point
// back to the first is implicit.
type Polygon []Point

// Rect returns the axis-aligned rectangle between two corners, counter-clockwise.
func Rect(a, b Point) Polygon {
	x0, x1 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y0, y1 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Polygon{Pt(x0, y0), Pt(x1, y0), Pt(x1, y1), Pt(x0, y1)}
}

// Transform returns a copy of p mapped through t. A mirroring transform
// reverses the ring so that orientation (winding) is preserved.
func (p Polygon) Transform(t Transform) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = t.Apply(pt)
	}
	if t.Mirror {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Clone returns a copy of p.
func (p Polygon) Clone() Polygon {
	return append(Polygon(nil), p...)
}

// BBox returns the bounding box of the polygon's vertices.
func (p Polygon) BBox() Box {
	var b Box
	for _, pt := range p {
		b = b.Expand(pt)
	}
	return b
}

// Area returns the signed shoelace area (positive for counter-clockwise rings).
func (p Polygon) Area() float64 {
	var a float64
	for i := range p {
		j := (i + 1) % len(p)
		a += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return a / 2
}

// Centroid returns the area centroid. Degenerate polygons fall back to the
// vertex average.
func (p Polygon) Centroid() Point {
	a := p.Area()
	if math.Abs(a) < Tolerance*Tolerance {
		var c Point
		for _, pt := range p {
			c.X += pt.X
			c.Y += pt.Y
		}
		n := float64(len(p))
		return Pt(c.X/n, c.Y/n)
	}
	var cx, cy float64
	for i := range p {
		j := (i + 1) % len(p)
		f := p[i].X*p[j].Y - p[j].X*p[i].Y
		cx += (p[i].X + p[j].X) * f
		cy += (p[i].Y + p[j].Y) * f
	}
	return Pt(cx/(6*a), cy/(6*a))
}

// Validate checks that the polygon has at least three finite vertices and a
// non-zero area.
func (p Polygon) Validate() error {
	if len(p) < 3 {
		return errors.Geometry("polygon needs at least 3 points, got %d", len(p))
	}
	for i, pt := range p {
		if !Finite(pt) {
			return errors.Geometry("polygon point %d is not finite: %v", i, pt)
		}
	}
	if math.Abs(p.Area()) < Tolerance*Tolerance {
		return errors.Geometry("polygon has zero area")
	}
	return nil
}

// Edges returns the polygon's edges as segments, including the closing edge.
func (p Polygon) Edges() []Segment {
	out := make([]Segment, len(p))
	for i := range p {
		out[i] = Segment{A: p[i], B: p[(i+1)%len(p)]}
	}
	return out
}
