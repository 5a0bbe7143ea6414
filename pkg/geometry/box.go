package geometry

import "math"

// Box is an axis-aligned bounding box. The zero value is empty; expanding an
// empty box by a point yields a degenerate box at that point.
type Box struct {
	Min, Max Point
	valid    bool
}

// NewBox returns the box spanning the two corners in any order.
func NewBox(a, b Point) Box {
	return Box{
		Min:   Pt(math.Min(a.X, b.X), math.Min(a.Y, b.Y)),
		Max:   Pt(math.Max(a.X, b.X), math.Max(a.Y, b.Y)),
		valid: true,
	}
}

// Empty reports whether the box contains no points.
func (b Box) Empty() bool { return !b.valid }

// Expand returns b grown to include p.
func (b Box) Expand(p Point) Box {
	if !b.valid {
		return Box{Min: p, Max: p, valid: true}
	}
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	return b
}

// Union returns the smallest box containing b and o.
func (b Box) Union(o Box) Box {
	if !o.valid {
		return b
	}
	if !b.valid {
		return o
	}
	return b.Expand(o.Min).Expand(o.Max)
}

// Transform returns the bounding box of b's corners mapped through t.
func (b Box) Transform(t Transform) Box {
	if !b.valid {
		return b
	}
	var out Box
	for _, c := range []Point{b.Min, Pt(b.Max.X, b.Min.Y), b.Max, Pt(b.Min.X, b.Max.Y)} {
		out = out.Expand(t.Apply(c))
	}
	return out
}

// Width returns the horizontal extent.
func (b Box) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the vertical extent.
func (b Box) Height() float64 { return b.Max.Y - b.Min.Y }

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Pt((b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2)
}

// Overlaps reports whether the interiors of b and o intersect by more than
// [Tolerance] on both axes.
func (b Box) Overlaps(o Box) bool {
	if !b.valid || !o.valid {
		return false
	}
	return b.Min.X < o.Max.X-Tolerance && o.Min.X < b.Max.X-Tolerance &&
		b.Min.Y < o.Max.Y-Tolerance && o.Min.Y < b.Max.Y-Tolerance
}
