package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Segment is a straight line segment between A and B.
type Segment struct {
	A, B Point
}

// Length returns the segment length.
func (s Segment) Length() float64 { return Distance(s.A, s.B) }

// orient returns the sign of the turn a->b->c, zero when collinear within tolerance.
func orient(a, b, c Point) int {
	v := r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
	scale := math.Max(1, r2.Norm(r2.Sub(b, a))*r2.Norm(r2.Sub(c, a)))
	switch {
	case v > Tolerance*scale:
		return 1
	case v < -Tolerance*scale:
		return -1
	}
	return 0
}

// SegmentsCross reports whether s and t cross at a single interior point.
// Touching at endpoints and collinear overlap do not count as crossing.
func SegmentsCross(s, t Segment) bool {
	d1 := orient(t.A, t.B, s.A)
	d2 := orient(t.A, t.B, s.B)
	d3 := orient(s.A, s.B, t.A)
	d4 := orient(s.A, s.B, t.B)
	return d1*d2 < 0 && d3*d4 < 0
}

// PointSegmentDistance returns the distance from p to the closest point of s.
func PointSegmentDistance(p Point, s Segment) float64 {
	d := r2.Sub(s.B, s.A)
	l2 := r2.Dot(d, d)
	if l2 == 0 {
		return Distance(p, s.A)
	}
	u := r2.Dot(r2.Sub(p, s.A), d) / l2
	u = math.Max(0, math.Min(1, u))
	return Distance(p, r2.Add(s.A, r2.Scale(u, d)))
}

// SegmentDistance returns the minimum distance between two segments, zero
// when they cross.
func SegmentDistance(s, t Segment) float64 {
	if SegmentsCross(s, t) {
		return 0
	}
	return math.Min(
		math.Min(PointSegmentDistance(s.A, t), PointSegmentDistance(s.B, t)),
		math.Min(PointSegmentDistance(t.A, s), PointSegmentDistance(t.B, s)),
	)
}

// PointInPolygon reports whether p lies strictly inside poly. Points on the
// boundary (within tolerance) are reported as onBoundary instead.
func PointInPolygon(p Point, poly Polygon) (inside, onBoundary bool) {
	for _, e := range poly.Edges() {
		if PointSegmentDistance(p, e) <= Tolerance {
			return false, true
		}
	}
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside, false
}

// PolygonsOverlap reports whether the interiors of a and b intersect.
// Polygons that only share edges or vertices do not overlap.
func PolygonsOverlap(a, b Polygon) bool {
	if !a.BBox().Overlaps(b.BBox()) {
		return false
	}
	ea, eb := a.Edges(), b.Edges()
	for _, s := range ea {
		for _, t := range eb {
			if SegmentsCross(s, t) {
				return true
			}
		}
	}
	if interiorInside(a, b) || interiorInside(b, a) {
		return true
	}
	return false
}

// interiorInside reports whether some interior sample of a lies strictly
// inside b: any vertex, any edge midpoint, or the centroid.
func interiorInside(a, b Polygon) bool {
	for _, p := range a {
		if in, _ := PointInPolygon(p, b); in {
			return true
		}
	}
	for _, e := range a.Edges() {
		mid := r2.Scale(0.5, r2.Add(e.A, e.B))
		if in, _ := PointInPolygon(mid, b); in {
			return true
		}
	}
	if c := a.Centroid(); isInside(c, a) {
		if in, _ := PointInPolygon(c, b); in {
			return true
		}
	}
	return false
}

func isInside(p Point, poly Polygon) bool {
	in, _ := PointInPolygon(p, poly)
	return in
}
