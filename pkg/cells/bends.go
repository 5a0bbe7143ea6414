package cells

import (
	"math"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// BendCircular is a circular arc starting at the origin heading east.
// Positive angles turn left; negative angles turn right.
func BendCircular() *pcell.Cell {
	return &pcell.Cell{
		Name: "bend_circular",
		Doc:  "Circular bend.",
		Defaults: pcell.Params{
			"radius":        nil,
			"angle":         90.0,
			"cross_section": nil,
			"width":         nil,
		},
		Build: buildBendCircular,
	}
}

func buildBendCircular(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	xs, err := crossSection(lib, p)
	if err != nil {
		return err
	}
	r, err := radius(p, xs)
	if err != nil {
		return err
	}
	angle, err := bendAngle(p)
	if err != nil {
		return err
	}
	path := geometry.Arc(r, math.Abs(angle))
	length := r * math.Abs(angle) * math.Pi / 180
	return finishBend(b, xs, path, angle, length, r)
}

// BendEuler is a bend whose curvature ramps linearly from zero, so that
// it joins straights without a curvature jump. p is the fraction of the
// bend spent in the clothoid sections; the rest is circular. The radius is
// the effective radius: the bend occupies the same footprint as a circular
// bend of that radius.
func BendEuler() *pcell.Cell {
	return &pcell.Cell{
		Name: "bend_euler",
		Doc:  "Euler bend (clothoid transitions with a circular middle).",
		Defaults: pcell.Params{
			"radius":        nil,
			"angle":         90.0,
			"p":             0.5,
			"cross_section": nil,
			"width":         nil,
		},
		Build: buildBendEuler,
	}
}

func buildBendEuler(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	xs, err := crossSection(lib, p)
	if err != nil {
		return err
	}
	r, err := radius(p, xs)
	if err != nil {
		return err
	}
	angle, err := bendAngle(p)
	if err != nil {
		return err
	}
	frac, err := p.Float("p")
	if err != nil {
		return err
	}
	if frac > 1 {
		return errors.Geometry("euler fraction p must be at most 1, got %g", frac)
	}
	if frac <= 0 {
		path := geometry.Arc(r, math.Abs(angle))
		return finishBend(b, xs, path, angle, r*math.Abs(angle)*math.Pi/180, r)
	}
	path, length, minRadius := eulerPath(r, math.Abs(angle), frac)
	return finishBend(b, xs, path, angle, length, minRadius)
}

func bendAngle(p pcell.Params) (float64, error) {
	angle, err := p.Float("angle")
	if err != nil {
		return 0, err
	}
	if angle == 0 || math.Abs(angle) > 180 {
		return 0, errors.Geometry("bend angle must be in [-180, 180] and non-zero, got %g", angle)
	}
	return angle, nil
}

// finishBend draws a left-turning path, mirroring it for negative angles,
// and adds the ports and info shared by all bends.
func finishBend(b *component.Builder, xs tech.CrossSection, path geometry.Path, angle, length, minRadius float64) error {
	if angle < 0 {
		path = path.Transform(geometry.MirrorX())
	}
	if err := b.AddPath(xs, path); err != nil {
		return err
	}
	b.SetInfo("length", length)
	b.SetInfo("radius", effectiveRadius(path.End(), angle))
	b.SetInfo("min_bend_radius", minRadius)
	b.SetInfo("width", xs.Width)
	return addPorts(b,
		xsPort("o1", geometry.Pt(0, 0), 180, xs),
		xsPort("o2", path.End(), angle, xs),
	)
}

// effectiveRadius is the radius of the circular bend that ends at the same
// lateral offset.
func effectiveRadius(end geometry.Point, angle float64) float64 {
	c := math.Cos(math.Abs(angle) * math.Pi / 180)
	return math.Abs(end.Y) / (1 - c)
}

// eulerPath integrates a symmetric partial Euler spiral turning angle
// degrees and scales it to the effective radius r. It returns the
// centerline, its arc length and the smallest radius of curvature.
func eulerPath(r, angle, frac float64) (geometry.Path, float64, float64) {
	alpha := angle * math.Pi / 180

	// Unit clothoid: curvature equals arc length up to sp.
	sp := math.Sqrt(frac * alpha)
	rp := 1 / sp
	s0 := 2*sp + rp*alpha*(1-frac)
	theta := func(s float64) float64 {
		switch {
		case s < sp:
			return s * s / 2
		case s > s0-sp:
			d := s0 - s
			return alpha - d*d/2
		default:
			return frac*alpha/2 + (s-sp)/rp
		}
	}

	const substeps = 16
	n := int(math.Ceil(angle)) + 1
	if n < 3 {
		n = 3
	}
	pts := make([]geometry.Point, n)
	angles := make([]float64, n)
	var x, y float64
	ds := s0 / float64((n-1)*substeps)
	for i := 1; i < n; i++ {
		for k := 0; k < substeps; k++ {
			s := float64((i-1)*substeps+k) * ds
			a, m, e := theta(s), theta(s+ds/2), theta(s+ds)
			x += ds / 6 * (math.Cos(a) + 4*math.Cos(m) + math.Cos(e))
			y += ds / 6 * (math.Sin(a) + 4*math.Sin(m) + math.Sin(e))
		}
		pts[i] = geometry.Pt(x, y)
		angles[i] = theta(float64(i)*float64(substeps)*ds) * 180 / math.Pi
	}
	angles[n-1] = angle

	reff := y / (1 - math.Cos(alpha))
	scale := r / reff
	for i := range pts {
		pts[i] = geometry.Pt(pts[i].X*scale, pts[i].Y*scale)
	}
	switch {
	case geometry.AngleClose(angle, 90):
		pts[n-1] = geometry.Pt(r, r)
	case geometry.AngleClose(angle, 180):
		pts[n-1] = geometry.Pt(0, 2*r)
	}
	return geometry.Path{Points: pts, Angles: angles}, s0 * scale, rp * scale
}

// BendS is a cubic Bézier S-bend from the origin to (dx, dy), leaving and
// arriving horizontally. Its minimum radius follows from the curvature.
func BendS() *pcell.Cell {
	return &pcell.Cell{
		Name: "bend_s",
		Doc:  "Bézier S-bend.",
		Defaults: pcell.Params{
			"size":          []any{11.0, 1.8},
			"npoints":       99,
			"cross_section": nil,
			"width":         nil,
		},
		Build: buildBendS,
	}
}

func buildBendS(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	xs, err := crossSection(lib, p)
	if err != nil {
		return err
	}
	size, err := p.Floats("size")
	if err != nil {
		return err
	}
	if len(size) != 2 {
		return errors.New(errors.ErrCodeInvalidParams, "size must be [dx, dy], got %v", size)
	}
	n, err := p.Int("npoints")
	if err != nil {
		return err
	}
	if n < 3 {
		return errors.New(errors.ErrCodeInvalidParams, "npoints must be at least 3, got %d", n)
	}
	dx, dy := size[0], size[1]
	if !(dx > 0) {
		return errors.Geometry("s-bend dx must be positive, got %g", dx)
	}

	path := sBendPath(dx, dy, n)
	if err := b.AddPath(xs, path); err != nil {
		return err
	}
	b.SetInfo("length", path.Length())
	b.SetInfo("width", xs.Width)
	if dy != 0 {
		b.SetInfo("min_bend_radius", sBendMinRadius(dx, dy))
	}
	return addPorts(b,
		xsPort("o1", geometry.Pt(0, 0), 180, xs),
		xsPort("o2", geometry.Pt(dx, dy), 0, xs),
	)
}

// Control points (0,0), (dx/2,0), (dx/2,dy), (dx,dy).
func sBendPoint(dx, dy, t float64) geometry.Point {
	u := 1 - t
	x := 3*u*t*t*dx/2 + 3*u*u*t*dx/2 + t*t*t*dx
	y := 3*u*t*t*dy + t*t*t*dy
	return geometry.Pt(x, y)
}

func sBendDerivatives(dx, dy, t float64) (x1, y1, x2, y2 float64) {
	u := 1 - t
	x1 = 1.5 * dx * (u*u + t*t)
	y1 = 6 * dy * t * u
	x2 = 3 * dx * (2*t - 1)
	y2 = 6 * dy * (1 - 2*t)
	return
}

func sBendPath(dx, dy float64, n int) geometry.Path {
	path := geometry.Path{Points: make([]geometry.Point, n), Angles: make([]float64, n)}
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		path.Points[i] = sBendPoint(dx, dy, t)
		x1, y1, _, _ := sBendDerivatives(dx, dy, t)
		path.Angles[i] = geometry.Heading(geometry.Pt(x1, y1))
	}
	path.Points[n-1] = geometry.Pt(dx, dy)
	path.Angles[0], path.Angles[n-1] = 0, 0
	return path
}

func sBendMinRadius(dx, dy float64) float64 {
	const samples = 2000
	var kmax float64
	for i := 0; i <= samples; i++ {
		x1, y1, x2, y2 := sBendDerivatives(dx, dy, float64(i)/samples)
		k := math.Abs(x1*y2-y1*x2) / math.Pow(x1*x1+y1*y1, 1.5)
		kmax = math.Max(kmax, k)
	}
	return 1 / kmax
}
