package route

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/pcell"
)

// Route is a chain of placed straights, bends and tapers joining two ports.
// References are detached; add them to a component with
// [component.Builder.AddRoute].
type Route struct {
	References []*component.Reference

	// Length is the centerline length.
	Length float64

	// Ports are the route's own end ports, facing the two routed ports.
	Ports [2]component.Port

	// Waypoints is the Manhattan skeleton: the start port, each corner and
	// the end port, in parent coordinates.
	Waypoints []geometry.Point

	// MinBendRadius is the smallest radius of curvature along the route, or
	// zero for a route without bends.
	MinBendRadius float64

	// NumBends counts 90 degree bends. An S-bend counts as none.
	NumBends int
	SBend    bool
}

// Refs returns the route's references.
func (r *Route) Refs() []*component.Reference { return r.References }

// Segments returns the straight legs of the waypoint skeleton.
func (r *Route) Segments() []geometry.Segment {
	out := make([]geometry.Segment, 0, len(r.Waypoints))
	for i := 1; i < len(r.Waypoints); i++ {
		out = append(out, geometry.Segment{A: r.Waypoints[i-1], B: r.Waypoints[i]})
	}
	return out
}

// frame maps the local routing frame of p (origin on p, +x along its
// orientation) into the parent.
func frame(p component.Port) geometry.Transform {
	return geometry.Transform{Translation: p.Center, Rotation: p.Orientation}
}

// skeleton is a Manhattan route in the local frame of its start port: legs
// measured corner to corner, joined by left (+90) or right (-90) turns.
type skeleton struct {
	legs  []float64
	turns []float64
}

func (s skeleton) headings() []float64 {
	h := make([]float64, len(s.legs))
	for j := 1; j < len(h); j++ {
		h[j] = geometry.NormalizeAngle(h[j-1] + s.turns[j-1])
	}
	return h
}

// crossesItself reports whether two non-adjacent legs of s cross.
func (s skeleton) crossesItself() bool {
	pts := []geometry.Point{geometry.Pt(0, 0)}
	for j, h := range s.headings() {
		pts = append(pts, r2.Add(pts[j], r2.Scale(s.legs[j], geometry.Direction(h))))
	}
	for i := 1; i < len(pts); i++ {
		for k := i + 2; k < len(pts); k++ {
			a := geometry.Segment{A: pts[i-1], B: pts[i]}
			b := geometry.Segment{A: pts[k-1], B: pts[k]}
			if geometry.SegmentsCross(a, b) {
				return true
			}
		}
	}
	return false
}

// minLegs returns the shortest length each leg can have: the bends at
// either end take one radius each, and the first and last legs also hold
// the tapers.
func (rt *router) minLegs(n int, t1, t2 float64) []float64 {
	m := make([]float64, n)
	for j := range m {
		if j > 0 {
			m[j] += rt.radius
		}
		if j < n-1 {
			m[j] += rt.radius
		}
	}
	m[0] += t1
	m[n-1] += t2
	return m
}

// taperLen returns the taper length needed to reach the routing width from
// a port of width w, zero when no taper is needed.
func (rt *router) taperLen(w float64) float64 {
	if !rt.autoTaper || geometry.Equal(w, rt.xs.Width) {
		return 0
	}
	return rt.taperLength()
}

func (rt *router) taperLength() float64 {
	if rt.xs.TaperLength > 0 {
		return rt.xs.TaperLength
	}
	return rt.radius
}

// chain places references one after another, each connected by its o1 to
// the previous reference's o2.
type chain struct {
	rt    *router
	cur   component.Port
	route *Route
}

func (c *chain) place(comp *component.Component, mirror bool) error {
	ref := component.NewReference(comp)
	if mirror {
		ref.MirrorX()
	}
	if err := ref.Connect("o1", c.cur); err != nil {
		return err
	}
	if len(c.route.References) == 0 {
		c.route.Ports[0] = ref.MustPort("o1")
	}
	c.route.References = append(c.route.References, ref)
	if l, ok := comp.Info().Float("length"); ok {
		c.route.Length += l
	}
	if r, ok := comp.Info().Float("min_bend_radius"); ok {
		if c.route.MinBendRadius == 0 || r < c.route.MinBendRadius {
			c.route.MinBendRadius = r
		}
	}
	c.cur = ref.MustPort("o2")
	return nil
}

func (c *chain) straight(length float64) error {
	comp, err := c.rt.lib.Get(c.rt.straight, pcell.Params{
		"length":        math.Max(0, length),
		"cross_section": c.rt.xs,
	})
	if err != nil {
		return err
	}
	return c.place(comp, false)
}

func (c *chain) taper(from, to float64) error {
	comp, err := c.rt.lib.Get("taper", pcell.Params{
		"length":        c.rt.taperLength(),
		"width1":        from,
		"width2":        to,
		"cross_section": c.rt.xs,
	})
	if err != nil {
		return err
	}
	return c.place(comp, false)
}

// bend90 returns the routing bend for a 90 degree turn and checks its
// curvature against the cross-section minimum.
func (rt *router) bend90() (*component.Component, error) {
	c, err := rt.lib.Get(rt.bend, pcell.Params{
		"radius":        rt.radius,
		"angle":         90.0,
		"cross_section": rt.xs,
	})
	if err != nil {
		return nil, err
	}
	if r, ok := c.Info().Float("min_bend_radius"); ok && r < rt.xs.RadiusMin-geometry.Tolerance {
		return nil, errors.Routing("%s at radius %g has a minimum radius of %.3f, below %g",
			rt.bend, rt.radius, r, rt.xs.RadiusMin)
	}
	return c, nil
}

// build places the references of s between p1 and p2.
func (rt *router) build(p1, p2 component.Port, s skeleton) (*Route, error) {
	t1, t2 := rt.taperLen(p1.Width), rt.taperLen(p2.Width)
	k := len(s.turns)
	var bend *component.Component
	if k > 0 {
		var err error
		if bend, err = rt.bend90(); err != nil {
			return nil, err
		}
	}

	c := &chain{rt: rt, cur: p1, route: &Route{NumBends: k}}
	if t1 > 0 {
		if err := c.taper(p1.Width, rt.xs.Width); err != nil {
			return nil, wrapChain(err, p1, p2)
		}
	}
	for j, leg := range s.legs {
		run := leg
		if j > 0 {
			run -= rt.radius
		}
		if j < k {
			run -= rt.radius
		}
		if j == 0 {
			run -= t1
		}
		if j == k {
			run -= t2
		}
		interior := j > 0 && j < k
		if interior || run > geometry.Tolerance {
			if err := c.straight(run); err != nil {
				return nil, wrapChain(err, p1, p2)
			}
		}
		if j < k {
			if err := c.place(bend, s.turns[j] < 0); err != nil {
				return nil, wrapChain(err, p1, p2)
			}
		}
	}
	if t2 > 0 {
		if err := c.taper(rt.xs.Width, p2.Width); err != nil {
			return nil, wrapChain(err, p1, p2)
		}
	}
	if err := c.finish(p1, p2); err != nil {
		return nil, err
	}

	f := frame(p1)
	pos := geometry.Pt(0, 0)
	c.route.Waypoints = []geometry.Point{p1.Center}
	for j, h := range s.headings()[:k] {
		pos = r2.Add(pos, r2.Scale(s.legs[j], geometry.Direction(h)))
		c.route.Waypoints = append(c.route.Waypoints, f.Apply(pos))
	}
	c.route.Waypoints = append(c.route.Waypoints, p2.Center)
	return c.route, nil
}

// finish checks that the chain ends on p2 and records the end port.
func (c *chain) finish(p1, p2 component.Port) error {
	if len(c.route.References) == 0 {
		if !geometry.Close(p1.Center, p2.Center) {
			return errors.New(errors.ErrCodeRouting, "internal: empty route between distinct ports %s and %s", p1, p2)
		}
		c.route.Ports = [2]component.Port{p2, p1}
		return nil
	}
	if !component.Facing(c.cur, p2) {
		return errors.New(errors.ErrCodeRouting, "internal: route from %s ends at %s, not on %s", p1, c.cur, p2)
	}
	c.route.Ports[1] = c.cur
	return nil
}

func wrapChain(err error, p1, p2 component.Port) error {
	return errors.Wrap(errors.ErrCodeRouting, err, "route %s to %s", p1.Name, p2.Name)
}
