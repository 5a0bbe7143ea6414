package route

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/observability"
	"github.com/matzehuels/pcellkit/pkg/pcell"
)

// Bundle routes ports1[i] to its partner in ports2 for every i and returns
// the routes in ports1 order. All ports2 must share one orientation.
//
// When ports1 are parallel too, the routes are planned together: jogs are
// stacked one pitch apart in nesting order so that no two routes cross.
// Otherwise each pair is routed on its own. Either way the finished routes
// are checked, and crossing legs or parallel legs closer than the pitch
// fail with a routing error.
//
// With opts.SortPorts, ports are paired by position along the bundle so
// that the routes nest; without it ports1[i] goes to ports2[i].
func Bundle(lib *pcell.Library, ports1, ports2 []component.Port, opts Options) ([]*Route, error) {
	ctx := context.Background()
	hooks := observability.Route()
	start := time.Now()
	hooks.OnRouteStart(ctx, "bundle", len(ports1))

	routes, err := func() ([]*Route, error) {
		rt, err := newRouter(lib, opts)
		if err != nil {
			return nil, err
		}
		return rt.bundle(ports1, ports2)
	}()
	hooks.OnRouteComplete(ctx, "bundle", len(ports1), time.Since(start), err)
	if err == nil {
		lib.Logger().Debug("routed bundle", "routes", len(routes))
	}
	return routes, err
}

// link pairs ports1[i] with ports2[j].
type link struct{ i, j int }

func (rt *router) bundle(ports1, ports2 []component.Port) ([]*Route, error) {
	n := len(ports1)
	if n == 0 || n != len(ports2) {
		return nil, errors.Routing("bundle needs the same number of ports on both ends, got %d and %d", n, len(ports2))
	}
	o2 := ports2[0].Orientation
	for _, p := range ports2[1:] {
		if !geometry.AngleClose(p.Orientation, o2) {
			return nil, errors.Routing("bundle end ports must share one orientation: %s faces %g, %s faces %g",
				ports2[0].Name, o2, p.Name, p.Orientation)
		}
	}
	if !geometry.IsManhattan(o2) {
		return nil, errors.Routing("bundle end orientation %g is not Manhattan", o2)
	}

	// Canonical frame: ports2 face west, so every route arrives heading east.
	canon := geometry.Rotation(180 - o2)
	inv := canon.Inverse()
	c1 := transformAll(ports1, canon)
	c2 := transformAll(ports2, canon)

	routes := make([]*Route, n)
	var links []link
	planned := false
	if o1, ok := parallel(c1); ok {
		var plan [][]geometry.Point
		links, plan, planned = rt.plan(c1, c2, o1)
		if planned {
			for _, l := range links {
				if plan[l.i] == nil {
					r, err := rt.single(ports1[l.i], ports2[l.j])
					if err != nil {
						return nil, err
					}
					routes[l.i] = r
					continue
				}
				wps := inv.ApplyAll(plan[l.i])
				r, err := rt.fromWaypoints(ports1[l.i], ports2[l.j], wps)
				if err != nil {
					planned = false
					break
				}
				routes[l.i] = r
			}
		}
	}
	if !planned {
		links = rt.pair(c1, c2, byY, byY, false)
		for _, l := range links {
			r, err := rt.single(ports1[l.i], ports2[l.j])
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeRouting, err, "bundle route %d of %d", l.i+1, n)
			}
			routes[l.i] = r
		}
	}
	if err := rt.verify(ports1, ports2, links, routes); err != nil {
		return nil, err
	}
	return routes, nil
}

func transformAll(ports []component.Port, t geometry.Transform) []component.Port {
	out := make([]component.Port, len(ports))
	for i, p := range ports {
		out[i] = p.Transformed(t)
	}
	return out
}

// parallel returns the shared Manhattan orientation of ports.
func parallel(ports []component.Port) (float64, bool) {
	o := ports[0].Orientation
	if !geometry.IsManhattan(o) {
		return 0, false
	}
	for _, p := range ports[1:] {
		if !geometry.AngleClose(p.Orientation, o) {
			return 0, false
		}
	}
	return geometry.SnapAngle(o), true
}

func byX(p component.Port) float64 { return p.Center.X }
func byY(p component.Port) float64 { return p.Center.Y }

// pair zips ports1 sorted by key1 with ports2 sorted by key2, descending
// when desc2 is set. Without SortPorts, ports pair by index.
func (rt *router) pair(c1, c2 []component.Port, key1, key2 func(component.Port) float64, desc2 bool) []link {
	n := len(c1)
	links := make([]link, n)
	if !rt.sortPorts {
		for i := range links {
			links[i] = link{i, i}
		}
		return links
	}
	order := func(ports []component.Port, key func(component.Port) float64, desc bool) []int {
		idx := make([]int, len(ports))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			ka, kb := key(ports[idx[a]]), key(ports[idx[b]])
			if desc {
				return ka > kb
			}
			return ka < kb
		})
		return idx
	}
	i1 := order(c1, key1, false)
	i2 := order(c2, key2, desc2)
	for k := range links {
		links[k] = link{i1[k], i2[k]}
	}
	return links
}

// plan lays out a bundle in the canonical frame, where ports2 face west
// and all ports1 face o1. It returns the links and, per ports1 index, the
// canonical corners of its route; a nil entry asks for a single route.
func (rt *router) plan(c1, c2 []component.Port, o1 float64) ([]link, [][]geometry.Point, bool) {
	r := rt.radius
	plan := make([][]geometry.Point, len(c1))

	switch o1 {
	case 0:
		// Facing: jog up or down between the two rows.
		links := rt.pair(c1, c2, byY, byY, false)
		var up, down []link
		base := math.Inf(-1)
		for _, l := range links {
			dy := c2[l.j].Center.Y - c1[l.i].Center.Y
			switch {
			case math.Abs(dy) <= geometry.Tolerance:
				plan[l.i] = []geometry.Point{}
				continue
			case math.Abs(dy) < 2*r:
				continue
			case dy > 0:
				up = append(up, l)
			default:
				down = append(down, l)
			}
			base = math.Max(base, c1[l.i].Center.X+rt.taperLen(c1[l.i].Width))
		}
		// The route nearest the far row jogs first.
		sort.SliceStable(up, func(a, b int) bool { return c1[up[a].i].Center.Y > c1[up[b].i].Center.Y })
		sort.SliceStable(down, func(a, b int) bool { return c1[down[a].i].Center.Y < c1[down[b].i].Center.Y })
		for _, group := range [][]link{up, down} {
			for k, l := range group {
				x := base + r + float64(k)*rt.pitch
				p, q := c1[l.i].Center, c2[l.j].Center
				plan[l.i] = []geometry.Point{geometry.Pt(x, p.Y), geometry.Pt(x, q.Y)}
			}
		}
		return links, plan, true

	case 90, 270:
		// Perpendicular: one corner per route. Facing north, the leftmost
		// port takes the top slot; facing south, the bottom one.
		links := rt.pair(c1, c2, byX, byY, o1 == 90)
		for _, l := range links {
			plan[l.i] = []geometry.Point{geometry.Pt(c1[l.i].Center.X, c2[l.j].Center.Y)}
		}
		return links, plan, true

	case 180:
		// U-turn: every route runs west, turns and comes back east. The
		// route nearest the far row is innermost.
		links := rt.pair(c1, c2, byY, byY, true)
		minX := math.Inf(1)
		maxY1, minY1 := math.Inf(-1), math.Inf(1)
		for _, p := range c1 {
			minX = math.Min(minX, p.Center.X)
			maxY1 = math.Max(maxY1, p.Center.Y)
			minY1 = math.Min(minY1, p.Center.Y)
		}
		above, below := true, true
		for _, p := range c2 {
			minX = math.Min(minX, p.Center.X)
			above = above && p.Center.Y > maxY1
			below = below && p.Center.Y < minY1
		}
		if !above && !below {
			return nil, nil, false
		}
		nested := append([]link(nil), links...)
		sort.SliceStable(nested, func(a, b int) bool {
			ya, yb := c1[nested[a].i].Center.Y, c1[nested[b].i].Center.Y
			if above {
				return ya > yb
			}
			return ya < yb
		})
		for k, l := range nested {
			x := minX - r - float64(k)*rt.pitch
			p, q := c1[l.i].Center, c2[l.j].Center
			plan[l.i] = []geometry.Point{geometry.Pt(x, p.Y), geometry.Pt(x, q.Y)}
		}
		return links, plan, true
	}
	return nil, nil, false
}

// verify checks every pair of routes: no crossing legs, and legs at least
// one pitch apart. Legs that touch the ports only need to keep the port
// spacing when that is tighter.
func (rt *router) verify(ports1, ports2 []component.Port, links []link, routes []*Route) error {
	for a := 0; a < len(links); a++ {
		for b := a + 1; b < len(links); b++ {
			la, lb := links[a], links[b]
			sa, sb := routes[la.i].Segments(), routes[lb.i].Segments()
			portGap := math.Min(
				geometry.Distance(ports1[la.i].Center, ports1[lb.i].Center),
				geometry.Distance(ports2[la.j].Center, ports2[lb.j].Center),
			)
			for ia, s := range sa {
				for ib, t := range sb {
					if geometry.SegmentsCross(s, t) {
						return errors.Routing("routes from %s and %s cross", ports1[la.i].Name, ports1[lb.i].Name)
					}
					need := rt.pitch
					if ia == 0 || ia == len(sa)-1 || ib == 0 || ib == len(sb)-1 {
						need = math.Min(need, portGap)
					}
					if d := geometry.SegmentDistance(s, t); d < need-geometry.Tolerance {
						return errors.Routing("routes from %s and %s run %.3f apart, need %.3f",
							ports1[la.i].Name, ports1[lb.i].Name, d, need)
					}
				}
			}
		}
	}
	return nil
}
