package route

import (
	"context"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/observability"
	"github.com/matzehuels/pcellkit/pkg/pcell"
)

// FromWaypoints routes p1 to p2 through the given corners. Consecutive
// points must be axis-aligned, the path must leave p1 along its
// orientation and enter p2 against its orientation, and every leg must be
// long enough for the bends at its ends. Collinear corners are merged.
func FromWaypoints(lib *pcell.Library, p1, p2 component.Port, waypoints []geometry.Point, opts Options) (*Route, error) {
	ctx := context.Background()
	hooks := observability.Route()
	start := time.Now()
	hooks.OnRouteStart(ctx, "waypoints", 1)

	r, err := func() (*Route, error) {
		rt, err := newRouter(lib, opts)
		if err != nil {
			return nil, err
		}
		return rt.fromWaypoints(p1, p2, waypoints)
	}()
	hooks.OnRouteComplete(ctx, "waypoints", 1, time.Since(start), err)
	return r, err
}

func (rt *router) fromWaypoints(p1, p2 component.Port, waypoints []geometry.Point) (*Route, error) {
	if !geometry.IsManhattan(p1.Orientation) || !geometry.IsManhattan(p2.Orientation) {
		return nil, errors.Routing("waypoint routes need Manhattan ports, got %s and %s", p1, p2)
	}
	inv := frame(p1).Inverse()
	pts := []geometry.Point{geometry.Pt(0, 0)}
	for _, w := range append(append([]geometry.Point(nil), waypoints...), p2.Center) {
		l := inv.Apply(w)
		if !geometry.Close(l, pts[len(pts)-1]) {
			pts = append(pts, l)
		}
	}
	if len(pts) < 2 {
		return nil, errors.Routing("ports %s and %s coincide", p1.Name, p2.Name)
	}

	var legs, heads []float64
	for i := 1; i < len(pts); i++ {
		d := r2.Sub(pts[i], pts[i-1])
		if !geometry.Equal(d.X, 0) && !geometry.Equal(d.Y, 0) {
			return nil, errors.Routing("waypoint leg %d from %s is not axis-aligned", i, p1.Name)
		}
		h, l := geometry.Heading(d), r2.Norm(d)
		if n := len(heads); n > 0 && geometry.AngleClose(h, heads[n-1]) {
			legs[n-1] += l
			continue
		}
		heads = append(heads, h)
		legs = append(legs, l)
	}
	if !geometry.AngleClose(heads[0], 0) {
		return nil, errors.Routing("first waypoint leg does not leave %s along its orientation", p1.Name)
	}
	end := geometry.SnapAngle(p2.Orientation + 180 - p1.Orientation)
	if !geometry.AngleClose(heads[len(heads)-1], end) {
		return nil, errors.Routing("last waypoint leg does not enter %s against its orientation", p2.Name)
	}

	s := skeleton{legs: legs, turns: make([]float64, len(legs)-1)}
	for j := range s.turns {
		switch geometry.SnapAngle(heads[j+1] - heads[j]) {
		case 90:
			s.turns[j] = 90
		case 270:
			s.turns[j] = -90
		default:
			return nil, errors.Routing("waypoint route from %s reverses at corner %d", p1.Name, j+1)
		}
	}
	mins := rt.minLegs(len(legs), rt.taperLen(p1.Width), rt.taperLen(p2.Width))
	for j, l := range legs {
		if l < mins[j]-geometry.Tolerance {
			return nil, errors.Routing("waypoint leg %d from %s is %.3f long, needs at least %.3f for its bends",
				j+1, p1.Name, l, mins[j])
		}
	}
	return rt.build(p1, p2, s)
}
