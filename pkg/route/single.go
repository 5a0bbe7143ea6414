package route

import (
	"context"
	"math"
	"time"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/observability"
	"github.com/matzehuels/pcellkit/pkg/pcell"
)

// maxBends bounds the Manhattan topologies considered by Single.
const maxBends = 4

// Single routes p1 to p2 with the fewest 90 degree bends, then the
// shortest length. The relative orientation of the ports must be a
// multiple of 90 degrees.
//
// Facing ports with a lateral offset below one bend diameter cannot take
// two bends; they get an S-bend when opts.WithSBend is set and fail
// otherwise.
func Single(lib *pcell.Library, p1, p2 component.Port, opts Options) (*Route, error) {
	ctx := context.Background()
	hooks := observability.Route()
	start := time.Now()
	hooks.OnRouteStart(ctx, "single", 1)

	r, err := func() (*Route, error) {
		rt, err := newRouter(lib, opts)
		if err != nil {
			return nil, err
		}
		return rt.single(p1, p2)
	}()
	hooks.OnRouteComplete(ctx, "single", 1, time.Since(start), err)
	if err == nil {
		lib.Logger().Debug("routed", "from", p1.Name, "to", p2.Name, "bends", r.NumBends, "length", r.Length)
	}
	return r, err
}

func (rt *router) single(p1, p2 component.Port) (*Route, error) {
	rel := p2.Orientation + 180 - p1.Orientation
	if !geometry.IsManhattan(rel) {
		return nil, errors.Routing("ports %s (%g°) and %s (%g°) are not at a multiple of 90 degrees",
			p1.Name, p1.Orientation, p2.Name, p2.Orientation)
	}
	end := geometry.SnapAngle(rel)
	q := frame(p1).Inverse().Apply(p2.Center)
	t1, t2 := rt.taperLen(p1.Width), rt.taperLen(p2.Width)

	lateral := math.Abs(q.Y)
	if end == 0 && q.X > geometry.Tolerance && lateral > geometry.Tolerance && lateral < 2*rt.radius-geometry.Tolerance {
		if !rt.withSBend {
			return nil, errors.Routing("ports %s and %s face each other %.3f apart laterally, less than the bend diameter %g",
				p1.Name, p2.Name, lateral, 2*rt.radius)
		}
		return rt.sbend(p1, p2, q, t1, t2)
	}

	s, ok := rt.solve(q, end, t1, t2)
	if !ok {
		return nil, errors.Routing("no Manhattan route from %s to %s with radius %g (target at %.3f, %.3f in the start frame)",
			p1.Name, p2.Name, rt.radius, q.X, q.Y)
	}
	return rt.build(p1, p2, s)
}

// solve enumerates turn sequences with up to maxBends bends, keeping the
// first feasible one with the fewest bends and then the shortest length.
// Skeletons whose legs cross each other are rejected.
func (rt *router) solve(q geometry.Point, end, t1, t2 float64) (skeleton, bool) {
	var best skeleton
	bestLen := math.Inf(1)
	for k := 0; k <= maxBends; k++ {
		for mask := 0; mask < 1<<k; mask++ {
			turns := make([]float64, k)
			var heading float64
			for j := range turns {
				turns[j] = 90
				if mask>>j&1 == 1 {
					turns[j] = -90
				}
				heading += turns[j]
			}
			if !geometry.AngleClose(heading, end) {
				continue
			}
			s := skeleton{turns: turns}
			total, ok := rt.fit(&s, q, t1, t2)
			if ok && s.crossesItself() {
				continue
			}
			if ok && total < bestLen-geometry.Tolerance {
				best, bestLen = s, total
			}
		}
		if !math.IsInf(bestLen, 1) {
			return best, true
		}
	}
	return skeleton{}, false
}

// fit sizes the legs of s to reach q, axis by axis. Legs running against
// each other on an axis can absorb any offset; legs all running one way
// need the offset to cover their minimums. Extra length is spread by the
// slack policy. It returns the total length of the legs.
func (rt *router) fit(s *skeleton, q geometry.Point, t1, t2 float64) (float64, bool) {
	n := len(s.turns) + 1
	s.legs = make([]float64, n)
	heads := s.headings()
	mins := rt.minLegs(n, t1, t2)

	for axis := 0; axis < 2; axis++ {
		target := q.X
		if axis == 1 {
			target = q.Y
		}
		var pos, neg []int
		var minPos, minNeg float64
		for j, h := range heads {
			d := geometry.Direction(h)
			c := d.X
			if axis == 1 {
				c = d.Y
			}
			switch {
			case c > 0.5:
				pos = append(pos, j)
				minPos += mins[j]
			case c < -0.5:
				neg = append(neg, j)
				minNeg += mins[j]
			}
		}
		var sumPos, sumNeg float64
		switch {
		case len(pos) > 0 && len(neg) > 0:
			if target >= minPos-minNeg {
				sumPos, sumNeg = target+minNeg, minNeg
			} else {
				sumPos, sumNeg = minPos, minPos-target
			}
		case len(pos) > 0:
			if target < minPos-geometry.Tolerance {
				return 0, false
			}
			sumPos = target
		case len(neg) > 0:
			if -target < minNeg-geometry.Tolerance {
				return 0, false
			}
			sumNeg = -target
		default:
			if math.Abs(target) > geometry.Tolerance {
				return 0, false
			}
		}
		rt.distribute(s.legs, pos, mins, sumPos)
		rt.distribute(s.legs, neg, mins, sumNeg)
	}

	var total float64
	for _, l := range s.legs {
		total += l
	}
	return total, true
}

// distribute sets the legs in idx to their minimums plus a share of the
// remaining length.
func (rt *router) distribute(legs []float64, idx []int, mins []float64, sum float64) {
	if len(idx) == 0 {
		return
	}
	extra := sum
	for _, j := range idx {
		legs[j] = mins[j]
		extra -= mins[j]
	}
	switch rt.slack {
	case SlackStart:
		legs[idx[0]] += extra
	case SlackEnd:
		legs[idx[len(idx)-1]] += extra
	default:
		for _, j := range idx {
			legs[j] += extra / float64(len(idx))
		}
	}
}

// sbend joins facing ports with a small lateral offset.
func (rt *router) sbend(p1, p2 component.Port, q geometry.Point, t1, t2 float64) (*Route, error) {
	dx := q.X - t1 - t2
	comp, err := rt.lib.Get("bend_s", pcell.Params{
		"size":          []any{dx, q.Y},
		"cross_section": rt.xs,
	})
	if err != nil {
		return nil, wrapChain(err, p1, p2)
	}
	if r, _ := comp.Info().Float("min_bend_radius"); r < rt.xs.RadiusMin-geometry.Tolerance {
		return nil, errors.Routing("s-bend from %s to %s needs radius %.3f, below the minimum %g",
			p1.Name, p2.Name, r, rt.xs.RadiusMin)
	}

	c := &chain{rt: rt, cur: p1, route: &Route{SBend: true}}
	if t1 > 0 {
		if err := c.taper(p1.Width, rt.xs.Width); err != nil {
			return nil, wrapChain(err, p1, p2)
		}
	}
	if err := c.place(comp, false); err != nil {
		return nil, wrapChain(err, p1, p2)
	}
	if t2 > 0 {
		if err := c.taper(rt.xs.Width, p2.Width); err != nil {
			return nil, wrapChain(err, p1, p2)
		}
	}
	if err := c.finish(p1, p2); err != nil {
		return nil, err
	}
	c.route.Waypoints = []geometry.Point{p1.Center, p2.Center}
	return c.route, nil
}
