package route_test

import (
	"math"
	"testing"

	"github.com/matzehuels/pcellkit/pkg/cells"
	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/route"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

func port(name string, x, y, orientation float64) component.Port {
	return component.NewPort(name, geometry.Pt(x, y), orientation, 0.5, tech.L(1, 0))
}

func checkLands(t *testing.T, r *route.Route, p1, p2 component.Port) {
	t.Helper()
	if !component.Facing(r.Ports[1], p2) {
		t.Errorf("route ends at %s, want facing %s", r.Ports[1], p2)
	}
	if len(r.References) > 0 && !component.Facing(r.Ports[0], p1) {
		t.Errorf("route starts at %s, want facing %s", r.Ports[0], p1)
	}
}

func TestSingleStraight(t *testing.T) {
	lib := cells.NewLibrary(nil)
	p1, p2 := port("a", 0, 0, 0), port("b", 10, 0, 180)

	r, err := route.Single(lib, p1, p2, route.Options{})
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if len(r.References) != 1 {
		t.Fatalf("references = %d, want 1", len(r.References))
	}
	if got := r.References[0].Component().Info()["length"]; got != 10.0 {
		t.Errorf("straight length = %v, want 10", got)
	}
	if math.Abs(r.Length-10) > 1e-9 {
		t.Errorf("Length = %v, want 10", r.Length)
	}
	if r.NumBends != 0 {
		t.Errorf("NumBends = %d, want 0", r.NumBends)
	}
	checkLands(t, r, p1, p2)
}

func TestSingleTwoBends(t *testing.T) {
	lib := cells.NewLibrary(nil)
	p1, p2 := port("a", 0, 0, 0), port("b", 10, 10, 180)

	r, err := route.Single(lib, p1, p2, route.Options{Radius: 5, Bend: "bend_circular"})
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if r.NumBends != 2 {
		t.Errorf("NumBends = %d, want 2", r.NumBends)
	}
	if len(r.References) != 3 {
		t.Errorf("references = %d, want 3 (bend, straight, bend)", len(r.References))
	}
	if math.Abs(r.Length-5*math.Pi) > 1e-9 {
		t.Errorf("Length = %v, want %v", r.Length, 5*math.Pi)
	}
	want := []geometry.Point{geometry.Pt(0, 0), geometry.Pt(5, 0), geometry.Pt(5, 10), geometry.Pt(10, 10)}
	if len(r.Waypoints) != len(want) {
		t.Fatalf("Waypoints = %v, want %v", r.Waypoints, want)
	}
	for i := range want {
		if !geometry.Close(r.Waypoints[i], want[i]) {
			t.Errorf("Waypoints[%d] = %v, want %v", i, r.Waypoints[i], want[i])
		}
	}
	checkLands(t, r, p1, p2)
}

// Targets behind the start, closer laterally than four radii, are only
// reachable by looping around.
func TestSingleLoopsBehind(t *testing.T) {
	lib := cells.NewLibrary(nil)
	p1 := port("a", 0, 0, 0)
	for _, y := range []float64{0, 5, 15, -15, 45} {
		p2 := port("b", -50, y, 180)
		r, err := route.Single(lib, p1, p2, route.Options{Radius: 10, Bend: "bend_circular"})
		if err != nil {
			t.Fatalf("y = %g: Single: %v", y, err)
		}
		if r.NumBends != 4 {
			t.Errorf("y = %g: NumBends = %d, want 4", y, r.NumBends)
		}
		segs := r.Segments()
		for i := range segs {
			for j := i + 2; j < len(segs); j++ {
				if geometry.SegmentsCross(segs[i], segs[j]) {
					t.Errorf("y = %g: legs %d and %d cross", y, i, j)
				}
			}
		}
		checkLands(t, r, p1, p2)
	}
}

func TestSingleRotatedFrames(t *testing.T) {
	lib := cells.NewLibrary(nil)
	tests := []struct {
		name   string
		p1, p2 component.Port
		bends  int
	}{
		{"north", port("a", 0, 0, 90), port("b", 0, 40, 270), 0},
		{"north to east", port("a", 0, 0, 90), port("b", 40, 40, 180), 1},
		{"west offset", port("a", 0, 0, 180), port("b", -60, 30, 0), 2},
		{"south to west", port("a", 0, 0, 270), port("b", -30, -30, 0), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := route.Single(lib, tt.p1, tt.p2, route.Options{})
			if err != nil {
				t.Fatalf("Single: %v", err)
			}
			if r.NumBends != tt.bends {
				t.Errorf("NumBends = %d, want %d", r.NumBends, tt.bends)
			}
			checkLands(t, r, tt.p1, tt.p2)
		})
	}
}

func TestSingleErrors(t *testing.T) {
	lib := cells.NewLibrary(nil)
	tests := []struct {
		name   string
		p1, p2 component.Port
		opts   route.Options
	}{
		{"non-Manhattan", port("a", 0, 0, 0), port("b", 50, 50, 135), route.Options{}},
		{"lateral offset below bend diameter", port("a", 0, 0, 0), port("b", 50, 3, 180), route.Options{}},
		{"radius below minimum", port("a", 0, 0, 0), port("b", 50, 50, 270), route.Options{Radius: 4}},
		{"euler curvature below minimum", port("a", 0, 0, 0), port("b", 10, 10, 180), route.Options{Radius: 5}},
		{"unknown cross-section", port("a", 0, 0, 0), port("b", 10, 0, 180), route.Options{CrossSection: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := route.Single(lib, tt.p1, tt.p2, tt.opts)
			if !errors.Is(err, errors.ErrCodeRouting) {
				t.Errorf("err = %v, want %s", err, errors.ErrCodeRouting)
			}
		})
	}
}

func TestSingleSBend(t *testing.T) {
	lib := cells.NewLibrary(nil)
	p1, p2 := port("a", 0, 0, 0), port("b", 50, 3, 180)

	r, err := route.Single(lib, p1, p2, route.Options{WithSBend: true})
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if !r.SBend || r.NumBends != 0 {
		t.Errorf("SBend = %v, NumBends = %d, want true, 0", r.SBend, r.NumBends)
	}
	if len(r.References) != 1 {
		t.Errorf("references = %d, want 1", len(r.References))
	}
	if r.MinBendRadius < 5 {
		t.Errorf("MinBendRadius = %v, want at least 5", r.MinBendRadius)
	}
	checkLands(t, r, p1, p2)
}

func TestSingleAutoTaper(t *testing.T) {
	lib := cells.NewLibrary(nil)
	p1 := component.NewPort("a", geometry.Pt(0, 0), 0, 1, tech.L(1, 0))
	p2 := port("b", 100, 0, 180)

	r, err := route.Single(lib, p1, p2, route.Options{AutoTaper: true})
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if got := r.References[0].Component().Info()["width1"]; got != 1.0 {
		t.Errorf("first reference width1 = %v, want 1 (a taper)", got)
	}
	if math.Abs(r.Length-100) > 1e-9 {
		t.Errorf("Length = %v, want 100", r.Length)
	}
	checkLands(t, r, p1, p2)
}

func TestSlack(t *testing.T) {
	lib := cells.NewLibrary(nil)
	p1, p2 := port("a", 0, 0, 0), port("b", 100, 40, 180)
	opts := route.Options{Bend: "bend_circular"}

	tests := []struct {
		slack route.Slack
		x     float64
	}{
		{route.SlackMiddle, 50},
		{route.SlackStart, 90},
		{route.SlackEnd, 10},
	}
	for _, tt := range tests {
		opts.Slack = tt.slack
		r, err := route.Single(lib, p1, p2, opts)
		if err != nil {
			t.Fatalf("Single: %v", err)
		}
		if got := r.Waypoints[1].X; math.Abs(got-tt.x) > 1e-9 {
			t.Errorf("slack %d: first corner x = %v, want %v", tt.slack, got, tt.x)
		}
	}
}

// Anything routable at a large radius stays routable at a smaller one.
func TestRadiusMonotonicity(t *testing.T) {
	lib := cells.NewLibrary(nil)
	radii := []float64{5, 10, 20, 40}
	p1 := port("a", 0, 0, 0)
	for _, x := range []float64{-50, -40, 0, 15, 30, 60} {
		for _, y := range []float64{-30, -15, -5, 0, 5, 12, 15, 25, 50} {
			for _, o := range []float64{0, 90, 180, 270} {
				p2 := port("b", x, y, o)
				ok := make([]bool, len(radii))
				for i, r := range radii {
					_, err := route.Single(lib, p1, p2, route.Options{Radius: r, Bend: "bend_circular"})
					ok[i] = err == nil
				}
				for i := range radii {
					for j := i + 1; j < len(radii); j++ {
						if ok[j] && !ok[i] {
							t.Errorf("target (%g, %g, %g): routable at radius %g but not at %g", x, y, o, radii[j], radii[i])
						}
					}
				}
			}
		}
	}
}

func TestFromWaypoints(t *testing.T) {
	lib := cells.NewLibrary(nil)
	p1, p2 := port("a", 0, 0, 0), port("b", 100, 50, 180)

	r, err := route.FromWaypoints(lib, p1, p2, []geometry.Point{geometry.Pt(50, 0), geometry.Pt(50, 50)}, route.Options{})
	if err != nil {
		t.Fatalf("FromWaypoints: %v", err)
	}
	if r.NumBends != 2 {
		t.Errorf("NumBends = %d, want 2", r.NumBends)
	}
	if !geometry.Close(r.Waypoints[1], geometry.Pt(50, 0)) || !geometry.Close(r.Waypoints[2], geometry.Pt(50, 50)) {
		t.Errorf("Waypoints = %v, want corners at (50, 0) and (50, 50)", r.Waypoints)
	}
	checkLands(t, r, p1, p2)

	// Collinear corners merge.
	r, err = route.FromWaypoints(lib, p1, p2,
		[]geometry.Point{geometry.Pt(20, 0), geometry.Pt(50, 0), geometry.Pt(50, 50)}, route.Options{})
	if err != nil {
		t.Fatalf("FromWaypoints with collinear corner: %v", err)
	}
	if r.NumBends != 2 {
		t.Errorf("collinear: NumBends = %d, want 2", r.NumBends)
	}
}

func TestFromWaypointsErrors(t *testing.T) {
	lib := cells.NewLibrary(nil)
	p1, p2 := port("a", 0, 0, 0), port("b", 100, 50, 180)
	tests := []struct {
		name string
		wps  []geometry.Point
	}{
		{"diagonal", []geometry.Point{geometry.Pt(50, 10), geometry.Pt(50, 50)}},
		{"reversal", []geometry.Point{geometry.Pt(50, 0), geometry.Pt(20, 0), geometry.Pt(20, 50)}},
		{"leg too short", []geometry.Point{geometry.Pt(5, 0), geometry.Pt(5, 50)}},
		{"leaves sideways", []geometry.Point{geometry.Pt(0, 50)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := route.FromWaypoints(lib, p1, p2, tt.wps, route.Options{})
			if !errors.Is(err, errors.ErrCodeRouting) {
				t.Errorf("err = %v, want %s", err, errors.ErrCodeRouting)
			}
		})
	}
}

func checkNoCrossings(t *testing.T, routes []*route.Route) {
	t.Helper()
	for a := range routes {
		for b := a + 1; b < len(routes); b++ {
			for _, s := range routes[a].Segments() {
				for _, u := range routes[b].Segments() {
					if geometry.SegmentsCross(s, u) {
						t.Errorf("routes %d and %d cross: %v and %v", a, b, s, u)
					}
				}
			}
		}
	}
}

func TestBundleFacing(t *testing.T) {
	lib := cells.NewLibrary(nil)
	var ports1, ports2 []component.Port
	for i := 0; i < 4; i++ {
		ports1 = append(ports1, port("a", 0, float64(10*i), 0))
		ports2 = append(ports2, port("b", 200, float64(100+10*i), 180))
	}

	routes, err := route.Bundle(lib, ports1, ports2, route.Options{SortPorts: true})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if len(routes) != 4 {
		t.Fatalf("routes = %d, want 4", len(routes))
	}
	// The top route jogs first; the rest stack one pitch (0.5 + 3) further.
	for i, x := range []float64{20.5, 17, 13.5, 10} {
		if got := routes[i].Waypoints[1].X; math.Abs(got-x) > 1e-9 {
			t.Errorf("route %d jogs at x = %v, want %v", i, got, x)
		}
		checkLands(t, routes[i], ports1[i], ports2[i])
	}
	checkNoCrossings(t, routes)
}

// Up and down jogs start from the same x on opposite sides of the rows.
func TestBundleFacingMixedJogs(t *testing.T) {
	lib := cells.NewLibrary(nil)
	ports1 := []component.Port{
		port("a0", 0, 0, 0), port("a1", 0, 10, 0), port("a2", 0, 20, 0), port("a3", 0, 30, 0),
	}
	ports2 := []component.Port{
		port("b0", 200, -40, 180), port("b1", 200, -30, 180), port("b2", 200, 50, 180), port("b3", 200, 60, 180),
	}

	routes, err := route.Bundle(lib, ports1, ports2, route.Options{Radius: 10, Bend: "bend_circular", SortPorts: true})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	for i, x := range []float64{10, 13.5, 13.5, 10} {
		if got := routes[i].Waypoints[1].X; math.Abs(got-x) > 1e-9 {
			t.Errorf("route %d jogs at x = %v, want %v", i, got, x)
		}
		checkLands(t, routes[i], ports1[i], ports2[i])
	}
	checkNoCrossings(t, routes)
}

// Routes turning back nest around each other, the one nearest the far
// row innermost.
func TestBundleUTurn(t *testing.T) {
	lib := cells.NewLibrary(nil)
	var ports1, ports2 []component.Port
	for i := 0; i < 3; i++ {
		ports1 = append(ports1, port("a", 0, float64(10*i), 180))
		ports2 = append(ports2, port("b", 20, float64(100+10*i), 180))
	}

	routes, err := route.Bundle(lib, ports1, ports2, route.Options{Radius: 10, Bend: "bend_circular", SortPorts: true})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("routes = %d, want 3", len(routes))
	}
	for i, x := range []float64{-17, -13.5, -10} {
		r := routes[i]
		if r.NumBends != 2 {
			t.Errorf("route %d: NumBends = %d, want 2", i, r.NumBends)
		}
		if got := r.Waypoints[1].X; math.Abs(got-x) > 1e-9 {
			t.Errorf("route %d turns at x = %v, want %v", i, got, x)
		}
		// The lowest start port goes to the highest end port.
		checkLands(t, r, ports1[i], ports2[len(ports2)-1-i])
	}
	checkNoCrossings(t, routes)
}

func TestBundlePerpendicular(t *testing.T) {
	lib := cells.NewLibrary(nil)
	var ports1, ports2 []component.Port
	for i := 0; i < 4; i++ {
		ports1 = append(ports1, port("a", float64(10*i), 0, 90))
		ports2 = append(ports2, port("b", 200, float64(100+10*i), 180))
	}

	routes, err := route.Bundle(lib, ports1, ports2, route.Options{SortPorts: true})
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	for i, r := range routes {
		if r.NumBends != 1 {
			t.Errorf("route %d: NumBends = %d, want 1", i, r.NumBends)
		}
		// Leftmost port takes the top slot.
		want := ports2[len(ports2)-1-i]
		checkLands(t, r, ports1[i], want)
	}
	checkNoCrossings(t, routes)
}

func TestBundleErrors(t *testing.T) {
	lib := cells.NewLibrary(nil)
	a := []component.Port{port("a1", 0, 0, 0), port("a2", 0, 10, 0)}
	tests := []struct {
		name   string
		p1, p2 []component.Port
	}{
		{"empty", nil, nil},
		{"count mismatch", a, []component.Port{port("b1", 100, 0, 180)}},
		{"mixed end orientations", a, []component.Port{port("b1", 100, 0, 180), port("b2", 100, 50, 90)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := route.Bundle(lib, tt.p1, tt.p2, route.Options{})
			if !errors.Is(err, errors.ErrCodeRouting) {
				t.Errorf("err = %v, want %s", err, errors.ErrCodeRouting)
			}
		})
	}
}

// Ports on four sides of one block cannot all reach a single row above it
// without some routes running on top of each other.
func TestBundleUnroutable(t *testing.T) {
	lib := cells.NewLibrary(nil)
	bot := lib.MustGet("nxn", pcell.Params{"west": 2, "east": 2, "north": 2, "south": 2})
	top := lib.MustGet("nxn", pcell.Params{"west": 0, "east": 0, "north": 8, "south": 0})

	var ports2 []component.Port
	for _, p := range top.Ports() {
		ports2 = append(ports2, p.Moved(0, 100))
	}
	_, err := route.Bundle(lib, bot.Ports(), ports2, route.Options{
		Radius:    5,
		Bend:      "bend_circular",
		SortPorts: true,
	})
	if !errors.Is(err, errors.ErrCodeRouting) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeRouting)
	}
}
