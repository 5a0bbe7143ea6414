package cells_test

import (
	"math"
	"testing"

	"github.com/matzehuels/pcellkit/pkg/cells"
	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

func info(t *testing.T, c *component.Component, key string) float64 {
	t.Helper()
	v, ok := c.Info().Float(key)
	if !ok {
		t.Fatalf("%s: info %q missing", c.Name(), key)
	}
	return v
}

func checkPort(t *testing.T, c *component.Component, name string, x, y, orientation float64) {
	t.Helper()
	p, err := c.Port(name)
	if err != nil {
		t.Fatalf("%s: %v", c.Name(), err)
	}
	if !geometry.Close(p.Center, geometry.Pt(x, y)) || !geometry.AngleClose(p.Orientation, orientation) {
		t.Errorf("%s.%s = %v @ %g, want (%g, %g) @ %g", c.Name(), name, p.Center, p.Orientation, x, y, orientation)
	}
}

func TestDefaultsBuild(t *testing.T) {
	lib := cells.NewLibrary(nil)
	for _, cell := range cells.All() {
		t.Run(cell.Name, func(t *testing.T) {
			c, err := lib.Get(cell.Name, nil)
			if err != nil {
				t.Fatalf("Get(%s): %v", cell.Name, err)
			}
			if c.NumPolygons() == 0 {
				t.Errorf("%s has no polygons", c.Name())
			}
		})
	}
}

func TestRegisterTwice(t *testing.T) {
	lib := cells.NewLibrary(nil)
	if err := cells.Register(lib); err == nil {
		t.Error("Register on a populated library: expected error")
	}
}

func TestStraight(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("straight", pcell.Params{"length": 25})
	checkPort(t, c, "o1", 0, 0, 180)
	checkPort(t, c, "o2", 25, 0, 0)
	if got := info(t, c, "length"); got != 25 {
		t.Errorf("length = %v, want 25", got)
	}

	zero := lib.MustGet("straight", pcell.Params{"length": 0})
	if zero.NumPolygons() != 0 || len(zero.Ports()) != 2 {
		t.Errorf("zero-length straight: %d polygons, %d ports, want 0 and 2", zero.NumPolygons(), len(zero.Ports()))
	}

	if _, err := lib.Get("straight", pcell.Params{"length": -1}); !errors.Is(err, errors.ErrCodeGeometry) {
		t.Errorf("negative length: err = %v, want %s", err, errors.ErrCodeGeometry)
	}
}

func TestStraightWidthOverride(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("straight", pcell.Params{"length": 10, "width": 2})
	if w := c.MustPort("o1").Width; w != 2 {
		t.Errorf("port width = %v, want 2", w)
	}
	if h := c.BBox().Height(); math.Abs(h-2) > 1e-9 {
		t.Errorf("bbox height = %v, want 2", h)
	}
}

func TestTaper(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("taper", pcell.Params{"length": 10, "width1": 0.5, "width2": 2})
	if w := c.MustPort("o1").Width; w != 0.5 {
		t.Errorf("o1 width = %v, want 0.5", w)
	}
	if w := c.MustPort("o2").Width; w != 2 {
		t.Errorf("o2 width = %v, want 2", w)
	}
	polys := c.GetPolygons()[tech.L(1, 0)]
	if len(polys) != 1 {
		t.Fatalf("WG polygons = %d, want 1", len(polys))
	}
	if a := polys[0].Area(); math.Abs(a-12.5) > 1e-9 {
		t.Errorf("area = %v, want 12.5", a)
	}
}

func TestBendCircular(t *testing.T) {
	lib := cells.NewLibrary(nil)
	tests := []struct {
		angle  float64
		x, y   float64
		orient float64
	}{
		{90, 10, 10, 90},
		{-90, 10, -10, 270},
		{180, 0, 20, 180},
	}
	for _, tt := range tests {
		c := lib.MustGet("bend_circular", pcell.Params{"radius": 10, "angle": tt.angle})
		checkPort(t, c, "o1", 0, 0, 180)
		checkPort(t, c, "o2", tt.x, tt.y, tt.orient)
		want := 10 * math.Abs(tt.angle) * math.Pi / 180
		if got := info(t, c, "length"); math.Abs(got-want) > 1e-9 {
			t.Errorf("angle %g: length = %v, want %v", tt.angle, got, want)
		}
		if got := info(t, c, "min_bend_radius"); got != 10 {
			t.Errorf("angle %g: min_bend_radius = %v, want 10", tt.angle, got)
		}
	}
}

func TestBendEuler(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("bend_euler", pcell.Params{"radius": 10})
	checkPort(t, c, "o2", 10, 10, 90)
	if got := info(t, c, "length"); math.Abs(got-16.6369) > 1e-2 {
		t.Errorf("length = %v, want about 16.637", got)
	}
	if got := info(t, c, "min_bend_radius"); math.Abs(got-7.0609) > 1e-2 {
		t.Errorf("min_bend_radius = %v, want about 7.061", got)
	}

	u := lib.MustGet("bend_euler", pcell.Params{"radius": 10, "angle": 180})
	checkPort(t, u, "o2", 0, 20, 180)

	circ := lib.MustGet("bend_euler", pcell.Params{"radius": 10, "p": 0})
	if got := info(t, circ, "min_bend_radius"); got != 10 {
		t.Errorf("p=0: min_bend_radius = %v, want 10", got)
	}

	for _, p := range []pcell.Params{
		{"p": 1.5},
		{"angle": 0},
		{"angle": 270},
		{"radius": -1},
	} {
		if _, err := lib.Get("bend_euler", p); err == nil {
			t.Errorf("bend_euler(%v): expected error", p)
		}
	}
}

func TestBendS(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("bend_s", pcell.Params{"size": []any{20, 4}})
	checkPort(t, c, "o1", 0, 0, 180)
	checkPort(t, c, "o2", 20, 4, 0)
	if got := info(t, c, "length"); got <= math.Hypot(20, 4) {
		t.Errorf("length = %v, want more than the chord %v", got, math.Hypot(20, 4))
	}
	r := info(t, c, "min_bend_radius")

	// A longer S-bend with the same offset curves less.
	longer := lib.MustGet("bend_s", pcell.Params{"size": []any{40, 4}})
	if got := info(t, longer, "min_bend_radius"); got <= r {
		t.Errorf("min_bend_radius = %v for dx 40, want more than %v for dx 20", got, r)
	}

	flat := lib.MustGet("bend_s", pcell.Params{"size": []any{20, 0}})
	if _, ok := flat.Info().Float("min_bend_radius"); ok {
		t.Error("straight S-bend should not report a bend radius")
	}

	if _, err := lib.Get("bend_s", pcell.Params{"size": []any{0, 4}}); err == nil {
		t.Error("dx = 0: expected error")
	}
}

func TestRectangle(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("rectangle", pcell.Params{"size": []any{4, 2}})
	checkPort(t, c, "e1", 0, 1, 180)
	checkPort(t, c, "e2", 2, 2, 90)
	checkPort(t, c, "e3", 4, 1, 0)
	checkPort(t, c, "e4", 2, 0, 270)
	if pt := c.MustPort("e1").Type(); pt != tech.PortElectrical {
		t.Errorf("port type = %s, want electrical", pt)
	}

	centered := lib.MustGet("rectangle", pcell.Params{"size": []any{4, 2}, "centered": true})
	if ctr := centered.BBox().Center(); !geometry.Close(ctr, geometry.Pt(0, 0)) {
		t.Errorf("centered bbox center = %v, want origin", ctr)
	}
}

func TestNxNPortOrder(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("nxn", pcell.Params{"west": 2, "north": 2, "east": 2, "south": 2})
	// Clockwise from the lower west port.
	want := []struct {
		x, y, o float64
	}{
		{0, 1, 180}, {0, 7, 180},
		{1, 8, 90}, {7, 8, 90},
		{8, 7, 0}, {8, 1, 0},
		{7, 0, 270}, {1, 0, 270},
	}
	ports := c.Ports()
	if len(ports) != len(want) {
		t.Fatalf("ports = %d, want %d", len(ports), len(want))
	}
	for i, w := range want {
		checkPort(t, c, ports[i].Name, w.x, w.y, w.o)
	}
	if ports[0].Name != "o1" || ports[7].Name != "o8" {
		t.Errorf("port names = %s..%s, want o1..o8", ports[0].Name, ports[7].Name)
	}

	single := lib.MustGet("nxn", pcell.Params{"west": 1, "east": 0})
	checkPort(t, single, "o1", 0, 4, 180)
}

func TestMMI1x2(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("mmi1x2", nil)
	checkPort(t, c, "o1", -10, 0, 180)
	checkPort(t, c, "o2", 15.5, 0.625, 0)
	checkPort(t, c, "o3", 15.5, -0.625, 0)
	if got := info(t, c, "length"); got != 25.5 {
		t.Errorf("length = %v, want 25.5", got)
	}
	if _, err := lib.Get("mmi1x2", pcell.Params{"gap_mmi": 3}); err == nil {
		t.Error("outputs wider than the body: expected error")
	}
}

func TestTextRectangular(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("text_rectangular", pcell.Params{"text": "1", "size": 1})
	if n := c.NumPolygons(); n != 5 {
		t.Errorf("polygons = %d, want 5", n)
	}
	box := c.BBox()
	if box.Width() != 3 || box.Height() != 5 {
		t.Errorf("bbox = %gx%g, want 3x5", box.Width(), box.Height())
	}

	centered := lib.MustGet("text_rectangular", pcell.Params{"text": "1", "size": 1, "justify": "center"})
	if x := centered.BBox().Min.X; x != -1.5 {
		t.Errorf("centered min x = %v, want -1.5", x)
	}

	for _, p := range []pcell.Params{
		{"text": ""},
		{"text": "~"},
		{"justify": "top"},
	} {
		if _, err := lib.Get("text_rectangular", p); err == nil {
			t.Errorf("text_rectangular(%v): expected error", p)
		}
	}
}

func TestStraightHeaterMetal(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("straight_heater_metal", pcell.Params{"length": 50})
	checkPort(t, c, "o1", 0, 0, 180)
	checkPort(t, c, "o2", 50, 0, 0)
	e := c.PortsList(component.PortFilter{Type: tech.PortElectrical})
	if len(e) != 2 {
		t.Errorf("electrical ports = %d, want 2", len(e))
	}
	heater := tech.GenericPDK().MustLayer(tech.LayerHeater)
	if len(c.GetPolygons()[heater]) == 0 {
		t.Error("no heater polygon")
	}
}

func TestCouplerSymmetric(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("coupler_symmetric", nil)
	// Inner waveguides sit gap apart; outer ports are dy apart.
	y := (0.5 + 0.234) / 2
	checkPort(t, c, "o1", 0, -y, 180)
	checkPort(t, c, "o2", 0, y, 180)
	checkPort(t, c, "o3", 10, 2, 0)
	checkPort(t, c, "o4", 10, -2, 0)
	info(t, c, "min_bend_radius")

	if _, err := lib.Get("coupler_symmetric", pcell.Params{"dy": 0.5}); err == nil {
		t.Error("dy smaller than gap plus width: expected error")
	}
}

func TestCDSEMBend180(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("cdsem_bend180", nil)
	if len(c.Ports()) != 0 {
		t.Errorf("ports = %d, want none", len(c.Ports()))
	}
	// Rotated a quarter turn: the long arms run along x.
	box := c.BBox()
	if box.Width() <= box.Height() {
		t.Errorf("bbox = %gx%g, want wider than tall", box.Width(), box.Height())
	}
}

func TestCohTx(t *testing.T) {
	lib := cells.NewLibrary(nil)
	single := lib.MustGet("coh_tx_single_pol", nil)
	if n := len(single.PortsList(component.PortFilter{Type: tech.PortOptical})); n != 2 {
		t.Errorf("single pol optical ports = %d, want 2", n)
	}
	if n := len(single.PortsList(component.PortFilter{Type: tech.PortElectrical})); n != 4 {
		t.Errorf("single pol electrical ports = %d, want 4", n)
	}
	for _, name := range []string{"o1", "o2", "i_e1", "q_e2"} {
		if !single.HasPort(name) {
			t.Errorf("single pol: missing port %s", name)
		}
	}

	dual := lib.MustGet("coh_tx_dual_pol", nil)
	for _, name := range []string{"o1", "o2", "o3", "pol1_i_e1", "pol2_q_e2"} {
		if !dual.HasPort(name) {
			t.Errorf("dual pol: missing port %s", name)
		}
	}
	if n := len(dual.PortsList(component.PortFilter{Type: tech.PortElectrical})); n != 8 {
		t.Errorf("dual pol electrical ports = %d, want 8", n)
	}
}

func TestExtendPorts(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c := lib.MustGet("extend_ports", nil)
	if n := len(c.References()); n != 3 {
		t.Errorf("references = %d, want 3", n)
	}
	if n := len(c.GetPolygons()[tech.L(1, 0)]); n != 3 {
		t.Errorf("WG polygons = %d, want 3", n)
	}
	checkPort(t, c, "o1", -5, 0, 180)
	checkPort(t, c, "o2", 15, 0, 0)

	one := lib.MustGet("extend_ports", pcell.Params{"port_names": []any{"o1"}})
	if n := len(one.References()); n != 2 {
		t.Errorf("one port: references = %d, want 2", n)
	}
	checkPort(t, one, "o2", 10, 0, 0)

	_, err := lib.Get("extend_ports", pcell.Params{"port_names": []any{"nope"}})
	if !errors.Is(err, errors.ErrCodePortNotFound) {
		t.Errorf("unknown port: err = %v, want %s", err, errors.ErrCodePortNotFound)
	}
}

func TestSameParamsSameComponent(t *testing.T) {
	lib := cells.NewLibrary(nil)
	a := lib.MustGet("mmi1x2", pcell.Params{"length_mmi": 6})
	b := lib.MustGet("mmi1x2", pcell.Params{"length_mmi": 6.0})
	if a != b {
		t.Error("equal parameters built two components")
	}
}
