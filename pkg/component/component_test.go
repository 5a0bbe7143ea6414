package component

import (
	"strings"
	"testing"

	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

var wg = tech.L(1, 0)

// straight builds a minimal waveguide with ports o1 (west) and o2 (east).
func straight(t *testing.T, length, width float64) *Component {
	t.Helper()
	b := NewBuilder("wg")
	if err := b.AddRect(wg, geometry.Pt(0, -width/2), geometry.Pt(length, width/2)); err != nil {
		t.Fatal(err)
	}
	mustAddPort(t, b, NewPort("o1", geometry.Pt(0, 0), 180, width, wg))
	mustAddPort(t, b, NewPort("o2", geometry.Pt(length, 0), 0, width, wg))
	return b.MustBuild()
}

// elbow builds a left-turning corner: o1 at the origin facing west, o2 at
// (r, r) facing north.
func elbow(t *testing.T, r float64) *Component {
	t.Helper()
	b := NewBuilder("elbow")
	mustAddPort(t, b, NewPort("o1", geometry.Pt(0, 0), 180, 0.5, wg))
	mustAddPort(t, b, NewPort("o2", geometry.Pt(r, r), 90, 0.5, wg))
	return b.MustBuild()
}

func mustAddPort(t *testing.T, b *Builder, p Port) {
	t.Helper()
	if err := b.AddPort(p); err != nil {
		t.Fatal(err)
	}
}

func TestBuilderAutoName(t *testing.T) {
	b := NewBuilder("")
	if !strings.HasPrefix(b.Name(), "Unnamed_") {
		t.Errorf("Name() = %q, want Unnamed_ prefix", b.Name())
	}
	if other := NewBuilder(""); other.Name() == b.Name() {
		t.Errorf("generated names collide: %q", b.Name())
	}
}

func TestBuilderLocks(t *testing.T) {
	b := NewBuilder("x")
	ref := b.AddRef(straight(t, 1, 0.5))
	if _, err := b.Build(); err != nil {
		t.Fatal(err)
	}
	for name, fn := range map[string]func(){
		"AddPort": func() { _ = b.AddPort(NewPort("p", geometry.Pt(0, 0), 0, 1, wg)) },
		"SetInfo": func() { b.SetInfo("k", 1) },
		"Move":    func() { ref.Move(1, 0) },
		"Build":   func() { _, _ = b.Build() },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s after Build should panic", name)
				}
			}()
			fn()
		})
	}
}

func TestBuilderValidation(t *testing.T) {
	b := NewBuilder("v")
	if err := b.AddPolygon(wg, geometry.Polygon{geometry.Pt(0, 0), geometry.Pt(1, 0)}); !errors.Is(err, errors.ErrCodeGeometry) {
		t.Errorf("degenerate polygon error = %v, want GEOMETRY_ERROR", err)
	}
	if err := b.AddPort(NewPort("o1", geometry.Pt(0, 0), 0, 0, wg)); !errors.Is(err, errors.ErrCodeGeometry) {
		t.Errorf("zero-width port error = %v, want GEOMETRY_ERROR", err)
	}
	mustAddPort(t, b, NewPort("o1", geometry.Pt(0, 0), 0, 1, wg))
	if err := b.AddPort(NewPort("o1", geometry.Pt(1, 0), 0, 1, wg)); err == nil {
		t.Error("duplicate port should fail")
	}
}

func TestReferenceNaming(t *testing.T) {
	s := straight(t, 1, 0.5)
	b := NewBuilder("top")
	r0 := b.AddRef(s)
	r1 := b.AddRef(s)
	named := b.AddRef(s, "input")
	if r0.Name() != "wg_0" || r1.Name() != "wg_1" || named.Name() != "input" {
		t.Errorf("names = %q %q %q", r0.Name(), r1.Name(), named.Name())
	}
	b.AddRef(s, "input")
	if _, err := b.Build(); err == nil {
		t.Error("duplicate reference names should fail Build")
	}
}

func TestConnectChain(t *testing.T) {
	s := straight(t, 10, 0.5)
	b := NewBuilder("chain")
	a := b.AddRef(s)
	a.Rotate(90).Move(5, 5)
	c := b.AddRef(s)
	if err := c.Connect("o1", a.MustPort("o2")); err != nil {
		t.Fatal(err)
	}
	got := c.MustPort("o2")
	if !geometry.Close(got.Center, geometry.Pt(5, 25)) || !geometry.AngleClose(got.Orientation, 90) {
		t.Errorf("chained port = %v, want (5,25) facing 90", got)
	}
	if !Facing(c.MustPort("o1"), a.MustPort("o2")) {
		t.Errorf("connected ports do not face: %v %v", c.MustPort("o1"), a.MustPort("o2"))
	}
}

func TestConnectAllOrientations(t *testing.T) {
	e := elbow(t, 10)
	for _, mirror := range []bool{false, true} {
		for _, dest := range []float64{0, 90, 180, 270, 45} {
			for _, port := range []string{"o1", "o2"} {
				r := NewReference(e)
				r.SetTransform(geometry.Transform{Rotation: 30, Mirror: mirror, Translation: geometry.Pt(-3, 7)})
				target := NewPort("t", geometry.Pt(12, -4), dest, 0.5, wg)
				if err := r.Connect(port, target); err != nil {
					t.Fatal(err)
				}
				p := r.MustPort(port)
				if !Facing(p, target) {
					t.Errorf("mirror=%v dest=%v port=%s: got %v", mirror, dest, port, p)
				}
				if r.Transform().Mirror != mirror {
					t.Errorf("mirror flag changed to %v", r.Transform().Mirror)
				}
			}
		}
	}
}

func TestConnectMirroredTurnsRight(t *testing.T) {
	e := elbow(t, 10)
	r := NewReference(e)
	r.MirrorX()
	if err := r.Connect("o1", NewPort("s", geometry.Pt(0, 0), 0, 0.5, wg)); err != nil {
		t.Fatal(err)
	}
	p := r.MustPort("o2")
	if !geometry.Close(p.Center, geometry.Pt(10, -10)) || !geometry.AngleClose(p.Orientation, 270) {
		t.Errorf("mirrored elbow exit = %v, want (10,-10) facing 270", p)
	}
}

func TestConnectMismatch(t *testing.T) {
	s := straight(t, 1, 0.5)
	r := NewReference(s)
	tests := []struct {
		name string
		dest Port
		opts ConnectOptions
		ok   bool
	}{
		{"width", NewPort("d", geometry.Pt(0, 0), 0, 1, wg), ConnectOptions{}, false},
		{"width allowed", NewPort("d", geometry.Pt(0, 0), 0, 1, wg), ConnectOptions{AllowWidthMismatch: true}, true},
		{"layer", NewPort("d", geometry.Pt(0, 0), 0, 0.5, tech.L(2, 0)), ConnectOptions{}, false},
		{"type", Port{Name: "d", Width: 0.5, Layer: wg, PortType: tech.PortElectrical}, ConnectOptions{}, false},
		{"type allowed", Port{Name: "d", Width: 0.5, Layer: wg, PortType: tech.PortElectrical}, ConnectOptions{AllowTypeMismatch: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Connect("o1", tt.dest, tt.opts)
			if tt.ok && err != nil {
				t.Errorf("Connect() error = %v", err)
			}
			if !tt.ok && !errors.Is(err, errors.ErrCodePortMismatch) {
				t.Errorf("Connect() error = %v, want PORT_MISMATCH", err)
			}
		})
	}
}

func TestConnectUnknownPort(t *testing.T) {
	r := NewReference(straight(t, 1, 0.5))
	err := r.Connect("o9", NewPort("d", geometry.Pt(0, 0), 0, 0.5, wg))
	if !errors.Is(err, errors.ErrCodePortNotFound) {
		t.Errorf("Connect() error = %v, want PORT_NOT_FOUND", err)
	}
}

func TestGetPolygonsHierarchy(t *testing.T) {
	s := straight(t, 10, 1)
	mid := NewBuilder("mid")
	mid.AddRef(s).Move(0, 5)
	mid.AddRef(s).Rotate(90)
	m := mid.MustBuild()

	top := NewBuilder("top")
	top.AddRef(m).Move(100, 0)
	top.AddRef(m).MirrorX()
	c := top.MustBuild()

	if got := c.NumPolygons(); got != 4 {
		t.Fatalf("NumPolygons() = %d, want 4", got)
	}
	var area float64
	for _, p := range c.GetPolygons()[wg] {
		area += p.Area()
	}
	if !geometry.Equal(area, 40) {
		t.Errorf("total area = %v, want 40 (orientation preserved under mirror)", area)
	}
	bb := c.BBox()
	if !geometry.Equal(bb.Max.X, 110) || !geometry.Equal(bb.Min.Y, -10) {
		t.Errorf("BBox() = %+v", bb)
	}
	h := c.Hierarchy()
	if len(h) != 3 || h[0] != s || h[2] != c {
		t.Errorf("Hierarchy() = %d components, want [wg mid top]", len(h))
	}
	flat := c.Flatten()
	if len(flat.References()) != 0 || len(flat.Polygons()[wg]) != 4 {
		t.Errorf("Flatten() kept hierarchy")
	}
}

func TestGetPolygonsReturnsCopy(t *testing.T) {
	s := straight(t, 10, 1)
	polys := s.GetPolygons()
	polys[wg][0][0] = geometry.Pt(-99, -99)
	if geometry.Close(s.GetPolygons()[wg][0][0], geometry.Pt(-99, -99)) {
		t.Error("GetPolygons() exposed internal storage")
	}
}

func TestPortsList(t *testing.T) {
	b := NewBuilder("ports")
	mustAddPort(t, b, NewPort("o10", geometry.Pt(0, 0), 0, 1, wg))
	mustAddPort(t, b, NewPort("o2", geometry.Pt(0, 1), 0, 1, wg))
	mustAddPort(t, b, NewPort("o1", geometry.Pt(0, 2), 180, 1, wg))
	mustAddPort(t, b, Port{Name: "e1", Center: geometry.Pt(1, 1), Width: 2, Layer: tech.L(49, 0), PortType: tech.PortElectrical})
	c := b.MustBuild()

	east := c.PortsList(PortFilter{Orientation: Deg(0), Type: tech.PortOptical})
	if len(east) != 2 {
		t.Errorf("east optical ports = %d, want 2", len(east))
	}
	if got := c.PortsList(PortFilter{Prefix: "e"}); len(got) != 1 || got[0].Name != "e1" {
		t.Errorf("prefix e = %v", got)
	}
	ports := c.PortsList(PortFilter{Prefix: "o"})
	SortPortsByName(ports)
	var names []string
	for _, p := range ports {
		names = append(names, p.Name)
	}
	if strings.Join(names, ",") != "o1,o2,o10" {
		t.Errorf("natural order = %v", names)
	}
}

func TestAlign(t *testing.T) {
	moving := NewPort("m", geometry.Pt(3, 1), 90, 1, wg)
	fixed := NewPort("f", geometry.Pt(-2, 4), 0, 1, wg)
	got := moving.Transformed(Align(moving, fixed))
	if !Facing(got, fixed) {
		t.Errorf("Align moved port to %v, want facing %v", got, fixed)
	}
}

func TestAddPathCladding(t *testing.T) {
	xs := tech.CrossSection{Name: "c", Width: 0.5, Layer: wg, Cladding: []tech.Cladding{{Layer: tech.L(111, 0), Offset: 3}}}
	b := NewBuilder("p")
	path := geometry.Path{Points: []geometry.Point{geometry.Pt(0, 0), geometry.Pt(10, 0)}}
	if err := b.AddPath(xs, path); err != nil {
		t.Fatal(err)
	}
	c := b.MustBuild()
	clad := c.Polygons()[tech.L(111, 0)]
	if len(clad) != 1 || !geometry.Equal(clad[0].BBox().Height(), 6.5) {
		t.Errorf("cladding = %v, want one band 6.5 wide", clad)
	}
}
