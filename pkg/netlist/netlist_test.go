package netlist_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pcellkit/pkg/cells"
	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/drc"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/netlist"
)

const chainYAML = `
name: chain
instances:
  s1:
    component: straight
    settings: {length: 20}
  s2:
    component: straight
placements:
  s1: {x: 0, y: 0}
connections:
  "s2,o1": "s1,o2"
ports:
  o1: "s1,o1"
  o2: "s2,o2"
`

const chainTOML = `
name = "chain"

[instances.s1]
component = "straight"
settings = { length = 20 }

[instances.s2]
component = "straight"

[placements.s1]
x = 0
y = 0

[connections]
"s2,o1" = "s1,o2"

[ports]
o1 = "s1,o1"
o2 = "s2,o2"
`

func checkPort(t *testing.T, c *component.Component, name string, x, y, orientation float64) {
	t.Helper()
	p, err := c.Port(name)
	if err != nil {
		t.Fatal(err)
	}
	if !geometry.Close(p.Center, geometry.Pt(x, y)) || !geometry.AngleClose(p.Orientation, orientation) {
		t.Errorf("%s = %v @ %g, want (%g, %g) @ %g", name, p.Center, p.Orientation, x, y, orientation)
	}
}

func TestBuildChain(t *testing.T) {
	lib := cells.NewLibrary(nil)
	n, err := netlist.Parse([]byte(chainYAML), netlist.FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c, err := netlist.Build(lib, n)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasPrefix(c.Name(), "chain_") {
		t.Errorf("Name() = %q, want chain_<hash>", c.Name())
	}
	checkPort(t, c, "o1", 0, 0, 180)
	checkPort(t, c, "o2", 30, 0, 0)

	// The same netlist in TOML builds the same cached component.
	m, err := netlist.Parse([]byte(chainTOML), netlist.FormatTOML)
	if err != nil {
		t.Fatalf("Parse toml: %v", err)
	}
	c2, err := netlist.Build(lib, m)
	if err != nil {
		t.Fatalf("Build toml: %v", err)
	}
	if c2 != c {
		t.Errorf("TOML build = %s, want the cached %s", c2.Name(), c.Name())
	}
}

func TestBuildPlacement(t *testing.T) {
	lib := cells.NewLibrary(nil)
	s := netlist.NewSchematic("placed")
	s.AddInstance("a", netlist.Instance{Component: "straight"}, &netlist.Placement{X: 5, Y: 5, Rotation: 90})
	s.AddInstance("b", netlist.Instance{Component: "straight"}, &netlist.Placement{Port: "o2", X: 0, Y: -20, DX: 1})
	s.AddInstance("m", netlist.Instance{Component: "straight"}, &netlist.Placement{Mirror: true})
	s.AddPort("a1", "a,o1")
	s.AddPort("b2", "b,o2")
	s.AddPort("m2", "m,o2")

	c, err := netlist.Build(lib, &s.Netlist)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	checkPort(t, c, "a1", 5, 5, 270)
	checkPort(t, c, "b2", 1, -20, 0)
	checkPort(t, c, "m2", -10, 0, 180)
}

func TestBuildRoutes(t *testing.T) {
	lib := cells.NewLibrary(nil)
	s := netlist.NewSchematic("routed")
	s.AddInstance("s1", netlist.Instance{Component: "straight"}, &netlist.Placement{})
	s.AddInstance("s2", netlist.Instance{Component: "straight"}, &netlist.Placement{X: 100, Y: 50})
	s.AddNet(netlist.Net{From: "s1,o2", To: "s2,o1", Settings: map[string]any{"radius": 10}})
	s.AddPort("in", "s1,o1")
	s.AddPort("out", "s2,o2")

	c, err := netlist.Build(lib, &s.Netlist)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n := len(c.References()); n <= 2 {
		t.Errorf("references = %d, want the two instances plus route pieces", n)
	}
	for _, v := range drc.CheckConnectivity(c) {
		if v.Severity == drc.SeverityError {
			t.Errorf("connectivity: %v", v)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	lib := cells.NewLibrary(nil)
	tests := []struct {
		name string
		src  string
		code errors.Code
	}{
		{"cycle", `
instances: {a: {component: straight}, b: {component: straight}}
connections: {"a,o1": "b,o2", "b,o1": "a,o2"}
`, errors.ErrCodeInvalidNetlist},
		{"unknown cell", `
instances: {a: {component: nope}}
`, errors.ErrCodeCellNotFound},
		{"unknown port", `
instances: {a: {component: straight}}
ports: {o1: "a,o9"}
`, errors.ErrCodePortNotFound},
		{"unroutable", `
instances: {a: {component: straight}, b: {component: straight}}
placements: {a: {x: 0}, b: {x: 50, y: 3}}
routes: {r: {links: {"a,o2": "b,o1"}, routing_strategy: route_single}}
`, errors.ErrCodeRouting},
		{"bad route setting", `
instances: {a: {component: straight}, b: {component: straight}}
placements: {b: {x: 50}}
routes: {r: {links: {"a,o2": "b,o1"}, settings: {turbo: true}}}
`, errors.ErrCodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := netlist.Parse([]byte(tt.src), netlist.FormatYAML)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			_, err = netlist.Build(lib, n)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no instances", `name: empty`},
		{"unknown instance in port", `
instances: {a: {component: straight}}
ports: {o1: "b,o1"}
`},
		{"bad endpoint", `
instances: {a: {component: straight}}
ports: {o1: "a"}
`},
		{"placed and connected", `
instances: {a: {component: straight}, b: {component: straight}}
placements: {a: {x: 1}}
connections: {"a,o1": "b,o2"}
`},
		{"connected twice", `
instances: {a: {component: straight}, b: {component: straight}, c: {component: straight}}
connections: {"a,o1": "b,o2", "a,o2": "c,o1"}
`},
		{"unknown strategy", `
instances: {a: {component: straight}, b: {component: straight}}
routes: {r: {links: {"a,o2": "b,o1"}, routing_strategy: teleport}}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := netlist.Parse([]byte(tt.src), netlist.FormatYAML)
			if !errors.Is(err, errors.ErrCodeInvalidNetlist) {
				t.Errorf("err = %v, want %s", err, errors.ErrCodeInvalidNetlist)
			}
		})
	}

	_, err := netlist.Parse([]byte("instances: {a: {component: straight}}\nbogus: 1\n"), netlist.FormatYAML)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown key: err = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my-chip.yaml")
	src := strings.Replace(chainYAML, "name: chain\n", "", 1)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := netlist.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n.Name != "my_chip" {
		t.Errorf("Name = %q, want my_chip", n.Name)
	}

	if _, err := netlist.Load(filepath.Join(dir, "chip.txt")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown extension: err = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	n, err := netlist.Parse([]byte(chainYAML), netlist.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range []netlist.Format{netlist.FormatYAML, netlist.FormatTOML, netlist.FormatJSON} {
		data, err := netlist.Marshal(n, f)
		if err != nil {
			t.Fatalf("Marshal %s: %v", f, err)
		}
		back, err := netlist.Parse(data, f)
		if err != nil {
			t.Fatalf("Parse %s: %v\n%s", f, err, data)
		}
		if back.Connections["s2,o1"] != "s1,o2" || back.Instances["s1"].Component != "straight" {
			t.Errorf("%s round trip lost data: %+v", f, back)
		}
	}
}

func TestSchematicNets(t *testing.T) {
	s := netlist.NewSchematic("nets")
	s.AddInstance("a", netlist.Instance{Component: "nxn"}, nil)
	s.AddInstance("b", netlist.Instance{Component: "nxn"}, nil)
	s.AddNet(netlist.Net{From: "a,o2", To: "b,o1"})
	s.AddNet(netlist.Net{From: "a,o3", To: "b,o1"})
	s.AddNet(netlist.Net{From: "a,o4", To: "b,o1", Name: "bus"})
	s.AddNet(netlist.Net{From: "a,o5", To: "b,o1", Name: "bus"})

	routes := s.Netlist.Routes
	if len(routes) != 3 {
		t.Fatalf("routes = %v, want route_0, route_1 and bus", routes)
	}
	if _, ok := routes["route_1"]; !ok {
		t.Error("missing route_1")
	}
	if n := len(routes["bus"].Links); n != 2 {
		t.Errorf("bus links = %d, want 2", n)
	}
	if len(s.Nets) != 4 {
		t.Errorf("nets = %d, want 4", len(s.Nets))
	}
}

func TestToDOT(t *testing.T) {
	n, err := netlist.Parse([]byte(chainYAML), netlist.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	dot := netlist.ToDOT(n)
	for _, want := range []string{
		"graph G {",
		`"s2" -- "s1"`,
		`"port:o1" -- "s1"`,
		`pos="0,0!"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	svg, err := netlist.RenderSVG(dot)
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG output is not SVG")
	}
}
