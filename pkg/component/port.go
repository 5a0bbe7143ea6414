package component

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// Port is a named connection point on a component boundary. Orientation is
// the direction, in degrees, in which a signal leaves the component through
// the port, expressed in the owning component's frame.
type Port struct {
	Name        string         `json:"name"`
	Center      geometry.Point `json:"center"`
	Orientation float64        `json:"orientation"`
	Width       float64        `json:"width"`
	Layer       tech.LayerID   `json:"layer"`
	PortType    tech.PortType  `json:"port_type"`
}

// NewPort creates an optical port on the given layer.
func NewPort(name string, center geometry.Point, orientation, width float64, layer tech.LayerID) Port {
	return Port{
		Name:        name,
		Center:      center,
		Orientation: geometry.SnapAngle(orientation),
		Width:       width,
		Layer:       layer,
		PortType:    tech.PortOptical,
	}
}

// Validate checks the port's name, width, center and type.
func (p Port) Validate() error {
	if err := errors.ValidatePortName(p.Name); err != nil {
		return err
	}
	if !(p.Width > 0) {
		return errors.Geometry("port %s: width must be positive, got %g", p.Name, p.Width)
	}
	if !geometry.Finite(p.Center) {
		return errors.Geometry("port %s: center is not finite", p.Name)
	}
	if p.PortType != "" && !p.PortType.Valid() {
		return errors.Geometry("port %s: unknown port type %q", p.Name, p.PortType)
	}
	return nil
}

// Transformed returns the port mapped through t.
func (p Port) Transformed(t geometry.Transform) Port {
	p.Center = t.Apply(p.Center)
	p.Orientation = t.ApplyAngle(p.Orientation)
	return p
}

// Renamed returns a copy of p with a new name.
func (p Port) Renamed(name string) Port {
	p.Name = name
	return p
}

// Moved returns a copy of p shifted by (dx, dy).
func (p Port) Moved(dx, dy float64) Port {
	p.Center = r2.Add(p.Center, geometry.Pt(dx, dy))
	return p
}

// Direction returns the unit vector along the port orientation.
func (p Port) Direction() geometry.Point {
	return geometry.Direction(p.Orientation)
}

// Type returns the port type, defaulting to optical.
func (p Port) Type() tech.PortType {
	if p.PortType == "" {
		return tech.PortOptical
	}
	return p.PortType
}

func (p Port) String() string {
	return fmt.Sprintf("%s(%.4g,%.4g %g° w=%g %s)", p.Name, p.Center.X, p.Center.Y, p.Orientation, p.Width, p.Layer)
}

// PortFilter selects ports by type, orientation, layer, name prefix or an
// explicit name list. Zero-valued fields match everything.
type PortFilter struct {
	Type        tech.PortType
	Orientation *float64
	Layer       *tech.LayerID
	Prefix      string
	Names       []string
}

// Deg returns a pointer to v, for use in [PortFilter.Orientation].
func Deg(v float64) *float64 { return &v }

// Match reports whether p passes the filter.
func (f PortFilter) Match(p Port) bool {
	if f.Type != "" && p.Type() != f.Type {
		return false
	}
	if f.Orientation != nil && !geometry.AngleClose(p.Orientation, *f.Orientation) {
		return false
	}
	if f.Layer != nil && p.Layer != *f.Layer {
		return false
	}
	if f.Prefix != "" && !strings.HasPrefix(p.Name, f.Prefix) {
		return false
	}
	if len(f.Names) > 0 {
		found := false
		for _, n := range f.Names {
			if n == p.Name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FilterPorts returns the ports matching f, preserving order.
func FilterPorts(ports []Port, f PortFilter) []Port {
	var out []Port
	for _, p := range ports {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// SortPortsByName sorts ports in natural name order, so o2 sorts before o10.
func SortPortsByName(ports []Port) {
	sort.SliceStable(ports, func(i, j int) bool {
		return naturalLess(ports[i].Name, ports[j].Name)
	})
}

// naturalLess compares names by their non-numeric prefix, then by the
// trailing number.
func naturalLess(a, b string) bool {
	pa, na := splitNumber(a)
	pb, nb := splitNumber(b)
	if pa != pb {
		return pa < pb
	}
	if na != nb {
		return na < nb
	}
	return a < b
}

func splitNumber(s string) (string, int) {
	i := len(s)
	for i > 0 && unicode.IsDigit(rune(s[i-1])) {
		i--
	}
	if i == len(s) {
		return s, -1
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, -1
	}
	return s[:i], n
}
