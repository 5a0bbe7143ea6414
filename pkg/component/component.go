package component

import (
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// Info holds free-form metadata attached to a component, such as the route
// length or the tightest bend radius.
type Info map[string]any

// Float returns a numeric info value.
func (i Info) Float(key string) (float64, bool) {
	switch v := i[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Component is a locked layout cell: polygons per layer, placed references
// to other components, and named ports. Components are only created by
// [Builder.Build] (or [Component.Flatten]) and never change afterwards, so
// they can be shared by any number of references and goroutines.
type Component struct {
	name     string
	polygons map[tech.LayerID][]geometry.Polygon
	refs     []*Reference
	ports    []Port
	index    map[string]int
	info     Info
	settings map[string]any

	flatOnce sync.Once
	flat     map[tech.LayerID][]geometry.Polygon
	bboxOnce sync.Once
	bbox     geometry.Box
}

// Name returns the component name. Cached components use their signature key.
func (c *Component) Name() string { return c.name }

// Ports returns the ports in insertion order.
func (c *Component) Ports() []Port {
	return slices.Clone(c.ports)
}

// Port returns the named port.
func (c *Component) Port(name string) (Port, error) {
	i, ok := c.index[name]
	if !ok {
		return Port{}, errors.New(errors.ErrCodePortNotFound, "component %s has no port %q (ports: %v)", c.name, name, c.PortNames())
	}
	return c.ports[i], nil
}

// MustPort is like Port but panics when the port does not exist. It is
// meant for cell code that just created the port itself.
func (c *Component) MustPort(name string) Port {
	p, err := c.Port(name)
	if err != nil {
		panic(err)
	}
	return p
}

// HasPort reports whether the named port exists.
func (c *Component) HasPort(name string) bool {
	_, ok := c.index[name]
	return ok
}

// PortNames returns the port names in insertion order.
func (c *Component) PortNames() []string {
	names := make([]string, len(c.ports))
	for i, p := range c.ports {
		names[i] = p.Name
	}
	return names
}

// PortsList returns the ports matching f.
func (c *Component) PortsList(f PortFilter) []Port {
	return FilterPorts(c.ports, f)
}

// Polygons returns a copy of the component's own polygons, excluding those
// inside references.
func (c *Component) Polygons() map[tech.LayerID][]geometry.Polygon {
	return clonePolygons(c.polygons)
}

// References returns the placed sub-components.
func (c *Component) References() []*Reference {
	return slices.Clone(c.refs)
}

// Info returns a copy of the component's metadata.
func (c *Component) Info() Info {
	return maps.Clone(c.info)
}

// Settings returns a copy of the parameters the component was built with.
func (c *Component) Settings() map[string]any {
	return maps.Clone(c.settings)
}

// Layers returns the layers used anywhere in the hierarchy, sorted.
func (c *Component) Layers() []tech.LayerID {
	out := slices.Collect(maps.Keys(c.flatten()))
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// GetPolygons returns every polygon in the hierarchy, transformed into this
// component's frame and grouped by layer. The result is a fresh copy.
func (c *Component) GetPolygons() map[tech.LayerID][]geometry.Polygon {
	return clonePolygons(c.flatten())
}

func (c *Component) flatten() map[tech.LayerID][]geometry.Polygon {
	c.flatOnce.Do(func() {
		flat := clonePolygons(c.polygons)
		for _, r := range c.refs {
			for layer, polys := range r.component.flatten() {
				for _, p := range polys {
					flat[layer] = append(flat[layer], p.Transform(r.transform))
				}
			}
		}
		c.flat = flat
	})
	return c.flat
}

// BBox returns the bounding box of all geometry and ports in the hierarchy.
func (c *Component) BBox() geometry.Box {
	c.bboxOnce.Do(func() {
		var b geometry.Box
		for _, polys := range c.flatten() {
			for _, p := range polys {
				b = b.Union(p.BBox())
			}
		}
		for _, p := range c.ports {
			b = b.Expand(p.Center)
		}
		c.bbox = b
	})
	return c.bbox
}

// Flatten returns a new locked component with the same ports and info but
// all hierarchy merged into its own polygons.
func (c *Component) Flatten() *Component {
	f := &Component{
		name:     c.name + "_flat",
		polygons: clonePolygons(c.flatten()),
		ports:    slices.Clone(c.ports),
		index:    maps.Clone(c.index),
		info:     maps.Clone(c.info),
		settings: maps.Clone(c.settings),
	}
	return f
}

// Hierarchy returns every distinct component reachable from c, dependencies
// before dependents, ending with c itself.
func (c *Component) Hierarchy() []*Component {
	var out []*Component
	seen := make(map[*Component]bool)
	var visit func(*Component)
	visit = func(x *Component) {
		if seen[x] {
			return
		}
		seen[x] = true
		for _, r := range x.refs {
			visit(r.component)
		}
		out = append(out, x)
	}
	visit(c)
	return out
}

// NumPolygons returns the total number of polygons in the hierarchy.
func (c *Component) NumPolygons() int {
	n := 0
	for _, polys := range c.flatten() {
		n += len(polys)
	}
	return n
}

func clonePolygons(m map[tech.LayerID][]geometry.Polygon) map[tech.LayerID][]geometry.Polygon {
	out := make(map[tech.LayerID][]geometry.Polygon, len(m))
	for l, polys := range m {
		cp := make([]geometry.Polygon, len(polys))
		for i, p := range polys {
			cp[i] = p.Clone()
		}
		out[l] = cp
	}
	return out
}
