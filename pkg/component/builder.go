package component

import (
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// Builder assembles a [Component]. It is the only mutable stage of a
// component's life: once Build returns, the builder and every reference it
// owns reject further changes by panicking.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	c      *Component
	built  bool
	counts map[string]int
}

// NewBuilder starts a new component. An empty name is replaced by a unique
// generated one.
func NewBuilder(name string) *Builder {
	if name == "" {
		name = "Unnamed_" + uuid.NewString()[:8]
	}
	return &Builder{
		c: &Component{
			name:     name,
			polygons: make(map[tech.LayerID][]geometry.Polygon),
			index:    make(map[string]int),
			info:     make(Info),
			settings: make(map[string]any),
		},
		counts: make(map[string]int),
	}
}

func (b *Builder) mustOpen() {
	if b.built {
		panic(fmt.Sprintf("component %s is locked", b.c.name))
	}
}

// Name returns the name the component will be built with.
func (b *Builder) Name() string { return b.c.name }

// SetName renames the component before it is built.
func (b *Builder) SetName(name string) {
	b.mustOpen()
	b.c.name = name
}

// AddPolygon adds a polygon on layer after validating it.
func (b *Builder) AddPolygon(layer tech.LayerID, p geometry.Polygon) error {
	b.mustOpen()
	if err := p.Validate(); err != nil {
		return err
	}
	b.c.polygons[layer] = append(b.c.polygons[layer], p.Clone())
	return nil
}

// AddRect adds an axis-aligned rectangle spanning corners p and q.
func (b *Builder) AddRect(layer tech.LayerID, p, q geometry.Point) error {
	return b.AddPolygon(layer, geometry.Rect(p, q))
}

// AddPath extrudes path with the cross-section's core width on its layer
// and adds one band per cladding, widened by twice the cladding offset.
func (b *Builder) AddPath(xs tech.CrossSection, path geometry.Path) error {
	b.mustOpen()
	core, err := path.Extrude(xs.Width)
	if err != nil {
		return err
	}
	if err := b.AddPolygon(xs.Layer, core); err != nil {
		return err
	}
	for _, cl := range xs.Cladding {
		band, err := path.Extrude(xs.Width + 2*cl.Offset)
		if err != nil {
			return err
		}
		if err := b.AddPolygon(cl.Layer, band); err != nil {
			return err
		}
	}
	return nil
}

// AddRef places c in the component at the origin and returns the new
// reference for positioning. Without a name, instances are numbered per
// child component.
func (b *Builder) AddRef(c *Component, name ...string) *Reference {
	b.mustOpen()
	r := NewReference(c)
	if len(name) > 0 && name[0] != "" {
		r.name = name[0]
	}
	b.adopt(r)
	return r
}

// Adopt takes ownership of references created elsewhere, typically the
// output of a router. A reference can belong to one builder only.
func (b *Builder) Adopt(refs ...*Reference) error {
	b.mustOpen()
	for _, r := range refs {
		if r.owner != nil {
			return errors.New(errors.ErrCodeInvalidInput, "reference %s already belongs to %s", r.Name(), r.owner.c.name)
		}
	}
	for _, r := range refs {
		b.adopt(r)
	}
	return nil
}

// Routed is implemented by router results.
type Routed interface {
	Refs() []*Reference
}

// AddRoute adopts every segment of a route.
func (b *Builder) AddRoute(r Routed) error {
	return b.Adopt(r.Refs()...)
}

func (b *Builder) adopt(r *Reference) {
	if r.name == "" {
		n := b.counts[r.component.name]
		b.counts[r.component.name] = n + 1
		r.name = fmt.Sprintf("%s_%d", r.component.name, n)
	}
	r.owner = b
	b.c.refs = append(b.c.refs, r)
}

// AddPort adds a port. Port names must be unique within the component.
func (b *Builder) AddPort(p Port) error {
	b.mustOpen()
	if err := p.Validate(); err != nil {
		return err
	}
	if _, dup := b.c.index[p.Name]; dup {
		return errors.New(errors.ErrCodeInvalidInput, "component %s: duplicate port %q", b.c.name, p.Name)
	}
	p.Orientation = geometry.SnapAngle(p.Orientation)
	if p.PortType == "" {
		p.PortType = tech.PortOptical
	}
	b.c.index[p.Name] = len(b.c.ports)
	b.c.ports = append(b.c.ports, p)
	return nil
}

// AddPortFrom exposes p, usually a reference port, under a new name.
func (b *Builder) AddPortFrom(name string, p Port) error {
	return b.AddPort(p.Renamed(name))
}

// AddPorts exposes several ports, prefixing each name.
func (b *Builder) AddPorts(ports []Port, prefix string) error {
	for _, p := range ports {
		if err := b.AddPort(p.Renamed(prefix + p.Name)); err != nil {
			return err
		}
	}
	return nil
}

// Ports returns the ports added so far.
func (b *Builder) Ports() []Port {
	return FilterPorts(b.c.ports, PortFilter{})
}

// SetInfo records a metadata value.
func (b *Builder) SetInfo(key string, v any) {
	b.mustOpen()
	b.c.info[key] = v
}

// MergeInfo copies every entry of info into the component's metadata.
func (b *Builder) MergeInfo(info Info) {
	b.mustOpen()
	maps.Copy(b.c.info, info)
}

// SetSettings records the parameters the component was built from.
func (b *Builder) SetSettings(s map[string]any) {
	b.mustOpen()
	b.c.settings = maps.Clone(s)
	if b.c.settings == nil {
		b.c.settings = make(map[string]any)
	}
}

// Build locks the component and returns it. Reference names must be unique.
func (b *Builder) Build() (*Component, error) {
	b.mustOpen()
	seen := make(map[string]bool, len(b.c.refs))
	for _, r := range b.c.refs {
		if seen[r.name] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "component %s: duplicate reference name %q", b.c.name, r.name)
		}
		seen[r.name] = true
	}
	b.built = true
	return b.c, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Component {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
