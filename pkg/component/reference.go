package component

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
)

// Reference is a placed instance of a component inside another one. The
// referenced component is shared; only the transform belongs to the
// reference. Placement methods return the reference so calls can be
// chained, and panic once the owning builder has been built.
type Reference struct {
	name      string
	component *Component
	transform geometry.Transform
	owner     *Builder
}

// NewReference creates a detached reference to c at the origin. Detached
// references are placed freely and later handed to [Builder.Adopt].
func NewReference(c *Component) *Reference {
	return &Reference{component: c}
}

func (r *Reference) mustOpen() {
	if r.owner != nil && r.owner.built {
		panic(fmt.Sprintf("reference %s in locked component %s", r.name, r.owner.c.name))
	}
}

// Name returns the instance name.
func (r *Reference) Name() string { return r.name }

// SetName sets the instance name before the reference is adopted.
func (r *Reference) SetName(name string) *Reference {
	r.mustOpen()
	r.name = name
	return r
}

// Component returns the referenced component.
func (r *Reference) Component() *Component { return r.component }

// Transform returns the placement transform.
func (r *Reference) Transform() geometry.Transform { return r.transform }

// SetTransform replaces the placement transform.
func (r *Reference) SetTransform(t geometry.Transform) *Reference {
	r.mustOpen()
	r.transform = t
	return r
}

// Ports returns the referenced component's ports in the parent frame.
func (r *Reference) Ports() []Port {
	ports := r.component.Ports()
	for i := range ports {
		ports[i] = ports[i].Transformed(r.transform)
	}
	return ports
}

// Port returns the named port in the parent frame.
func (r *Reference) Port(name string) (Port, error) {
	p, err := r.component.Port(name)
	if err != nil {
		return Port{}, err
	}
	return p.Transformed(r.transform), nil
}

// MustPort is like Port but panics when the port does not exist.
func (r *Reference) MustPort(name string) Port {
	p, err := r.Port(name)
	if err != nil {
		panic(err)
	}
	return p
}

// PortsList returns the parent-frame ports matching f.
func (r *Reference) PortsList(f PortFilter) []Port {
	return FilterPorts(r.Ports(), f)
}

// BBox returns the bounding box in the parent frame.
func (r *Reference) BBox() geometry.Box {
	var b geometry.Box
	for _, polys := range r.component.flatten() {
		for _, p := range polys {
			b = b.Union(p.Transform(r.transform).BBox())
		}
	}
	for _, p := range r.Ports() {
		b = b.Expand(p.Center)
	}
	return b
}

// Move shifts the reference by (dx, dy).
func (r *Reference) Move(dx, dy float64) *Reference {
	r.mustOpen()
	r.transform.Translation = r2.Add(r.transform.Translation, geometry.Pt(dx, dy))
	return r
}

// MoveTo places the reference origin at p.
func (r *Reference) MoveTo(p geometry.Point) *Reference {
	r.mustOpen()
	r.transform.Translation = p
	return r
}

// MovePort shifts the reference so that the named port lands on p.
func (r *Reference) MovePort(port string, p geometry.Point) error {
	cur, err := r.Port(port)
	if err != nil {
		return err
	}
	d := r2.Sub(p, cur.Center)
	r.Move(d.X, d.Y)
	return nil
}

// Rotate rotates the reference about the parent origin.
func (r *Reference) Rotate(deg float64) *Reference {
	r.mustOpen()
	r.transform = geometry.Rotation(deg).Compose(r.transform)
	return r
}

// RotateAround rotates the reference about center.
func (r *Reference) RotateAround(deg float64, center geometry.Point) *Reference {
	r.mustOpen()
	t := geometry.Translate(center.X, center.Y).
		Compose(geometry.Rotation(deg)).
		Compose(geometry.Translate(-center.X, -center.Y))
	r.transform = t.Compose(r.transform)
	return r
}

// MirrorX reflects the reference across the horizontal line through its
// origin.
func (r *Reference) MirrorX() *Reference {
	r.mustOpen()
	o := r.transform.Translation
	t := geometry.Translate(o.X, o.Y).
		Compose(geometry.MirrorX()).
		Compose(geometry.Translate(-o.X, -o.Y))
	r.transform = t.Compose(r.transform)
	return r
}

// MirrorY reflects the reference across the vertical line through its
// origin.
func (r *Reference) MirrorY() *Reference {
	r.mustOpen()
	o := r.transform.Translation
	t := geometry.Translate(o.X, o.Y).
		Compose(geometry.Rotation(180)).
		Compose(geometry.MirrorX()).
		Compose(geometry.Translate(-o.X, -o.Y))
	r.transform = t.Compose(r.transform)
	return r
}

// SetXMin moves the reference so its bounding box starts at x.
func (r *Reference) SetXMin(x float64) *Reference {
	return r.Move(x-r.BBox().Min.X, 0)
}

// SetXMax moves the reference so its bounding box ends at x.
func (r *Reference) SetXMax(x float64) *Reference {
	return r.Move(x-r.BBox().Max.X, 0)
}

// SetYMin moves the reference so its bounding box starts at y.
func (r *Reference) SetYMin(y float64) *Reference {
	return r.Move(0, y-r.BBox().Min.Y)
}

// SetYMax moves the reference so its bounding box ends at y.
func (r *Reference) SetYMax(y float64) *Reference {
	return r.Move(0, y-r.BBox().Max.Y)
}

// SetX centers the reference horizontally on x.
func (r *Reference) SetX(x float64) *Reference {
	return r.Move(x-r.BBox().Center().X, 0)
}

// SetY centers the reference vertically on y.
func (r *Reference) SetY(y float64) *Reference {
	return r.Move(0, y-r.BBox().Center().Y)
}

// Connect places the reference so that its port faces dest: the centers
// coincide and the orientations are opposite. The reference keeps its
// mirror state; rotation and translation are replaced. Ports that differ
// in width, layer or type are rejected unless opts allow it.
func (r *Reference) Connect(port string, dest Port, opts ...ConnectOptions) error {
	r.mustOpen()
	local, err := r.component.Port(port)
	if err != nil {
		return err
	}
	var o ConnectOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if err := CheckCompatible(local, dest, o); err != nil {
		return errors.Wrap(errors.ErrCodePortMismatch, err, "connect %s.%s to %s", r.displayName(), port, dest.Name)
	}
	mirror := geometry.Transform{Mirror: r.transform.Mirror}
	r.transform = Align(local.Transformed(mirror), dest).Compose(mirror)
	return nil
}

// ConnectTo connects port to another reference's port.
func (r *Reference) ConnectTo(port string, other *Reference, otherPort string, opts ...ConnectOptions) error {
	dest, err := other.Port(otherPort)
	if err != nil {
		return err
	}
	return r.Connect(port, dest, opts...)
}

func (r *Reference) displayName() string {
	if r.name != "" {
		return r.name
	}
	return r.component.name
}
