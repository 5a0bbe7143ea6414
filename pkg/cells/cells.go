package cells

import (
	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// All returns fresh definitions of every cell in this package.
func All() []*pcell.Cell {
	return []*pcell.Cell{
		Straight(),
		BendCircular(),
		BendEuler(),
		BendS(),
		Taper(),
		Rectangle(),
		NxN(),
		MMI1x2(),
		TextRectangular(),
		StraightHeaterMetal(),
		CouplerSymmetric(),
		CDSEMBend180(),
		CohTxSinglePol(),
		CohTxDualPol(),
		ExtendPorts(),
	}
}

// Register adds every cell in this package to lib.
func Register(lib *pcell.Library) error {
	for _, c := range All() {
		if err := lib.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewLibrary returns a library for pdk with every cell registered.
func NewLibrary(pdk *tech.PDK, opts ...pcell.Option) *pcell.Library {
	lib := pcell.NewLibrary(pdk, opts...)
	lib.MustRegister(All()...)
	return lib
}

// crossSection resolves the "cross_section" parameter and applies an
// optional "width" override.
func crossSection(lib *pcell.Library, p pcell.Params) (tech.CrossSection, error) {
	xs, err := lib.CrossSection(p["cross_section"])
	if err != nil {
		return tech.CrossSection{}, err
	}
	if p.Has("width") {
		w, err := p.Float("width")
		if err != nil {
			return tech.CrossSection{}, err
		}
		xs = xs.WithWidth(w)
	}
	return xs, xs.Validate()
}

// radius returns the "radius" parameter or the cross-section default.
func radius(p pcell.Params, xs tech.CrossSection) (float64, error) {
	r, err := p.FloatOr("radius", xs.Radius)
	if err != nil {
		return 0, err
	}
	if !(r > 0) {
		return 0, errors.Geometry("bend radius must be positive, got %g", r)
	}
	return r, nil
}

// xsPort creates a port carrying the cross-section's width, layer and type.
func xsPort(name string, center geometry.Point, orientation float64, xs tech.CrossSection) component.Port {
	return component.Port{
		Name:        name,
		Center:      center,
		Orientation: geometry.SnapAngle(orientation),
		Width:       xs.Width,
		Layer:       xs.Layer,
		PortType:    xs.Type(),
	}
}

// addPorts adds ports in order, stopping at the first error.
func addPorts(b *component.Builder, ports ...component.Port) error {
	for _, p := range ports {
		if err := b.AddPort(p); err != nil {
			return err
		}
	}
	return nil
}

// copyInfo copies the named info entries of c into b when present.
func copyInfo(b *component.Builder, c *component.Component, keys ...string) {
	info := c.Info()
	for _, k := range keys {
		if v, ok := info[k]; ok {
			b.SetInfo(k, v)
		}
	}
}
