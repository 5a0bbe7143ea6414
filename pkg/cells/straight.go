package cells

import (
	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/pcell"
)

// Straight is a straight waveguide: o1 at the origin facing west, o2 at
// (length, 0) facing east. A zero length gives a port-only cell, which the
// router uses for joints that need no extra waveguide.
func Straight() *pcell.Cell {
	return &pcell.Cell{
		Name: "straight",
		Doc:  "Straight waveguide.",
		Defaults: pcell.Params{
			"length":        10.0,
			"cross_section": nil,
			"width":         nil,
		},
		Build: buildStraight,
	}
}

func buildStraight(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	xs, err := crossSection(lib, p)
	if err != nil {
		return err
	}
	length, err := p.Float("length")
	if err != nil {
		return err
	}
	if length < 0 {
		return errors.Geometry("straight length must not be negative, got %g", length)
	}
	if length > geometry.Tolerance {
		path := geometry.Path{
			Points: []geometry.Point{geometry.Pt(0, 0), geometry.Pt(length, 0)},
			Angles: []float64{0, 0},
		}
		if err := b.AddPath(xs, path); err != nil {
			return err
		}
	}
	b.SetInfo("length", length)
	b.SetInfo("width", xs.Width)
	return addPorts(b,
		xsPort("o1", geometry.Pt(0, 0), 180, xs),
		xsPort("o2", geometry.Pt(length, 0), 0, xs),
	)
}

// Taper is a linear width transition from width1 at o1 to width2 at o2.
// Claddings follow the core with their offsets.
func Taper() *pcell.Cell {
	return &pcell.Cell{
		Name: "taper",
		Doc:  "Linear taper between two widths.",
		Defaults: pcell.Params{
			"length":        10.0,
			"width1":        0.5,
			"width2":        nil,
			"cross_section": nil,
		},
		Build: buildTaper,
	}
}

func buildTaper(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	xs, err := crossSection(lib, p)
	if err != nil {
		return err
	}
	length, err := p.Float("length")
	if err != nil {
		return err
	}
	w1, err := p.Float("width1")
	if err != nil {
		return err
	}
	w2, err := p.FloatOr("width2", w1)
	if err != nil {
		return err
	}
	if !(length > 0) {
		return errors.Geometry("taper length must be positive, got %g", length)
	}
	if !(w1 > 0) || !(w2 > 0) {
		return errors.Geometry("taper widths must be positive, got %g and %g", w1, w2)
	}
	trapezoid := func(grow float64) geometry.Polygon {
		a, c := w1/2+grow, w2/2+grow
		return geometry.Polygon{
			geometry.Pt(0, -a), geometry.Pt(length, -c),
			geometry.Pt(length, c), geometry.Pt(0, a),
		}
	}
	if err := b.AddPolygon(xs.Layer, trapezoid(0)); err != nil {
		return err
	}
	for _, cl := range xs.Cladding {
		if err := b.AddPolygon(cl.Layer, trapezoid(cl.Offset)); err != nil {
			return err
		}
	}
	b.SetInfo("length", length)
	b.SetInfo("width1", w1)
	b.SetInfo("width2", w2)
	return addPorts(b,
		xsPort("o1", geometry.Pt(0, 0), 180, xs.WithWidth(w1)),
		xsPort("o2", geometry.Pt(length, 0), 0, xs.WithWidth(w2)),
	)
}
