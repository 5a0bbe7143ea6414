package cells

import (
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/route"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// resolveWith resolves the component spec stored under key with extra parameters
// layered on top.
func resolveWith(lib *pcell.Library, p pcell.Params, key string, extra pcell.Params) (*component.Component, error) {
	s, err := p.Spec(key)
	if err != nil {
		return nil, err
	}
	return lib.Resolve(pcell.Override(s, extra))
}

// StraightHeaterMetal is a straight waveguide under a resistive heater
// strip, with a metal pad at each end.
func StraightHeaterMetal() *pcell.Cell {
	return &pcell.Cell{
		Name: "straight_heater_metal",
		Doc:  "Straight waveguide with a metal heater.",
		Defaults: pcell.Params{
			"length":        100.0,
			"cross_section": nil,
			"heater_width":  2.5,
			"heater_layer":  tech.LayerHeater,
			"pad_size":      10.0,
			"pad_layer":     tech.LayerMTop,
		},
		Build: buildStraightHeaterMetal,
	}
}

func buildStraightHeaterMetal(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	length, err := p.Float("length")
	if err != nil {
		return err
	}
	hw, err := p.Float("heater_width")
	if err != nil {
		return err
	}
	pad, err := p.Float("pad_size")
	if err != nil {
		return err
	}
	heater, err := lib.Layer(p["heater_layer"])
	if err != nil {
		return err
	}
	metal, err := lib.Layer(p["pad_layer"])
	if err != nil {
		return err
	}
	if !(length > 0) {
		return errors.Geometry("heater length must be positive, got %g", length)
	}

	wg, err := lib.Get("straight", pcell.Params{"length": length, "cross_section": p["cross_section"]})
	if err != nil {
		return err
	}
	ref := b.AddRef(wg)
	if err := b.AddRect(heater, geometry.Pt(0, -hw/2), geometry.Pt(length, hw/2)); err != nil {
		return err
	}
	for _, x := range []float64{0, length} {
		if err := b.AddRect(metal, geometry.Pt(x-pad/2, -pad/2), geometry.Pt(x+pad/2, pad/2)); err != nil {
			return err
		}
	}
	if err := b.AddPorts(ref.Ports(), ""); err != nil {
		return err
	}
	for i, x := range []float64{0, length} {
		e := component.Port{
			Name:        fmt.Sprintf("e%d", i+1),
			Center:      geometry.Pt(x, pad/2),
			Orientation: 90,
			Width:       pad,
			Layer:       metal,
			PortType:    tech.PortElectrical,
		}
		if err := b.AddPort(e); err != nil {
			return err
		}
	}
	b.SetInfo("length", length)
	return nil
}

// CouplerSymmetric is a pair of mirrored S-bends that approach each other
// to a coupling gap. Ports are o1 (bottom left), o2 (top left), o3 (top
// right) and o4 (bottom right); dy is the vertical port pitch.
func CouplerSymmetric() *pcell.Cell {
	return &pcell.Cell{
		Name: "coupler_symmetric",
		Doc:  "Two coupled waveguides with S-bends.",
		Defaults: pcell.Params{
			"bend":          "bend_s",
			"gap":           0.234,
			"dy":            4.0,
			"dx":            10.0,
			"cross_section": nil,
		},
		Build: buildCouplerSymmetric,
	}
}

func buildCouplerSymmetric(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	xs, err := lib.CrossSection(p["cross_section"])
	if err != nil {
		return err
	}
	gap, err := p.Float("gap")
	if err != nil {
		return err
	}
	dy, err := p.Float("dy")
	if err != nil {
		return err
	}
	dx, err := p.Float("dx")
	if err != nil {
		return err
	}
	if !(gap > 0) {
		return errors.Geometry("coupler gap must be positive, got %g", gap)
	}
	rise := (dy - gap - xs.Width) / 2
	if rise < 0 {
		return errors.Geometry("coupler dy %g is smaller than gap plus width (%g)", dy, gap+xs.Width)
	}

	bend, err := resolveWith(lib, p, "bend", pcell.Params{
		"size":          []any{dx, rise},
		"cross_section": p["cross_section"],
	})
	if err != nil {
		return err
	}
	w := bend.MustPort("o1").Width
	y := (w + gap) / 2

	top := b.AddRef(bend)
	bot := b.AddRef(bend)
	bot.MirrorX()
	top.Move(0, y)
	bot.Move(0, -y)

	if err := addPorts(b,
		bot.MustPort("o1").Renamed("o1"),
		top.MustPort("o1").Renamed("o2"),
		top.MustPort("o2").Renamed("o3"),
		bot.MustPort("o2").Renamed("o4"),
	); err != nil {
		return err
	}
	copyInfo(b, bend, "length", "min_bend_radius")
	return nil
}

// CDSEMBend180 is a metrology structure: a 180 degree U-turn made of two
// quarter bends with long straight arms and a label giving the line width
// in nanometers. The result is flattened and rotated by 90 degrees.
func CDSEMBend180() *pcell.Cell {
	return &pcell.Cell{
		Name: "cdsem_bend180",
		Doc:  "CD-SEM U-turn test structure.",
		Defaults: pcell.Params{
			"width":         0.5,
			"radius":        10.0,
			"wg_length":     420.0,
			"straight":      "straight",
			"bend90":        "bend_circular",
			"cross_section": tech.XSStrip,
			"text":          pcell.ByName{Name: "text_rectangular", Params: pcell.Params{"size": 1.0}},
		},
		Build: buildCDSEMBend180,
	}
}

func buildCDSEMBend180(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	width, err := p.Float("width")
	if err != nil {
		return err
	}
	r, err := p.Float("radius")
	if err != nil {
		return err
	}
	length, err := p.FloatOr("wg_length", 2*r)
	if err != nil {
		return err
	}

	bend, err := resolveWith(lib, p, "bend90", pcell.Params{
		"cross_section": p["cross_section"], "radius": r, "width": width,
	})
	if err != nil {
		return err
	}
	wg, err := resolveWith(lib, p, "straight", pcell.Params{
		"cross_section": p["cross_section"], "length": length, "width": width,
	})
	if err != nil {
		return err
	}
	label, err := resolveWith(lib, p, "text", pcell.Params{
		"text": fmt.Sprint(int(math.Round(width * 1e3))),
	})
	if err != nil {
		return err
	}

	inner := component.NewBuilder(b.Name() + "_unrotated")
	b1 := inner.AddRef(bend)
	b2 := inner.AddRef(bend)
	if err := b2.ConnectTo("o2", b1, "o1"); err != nil {
		return err
	}
	wg1 := inner.AddRef(wg)
	if err := wg1.ConnectTo("o1", b1, "o2"); err != nil {
		return err
	}
	wg2 := inner.AddRef(wg)
	if err := wg2.ConnectTo("o1", b2, "o1"); err != nil {
		return err
	}
	text := inner.AddRef(label)
	text.SetYMax(b2.BBox().Min.Y - 5)
	text.SetX(0)
	unrotated, err := inner.Build()
	if err != nil {
		return err
	}

	rot := geometry.Rotation(90)
	polys := unrotated.GetPolygons()
	for _, layer := range unrotated.Layers() {
		for _, poly := range polys[layer] {
			if err := b.AddPolygon(layer, poly.Transform(rot)); err != nil {
				return err
			}
		}
	}
	b.SetInfo("width", width)
	return nil
}

// CohTxSinglePol is a single-polarization coherent transmitter: a splitter
// feeding I and Q phase-shifter arms that recombine in a mirrored combiner.
func CohTxSinglePol() *pcell.Cell {
	return &pcell.Cell{
		Name: "coh_tx_single_pol",
		Doc:  "Single-polarization coherent transmitter.",
		Defaults: pcell.Params{
			"splitter":      "mmi1x2",
			"combiner":      "mmi1x2",
			"phase_shifter": "straight_heater_metal",
			"mzm_length":    100.0,
			"yspacing":      50.0,
			"xspacing":      40.0,
			"cross_section": nil,
		},
		Build: buildCohTxSinglePol,
	}
}

func routeOptions(p pcell.Params) route.Options {
	return route.Options{CrossSection: p["cross_section"], WithSBend: false}
}

// connectRoute routes a to z and adopts the route into b.
func connectRoute(b *component.Builder, lib *pcell.Library, a, z component.Port, opts route.Options) error {
	r, err := route.Single(lib, a, z, opts)
	if err != nil {
		return err
	}
	return b.AddRoute(r)
}

func buildCohTxSinglePol(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	ys, err := p.Float("yspacing")
	if err != nil {
		return err
	}
	xsp, err := p.Float("xspacing")
	if err != nil {
		return err
	}
	mzm, err := p.Float("mzm_length")
	if err != nil {
		return err
	}
	splitter, err := resolveWith(lib, p, "splitter", nil)
	if err != nil {
		return err
	}
	combiner, err := resolveWith(lib, p, "combiner", nil)
	if err != nil {
		return err
	}
	shifter, err := resolveWith(lib, p, "phase_shifter", pcell.Params{"length": mzm})
	if err != nil {
		return err
	}

	sp := b.AddRef(splitter, "splitter")
	x := sp.BBox().Max.X + xsp
	iArm := b.AddRef(shifter, "i_arm")
	if err := iArm.MovePort("o1", geometry.Pt(x, ys/2)); err != nil {
		return err
	}
	qArm := b.AddRef(shifter, "q_arm")
	if err := qArm.MovePort("o1", geometry.Pt(x, -ys/2)); err != nil {
		return err
	}
	comb := b.AddRef(combiner, "combiner").MirrorY()
	xc := iArm.MustPort("o2").Center.X + xsp
	if err := comb.MovePort("o2", geometry.Pt(xc, comb.MustPort("o2").Center.Y)); err != nil {
		return err
	}

	opts := routeOptions(p)
	links := [][2]component.Port{
		{sp.MustPort("o2"), iArm.MustPort("o1")},
		{sp.MustPort("o3"), qArm.MustPort("o1")},
		{iArm.MustPort("o2"), comb.MustPort("o2")},
		{qArm.MustPort("o2"), comb.MustPort("o3")},
	}
	for _, l := range links {
		if err := connectRoute(b, lib, l[0], l[1], opts); err != nil {
			return err
		}
	}

	if err := addPorts(b,
		sp.MustPort("o1").Renamed("o1"),
		comb.MustPort("o1").Renamed("o2"),
	); err != nil {
		return err
	}
	electrical := component.PortFilter{Type: tech.PortElectrical}
	if err := b.AddPorts(iArm.PortsList(electrical), "i_"); err != nil {
		return err
	}
	return b.AddPorts(qArm.PortsList(electrical), "q_")
}

// CohTxDualPol combines two single-polarization transmitters behind a
// common splitter, with an optional combiner and optional input and
// output couplers.
func CohTxDualPol() *pcell.Cell {
	return &pcell.Cell{
		Name: "coh_tx_dual_pol",
		Doc:  "Dual-polarization coherent transmitter.",
		Defaults: pcell.Params{
			"splitter":       "mmi1x2",
			"combiner":       nil,
			"spol_coh_tx":    "coh_tx_single_pol",
			"yspacing":       10.0,
			"xspacing":       40.0,
			"input_coupler":  nil,
			"output_coupler": nil,
			"cross_section":  nil,
		},
		Build: buildCohTxDualPol,
	}
}

func buildCohTxDualPol(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	ys, err := p.Float("yspacing")
	if err != nil {
		return err
	}
	xsp, err := p.Float("xspacing")
	if err != nil {
		return err
	}
	spol, err := resolveWith(lib, p, "spol_coh_tx", nil)
	if err != nil {
		return err
	}
	splitter, err := resolveWith(lib, p, "splitter", nil)
	if err != nil {
		return err
	}
	opts := routeOptions(p)

	tx1 := b.AddRef(spol, "pol1")
	tx2 := b.AddRef(spol, "pol2")
	tx2.Move(0, tx1.BBox().Min.Y-ys-tx2.BBox().Max.Y)

	sp := b.AddRef(splitter, "splitter")
	sp.SetX(tx1.BBox().Min.X - xsp)
	sp.SetY((tx1.MustPort("o1").Center.Y + tx2.MustPort("o1").Center.Y) / 2)
	if err := connectRoute(b, lib, sp.MustPort("o2"), tx1.MustPort("o1"), opts); err != nil {
		return err
	}
	if err := connectRoute(b, lib, sp.MustPort("o3"), tx2.MustPort("o1"), opts); err != nil {
		return err
	}

	var comb *component.Reference
	if p.Has("combiner") {
		combiner, err := resolveWith(lib, p, "combiner", nil)
		if err != nil {
			return err
		}
		comb = b.AddRef(combiner, "combiner").MirrorY()
		comb.SetX(tx1.BBox().Max.X + xsp)
		comb.SetY((tx1.MustPort("o2").Center.Y + tx2.MustPort("o2").Center.Y) / 2)
		if err := connectRoute(b, lib, tx1.MustPort("o2"), comb.MustPort("o2"), opts); err != nil {
			return err
		}
		if err := connectRoute(b, lib, tx2.MustPort("o2"), comb.MustPort("o3"), opts); err != nil {
			return err
		}
	}

	if p.Has("input_coupler") {
		coupler, err := resolveWith(lib, p, "input_coupler", nil)
		if err != nil {
			return err
		}
		in := b.AddRef(coupler, "input_coupler")
		if err := in.ConnectTo("o1", sp, "o1"); err != nil {
			return err
		}
	} else if err := b.AddPort(sp.MustPort("o1").Renamed("o1")); err != nil {
		return err
	}

	switch {
	case p.Has("output_coupler"):
		coupler, err := resolveWith(lib, p, "output_coupler", nil)
		if err != nil {
			return err
		}
		out := b.AddRef(coupler, "output_coupler")
		if comb != nil {
			if err := out.ConnectTo("o1", comb, "o1"); err != nil {
				return err
			}
			break
		}
		// Without a combiner the coupler takes both branches on o1 and o2.
		out.SetY((tx1.BBox().Center().Y + tx2.BBox().Center().Y) / 2)
		out.SetXMin(tx1.BBox().Max.X + xsp)
		if err := connectRoute(b, lib, tx1.MustPort("o2"), out.MustPort("o1"), opts); err != nil {
			return err
		}
		if err := connectRoute(b, lib, tx2.MustPort("o2"), out.MustPort("o2"), opts); err != nil {
			return err
		}
	case comb != nil:
		if err := b.AddPort(comb.MustPort("o1").Renamed("o2")); err != nil {
			return err
		}
	default:
		if err := addPorts(b,
			tx1.MustPort("o2").Renamed("o2"),
			tx2.MustPort("o2").Renamed("o3"),
		); err != nil {
			return err
		}
	}

	electrical := component.PortFilter{Type: tech.PortElectrical}
	if err := b.AddPorts(tx1.PortsList(electrical), "pol1_"); err != nil {
		return err
	}
	return b.AddPorts(tx2.PortsList(electrical), "pol2_")
}

// ExtendPorts places a component and lengthens selected ports with
// straight waveguides. Extended ports keep their names and move to the
// far end of the extension; other ports pass through unchanged.
func ExtendPorts() *pcell.Cell {
	return &pcell.Cell{
		Name: "extend_ports",
		Doc:  "Extend component ports with straights.",
		Defaults: pcell.Params{
			"component":     "straight",
			"length":        5.0,
			"port_names":    nil,
			"port_type":     string(tech.PortOptical),
			"cross_section": nil,
		},
		Build: buildExtendPorts,
	}
}

func buildExtendPorts(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	s, err := p.Spec("component")
	if err != nil {
		return err
	}
	c, err := lib.Resolve(s)
	if err != nil {
		return err
	}
	length, err := p.Float("length")
	if err != nil {
		return err
	}
	if !(length > 0) {
		return errors.Geometry("extension length must be positive, got %g", length)
	}
	pt, err := portType(p, "port_type")
	if err != nil {
		return err
	}
	var names []string
	if p.Has("port_names") {
		if names, err = p.Strings("port_names"); err != nil {
			return err
		}
		for _, n := range names {
			if !c.HasPort(n) {
				return errors.New(errors.ErrCodePortNotFound, "%s has no port %q", c.Name(), n)
			}
		}
	}
	base, err := lib.CrossSection(p["cross_section"])
	if err != nil {
		return err
	}

	ref := b.AddRef(c)
	for _, port := range ref.Ports() {
		selected := port.Type() == pt && (names == nil || slices.Contains(names, port.Name))
		if !selected {
			if err := b.AddPort(port); err != nil {
				return err
			}
			continue
		}
		xs := base.WithWidth(port.Width)
		if !p.Has("cross_section") {
			xs.Layer = port.Layer
			xs.PortType = port.Type()
			xs.Cladding = nil
		}
		ext, err := lib.Get("straight", pcell.Params{"length": length, "cross_section": xs})
		if err != nil {
			return err
		}
		er := b.AddRef(ext)
		if err := er.Connect("o1", port); err != nil {
			return err
		}
		if err := b.AddPort(er.MustPort("o2").Renamed(port.Name)); err != nil {
			return err
		}
	}
	return nil
}
