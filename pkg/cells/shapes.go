package cells

import (
	"fmt"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/fonts"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// portPrefix is the conventional port name prefix per port type.
var portPrefix = map[tech.PortType]string{
	tech.PortOptical:    "o",
	tech.PortElectrical: "e",
	tech.PortPlacement:  "p",
}

func portType(p pcell.Params, key string) (tech.PortType, error) {
	s, err := p.String(key)
	if err != nil {
		return "", err
	}
	t := tech.PortType(s)
	if !t.Valid() {
		return "", errors.New(errors.ErrCodeInvalidParams, "unknown port type %q", s)
	}
	return t, nil
}

func size2(p pcell.Params, key string) (float64, float64, error) {
	v, err := p.Floats(key)
	if err != nil {
		return 0, 0, err
	}
	if len(v) != 2 {
		return 0, 0, errors.New(errors.ErrCodeInvalidParams, "%s must have two values, got %v", key, v)
	}
	if !(v[0] > 0) || !(v[1] > 0) {
		return 0, 0, errors.Geometry("%s must be positive, got %v", key, v)
	}
	return v[0], v[1], nil
}

// Rectangle is a filled box with one port on the middle of each side,
// numbered clockwise from the west side.
func Rectangle() *pcell.Cell {
	return &pcell.Cell{
		Name: "rectangle",
		Doc:  "Rectangle with a port on each side.",
		Defaults: pcell.Params{
			"size":      []any{4.0, 2.0},
			"layer":     tech.LayerWG,
			"centered":  false,
			"port_type": string(tech.PortElectrical),
		},
		Build: buildRectangle,
	}
}

func buildRectangle(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	w, h, err := size2(p, "size")
	if err != nil {
		return err
	}
	layer, err := lib.Layer(p["layer"])
	if err != nil {
		return err
	}
	centered, err := p.Bool("centered")
	if err != nil {
		return err
	}
	pt, err := portType(p, "port_type")
	if err != nil {
		return err
	}
	lo := geometry.Pt(0, 0)
	if centered {
		lo = geometry.Pt(-w/2, -h/2)
	}
	hi := geometry.Pt(lo.X+w, lo.Y+h)
	if err := b.AddRect(layer, lo, hi); err != nil {
		return err
	}
	cx, cy := lo.X+w/2, lo.Y+h/2
	prefix := portPrefix[pt]
	sides := []struct {
		center geometry.Point
		orient float64
		width  float64
	}{
		{geometry.Pt(lo.X, cy), 180, h},
		{geometry.Pt(cx, hi.Y), 90, w},
		{geometry.Pt(hi.X, cy), 0, h},
		{geometry.Pt(cx, lo.Y), 270, w},
	}
	for i, s := range sides {
		port := component.Port{
			Name:        fmt.Sprintf("%s%d", prefix, i+1),
			Center:      s.center,
			Orientation: s.orient,
			Width:       s.width,
			Layer:       layer,
			PortType:    pt,
		}
		if err := b.AddPort(port); err != nil {
			return err
		}
	}
	return nil
}

// NxN is a box with waveguide ports on every side. Ports are numbered
// clockwise starting at the bottom of the west side.
func NxN() *pcell.Cell {
	return &pcell.Cell{
		Name: "nxn",
		Doc:  "Box with N ports per side.",
		Defaults: pcell.Params{
			"west":          1,
			"east":          4,
			"north":         0,
			"south":         0,
			"xsize":         8.0,
			"ysize":         8.0,
			"wg_width":      0.5,
			"wg_margin":     1.0,
			"layer":         tech.LayerWG,
			"cross_section": nil,
		},
		Build: buildNxN,
	}
}

// spread places n points along [0, size]: one in the middle, or evenly
// between the margins.
func spread(n int, size, margin float64) []float64 {
	if n == 1 {
		return []float64{size / 2}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = margin + (size-2*margin)*float64(i)/float64(n-1)
	}
	return out
}

func buildNxN(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	counts := make(map[string]int, 4)
	for _, side := range []string{"west", "north", "east", "south"} {
		n, err := p.Int(side)
		if err != nil {
			return err
		}
		if n < 0 {
			return errors.New(errors.ErrCodeInvalidParams, "%s must not be negative, got %d", side, n)
		}
		counts[side] = n
	}
	xsize, err := p.Float("xsize")
	if err != nil {
		return err
	}
	ysize, err := p.Float("ysize")
	if err != nil {
		return err
	}
	width, err := p.Float("wg_width")
	if err != nil {
		return err
	}
	margin, err := p.Float("wg_margin")
	if err != nil {
		return err
	}
	layer, err := lib.Layer(p["layer"])
	if err != nil {
		return err
	}
	pt := tech.PortOptical
	if p.Has("cross_section") {
		xs, err := lib.CrossSection(p["cross_section"])
		if err != nil {
			return err
		}
		pt = xs.Type()
	}
	if err := b.AddRect(layer, geometry.Pt(0, 0), geometry.Pt(xsize, ysize)); err != nil {
		return err
	}

	var ports []component.Port
	add := func(x, y, orient float64) {
		ports = append(ports, component.Port{
			Center:      geometry.Pt(x, y),
			Orientation: orient,
			Width:       width,
			Layer:       layer,
			PortType:    pt,
		})
	}
	if n := counts["west"]; n > 0 {
		for _, y := range spread(n, ysize, margin) {
			add(0, y, 180)
		}
	}
	if n := counts["north"]; n > 0 {
		for _, x := range spread(n, xsize, margin) {
			add(x, ysize, 90)
		}
	}
	if n := counts["east"]; n > 0 {
		ys := spread(n, ysize, margin)
		for i := len(ys) - 1; i >= 0; i-- {
			add(xsize, ys[i], 0)
		}
	}
	if n := counts["south"]; n > 0 {
		xs := spread(n, xsize, margin)
		for i := len(xs) - 1; i >= 0; i-- {
			add(xs[i], 0, 270)
		}
	}
	prefix := portPrefix[pt]
	for i := range ports {
		ports[i].Name = fmt.Sprintf("%s%d", prefix, i+1)
		if err := b.AddPort(ports[i]); err != nil {
			return err
		}
	}
	return nil
}

// MMI1x2 is a 1x2 multimode interference splitter: one tapered input on
// the west side, two tapered outputs on the east side.
func MMI1x2() *pcell.Cell {
	return &pcell.Cell{
		Name: "mmi1x2",
		Doc:  "1x2 MMI splitter.",
		Defaults: pcell.Params{
			"width":         nil,
			"width_taper":   1.0,
			"length_taper":  10.0,
			"length_mmi":    5.5,
			"width_mmi":     2.5,
			"gap_mmi":       0.25,
			"cross_section": nil,
		},
		Build: buildMMI1x2,
	}
}

func buildMMI1x2(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	xs, err := crossSection(lib, p)
	if err != nil {
		return err
	}
	wt, err := p.Float("width_taper")
	if err != nil {
		return err
	}
	lt, err := p.Float("length_taper")
	if err != nil {
		return err
	}
	lm, err := p.Float("length_mmi")
	if err != nil {
		return err
	}
	wm, err := p.Float("width_mmi")
	if err != nil {
		return err
	}
	gap, err := p.Float("gap_mmi")
	if err != nil {
		return err
	}
	if !(lm > 0) || !(wm > 0) {
		return errors.Geometry("mmi body must have positive size, got %g x %g", lm, wm)
	}
	yOut := gap/2 + wt/2
	if yOut+wt/2 > wm/2+geometry.Tolerance {
		return errors.Geometry("mmi outputs (%g apart) do not fit a %g wide body", 2*yOut, wm)
	}

	if err := b.AddRect(xs.Layer, geometry.Pt(0, -wm/2), geometry.Pt(lm, wm/2)); err != nil {
		return err
	}
	for _, cl := range xs.Cladding {
		if err := b.AddRect(cl.Layer, geometry.Pt(0, -wm/2-cl.Offset), geometry.Pt(lm, wm/2+cl.Offset)); err != nil {
			return err
		}
	}

	in, err := lib.Get("taper", pcell.Params{
		"length": lt, "width1": xs.Width, "width2": wt, "cross_section": xs,
	})
	if err != nil {
		return err
	}
	out, err := lib.Get("taper", pcell.Params{
		"length": lt, "width1": wt, "width2": xs.Width, "cross_section": xs,
	})
	if err != nil {
		return err
	}

	edge := func(y, orient float64) component.Port {
		return xsPort("edge", geometry.Pt(0, y), orient, xs.WithWidth(wt))
	}
	tin := b.AddRef(in)
	if err := tin.Connect("o2", edge(0, 180)); err != nil {
		return err
	}
	top, bot := edge(yOut, 0), edge(-yOut, 0)
	top.Center.X, bot.Center.X = lm, lm
	ttop := b.AddRef(out)
	if err := ttop.Connect("o1", top); err != nil {
		return err
	}
	tbot := b.AddRef(out)
	if err := tbot.Connect("o1", bot); err != nil {
		return err
	}

	b.SetInfo("length", lm+2*lt)
	return addPorts(b,
		tin.MustPort("o1").Renamed("o1"),
		ttop.MustPort("o2").Renamed("o2"),
		tbot.MustPort("o2").Renamed("o3"),
	)
}

// TextRectangular renders text with the embedded pixel font. Each pixel is
// a size x size square; glyphs advance by four pixels.
func TextRectangular() *pcell.Cell {
	return &pcell.Cell{
		Name: "text_rectangular",
		Doc:  "Pixel-font text.",
		Defaults: pcell.Params{
			"text":    "abcd",
			"size":    10.0,
			"layer":   tech.LayerWG,
			"justify": "left",
		},
		Build: buildTextRectangular,
	}
}

func buildTextRectangular(b *component.Builder, lib *pcell.Library, p pcell.Params) error {
	text, err := p.String("text")
	if err != nil {
		return err
	}
	size, err := p.Float("size")
	if err != nil {
		return err
	}
	if !(size > 0) {
		return errors.Geometry("text pixel size must be positive, got %g", size)
	}
	layer, err := lib.Layer(p["layer"])
	if err != nil {
		return err
	}
	justify, err := p.String("justify")
	if err != nil {
		return err
	}

	const advance = fonts.GlyphWidth + 1
	chars := []rune(text)
	if len(chars) == 0 {
		return errors.New(errors.ErrCodeInvalidParams, "text must not be empty")
	}
	total := (float64(len(chars)*advance) - 1) * size
	var x0 float64
	switch justify {
	case "left":
	case "center":
		x0 = -total / 2
	case "right":
		x0 = -total
	default:
		return errors.New(errors.ErrCodeInvalidParams, "justify must be left, center or right, got %q", justify)
	}

	for i, ch := range chars {
		g, ok := fonts.Lookup(ch)
		if !ok {
			return errors.New(errors.ErrCodeInvalidParams, "no glyph for %q", ch)
		}
		gx := x0 + float64(i*advance)*size
		for r := 0; r < fonts.GlyphHeight; r++ {
			y := float64(fonts.GlyphHeight-1-r) * size
			for _, run := range g.Runs(r) {
				lo := geometry.Pt(gx+float64(run[0])*size, y)
				hi := geometry.Pt(gx+float64(run[1])*size, y+size)
				if err := b.AddRect(layer, lo, hi); err != nil {
					return err
				}
			}
		}
	}
	b.SetInfo("text", text)
	return nil
}
