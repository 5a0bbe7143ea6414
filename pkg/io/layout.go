package io

import (
	"sort"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// Layout is the exported form of a component hierarchy.
type Layout struct {
	Top   string `json:"top" bson:"top"`
	Cells []Cell `json:"cells" bson:"cells"`
}

// Cell is one component of a layout.
type Cell struct {
	Name       string         `json:"name" bson:"name"`
	Polygons   []LayerShapes  `json:"polygons,omitempty" bson:"polygons,omitempty"`
	Ports      []Port         `json:"ports,omitempty" bson:"ports,omitempty"`
	References []Reference    `json:"references,omitempty" bson:"references,omitempty"`
	Info       map[string]any `json:"info,omitempty" bson:"info,omitempty"`
	Settings   map[string]any `json:"settings,omitempty" bson:"settings,omitempty"`
}

// LayerShapes holds the polygons a cell draws on one layer.
type LayerShapes struct {
	Layer    string         `json:"layer" bson:"layer"`
	Polygons [][][2]float64 `json:"polygons" bson:"polygons"`
}

// Port is an exported port.
type Port struct {
	Name        string     `json:"name" bson:"name"`
	Center      [2]float64 `json:"center" bson:"center"`
	Orientation float64    `json:"orientation" bson:"orientation"`
	Width       float64    `json:"width" bson:"width"`
	Layer       string     `json:"layer" bson:"layer"`
	PortType    string     `json:"port_type,omitempty" bson:"port_type,omitempty"`
}

// Reference places a cell defined earlier in the layout.
type Reference struct {
	Name      string    `json:"name" bson:"name"`
	Cell      string    `json:"cell" bson:"cell"`
	Transform Transform `json:"transform" bson:"transform"`
}

// Transform mirrors across x, rotates, then translates.
type Transform struct {
	Translation [2]float64 `json:"translation" bson:"translation"`
	Rotation    float64    `json:"rotation,omitempty" bson:"rotation,omitempty"`
	Mirror      bool       `json:"mirror,omitempty" bson:"mirror,omitempty"`
}

// FromComponent converts c and its whole hierarchy.
func FromComponent(c *component.Component) Layout {
	hier := c.Hierarchy()
	out := Layout{Top: c.Name(), Cells: make([]Cell, len(hier))}
	for i, x := range hier {
		out.Cells[i] = fromCell(x)
	}
	return out
}

func fromCell(c *component.Component) Cell {
	cell := Cell{Name: c.Name()}
	polys := c.Polygons()
	for _, l := range sortedLayers(polys) {
		cell.Polygons = append(cell.Polygons, LayerShapes{Layer: l.String(), Polygons: points(polys[l])})
	}
	for _, p := range c.Ports() {
		cell.Ports = append(cell.Ports, Port{
			Name:        p.Name,
			Center:      [2]float64{p.Center.X, p.Center.Y},
			Orientation: p.Orientation,
			Width:       p.Width,
			Layer:       p.Layer.String(),
			PortType:    string(p.PortType),
		})
	}
	for _, r := range c.References() {
		t := r.Transform()
		cell.References = append(cell.References, Reference{
			Name: r.Name(),
			Cell: r.Component().Name(),
			Transform: Transform{
				Translation: [2]float64{t.Translation.X, t.Translation.Y},
				Rotation:    t.Rotation,
				Mirror:      t.Mirror,
			},
		})
	}
	if info := c.Info(); len(info) > 0 {
		cell.Info = info
	}
	if s := c.Settings(); len(s) > 0 {
		cell.Settings = s
	}
	return cell
}

// Component rebuilds the locked component hierarchy described by l.
func (l Layout) Component() (*component.Component, error) {
	built := make(map[string]*component.Component, len(l.Cells))
	for _, cell := range l.Cells {
		if _, dup := built[cell.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "layout defines cell %s twice", cell.Name)
		}
		c, err := cell.build(built)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "cell %s", cell.Name)
		}
		built[cell.Name] = c
	}
	top, ok := built[l.Top]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "layout top cell %q is not defined", l.Top)
	}
	return top, nil
}

func (cell Cell) build(built map[string]*component.Component) (*component.Component, error) {
	if err := errors.ValidateCellName(cell.Name); err != nil {
		return nil, err
	}
	b := component.NewBuilder(cell.Name)
	for _, shapes := range cell.Polygons {
		layer, err := tech.ParseLayer(shapes.Layer)
		if err != nil {
			return nil, err
		}
		for _, pts := range shapes.Polygons {
			poly := make(geometry.Polygon, len(pts))
			for i, p := range pts {
				poly[i] = geometry.Pt(p[0], p[1])
			}
			if err := b.AddPolygon(layer, poly); err != nil {
				return nil, err
			}
		}
	}
	for _, ref := range cell.References {
		child, ok := built[ref.Cell]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "reference %s to %s before its definition", ref.Name, ref.Cell)
		}
		t := ref.Transform
		b.AddRef(child, ref.Name).SetTransform(geometry.Transform{
			Translation: geometry.Pt(t.Translation[0], t.Translation[1]),
			Rotation:    t.Rotation,
			Mirror:      t.Mirror,
		})
	}
	for _, p := range cell.Ports {
		layer, err := tech.ParseLayer(p.Layer)
		if err != nil {
			return nil, err
		}
		port := component.NewPort(p.Name, geometry.Pt(p.Center[0], p.Center[1]), p.Orientation, p.Width, layer)
		if p.PortType != "" {
			port.PortType = tech.PortType(p.PortType)
		}
		if err := b.AddPort(port); err != nil {
			return nil, err
		}
	}
	for k, v := range cell.Info {
		b.SetInfo(k, v)
	}
	b.SetSettings(cell.Settings)
	return b.Build()
}

func sortedLayers(m map[tech.LayerID][]geometry.Polygon) []tech.LayerID {
	layers := make([]tech.LayerID, 0, len(m))
	for l := range m {
		layers = append(layers, l)
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i].Less(layers[j]) })
	return layers
}

func points(polys []geometry.Polygon) [][][2]float64 {
	out := make([][][2]float64, len(polys))
	for i, p := range polys {
		out[i] = make([][2]float64, len(p))
		for j, v := range p {
			out[i][j] = [2]float64{v.X, v.Y}
		}
	}
	return out
}
