package tech

import (
	"io"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pcellkit/pkg/errors"
)

// RoutingDefaults are the technology's default routing choices.
type RoutingDefaults struct {
	CrossSection string `toml:"cross_section" json:"cross_section"`
	Bend         string `toml:"bend" json:"bend"`
	WithSBend    bool   `toml:"with_sbend" json:"with_sbend"`
}

// PDK is a process design kit: named layers, a layer stack, cross-sections
// and routing defaults. A PDK is read-only after construction.
type PDK struct {
	Name          string
	Layers        map[string]LayerID
	Stack         LayerStack
	CrossSections map[string]CrossSection
	Routing       RoutingDefaults

	overlap map[LayerID]bool
}

// Layer looks up a layer by name. Literal "layer/datatype" strings are
// accepted as well.
func (p *PDK) Layer(name string) (LayerID, error) {
	if l, ok := p.Layers[name]; ok {
		return l, nil
	}
	if l, err := ParseLayer(name); err == nil {
		return l, nil
	}
	return LayerID{}, errors.New(errors.ErrCodeNotFound, "unknown layer %q in PDK %s", name, p.Name)
}

// MustLayer is like Layer but panics on unknown names. Use it only with
// layers the PDK is known to define.
func (p *PDK) MustLayer(name string) LayerID {
	l, err := p.Layer(name)
	if err != nil {
		panic(err)
	}
	return l
}

// LayerName returns the name of a layer, or its numeric form.
func (p *PDK) LayerName(l LayerID) string {
	for _, name := range slices.Sorted(maps.Keys(p.Layers)) {
		if p.Layers[name] == l {
			return name
		}
	}
	return l.String()
}

// CrossSection looks up a cross-section by name.
func (p *PDK) CrossSection(name string) (CrossSection, error) {
	if name == "" {
		name = p.Routing.CrossSection
	}
	xs, ok := p.CrossSections[name]
	if !ok {
		return CrossSection{}, errors.New(errors.ErrCodeNotFound, "unknown cross-section %q in PDK %s", name, p.Name)
	}
	return xs, nil
}

// CrossSectionNames returns the sorted cross-section names.
func (p *PDK) CrossSectionNames() []string {
	return slices.Sorted(maps.Keys(p.CrossSections))
}

// OverlapAllowed reports whether polygons on l may intentionally overlap.
// Cladding layers always may.
func (p *PDK) OverlapAllowed(l LayerID) bool {
	return p.overlap[l]
}

// OverlapLayers returns the layers exempt from overlap checks, sorted.
func (p *PDK) OverlapLayers() []LayerID {
	out := slices.Collect(maps.Keys(p.overlap))
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// =============================================================================
// TOML loading
// =============================================================================

type pdkFile struct {
	Name          string                `toml:"name"`
	Layers        map[string]string     `toml:"layers"`
	LayerStack    map[string]stackEntry `toml:"layer_stack"`
	CrossSections map[string]xsEntry    `toml:"cross_sections"`
	Routing       RoutingDefaults       `toml:"routing"`
	AllowOverlap  []string              `toml:"allow_overlap"`
}

type stackEntry struct {
	Layer     string  `toml:"layer"`
	Thickness float64 `toml:"thickness"`
	ZMin      float64 `toml:"zmin"`
	Material  string  `toml:"material"`
}

type xsEntry struct {
	Width       float64         `toml:"width"`
	Layer       string          `toml:"layer"`
	Radius      float64         `toml:"radius"`
	RadiusMin   float64         `toml:"radius_min"`
	Spacing     float64         `toml:"spacing"`
	TaperLength float64         `toml:"taper_length"`
	PortType    string          `toml:"port_type,omitempty"`
	Cladding    []claddingEntry `toml:"cladding"`
}

type claddingEntry struct {
	Layer  string  `toml:"layer"`
	Offset float64 `toml:"offset"`
}

// LoadPDK reads a PDK definition from a TOML file.
func LoadPDK(path string) (*PDK, error) {
	var f pdkFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse PDK %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidFormat, "PDK %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return f.build()
}

// ReadPDK parses a PDK definition from TOML text.
func ReadPDK(r io.Reader) (*PDK, error) {
	var f pdkFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse PDK")
	}
	return f.build()
}

func (f pdkFile) build() (*PDK, error) {
	p := &PDK{
		Name:          f.Name,
		Layers:        make(map[string]LayerID, len(f.Layers)),
		CrossSections: make(map[string]CrossSection, len(f.CrossSections)),
		Routing:       f.Routing,
		overlap:       make(map[LayerID]bool),
	}
	if p.Name == "" {
		p.Name = "custom"
	}
	for name, s := range f.Layers {
		l, err := ParseLayer(s)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "layer %s", name)
		}
		p.Layers[name] = l
	}

	for name, e := range f.LayerStack {
		l, err := p.Layer(e.Layer)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "layer_stack.%s", name)
		}
		p.Stack = append(p.Stack, LayerLevel{Name: name, Layer: l, Thickness: e.Thickness, ZMin: e.ZMin, Material: e.Material})
	}
	sort.Slice(p.Stack, func(i, j int) bool {
		if p.Stack[i].ZMin != p.Stack[j].ZMin {
			return p.Stack[i].ZMin < p.Stack[j].ZMin
		}
		return p.Stack[i].Name < p.Stack[j].Name
	})

	for name, e := range f.CrossSections {
		xs, err := p.crossSection(name, e)
		if err != nil {
			return nil, err
		}
		p.CrossSections[name] = xs
	}

	for _, name := range f.AllowOverlap {
		l, err := p.Layer(name)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "allow_overlap")
		}
		p.overlap[l] = true
	}

	if p.Routing.Bend == "" {
		p.Routing.Bend = "bend_euler"
	}
	if p.Routing.CrossSection != "" {
		if _, ok := p.CrossSections[p.Routing.CrossSection]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "routing.cross_section %q is not defined", p.Routing.CrossSection)
		}
	}
	return p, nil
}

func (p *PDK) crossSection(name string, e xsEntry) (CrossSection, error) {
	l, err := p.Layer(e.Layer)
	if err != nil {
		return CrossSection{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "cross_sections.%s", name)
	}
	xs := CrossSection{
		Name:        name,
		Width:       e.Width,
		Layer:       l,
		Radius:      e.Radius,
		RadiusMin:   e.RadiusMin,
		Spacing:     e.Spacing,
		TaperLength: e.TaperLength,
		PortType:    PortType(e.PortType),
	}
	for _, c := range e.Cladding {
		cl, err := p.Layer(c.Layer)
		if err != nil {
			return CrossSection{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "cross_sections.%s.cladding", name)
		}
		xs.Cladding = append(xs.Cladding, Cladding{Layer: cl, Offset: c.Offset})
		p.overlap[cl] = true
	}
	if err := xs.Validate(); err != nil {
		return CrossSection{}, err
	}
	return xs, nil
}

// WriteTOML encodes the PDK in the same format LoadPDK reads.
func (p *PDK) WriteTOML(w io.Writer) error {
	f := pdkFile{
		Name:          p.Name,
		Layers:        make(map[string]string, len(p.Layers)),
		LayerStack:    make(map[string]stackEntry, len(p.Stack)),
		CrossSections: make(map[string]xsEntry, len(p.CrossSections)),
		Routing:       p.Routing,
	}
	for name, l := range p.Layers {
		f.Layers[name] = l.String()
	}
	for _, lv := range p.Stack {
		f.LayerStack[lv.Name] = stackEntry{Layer: p.LayerName(lv.Layer), Thickness: lv.Thickness, ZMin: lv.ZMin, Material: lv.Material}
	}
	for name, xs := range p.CrossSections {
		e := xsEntry{
			Width:       xs.Width,
			Layer:       p.LayerName(xs.Layer),
			Radius:      xs.Radius,
			RadiusMin:   xs.RadiusMin,
			Spacing:     xs.Spacing,
			TaperLength: xs.TaperLength,
			PortType:    string(xs.PortType),
		}
		for _, c := range xs.Cladding {
			e.Cladding = append(e.Cladding, claddingEntry{Layer: p.LayerName(c.Layer), Offset: c.Offset})
		}
		f.CrossSections[name] = e
	}
	for _, l := range p.OverlapLayers() {
		f.AllowOverlap = append(f.AllowOverlap, p.LayerName(l))
	}
	return toml.NewEncoder(w).Encode(f)
}
