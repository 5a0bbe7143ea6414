package tech

// Layer names defined by the generic PDK.
const (
	LayerWG        = "WG"
	LayerSlab      = "SLAB"
	LayerClad      = "WGCLAD"
	LayerHeater    = "HEATER"
	LayerM1        = "M1"
	LayerM2        = "M2"
	LayerMTop      = "MTOP"
	LayerText      = "TEXT"
	LayerFloorplan = "FLOORPLAN"
)

// Cross-section names defined by the generic PDK.
const (
	XSStrip        = "strip"
	XSStripClad    = "strip_clad"
	XSRib          = "rib"
	XSMetalRouting = "metal_routing"
	XSHeaterMetal  = "heater_metal"
)

// GenericPDK returns a fresh copy of the built-in generic silicon photonics
// technology. Callers may modify the returned value.
func GenericPDK() *PDK {
	f := pdkFile{
		Name: "generic",
		Layers: map[string]string{
			LayerWG:        "1/0",
			LayerSlab:      "3/0",
			LayerClad:      "111/0",
			LayerHeater:    "47/0",
			LayerM1:        "41/0",
			LayerM2:        "45/0",
			LayerMTop:      "49/0",
			LayerText:      "66/0",
			LayerFloorplan: "64/0",
		},
		LayerStack: map[string]stackEntry{
			"box":    {Layer: LayerFloorplan, Thickness: 3, ZMin: -3, Material: "sio2"},
			"core":   {Layer: LayerWG, Thickness: 0.22, ZMin: 0, Material: "si"},
			"slab90": {Layer: LayerSlab, Thickness: 0.09, ZMin: 0, Material: "si"},
			"heater": {Layer: LayerHeater, Thickness: 0.75, ZMin: 1.1, Material: "TiN"},
			"metal1": {Layer: LayerM1, Thickness: 0.7, ZMin: 2.2, Material: "Aluminum"},
			"metal2": {Layer: LayerM2, Thickness: 0.7, ZMin: 3.2, Material: "Aluminum"},
			"metal3": {Layer: LayerMTop, Thickness: 2, ZMin: 4.4, Material: "Aluminum"},
		},
		CrossSections: map[string]xsEntry{
			XSStrip: {
				Width: 0.5, Layer: LayerWG, Radius: 10, RadiusMin: 5, Spacing: 3, TaperLength: 10,
			},
			XSStripClad: {
				Width: 0.5, Layer: LayerWG, Radius: 10, RadiusMin: 5, Spacing: 3, TaperLength: 10,
				Cladding: []claddingEntry{{Layer: LayerClad, Offset: 3}},
			},
			XSRib: {
				Width: 0.5, Layer: LayerWG, Radius: 20, RadiusMin: 10, Spacing: 3, TaperLength: 10,
				Cladding: []claddingEntry{{Layer: LayerSlab, Offset: 2.5}},
			},
			XSMetalRouting: {
				Width: 10, Layer: LayerMTop, Radius: 10, Spacing: 10, PortType: string(PortElectrical),
			},
			XSHeaterMetal: {
				Width: 2.5, Layer: LayerHeater, Radius: 5, Spacing: 5, PortType: string(PortElectrical),
			},
		},
		Routing: RoutingDefaults{CrossSection: XSStrip, Bend: "bend_euler"},
	}
	p, err := f.build()
	if err != nil {
		panic("generic PDK is invalid: " + err.Error())
	}
	return p
}
