package tech

import (
	"github.com/matzehuels/pcellkit/pkg/errors"
)

// PortType classifies what a port carries.
type PortType string

const (
	PortOptical    PortType = "optical"
	PortElectrical PortType = "electrical"
	PortPlacement  PortType = "placement"
)

// Valid reports whether t is one of the known port types.
func (t PortType) Valid() bool {
	switch t {
	case PortOptical, PortElectrical, PortPlacement:
		return true
	}
	return false
}

// Cladding is an extra band drawn around the core on another layer.
// The band is Offset wider than the core on each side.
type Cladding struct {
	Layer  LayerID `json:"layer"`
	Offset float64 `json:"offset"`
}

// CrossSection describes the profile of a waveguide or metal trace and the
// routing rules that go with it. It is a value type; modifiers return copies.
type CrossSection struct {
	Name        string     `json:"name"`
	Width       float64    `json:"width"`
	Layer       LayerID    `json:"layer"`
	Cladding    []Cladding `json:"cladding,omitempty"`
	Radius      float64    `json:"radius"`
	RadiusMin   float64    `json:"radius_min"`
	Spacing     float64    `json:"spacing"`
	TaperLength float64    `json:"taper_length"`
	PortType    PortType   `json:"port_type"`
}

// Validate checks the cross-section's numeric rules.
func (xs CrossSection) Validate() error {
	if !(xs.Width > 0) {
		return errors.Geometry("cross-section %q: width must be positive, got %g", xs.Name, xs.Width)
	}
	if xs.Radius < 0 || xs.RadiusMin < 0 {
		return errors.Geometry("cross-section %q: negative bend radius", xs.Name)
	}
	if xs.Radius > 0 && xs.RadiusMin > xs.Radius {
		return errors.Geometry("cross-section %q: radius_min %g exceeds radius %g", xs.Name, xs.RadiusMin, xs.Radius)
	}
	if xs.Spacing < 0 || xs.TaperLength < 0 {
		return errors.Geometry("cross-section %q: negative spacing or taper length", xs.Name)
	}
	for _, c := range xs.Cladding {
		if c.Offset < 0 {
			return errors.Geometry("cross-section %q: negative cladding offset on %s", xs.Name, c.Layer)
		}
	}
	if xs.PortType != "" && !xs.PortType.Valid() {
		return errors.Geometry("cross-section %q: unknown port type %q", xs.Name, xs.PortType)
	}
	return nil
}

// WithWidth returns a copy with a different core width.
func (xs CrossSection) WithWidth(w float64) CrossSection {
	xs.Width = w
	xs.Cladding = append([]Cladding(nil), xs.Cladding...)
	return xs
}

// WithRadius returns a copy with a different default bend radius. The
// minimum radius is left untouched.
func (xs CrossSection) WithRadius(r float64) CrossSection {
	xs.Radius = r
	xs.Cladding = append([]Cladding(nil), xs.Cladding...)
	return xs
}

// Pitch returns the center-to-center distance of two parallel traces with
// the given separation, or the cross-section's spacing rule when separation
// is zero.
func (xs CrossSection) Pitch(separation float64) float64 {
	if separation <= 0 {
		separation = xs.Spacing
	}
	return xs.Width + separation
}

// Type returns the port type, defaulting to optical.
func (xs CrossSection) Type() PortType {
	if xs.PortType == "" {
		return PortOptical
	}
	return xs.PortType
}
