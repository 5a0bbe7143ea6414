package route

import (
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// Slack says where a route puts length beyond the minimum needed for its
// bends.
type Slack int

const (
	// SlackMiddle spreads extra length evenly over the segments that can
	// take it.
	SlackMiddle Slack = iota
	// SlackStart puts extra length on the earliest segment.
	SlackStart
	// SlackEnd puts extra length on the latest segment.
	SlackEnd
)

// Options configures the router. The zero value routes with the PDK's
// default cross-section, its default bend and radius, and no S-bends.
type Options struct {
	// CrossSection is a cross-section name, a tech.CrossSection, or nil for
	// the PDK routing default.
	CrossSection any

	// Radius overrides the cross-section's bend radius when positive.
	Radius float64

	// Bend is the bend cell, "bend_euler" unless the PDK says otherwise.
	Bend string

	// Straight is the straight cell, "straight" by default.
	Straight string

	// WithSBend allows an S-bend when two facing ports are offset by less
	// than a bend diameter.
	WithSBend bool

	// AutoTaper inserts tapers at either end when a port is narrower or
	// wider than the cross-section.
	AutoTaper bool

	// Separation is the edge-to-edge gap between bundled routes; zero uses
	// the cross-section spacing rule.
	Separation float64

	// SortPorts pairs bundle ports by position instead of by index.
	SortPorts bool

	Slack Slack
}

// router holds resolved options.
type router struct {
	lib       *pcell.Library
	xs        tech.CrossSection
	radius    float64
	bend      string
	straight  string
	withSBend bool
	autoTaper bool
	pitch     float64
	slack     Slack
	sortPorts bool
}

func newRouter(lib *pcell.Library, o Options) (*router, error) {
	xs, err := lib.CrossSection(o.CrossSection)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRouting, err, "routing cross-section")
	}
	r := &router{
		lib:       lib,
		xs:        xs,
		radius:    o.Radius,
		bend:      o.Bend,
		straight:  o.Straight,
		withSBend: o.WithSBend || lib.PDK().Routing.WithSBend,
		autoTaper: o.AutoTaper,
		pitch:     xs.Pitch(o.Separation),
		slack:     o.Slack,
		sortPorts: o.SortPorts,
	}
	if r.radius <= 0 {
		r.radius = xs.Radius
	}
	if !(r.radius > 0) {
		return nil, errors.Routing("cross-section %q has no bend radius", xs.Name)
	}
	if r.radius < xs.RadiusMin-geometry.Tolerance {
		return nil, errors.Routing("radius %g is below the minimum %g of cross-section %q", r.radius, xs.RadiusMin, xs.Name)
	}
	if r.bend == "" {
		r.bend = lib.PDK().Routing.Bend
	}
	if r.bend == "" {
		r.bend = "bend_euler"
	}
	if r.straight == "" {
		r.straight = "straight"
	}
	return r, nil
}
