// Package drc runs design-rule checks over locked components.
//
// Checks come in two tiers. Errors are layout defects: polygons on the same
// layer whose interiors intersect, and reference ports that coincide
// without facing each other at the same width. Warnings are advisory: a
// reference port that is neither connected nor exported.
package drc

import (
	"fmt"
	"math"
	"sort"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// Severity says whether a violation is blocking.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Rule names.
const (
	RuleOverlap      = "overlap"
	RuleConnectivity = "connectivity"
	RuleDangling     = "dangling_port"
)

// Violation is a single finding.
type Violation struct {
	Rule     string         `json:"rule"`
	Severity Severity       `json:"severity"`
	Cell     string         `json:"cell"`
	Layer    *tech.LayerID  `json:"layer,omitempty"`
	At       geometry.Point `json:"at"`
	Message  string         `json:"message"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("[%s] %s in %s at (%.3f, %.3f): %s", v.Severity, v.Rule, v.Cell, v.At.X, v.At.Y, v.Message)
}

// Report separates blocking errors from advisory warnings.
type Report struct {
	Errors   []Violation `json:"errors"`
	Warnings []Violation `json:"warnings"`
}

// OK reports whether the report has no errors.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Err returns a GEOMETRY_ERROR summarizing the errors, or nil.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return errors.Geometry("%d design rule violation(s), first: %s", len(r.Errors), r.Errors[0].Error())
}

func (r *Report) add(v Violation) {
	if v.Severity == SeverityWarning {
		r.Warnings = append(r.Warnings, v)
		return
	}
	r.Errors = append(r.Errors, v)
}

// Options configures the checks.
type Options struct {
	// AllowOverlap lists layers exempt from the overlap check, typically
	// claddings and slabs.
	AllowOverlap []tech.LayerID
}

// OptionsFor returns options taking the overlap exemptions from pdk.
func OptionsFor(pdk *tech.PDK) Options {
	return Options{AllowOverlap: pdk.OverlapLayers()}
}

// Check runs every check on c.
func Check(c *component.Component, opts Options) Report {
	var r Report
	for _, v := range CheckOverlaps(c, opts) {
		r.add(v)
	}
	for _, v := range CheckConnectivity(c) {
		r.add(v)
	}
	return r
}

// CheckOverlaps flattens c and reports every pair of polygons on the same
// layer whose interiors intersect. Polygons that only touch are fine.
func CheckOverlaps(c *component.Component, opts Options) []Violation {
	allowed := make(map[tech.LayerID]bool, len(opts.AllowOverlap))
	for _, l := range opts.AllowOverlap {
		allowed[l] = true
	}
	flat := c.GetPolygons()
	layers := make([]tech.LayerID, 0, len(flat))
	for l := range flat {
		if !allowed[l] {
			layers = append(layers, l)
		}
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i].Less(layers[j]) })

	var out []Violation
	for _, l := range layers {
		polys := flat[l]
		boxes := make([]geometry.Box, len(polys))
		order := make([]int, len(polys))
		for i, p := range polys {
			boxes[i] = p.BBox()
			order[i] = i
		}
		// Sweep along x so only polygons with overlapping x-extents are compared.
		sort.Slice(order, func(a, b int) bool { return boxes[order[a]].Min.X < boxes[order[b]].Min.X })
		for a, i := range order {
			for _, j := range order[a+1:] {
				if boxes[j].Min.X >= boxes[i].Max.X-geometry.Tolerance {
					break
				}
				if !geometry.PolygonsOverlap(polys[i], polys[j]) {
					continue
				}
				layer := l
				out = append(out, Violation{
					Rule:     RuleOverlap,
					Severity: SeverityError,
					Cell:     c.Name(),
					Layer:    &layer,
					At:       boxes[i].Union(boxes[j]).Center(),
					Message:  fmt.Sprintf("polygons %d and %d on layer %s overlap", i, j, l),
				})
			}
		}
	}
	return out
}

// refPort is a reference port in its parent's frame.
type refPort struct {
	ref  string
	port component.Port
}

// CheckConnectivity walks every component in the hierarchy of c. Ports of
// sibling references that coincide must face each other with the same
// width; a reference port that touches nothing and is not re-exported by
// its parent is reported as a warning.
func CheckConnectivity(c *component.Component) []Violation {
	var out []Violation
	for _, comp := range c.Hierarchy() {
		out = append(out, checkComponent(comp)...)
	}
	return out
}

func checkComponent(c *component.Component) []Violation {
	var ports []refPort
	for _, r := range c.References() {
		for _, p := range r.Ports() {
			ports = append(ports, refPort{ref: r.Name(), port: p})
		}
	}
	if len(ports) == 0 {
		return nil
	}
	grid := make(map[[2]int64][]int)
	for i, rp := range ports {
		k := cellKey(rp.port.Center)
		grid[k] = append(grid[k], i)
	}

	var out []Violation
	matched := make([]bool, len(ports))
	for i, a := range ports {
		k := cellKey(a.port.Center)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for _, j := range grid[[2]int64{k[0] + dx, k[1] + dy}] {
					if j <= i {
						continue
					}
					b := ports[j]
					if a.ref == b.ref || !geometry.Close(a.port.Center, b.port.Center) {
						continue
					}
					matched[i], matched[j] = true, true
					if msg := mismatch(a.port, b.port); msg != "" {
						out = append(out, Violation{
							Rule:     RuleConnectivity,
							Severity: SeverityError,
							Cell:     c.Name(),
							At:       a.port.Center,
							Message:  fmt.Sprintf("%s.%s and %s.%s: %s", a.ref, a.port.Name, b.ref, b.port.Name, msg),
						})
					}
				}
			}
		}
	}

	exported := c.Ports()
	for i, rp := range ports {
		if matched[i] || isExported(rp.port, exported) {
			continue
		}
		out = append(out, Violation{
			Rule:     RuleDangling,
			Severity: SeverityWarning,
			Cell:     c.Name(),
			At:       rp.port.Center,
			Message:  fmt.Sprintf("%s.%s is neither connected nor exported", rp.ref, rp.port.Name),
		})
	}
	return out
}

func mismatch(a, b component.Port) string {
	if !geometry.AngleClose(a.Orientation, b.Orientation+180) {
		return fmt.Sprintf("orientations %g and %g are not anti-parallel", a.Orientation, b.Orientation)
	}
	if !geometry.Equal(a.Width, b.Width) {
		return fmt.Sprintf("widths %g and %g differ", a.Width, b.Width)
	}
	return ""
}

func isExported(p component.Port, exported []component.Port) bool {
	for _, e := range exported {
		if geometry.Close(p.Center, e.Center) && geometry.AngleClose(p.Orientation, e.Orientation) {
			return true
		}
	}
	return false
}

// cellKey buckets points on a grid coarser than the tolerance; neighbours
// are searched too, so points near a grid line still meet.
func cellKey(p geometry.Point) [2]int64 {
	const step = 1e-3
	return [2]int64{int64(math.Floor(p.X / step)), int64(math.Floor(p.Y / step))}
}
