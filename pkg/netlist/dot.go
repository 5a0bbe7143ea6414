package netlist

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pcellkit/pkg/errors"
)

// ToDOT converts a netlist to an undirected Graphviz graph: one box per
// instance, solid edges for abutting connections, dashed edges for routed
// links and small circles for exported ports. Placed instances are pinned
// at their placement coordinates.
func ToDOT(n *Netlist) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, name := range sortedKeys(n.Instances) {
		attrs := []string{fmt.Sprintf("label=%q", name+"\n"+n.Instances[name].Component)}
		if p, ok := n.Placements[name]; ok {
			attrs = append(attrs, fmt.Sprintf("pos=\"%g,%g!\"", p.X+p.DX, p.Y+p.DY))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, src := range sortedKeys(n.Connections) {
		a, errA := ParseEndpoint(src)
		b, errB := ParseEndpoint(n.Connections[src])
		if errA != nil || errB != nil {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q [taillabel=%q, headlabel=%q];\n", a.Instance, b.Instance, a.Port, b.Port)
	}
	for _, name := range sortedKeys(n.Routes) {
		links := n.Routes[name].Links
		for _, src := range sortedKeys(links) {
			a, errA := ParseEndpoint(src)
			b, errB := ParseEndpoint(links[src])
			if errA != nil || errB != nil {
				continue
			}
			fmt.Fprintf(&buf, "  %q -- %q [style=dashed, label=%q];\n", a.Instance, b.Instance, name)
		}
	}

	for _, name := range sortedKeys(n.Ports) {
		e, err := ParseEndpoint(n.Ports[name])
		if err != nil {
			continue
		}
		id := "port:" + name
		fmt.Fprintf(&buf, "  %q [shape=circle, label=%q, fontsize=10, width=0.3];\n", id, name)
		fmt.Fprintf(&buf, "  %q -- %q [style=dotted, label=%q];\n", id, e.Instance, e.Port)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales to its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
