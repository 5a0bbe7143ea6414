package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
	pio "github.com/matzehuels/pcellkit/pkg/io"
	"github.com/matzehuels/pcellkit/pkg/netlist"
	"github.com/matzehuels/pcellkit/pkg/observability"
)

// Export writes c in every requested format. With a netlist, the dot and
// svg formats show the netlist graph; otherwise they show the cell
// hierarchy.
func Export(ctx context.Context, c *component.Component, n *netlist.Netlist, formats []string) (map[string][]byte, error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnExportStart(ctx, formats)

	out, err := export(c, n, formats)
	hooks.OnExportComplete(ctx, formats, time.Since(start), err)
	return out, err
}

func export(c *component.Component, n *netlist.Netlist, formats []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(formats))
	var dot string
	graph := func() string {
		if dot == "" {
			if n != nil {
				dot = netlist.ToDOT(n)
			} else {
				dot = HierarchyDOT(c)
			}
		}
		return dot
	}
	for _, f := range formats {
		var buf bytes.Buffer
		switch f {
		case FormatJSON:
			if err := pio.WriteJSON(c, &buf); err != nil {
				return nil, err
			}
		case FormatPolygons:
			if err := pio.WritePolygons(c, &buf); err != nil {
				return nil, err
			}
		case FormatDOT:
			buf.WriteString(graph())
		case FormatSVG:
			svg, err := netlist.RenderSVG(graph())
			if err != nil {
				return nil, err
			}
			buf.Write(svg)
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", f)
		}
		out[f] = buf.Bytes()
	}
	return out, nil
}

// HierarchyDOT draws the cell hierarchy of c as a directed graph: one node
// per distinct cell, one edge per parent and child pair labelled with the
// number of references.
func HierarchyDOT(c *component.Component) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	hier := c.Hierarchy()
	for _, x := range hier {
		label := fmt.Sprintf("%s\n%d ports", x.Name(), len(x.Ports()))
		fmt.Fprintf(&buf, "  %q [label=%q];\n", x.Name(), label)
	}
	buf.WriteString("\n")
	for _, x := range hier {
		counts := make(map[string]int)
		var order []string
		for _, r := range x.References() {
			child := r.Component().Name()
			if counts[child] == 0 {
				order = append(order, child)
			}
			counts[child]++
		}
		for _, child := range order {
			attrs := ""
			if counts[child] > 1 {
				attrs = fmt.Sprintf(" [label=\"x%d\"]", counts[child])
			}
			fmt.Fprintf(&buf, "  %q -> %q%s;\n", x.Name(), child, attrs)
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}
