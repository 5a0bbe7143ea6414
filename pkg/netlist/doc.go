// Package netlist builds components from declarative descriptions.
//
// A netlist names instances of library cells, places some of them,
// abuts others through connections, routes links between ports and
// exposes selected ports:
//
//	name: mzi_pair
//	instances:
//	  s1: {component: straight, settings: {length: 20}}
//	  s2: {component: straight}
//	placements:
//	  s1: {x: 0, y: 0}
//	connections:
//	  "s2,o1": "s1,o2"
//	ports:
//	  o1: "s1,o1"
//	  o2: "s2,o2"
//
// Files may be YAML, TOML or JSON ([Load]). [Schematic] builds the same
// structure in code. [Build] turns a netlist into a locked component
// cached by content, and [ToDOT] with [RenderSVG] draws its instance graph.
package netlist
