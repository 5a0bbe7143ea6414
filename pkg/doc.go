// Package pkg provides the core libraries of pcellkit, a photonic component
// composition and routing engine.
//
// # Overview
//
// Components are immutable cells holding polygons on GDS layers, named
// ports and references to other components. They are built by parametric
// cells, assembled from netlists and joined by waveguide routes. The pkg
// directory is organized as follows:
//
//  1. [geometry], [tech] - points, transforms, polygons; layers and cross-sections
//  2. [component], [pcell] - components, references, ports; the cell library and its cache
//  3. [cells], [route] - the built-in cells; single, bundle and waypoint routing
//  4. [netlist], [drc] - netlist assembly; overlap and connectivity checks
//  5. [io], [cache], [storage] - layout export and import; artifact caches; layout stores
//  6. [pipeline] - orchestration (build → check → export)
//
// # Architecture
//
// The typical data flow:
//
//	cell name + params, or a netlist file
//	         ↓
//	    [pcell] library (resolve, cache by signature)
//	         ↓
//	    [netlist] (place, connect, route)
//	         ↓
//	    [drc] (optional checks)
//	         ↓
//	    JSON layout, polygons, DOT, SVG
//
// # Quick Start
//
//	lib := cells.NewLibrary(nil)
//	mmi, err := lib.Get("mmi1x2", pcell.Params{"length_mmi": 8})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(mmi.Name(), mmi.Ports())
package pkg
