// Package tech describes the fabrication technology a layout targets:
// mask layers, the vertical layer stack, waveguide cross-sections and the
// routing defaults that go with them.
//
// A [PDK] is loaded from a TOML file with [LoadPDK] or taken from the
// built-in [GenericPDK]. Cross-sections are value types: routing and cell
// code copy them freely and derive variants with [CrossSection.WithWidth].
//
// Example PDK file:
//
//	name = "mypdk"
//
//	[layers]
//	WG = "1/0"
//	CLAD = "111/0"
//
//	[cross_sections.strip]
//	width = 0.5
//	layer = "WG"
//	radius = 10
//	radius_min = 5
//	spacing = 3
//
//	[[cross_sections.strip.cladding]]
//	layer = "CLAD"
//	offset = 3
//
//	[routing]
//	cross_section = "strip"
//	bend = "bend_euler"
package tech
