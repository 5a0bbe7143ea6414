// Package cells is the built-in cell library: primitives (straights,
// bends, tapers, shapes, text) and the composite devices built from them.
//
// Every cell is a [pcell.Cell] with declared defaults. Cross-section
// parameters accept a PDK cross-section name or a value; cell parameters
// that name other cells accept any [pcell.Spec]. Waveguide cells put their
// input at the origin facing west as o1.
//
//	lib := cells.NewLibrary(nil)
//	mmi, err := lib.Get("mmi1x2", pcell.Params{"length_mmi": 6})
package cells
