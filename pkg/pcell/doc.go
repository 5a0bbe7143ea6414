// Package pcell implements parametric cells: a registry of cell factories,
// normalized build signatures, and a compute-once component cache.
//
// # Signatures
//
// A build is identified by its [Signature]: the cell name plus the merged
// (defaults and overrides) parameters, sorted by key and rendered in a
// canonical text form. Numbers use their shortest round-trip form, so 10
// and 10.0 are the same parameter; nested component specs are rendered as
// their own signature keys. The key is the cell name followed by a short
// sha256 prefix of the canonical form, and it becomes the component name.
//
// # Caching
//
// [Library.Get] returns the same *component.Component for equal
// signatures. The first caller builds, concurrent callers wait for that
// build, and a failed build publishes nothing. If two different canonical
// forms hash to the same key the second request fails with
// CACHE_KEY_COLLISION instead of returning the wrong component.
//
//	lib := pcell.NewLibrary(nil)
//	cells.Register(lib)
//	s1, _ := lib.Get("straight", pcell.Params{"length": 10})
//	s2, _ := lib.Get("straight", pcell.Params{"length": 10.0})
//	// s1 == s2
//
// # Specs
//
// Cells that take other cells as parameters accept a [Spec]: [ByName],
// [ByFactory] or [ByInstance]. [SpecOf] converts the loose forms found in
// netlist files and [Library.Resolve] is the single place where a spec
// becomes a component.
package pcell
