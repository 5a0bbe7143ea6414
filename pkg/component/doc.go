// Package component provides the hierarchical layout model: ports,
// references and locked components.
//
// # Lifecycle
//
// A component is assembled with a [Builder] and becomes immutable once
// [Builder.Build] returns. Locked components are shared freely: the PCell
// cache hands the same *Component to every caller, and any number of
// [Reference] values may point at it. Mutating a builder or one of its
// references after Build panics.
//
//	b := component.NewBuilder("demo")
//	s1 := b.AddRef(straight)
//	s2 := b.AddRef(straight)
//	if err := s2.Connect("o1", s1.MustPort("o2")); err != nil {
//		return err
//	}
//	b.AddPortFrom("o1", s1.MustPort("o1"))
//	b.AddPortFrom("o2", s2.MustPort("o2"))
//	demo, err := b.Build()
//
// # Connections
//
// [Reference.Connect] solves for the placement that puts one of the
// reference's ports on top of a destination port, facing it. The
// reference's mirror flag is preserved, so a mirrored bend connected to a
// port turns the other way. Port width, layer and type must agree unless
// [ConnectOptions] relax the check.
package component
