package pcell

import (
	"fmt"

	"github.com/matzehuels/pcellkit/pkg/component"
)

// Spec says how to obtain a component: by registered cell name, by an
// unregistered cell definition, or as an already built instance. Specs are
// resolved only through [Library.Resolve].
type Spec interface {
	spec()
	fmt.Stringer
}

// ByName refers to a registered cell.
type ByName struct {
	Name   string
	Params Params
}

// ByFactory refers to a cell definition that need not be registered.
type ByFactory struct {
	Cell   *Cell
	Params Params
}

// ByInstance wraps a component that is already built.
type ByInstance struct {
	Component *component.Component
}

func (ByName) spec()     {}
func (ByFactory) spec()  {}
func (ByInstance) spec() {}

func (s ByName) String() string     { return s.Name }
func (s ByFactory) String() string  { return s.Cell.Name }
func (s ByInstance) String() string { return s.Component.Name() }

// SpecOf converts a loosely typed parameter value into a Spec:
//
//   - a Spec is returned as is
//   - a string names a registered cell with default parameters
//   - a *Cell is a factory with default parameters
//   - a *component.Component is an instance
//   - a map with a "component" (or "cell") name and optional "settings"
//     is a named cell with parameters, the form used by netlist files
func SpecOf(v any) (Spec, error) {
	switch x := v.(type) {
	case Spec:
		return x, nil
	case string:
		if x == "" {
			return nil, fmt.Errorf("empty cell name")
		}
		return ByName{Name: x}, nil
	case *Cell:
		return ByFactory{Cell: x}, nil
	case *component.Component:
		return ByInstance{Component: x}, nil
	case Params:
		return specFromMap(x)
	case map[string]any:
		return specFromMap(Params(x))
	}
	return nil, fmt.Errorf("cannot use %T as a component spec", v)
}

func specFromMap(m Params) (Spec, error) {
	name, _ := m["component"].(string)
	if name == "" {
		name, _ = m["cell"].(string)
	}
	if name == "" {
		return nil, fmt.Errorf("component spec map needs a \"component\" name")
	}
	var params Params
	switch s := m["settings"].(type) {
	case nil:
	case Params:
		params = s
	case map[string]any:
		params = Params(s)
	default:
		return nil, fmt.Errorf("component spec settings must be a map, got %T", s)
	}
	return ByName{Name: name, Params: params}, nil
}

// Override returns s with extra layered over its own parameters. Instances
// carry no parameters and are returned unchanged.
func Override(s Spec, extra Params) Spec {
	switch x := s.(type) {
	case ByName:
		x.Params = overlay(x.Params, extra)
		return x
	case ByFactory:
		x.Params = overlay(x.Params, extra)
		return x
	}
	return s
}

func overlay(base, extra Params) Params {
	out := base.Clone()
	for k, v := range extra {
		out[k] = v
	}
	return out
}
