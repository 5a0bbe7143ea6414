package pcell

import (
	"maps"
	"math"
	"slices"

	"github.com/matzehuels/pcellkit/pkg/errors"
)

// Params are the keyword parameters of a cell. Values are primitives
// (numbers, strings, bools), slices and maps of primitives, [Spec] values,
// components, or cross-sections.
type Params map[string]any

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return maps.Clone(p)
}

// Keys returns the parameter names, sorted.
func (p Params) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Has reports whether key is set to a non-nil value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// With returns a copy of p with key set to v.
func (p Params) With(key string, v any) Params {
	out := p.Clone()
	out[key] = v
	return out
}

func (p Params) missing(key string) error {
	return errors.New(errors.ErrCodeInvalidParams, "missing parameter %q", key)
}

func (p Params) badType(key, want string) error {
	return errors.New(errors.ErrCodeInvalidParams, "parameter %q: want %s, got %T", key, want, p[key])
}

// Float returns a numeric parameter.
func (p Params) Float(key string) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, p.missing(key)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, p.badType(key, "number")
	}
	return f, nil
}

// FloatOr returns a numeric parameter or def when it is unset.
func (p Params) FloatOr(key string, def float64) (float64, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.Float(key)
}

// Int returns an integral parameter. Floats with no fractional part are
// accepted, since YAML and JSON do not always preserve the distinction.
func (p Params) Int(key string) (int, error) {
	f, err := p.Float(key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, p.badType(key, "integer")
	}
	return int(f), nil
}

// String returns a string parameter.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", p.missing(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", p.badType(key, "string")
	}
	return s, nil
}

// Bool returns a boolean parameter.
func (p Params) Bool(key string) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return false, p.missing(key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, p.badType(key, "bool")
	}
	return b, nil
}

// Floats returns a list of numbers.
func (p Params) Floats(key string) ([]float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, p.missing(key)
	}
	switch xs := v.(type) {
	case []float64:
		return slices.Clone(xs), nil
	case []int:
		out := make([]float64, len(xs))
		for i, x := range xs {
			out[i] = float64(x)
		}
		return out, nil
	case []any:
		out := make([]float64, len(xs))
		for i, x := range xs {
			f, ok := toFloat(x)
			if !ok {
				return nil, p.badType(key, "list of numbers")
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, p.badType(key, "list of numbers")
}

// Strings returns a list of strings.
func (p Params) Strings(key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, p.missing(key)
	}
	switch xs := v.(type) {
	case []string:
		return slices.Clone(xs), nil
	case []any:
		out := make([]string, len(xs))
		for i, x := range xs {
			s, ok := x.(string)
			if !ok {
				return nil, p.badType(key, "list of strings")
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, p.badType(key, "list of strings")
}

// Spec returns a component-spec parameter. See [SpecOf] for the accepted
// forms.
func (p Params) Spec(key string) (Spec, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, p.missing(key)
	}
	s, err := SpecOf(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParams, err, "parameter %q", key)
	}
	return s, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}
