package pcell

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/tech"
)

// DefaultHashLength is the number of hex characters of the parameter hash
// kept in a signature key.
const DefaultHashLength = 8

// Signature identifies a cell build: the cell name and its normalized
// parameters. Two builds with equal canonical forms produce the same
// component; the key doubles as the component name.
type Signature struct {
	Cell      string `json:"cell"`
	Canonical string `json:"canonical"`
	Key       string `json:"key"`
}

func newSignature(cell, canonical string, hashLen int) Signature {
	sum := sha256.Sum256([]byte(canonical))
	h := hex.EncodeToString(sum[:])
	if hashLen > 0 && hashLen < len(h) {
		h = h[:hashLen]
	}
	return Signature{Cell: cell, Canonical: canonical, Key: cell + "_" + h}
}

func (s Signature) String() string { return s.Key }

// canonicalizer renders parameter values to a stable text form. Nested
// specs are rendered through specKey so that equivalent specs agree.
type canonicalizer struct {
	specKey func(Spec) (string, error)
}

func (cz canonicalizer) params(p Params) (string, error) {
	keys := p.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := cz.value(p[k])
		if err != nil {
			return "", fmt.Errorf("parameter %q: %w", k, err)
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ","), nil
}

func (cz canonicalizer) value(v any) (string, error) {
	if f, ok := toFloat(v); ok {
		return formatFloat(f), nil
	}
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return strconv.Quote(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case Params:
		s, err := cz.params(x)
		return "{" + s + "}", err
	case map[string]any:
		s, err := cz.params(Params(x))
		return "{" + s + "}", err
	case Spec:
		return cz.specKey(x)
	case *component.Component:
		return "@" + x.Name(), nil
	case tech.LayerID:
		return strconv.Quote(x.String()), nil
	case tech.CrossSection:
		data, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return "xs" + string(data), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			s, err := cz.value(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ",") + "]", nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			s, err := cz.value(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return "", err
			}
			parts[i] = k + "=" + s
		}
		return "{" + strings.Join(parts, ",") + "}", nil
	}
	return "", fmt.Errorf("unsupported parameter type %T", v)
}

// formatFloat renders f in the shortest form that round-trips, so 10 and
// 10.0 agree.
func formatFloat(f float64) string {
	if f == 0 {
		f = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
