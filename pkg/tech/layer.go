package tech

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/pcellkit/pkg/errors"
)

// LayerID identifies a mask layer by GDS layer and datatype numbers.
type LayerID struct {
	Layer    int `json:"layer" bson:"layer"`
	Datatype int `json:"datatype" bson:"datatype"`
}

// L is shorthand for LayerID{layer, datatype}.
func L(layer, datatype int) LayerID { return LayerID{Layer: layer, Datatype: datatype} }

// String renders the layer as "layer/datatype".
func (l LayerID) String() string {
	return fmt.Sprintf("%d/%d", l.Layer, l.Datatype)
}

// ParseLayer parses "layer/datatype" or a bare "layer" (datatype 0).
func ParseLayer(s string) (LayerID, error) {
	s = strings.TrimSpace(s)
	layerStr, dtStr, hasDT := strings.Cut(s, "/")
	layer, err := strconv.Atoi(layerStr)
	if err != nil || layer < 0 {
		return LayerID{}, errors.New(errors.ErrCodeInvalidInput, "invalid layer %q", s)
	}
	dt := 0
	if hasDT {
		dt, err = strconv.Atoi(dtStr)
		if err != nil || dt < 0 {
			return LayerID{}, errors.New(errors.ErrCodeInvalidInput, "invalid datatype in layer %q", s)
		}
	}
	return LayerID{Layer: layer, Datatype: dt}, nil
}

// MarshalText implements encoding.TextMarshaler so layers can be map keys
// in JSON and plain strings in TOML.
func (l LayerID) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LayerID) UnmarshalText(b []byte) error {
	parsed, err := ParseLayer(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Less orders layers by layer number, then datatype.
func (l LayerID) Less(o LayerID) bool {
	if l.Layer != o.Layer {
		return l.Layer < o.Layer
	}
	return l.Datatype < o.Datatype
}

// LayerLevel is one entry of a process layer stack.
type LayerLevel struct {
	Name      string  `toml:"-" json:"name"`
	Layer     LayerID `toml:"-" json:"layer"`
	Thickness float64 `toml:"thickness" json:"thickness"`
	ZMin      float64 `toml:"zmin" json:"zmin"`
	Material  string  `toml:"material" json:"material,omitempty"`
}

// LayerStack is the vertical process description, ordered by ZMin.
type LayerStack []LayerLevel

// Level returns the stack entry for a layer, if any.
func (s LayerStack) Level(l LayerID) (LayerLevel, bool) {
	for _, lv := range s {
		if lv.Layer == l {
			return lv, true
		}
	}
	return LayerLevel{}, false
}
