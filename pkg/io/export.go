package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
)

// WriteJSON encodes c and its hierarchy as a [Layout] and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(c *component.Component, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromComponent(c)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode layout %s", c.Name())
	}
	return nil
}

// ExportJSON writes c to a JSON file at path.
func ExportJSON(c *component.Component, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	return WriteJSON(c, f)
}

// WritePolygons writes the flattened polygons of c, keyed by layer.
func WritePolygons(c *component.Component, w io.Writer) error {
	polys := c.GetPolygons()
	out := make(map[string][][][2]float64, len(polys))
	for _, l := range sortedLayers(polys) {
		out[l.String()] = points(polys[l])
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode polygons of %s", c.Name())
	}
	return nil
}
