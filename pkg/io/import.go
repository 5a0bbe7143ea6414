package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/errors"
)

// ReadJSON decodes a [Layout] from r and rebuilds its top component.
//
// ReadJSON returns an INVALID_FORMAT error if the JSON is malformed, a cell
// is defined twice, a reference names a cell that has not been defined yet,
// or the top cell is missing. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*component.Component, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout")
	}
	return l.Component()
}

// ImportJSON reads a layout file at path.
func ImportJSON(path string) (*component.Component, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
