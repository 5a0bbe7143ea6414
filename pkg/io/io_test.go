package io_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pcellkit/pkg/cells"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/geometry"
	pio "github.com/matzehuels/pcellkit/pkg/io"
	"github.com/matzehuels/pcellkit/pkg/pcell"
)

func TestRoundTrip(t *testing.T) {
	lib := cells.NewLibrary(nil)
	for _, name := range []string{"straight", "mmi1x2", "extend_ports", "straight_heater_metal", "coupler_symmetric"} {
		t.Run(name, func(t *testing.T) {
			c, err := lib.Get(name, nil)
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			if err := pio.WriteJSON(c, &buf); err != nil {
				t.Fatalf("WriteJSON: %v", err)
			}
			got, err := pio.ReadJSON(&buf)
			if err != nil {
				t.Fatalf("ReadJSON: %v", err)
			}

			if got.Name() != c.Name() {
				t.Errorf("Name() = %q, want %q", got.Name(), c.Name())
			}
			if g, w := got.NumPolygons(), c.NumPolygons(); g != w {
				t.Errorf("NumPolygons() = %d, want %d", g, w)
			}
			if g, w := len(got.Hierarchy()), len(c.Hierarchy()); g != w {
				t.Errorf("hierarchy size = %d, want %d", g, w)
			}
			if g, w := len(got.References()), len(c.References()); g != w {
				t.Errorf("references = %d, want %d", g, w)
			}
			gb, wb := got.BBox(), c.BBox()
			if !geometry.Close(gb.Min, wb.Min) || !geometry.Close(gb.Max, wb.Max) {
				t.Errorf("BBox() = %v, want %v", gb, wb)
			}
			for _, want := range c.Ports() {
				p, err := got.Port(want.Name)
				if err != nil {
					t.Errorf("port %s: %v", want.Name, err)
					continue
				}
				if !geometry.Close(p.Center, want.Center) || p.Orientation != want.Orientation ||
					p.Width != want.Width || p.Layer != want.Layer || p.PortType != want.PortType {
					t.Errorf("port %s = %v, want %v", want.Name, p, want)
				}
			}
			if l, ok := c.Info().Float("length"); ok {
				if g, _ := got.Info().Float("length"); g != l {
					t.Errorf("info length = %g, want %g", g, l)
				}
			}
		})
	}
}

func TestExportImportFile(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c, err := lib.Get("straight", pcell.Params{"length": 25})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "straight.json")
	if err := pio.ExportJSON(c, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := pio.ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if p := got.MustPort("o2"); !geometry.Close(p.Center, geometry.Pt(25, 0)) {
		t.Errorf("o2 = %v, want (25, 0)", p.Center)
	}

	_, err = pio.ImportJSON(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file: err = %v, want %s", err, errors.ErrCodeNotFound)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"top": `},
		{"missing top", `{"top": "a", "cells": [{"name": "b"}]}`},
		{"duplicate cell", `{"top": "a", "cells": [{"name": "a"}, {"name": "a"}]}`},
		{"forward reference", `{"top": "a", "cells": [
			{"name": "a", "references": [{"name": "r", "cell": "b", "transform": {"translation": [0, 0]}}]},
			{"name": "b"}]}`},
		{"bad layer", `{"top": "a", "cells": [{"name": "a", "polygons": [{"layer": "x/y", "polygons": []}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pio.ReadJSON(strings.NewReader(tt.json))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("err = %v, want %s", err, errors.ErrCodeInvalidFormat)
			}
		})
	}
}

func TestWritePolygons(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c, err := lib.Get("straight_heater_metal", nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := pio.WritePolygons(c, &buf); err != nil {
		t.Fatalf("WritePolygons: %v", err)
	}
	var got map[string][][][2]float64
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	total := 0
	for _, polys := range got {
		total += len(polys)
	}
	if total != c.NumPolygons() {
		t.Errorf("polygons = %d, want %d", total, c.NumPolygons())
	}
	if len(got["1/0"]) == 0 {
		t.Errorf("no polygons on 1/0: %v", got)
	}
}

func TestFromComponentOrder(t *testing.T) {
	lib := cells.NewLibrary(nil)
	c, err := lib.Get("extend_ports", nil)
	if err != nil {
		t.Fatal(err)
	}
	l := pio.FromComponent(c)
	if l.Top != c.Name() || l.Cells[len(l.Cells)-1].Name != c.Name() {
		t.Errorf("top cell %q is not last in %v", l.Top, l.Cells)
	}
	seen := make(map[string]bool)
	for _, cell := range l.Cells {
		for _, r := range cell.References {
			if !seen[r.Cell] {
				t.Errorf("cell %s references %s before its definition", cell.Name, r.Cell)
			}
		}
		seen[cell.Name] = true
	}
}
