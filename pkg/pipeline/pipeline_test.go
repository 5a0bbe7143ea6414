package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/pcellkit/pkg/cache"
	"github.com/matzehuels/pcellkit/pkg/cells"
	"github.com/matzehuels/pcellkit/pkg/errors"
	pio "github.com/matzehuels/pcellkit/pkg/io"
	"github.com/matzehuels/pcellkit/pkg/netlist"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/storage"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"polygons", false},
		{"dot", false},
		{"svg", false},
		{"gds", true},
		{"JSON", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("empty formats: %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	n := &netlist.Netlist{Instances: map[string]netlist.Instance{"a": {Component: "straight"}}}
	tests := []struct {
		name string
		opts Options
	}{
		{"nothing", Options{}},
		{"both", Options{Cell: "straight", Netlist: n}},
		{"netlist params", Options{Netlist: n, Params: pcell.Params{"length": 1}}},
		{"bad format", Options{Cell: "straight", Formats: []string{"gds"}}},
		{"bad cell name", Options{Cell: "a b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("expected an error")
			}
		})
	}

	opts := Options{Cell: "straight", Formats: []string{"json", "dot", "json"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if strings.Join(opts.Formats, ",") != "json,dot" {
		t.Errorf("Formats = %v, want [json dot]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}

	opts = Options{Cell: "straight"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("default Formats = %v, want [json]", opts.Formats)
	}
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(cells.NewLibrary(nil), fc, nil, nil)
}

func TestExecuteCell(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)
	opts := Options{
		Cell:    "straight",
		Params:  pcell.Params{"length": 20},
		Formats: []string{FormatJSON, FormatPolygons, FormatDOT},
	}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.CacheInfo.ExportHit {
		t.Error("first run hit the cache")
	}
	if !strings.HasPrefix(res.Signature, "straight_") {
		t.Errorf("Signature = %q", res.Signature)
	}
	for _, f := range opts.Formats {
		if len(res.Artifacts[f]) == 0 {
			t.Errorf("artifact %s is empty", f)
		}
	}
	c, err := pio.ReadJSON(bytes.NewReader(res.Artifacts[FormatJSON]))
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if c.Name() != res.Signature {
		t.Errorf("json artifact top = %q, want %q", c.Name(), res.Signature)
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), "digraph G") {
		t.Errorf("dot artifact is not a hierarchy graph:\n%s", res.Artifacts[FormatDOT])
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.ExportHit {
		t.Error("second run missed the cache")
	}
	if !bytes.Equal(again.Artifacts[FormatJSON], res.Artifacts[FormatJSON]) {
		t.Error("cached artifact differs")
	}

	opts.Refresh = true
	fresh, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.CacheInfo.ExportHit {
		t.Error("refresh run hit the cache")
	}
}

func TestExecuteCheckAndStore(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)
	store := storage.NewMemoryStore()
	r.Store = store

	res, err := r.Execute(ctx, Options{Cell: "straight", Check: true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Report == nil || !res.Report.OK() {
		t.Errorf("Report = %+v, want a clean report", res.Report)
	}
	doc, err := store.Load(ctx, res.Signature)
	if err != nil {
		t.Fatalf("stored layout: %v", err)
	}
	if doc.Layout.Top != res.Signature {
		t.Errorf("stored top = %q, want %q", doc.Layout.Top, res.Signature)
	}
}

func TestExecuteNetlist(t *testing.T) {
	s := netlist.NewSchematic("pair")
	s.AddInstance("s1", netlist.Instance{Component: "straight"}, &netlist.Placement{})
	s.AddInstance("s2", netlist.Instance{Component: "straight"}, nil)
	s.AddConnection("s2,o1", "s1,o2")
	s.AddPort("o1", "s1,o1")
	s.AddPort("o2", "s2,o2")

	r := newRunner(t)
	res, err := r.Execute(context.Background(), Options{Netlist: &s.Netlist, Formats: []string{FormatDOT}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(res.Signature, "pair_") {
		t.Errorf("Signature = %q", res.Signature)
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), `"s2" -- "s1"`) {
		t.Errorf("dot artifact is not the netlist graph:\n%s", res.Artifacts[FormatDOT])
	}
}

func TestExecuteErrors(t *testing.T) {
	r := newRunner(t)
	_, err := r.Execute(context.Background(), Options{Cell: "nope"})
	if !errors.Is(err, errors.ErrCodeCellNotFound) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeCellNotFound)
	}
	_, err = r.Execute(context.Background(), Options{Cell: "straight", Params: pcell.Params{"length": -1}})
	if !errors.Is(err, errors.ErrCodeGeometry) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeGeometry)
	}
}

func TestExportAll(t *testing.T) {
	r := newRunner(t)
	var jobs []Options
	for _, l := range []float64{10, 20, 30, 40} {
		jobs = append(jobs, Options{Cell: "straight", Params: pcell.Params{"length": l}})
	}
	results, err := r.ExportAll(context.Background(), jobs)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	for i, res := range results {
		want := float64(10 * (i + 1))
		if got, _ := res.Component.Info().Float("length"); got != want {
			t.Errorf("result %d length = %g, want %g", i, got, want)
		}
	}

	jobs = append(jobs, Options{Cell: "nope"})
	if _, err := r.ExportAll(context.Background(), jobs); !errors.Is(err, errors.ErrCodeCellNotFound) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeCellNotFound)
	}
}

func TestHierarchyDOT(t *testing.T) {
	c, err := cells.NewLibrary(nil).Get("extend_ports", nil)
	if err != nil {
		t.Fatal(err)
	}
	dot := HierarchyDOT(c)
	if !strings.HasPrefix(dot, "digraph G {") {
		t.Errorf("not a digraph:\n%s", dot)
	}
	if n := strings.Count(dot, " -> "); n < 1 {
		t.Errorf("no hierarchy edges:\n%s", dot)
	}
	for _, x := range c.Hierarchy() {
		if !strings.Contains(dot, `"`+x.Name()+`" [label=`) {
			t.Errorf("missing node %s", x.Name())
		}
	}
}

func TestLayout(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)
	res, err := r.Execute(ctx, Options{Cell: "straight", Params: pcell.Params{"length": 15}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	doc, err := r.Layout(ctx, res.Signature)
	if err != nil {
		t.Fatalf("Layout from cache: %v", err)
	}
	if doc.Key != res.Signature || doc.Layout.Top != res.Signature {
		t.Errorf("cached layout = %s/%s, want %s", doc.Key, doc.Layout.Top, res.Signature)
	}

	r.Store = storage.NewMemoryStore()
	if _, err := r.Execute(ctx, Options{Cell: "straight", Params: pcell.Params{"length": 16}}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Layout(ctx, res.Signature); err != nil {
		t.Errorf("store miss should fall back to the cache: %v", err)
	}

	if _, err := r.Layout(ctx, "nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Layout(nope) err = %v, want NOT_FOUND", err)
	}
}
