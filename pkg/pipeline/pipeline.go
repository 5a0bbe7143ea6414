// Package pipeline runs the build → check → export flow shared by the CLI
// and the API server.
//
// # Architecture
//
// A run has three stages:
//
//  1. Build: resolve a registered cell with parameters, or assemble a netlist
//  2. Check: optionally run design-rule checks on the result
//  3. Export: write the requested artifacts (layout JSON, flattened
//     polygons, hierarchy or netlist graph as DOT or SVG)
//
// Builds are cached in memory by the cell library. Exports are cached by
// the [cache.Cache] of the [Runner], keyed by component signature and
// export options, so a second run with the same inputs never re-exports.
//
// # Usage
//
//	lib := cells.NewLibrary(nil)
//	runner := pipeline.NewRunner(lib, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Cell:    "mmi1x2",
//	    Params:  pcell.Params{"gap_mmi": 0.3},
//	    Formats: []string{pipeline.FormatJSON},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	layout := result.Artifacts[pipeline.FormatJSON]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pcellkit/pkg/cache"
	"github.com/matzehuels/pcellkit/pkg/component"
	"github.com/matzehuels/pcellkit/pkg/drc"
	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/netlist"
	"github.com/matzehuels/pcellkit/pkg/pcell"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatPolygons = "polygons"
	FormatDOT      = "dot"
	FormatSVG      = "svg"
)

// ValidFormats is the set of supported export formats.
var ValidFormats = map[string]bool{
	FormatJSON:     true,
	FormatPolygons: true,
	FormatDOT:      true,
	FormatSVG:      true,
}

// DefaultFormats is used when Options.Formats is empty.
var DefaultFormats = []string{FormatJSON}

// Options configures one pipeline run. Exactly one of Cell and Netlist is
// set.
type Options struct {
	Cell    string           `json:"cell,omitempty"`
	Params  pcell.Params     `json:"params,omitempty"`
	Netlist *netlist.Netlist `json:"netlist,omitempty"`

	Formats []string `json:"formats,omitempty"`

	// Check runs design-rule checks; errors fail the run.
	Check bool `json:"check,omitempty"`

	// Refresh skips the artifact cache lookup.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result holds the outputs of a run.
type Result struct {
	Component *component.Component

	// Signature is the component's cache name, also the storage key.
	Signature string

	// Artifacts are the exports keyed by format.
	Artifacts map[string][]byte

	// Report is set when Options.Check was.
	Report *drc.Report

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	Cells      int
	Polygons   int
	BuildTime  time.Duration
	CheckTime  time.Duration
	ExportTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	ExportHit bool // every artifact came from the cache
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: %s)", format, strings.Join(formatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func formatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	switch {
	case o.Cell == "" && o.Netlist == nil:
		return errors.New(errors.ErrCodeInvalidInput, "a cell or a netlist is required")
	case o.Cell != "" && o.Netlist != nil:
		return errors.New(errors.ErrCodeInvalidInput, "cell and netlist are mutually exclusive")
	case o.Netlist != nil && len(o.Params) > 0:
		return errors.New(errors.ErrCodeInvalidInput, "params only apply to cells; set instance settings in the netlist")
	}
	if o.Cell != "" {
		if err := errors.ValidateCellName(o.Cell); err != nil {
			return err
		}
	}
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.Formats = dedupe(o.Formats)
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns the cache key options for one format.
func (o *Options) ArtifactKeyOpts(format, pdk string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Check:  o.Check,
		PDK:    pdk,
	}
}

func dedupe(formats []string) []string {
	out := formats[:0:0]
	for _, f := range formats {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
