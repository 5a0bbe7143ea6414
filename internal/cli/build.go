package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pcellkit/pkg/errors"
	"github.com/matzehuels/pcellkit/pkg/pcell"
	"github.com/matzehuels/pcellkit/pkg/pipeline"
)

// buildFlags are shared by the build and netlist commands.
type buildFlags struct {
	formats string
	out     string
	check   bool
	noCache bool
	refresh bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "export formats: "+strings.Join(formatList(), ", ")+" (default json)")
	cmd.Flags().StringVarP(&f.out, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&f.check, "check", false, "run design-rule checks")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the export cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "re-export even when cached")
}

func (f *buildFlags) apply(opts *pipeline.Options) {
	opts.Formats = parseFormats(f.formats)
	opts.Check = f.check
	opts.Refresh = f.refresh
}

func (c *CLI) buildCommand() *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build <cell> [key=value...]",
		Short: "Build a cell and export its layout",
		Long: `Build a registered cell with parameter overrides and write the requested
exports to the output directory, named after the component.

Values are read as YAML scalars or flow collections:

  pcellkit build straight length=25.5
  pcellkit build nxn west=1 east=2 xsize=12
  pcellkit build bend_s size=[20,3] -f json,svg`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return c.cellNames(args), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			opts := pipeline.Options{Cell: args[0], Params: params}
			flags.apply(&opts)
			return c.runPipeline(cmd, opts, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

// runPipeline executes opts and writes its artifacts to flags.out.
func (c *CLI) runPipeline(cmd *cobra.Command, opts pipeline.Options, flags buildFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	prog := newProgress(logger)
	result, err := runner.Execute(ctx, opts)
	if result != nil && result.Report != nil {
		for _, v := range result.Report.Errors {
			printError(out, "%s: %s", v.Rule, v.Message)
		}
		for _, v := range result.Report.Warnings {
			printWarning(out, "%s: %s", v.Rule, v.Message)
		}
	}
	if err != nil {
		return err
	}
	prog.done("Built " + result.Signature)

	paths, err := writeArtifacts(flags.out, result.Signature, result.Artifacts)
	if err != nil {
		return err
	}
	printSuccess(out, "%s", result.Signature)
	printStats(out, result.Stats.Cells, result.Stats.Polygons, result.CacheInfo.ExportHit)
	for _, p := range paths {
		printFile(out, p)
	}
	return nil
}

// parseParams reads key=value arguments. Values are decoded as YAML so that
// numbers, booleans and lists keep their types; anything else stays a
// string.
func parseParams(args []string) (pcell.Params, error) {
	params := pcell.Params{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidParams, "parameter %q is not key=value", arg)
		}
		if _, dup := params[key]; dup {
			return nil, errors.New(errors.ErrCodeInvalidParams, "parameter %q given twice", key)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		params[key] = v
	}
	return params, nil
}

// artifactExt maps export formats to file suffixes.
var artifactExt = map[string]string{
	pipeline.FormatJSON:     ".json",
	pipeline.FormatPolygons: ".polygons.json",
	pipeline.FormatDOT:      ".dot",
	pipeline.FormatSVG:      ".svg",
}

// writeArtifacts writes each artifact to dir/<name><ext> and returns the
// paths in format order.
func writeArtifacts(dir, name string, artifacts map[string][]byte) ([]string, error) {
	if err := errors.ValidatePath(dir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output dir %s", dir)
	}
	var paths []string
	for _, format := range formatList() {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name+artifactExt[format])
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func formatList() []string {
	return []string{pipeline.FormatJSON, pipeline.FormatPolygons, pipeline.FormatDOT, pipeline.FormatSVG}
}

// writeOutput writes data to path, or to w when path is "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
