package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pcellkit/pkg/netlist"
	"github.com/matzehuels/pcellkit/pkg/pipeline"
)

func (c *CLI) netlistCommand() *cobra.Command {
	var (
		flags    buildFlags
		graph    string
		validate bool
	)

	cmd := &cobra.Command{
		Use:   "netlist <file>",
		Short: "Assemble a component from a YAML, TOML or JSON netlist",
		Long: `Assemble a component from a netlist file: instances, placements,
connections, routes and exposed ports. The format follows the file
extension (.yaml, .yml, .toml or .json).

  pcellkit netlist mzi.yaml -f json,svg --check
  pcellkit netlist mzi.yaml --validate --graph mzi.svg`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return []string{"yaml", "yml", "toml", "json"}, cobra.ShellCompDirectiveFilterFileExt
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			logger := loggerFromContext(cmd.Context())

			n, err := netlist.Load(args[0])
			if err != nil {
				return err
			}
			logger.Debug("loaded netlist", "name", n.Name, "instances", len(n.Instances))

			if graph != "" {
				svg, err := netlist.RenderSVG(netlist.ToDOT(n))
				if err != nil {
					return err
				}
				if err := writeOutput(out, graph, svg); err != nil {
					return err
				}
				if graph != "-" {
					printFile(out, graph)
				}
			}
			if validate {
				if err := n.Validate(); err != nil {
					return err
				}
				printSuccess(out, "%s is valid", n.Name)
				return nil
			}

			opts := pipeline.Options{Netlist: n}
			flags.apply(&opts)
			return c.runPipeline(cmd, opts, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&graph, "graph", "", "write the connectivity graph as SVG to this file (- for stdout)")
	cmd.Flags().BoolVar(&validate, "validate", false, "only validate the netlist")
	return cmd
}
