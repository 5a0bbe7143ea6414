package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) pdkCommand() *cobra.Command {
	var asTOML bool

	cmd := &cobra.Command{
		Use:   "pdk",
		Short: "Show the active technology",
		Long: `Show the layers, cross-sections and routing defaults of the active PDK.
With --toml the PDK is written in the format --pdk reads, which makes the
generic PDK a starting point for a custom one:

  pcellkit pdk --toml > my_pdk.toml
  pcellkit --pdk my_pdk.toml cells`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pdk, err := c.loadPDK()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asTOML {
				return pdk.WriteTOML(out)
			}

			printTitle(out, pdk.Name)

			var layers [][]string
			for _, name := range slices.Sorted(maps.Keys(pdk.Layers)) {
				l := pdk.Layers[name]
				overlap := ""
				if pdk.OverlapAllowed(l) {
					overlap = "yes"
				}
				layers = append(layers, []string{name, l.String(), overlap})
			}
			printTable(out, []string{"LAYER", "GDS", "OVERLAP"}, layers)

			var xss [][]string
			for _, name := range pdk.CrossSectionNames() {
				xs := pdk.CrossSections[name]
				var clad []string
				for _, cl := range xs.Cladding {
					clad = append(clad, fmt.Sprintf("%s+%g", pdk.LayerName(cl.Layer), cl.Offset))
				}
				xss = append(xss, []string{
					name,
					pdk.LayerName(xs.Layer),
					fmt.Sprintf("%g", xs.Width),
					fmt.Sprintf("%g", xs.Radius),
					fmt.Sprintf("%g", xs.RadiusMin),
					string(xs.Type()),
					strings.Join(clad, " "),
				})
			}
			printTable(out, []string{"CROSS-SECTION", "LAYER", "WIDTH", "RADIUS", "MIN RADIUS", "PORT TYPE", "CLADDING"}, xss)

			printKeyValue(out, "routing xs", pdk.Routing.CrossSection)
			printKeyValue(out, "routing bend", pdk.Routing.Bend)
			printKeyValue(out, "s-bends", fmt.Sprintf("%t", pdk.Routing.WithSBend))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asTOML, "toml", false, "write the PDK as TOML")
	return cmd
}
