package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pcellkit/pkg/pcell"
)

func (c *CLI) cellsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cells [name]",
		Short: "List registered cells, or show one cell's parameters",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return c.cellNames(args), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := c.newLibrary()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				cell, err := lib.Cell(args[0])
				if err != nil {
					return err
				}
				printTitle(out, cell.Name)
				printDetail(out, "%s", cell.Doc)
				for _, k := range cell.Defaults.Keys() {
					printKeyValue(out, k, formatValue(cell.Defaults[k]))
				}
				printNextStep(out, "Build it", fmt.Sprintf("%s build %s", appName, cell.Name))
				return nil
			}

			var rows [][]string
			for _, cell := range lib.Cells() {
				rows = append(rows, []string{cell.Name, strings.Join(cell.Defaults.Keys(), ", "), cell.Doc})
			}
			printTable(out, []string{"CELL", "PARAMETERS", "DESCRIPTION"}, rows)
			return nil
		},
	}
}

// cellNames completes the first positional argument with cell names.
func (c *CLI) cellNames(args []string) []string {
	if len(args) > 0 {
		return nil
	}
	lib, err := c.newLibrary()
	if err != nil {
		return nil
	}
	var names []string
	for _, cell := range lib.Cells() {
		names = append(names, cell.Name)
	}
	return names
}

// formatValue renders a parameter default for display.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	case pcell.Spec:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
