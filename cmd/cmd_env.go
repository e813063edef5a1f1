// cmd_env.go - Env Command
// Hauptfunktionen: EnvHandler
package cmd

import (
	"slices"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/envconfig"
)

// EnvHandler - Zeigt alle Umgebungsvariablen mit aktuellem Wert
func EnvHandler(cmd *cobra.Command, args []string) error {
	vars := envconfig.AsMap()
	values := envconfig.Values()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.Sort(names)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "VALUE", "DESCRIPTION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	for _, name := range names {
		v := vars[name]
		table.Append([]string{v.Name, values[name], v.Description})
	}
	table.Render()
	return nil
}
