// cmd_stats.go - Stats Command
// Hauptfunktionen: StatsHandler, printStats
package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/mixture"
)

// StatsHandler - Zieht Batches und zeigt die Zaehler pro Bitext
func StatsHandler(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("batches")
	if n == 0 {
		// Ohne Grenze nur mit Stilllegung, sonst endet die Mischung nie
		if err := cmd.Flags().Set("once", "true"); err != nil {
			return err
		}
	}

	_, mix, err := buildMixture(cmd)
	if err != nil {
		return err
	}
	defer mix.Close()

	total := 0
	for n == 0 || total < n {
		if _, err := mix.NextBatch(cmd.Context()); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return err
		}
		total++
	}

	printStats(cmd.OutOrStdout(), mix, total)
	return nil
}

// printStats - Gibt die Statistiken als Tabelle aus
func printStats(w io.Writer, mix *mixture.Mixture, total int) {
	weights := mix.Weights()

	var data [][]string
	for i, s := range mix.Stats() {
		retired := "no"
		if s.Retired {
			retired = "yes"
		}
		data = append(data, []string{
			s.Key.String(),
			strconv.FormatFloat(weights[i], 'f', 3, 64),
			strconv.Itoa(s.Draws),
			strconv.Itoa(s.Batches),
			strconv.Itoa(s.Restarts),
			retired,
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"BITEXT", "WEIGHT", "DRAWS", "BATCHES", "RESTARTS", "RETIRED"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	fmt.Fprintf(w, "\n%d batches of %d pairs\n", total, mix.BatchSize())
}
