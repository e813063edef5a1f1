// cmd_preview.go - Preview Command
// Hauptfunktionen: PreviewHandler, printBatch
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/encoder"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/envconfig"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/mixture"
)

// PreviewHandler - Gibt die ersten Batches der Mischung aus, optional kodiert
func PreviewHandler(cmd *cobra.Command, args []string) error {
	cfg, mix, err := buildMixture(cmd)
	if err != nil {
		return err
	}
	defer mix.Close()

	ref, _ := cmd.Flags().GetString("tokenizer")
	if ref == "" {
		ref = envconfig.Tokenizer()
	}
	if ref == "" {
		ref = cfg.Finetuning.BaseModel
	}

	maxLength, _ := cmd.Flags().GetInt("max-length")
	if maxLength == 0 {
		maxLength = cfg.Finetuning.MaxLength
	}
	if maxLength == 0 {
		maxLength = int(envconfig.MaxLength())
	}

	var enc *encoder.Encoder
	if ref != "" {
		tok, err := loadTokenizer(ref, maxLength)
		if err != nil {
			// Ohne Tokenizer werden nur die Saetze gezeigt
			slog.Warn("tokenizer unavailable, showing raw batches only", "tokenizer", ref, "error", err)
		} else {
			enc = encoder.New(tok, cfg.LanguageCodes())
		}
	}

	n, _ := cmd.Flags().GetInt("batches")
	width, _ := cmd.Flags().GetInt("width")
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		width = 0
	}

	w := cmd.OutOrStdout()
	for i := range n {
		batch, err := mix.NextBatch(cmd.Context())
		if errors.Is(err, io.EOF) {
			fmt.Fprintf(w, "mixture exhausted after %d batches\n", i)
			return nil
		}
		if err != nil {
			return err
		}

		var encoded *encoder.EncodedPair
		if enc != nil {
			if encoded, err = enc.Encode(cmd.Context(), batch); err != nil {
				return err
			}
		}
		printBatch(w, i, batch, encoded, width)
	}
	return nil
}

// printBatch - Gibt einen Batch als Tabelle aus
func printBatch(w io.Writer, n int, batch *mixture.RawBatch, encoded *encoder.EncodedPair, width int) {
	fmt.Fprintf(w, "batch %d  %s\n", n, batch.Key())

	table := tablewriter.NewWriter(w)
	header := []string{"#", "SOURCE", "TARGET"}
	if encoded != nil {
		header = append(header, "SOURCE IDS", "TARGET IDS")
	}
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)

	for i := range batch.Source {
		row := []string{strconv.Itoa(i), truncateCell(batch.Source[i], width), truncateCell(batch.Target[i], width)}
		if encoded != nil {
			row = append(row,
				truncateCell(formatIDs(encoded.Source.InputIDs[i]), width),
				truncateCell(formatIDs(encoded.Target.InputIDs[i]), width))
		}
		table.Append(row)
	}
	table.Render()

	if encoded != nil {
		sr, sc := encoded.Source.Shape()
		tr, tc := encoded.Target.Shape()
		fmt.Fprintf(w, "source %dx%d  target %dx%d\n", sr, sc, tr, tc)
	}
	fmt.Fprintln(w)
}
