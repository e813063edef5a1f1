// cmd_builders.go - Command-Builder Funktionen
// Hauptfunktionen: newPreviewCmd, newStatsCmd, newEnvCmd
package cmd

import (
	"github.com/spf13/cobra"
)

// addMixtureFlags - Gemeinsame Flags fuer alle Commands, die eine Mischung bauen
func addMixtureFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Corpus configuration file (yaml or json)")
	cmd.Flags().String("split", "", "Corpus split to read (default from BITEXT_SPLIT)")
	cmd.Flags().Int("batch-size", 0, "Sentence pairs per batch (default from config)")
	cmd.Flags().Uint64("seed", 0, "Seed for the weighted draw (default from BITEXT_SEED)")
	cmd.Flags().Bool("once", false, "Retire exhausted bitexts instead of restarting them")
}

// newPreviewCmd - Erstellt den preview Command
func newPreviewCmd() *cobra.Command {
	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the first batches of a mixture",
		Args:  cobra.NoArgs,
		RunE:  PreviewHandler,
	}

	addMixtureFlags(previewCmd)
	previewCmd.Flags().IntP("batches", "n", 3, "Number of batches to print")
	previewCmd.Flags().StringP("tokenizer", "t", "", "Tokenizer directory, model file or HuggingFace model id")
	previewCmd.Flags().Int("max-length", 0, "Maximum tokens per row (default from config or BITEXT_MAX_LENGTH)")
	previewCmd.Flags().Int("width", 60, "Maximum display width of a sentence")

	return previewCmd
}

// newStatsCmd - Erstellt den stats Command
func newStatsCmd() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Draw batches and report per-bitext counts",
		Args:  cobra.NoArgs,
		RunE:  StatsHandler,
	}

	addMixtureFlags(statsCmd)
	statsCmd.Flags().IntP("batches", "n", 0, "Number of batches to draw (0 = until all bitexts are retired)")

	return statsCmd
}

// newEnvCmd - Erstellt den env Command
func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show environment configuration",
		Args:  cobra.NoArgs,
		RunE:  EnvHandler,
	}
}
