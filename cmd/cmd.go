// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs, setupLogging
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/envconfig"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/logutil"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// setupLogging - Setzt den Default-Logger nach BITEXT_DEBUG und BITEXT_LOG_FORMAT
func setupLogging(cmd *cobra.Command, _ []string) {
	level := envconfig.LogLevel()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	slog.SetDefault(logutil.NewLogger(os.Stderr, level, logutil.ParseFormat(envconfig.LogFormat())))
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "bitextmix",
		Short:         "Sample and encode batches from a mixture of parallel corpora",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: setupLogging,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	previewCmd := newPreviewCmd()
	statsCmd := newStatsCmd()
	envCmd := newEnvCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	for _, cmd := range []*cobra.Command{previewCmd, statsCmd} {
		switch cmd {
		case previewCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["BITEXT_CONFIG"],
				envVars["BITEXT_SPLIT"],
				envVars["BITEXT_TOKENIZER"],
				envVars["BITEXT_MAX_LENGTH"],
				envVars["BITEXT_ONLY_ONCE"],
				envVars["BITEXT_SEED"],
				envVars["BITEXT_DEBUG"],
				envVars["HF_HUB_CACHE"],
			})
		default:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["BITEXT_CONFIG"],
				envVars["BITEXT_SPLIT"],
				envVars["BITEXT_ONLY_ONCE"],
				envVars["BITEXT_SEED"],
				envVars["BITEXT_DEBUG"],
			})
		}
	}

	rootCmd.AddCommand(previewCmd, statsCmd, envCmd)
	return rootCmd
}
