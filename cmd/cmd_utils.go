// cmd_utils.go - Hilfsfunktionen fuer die Commands
// Hauptfunktionen: buildMixture, loadTokenizer, truncateCell, formatIDs
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/config"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/envconfig"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/mixture"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/tokenizer"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/tokenizer/hf"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/tokenizer/nllb"
)

var errNoConfig = errors.New("no corpus configuration (use --config or BITEXT_CONFIG)")

// buildMixture - Laedt die Konfiguration und erzeugt die Mischung aus den Flags
func buildMixture(cmd *cobra.Command) (*config.Config, *mixture.Mixture, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = envconfig.ConfigPath()
	}
	if path == "" {
		return nil, nil, errNoConfig
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	split, _ := cmd.Flags().GetString("split")
	if split == "" {
		split = envconfig.Split()
	}

	opts := mixture.Options{Logger: slog.Default()}
	opts.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	opts.Seed, _ = cmd.Flags().GetUint64("seed")
	if once, _ := cmd.Flags().GetBool("once"); once || envconfig.OnlyOnce() {
		opts.Policy = mixture.RetireOnExhaustion
	}

	mix, err := mixture.FromConfig(cfg, split, opts)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("mixture ready", "config", path, "split", split, "bitexts", len(mix.Keys()), "batch_size", mix.BatchSize())
	return cfg, mix, nil
}

// loadTokenizer - Laedt einen Tokenizer aus einem Pfad oder dem HuggingFace-Cache.
// Verzeichnisse mit sentencepiece.bpe.model und *.model Dateien gehen an nllb,
// alles andere an hf.
func loadTokenizer(ref string, maxLength int) (tokenizer.Tokenizer, error) {
	path := ref
	if _, err := os.Stat(ref); err != nil {
		dir, cacheErr := hf.ResolveSnapshot(ref)
		if cacheErr != nil {
			return nil, fmt.Errorf("tokenizer %q: %w", ref, cacheErr)
		}
		path = dir
	}

	if isSentencePiece(path) {
		slog.Debug("loading sentencepiece tokenizer", "path", path)
		return nllb.Load(path, nllb.WithMaxLength(maxLength))
	}

	tok, err := hf.Load(path, hf.WithMaxLength(maxLength))
	if err != nil {
		return nil, fmt.Errorf("tokenizer %q: %w", ref, err)
	}
	slog.Debug("loaded tokenizer", "path", path, "type", tok.Type(), "vocab", tok.VocabularySize())
	return tok, nil
}

func isSentencePiece(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return filepath.Ext(path) == ".model"
	}
	_, err = os.Stat(filepath.Join(path, nllb.ModelFile))
	return err == nil
}

// truncateCell - Kuerzt s auf width Spalten; width <= 0 laesst s unveraendert
func truncateCell(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// formatIDs - Formatiert eine Token-Zeile als "[a b c]"
func formatIDs(row []int32) string {
	parts := make([]string, len(row))
	for i, id := range row {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
