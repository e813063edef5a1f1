// config.go - Korpus-Konfiguration fuer Mischungen
//
// Dieses Modul enthaelt:
// - Config: corpora, bitexts, finetuning_parameters
// - Paths: Korpus-Tabelle (corpus, side) -> Datei fuer einen Split
// - LanguageCodes: Sprachcodes aus den lang_code Eintraegen
// - LineRange: train_lines eines Bitexts (nur fuer den Split "train")
//
// Siehe auch: loader.go fuer das Laden, validate.go fuer die Pruefung
package config

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/corpus"
)

// Konfigurationsfehler
var (
	ErrUnknownCorpus = errors.New("config: unknown corpus")
	ErrMissingSplit  = errors.New("config: missing split")
	ErrInvalid       = errors.New("config: invalid")
)

// Reservierte Schluessel und Splits
const (
	LangCodeKey = "lang_code"
	SplitTrain  = "train"
)

// Sides bildet Split-Namen (und optional lang_code) auf Werte ab
type Sides map[string]string

// Config ist die Wurzel der Korpus-Konfiguration
type Config struct {
	// Corpora: Korpus -> Sprachseite -> Split -> Pfad
	Corpora    map[string]map[string]Sides `yaml:"corpora"               json:"corpora"`
	Bitexts    []BitextConfig              `yaml:"bitexts"               json:"bitexts"`
	Finetuning FinetuningParameters        `yaml:"finetuning_parameters" json:"finetuning_parameters"`
}

// BitextConfig beschreibt ein Satzpaar-Korpus innerhalb eines Korpus
type BitextConfig struct {
	Corpus     string `yaml:"corpus"      json:"corpus"`
	Src        string `yaml:"src"         json:"src"`
	Tgt        string `yaml:"tgt"         json:"tgt"`
	TrainLines []int  `yaml:"train_lines" json:"train_lines"`
}

// SourceID gibt die CorpusID der Quellseite zurueck
func (b BitextConfig) SourceID() corpus.CorpusID {
	return corpus.CorpusID{Corpus: b.Corpus, Side: b.Src}
}

// TargetID gibt die CorpusID der Zielseite zurueck
func (b BitextConfig) TargetID() corpus.CorpusID {
	return corpus.CorpusID{Corpus: b.Corpus, Side: b.Tgt}
}

// LineRange gibt train_lines zurueck, aber nur fuer den Split "train"
func (b BitextConfig) LineRange(split string) *corpus.LineRange {
	if split != SplitTrain || len(b.TrainLines) != 2 {
		return nil
	}
	return corpus.Lines(b.TrainLines[0], b.TrainLines[1])
}

// FinetuningParameters sind die Parameter, die die Mischung nutzt.
// Weitere Felder der Datei werden ignoriert.
type FinetuningParameters struct {
	BatchSize       int       `yaml:"batch_size"       json:"batch_size"       env:"BITEXT_BATCH_SIZE"`
	SamplingWeights []float64 `yaml:"sampling_weights" json:"sampling_weights"`
	MaxLength       int       `yaml:"max_length"       json:"max_length"`
	BaseModel       string    `yaml:"base_model"       json:"base_model"`
}

// Paths gibt fuer split die Tabelle (corpus, side) -> Pfad zurueck.
// Nur Seiten, die ein Bitext nutzt, muessen den Split haben.
func (c *Config) Paths(split string) (map[corpus.CorpusID]string, error) {
	used := make(map[corpus.CorpusID]bool)
	for _, b := range c.Bitexts {
		used[b.SourceID()] = true
		used[b.TargetID()] = true
	}

	paths := make(map[corpus.CorpusID]string)
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(c.Corpora)) {
		for side, splits := range c.Corpora[name] {
			id := corpus.CorpusID{Corpus: name, Side: side}
			path, ok := splits[split]
			if !ok || split == LangCodeKey {
				if used[id] {
					errs = append(errs, fmt.Errorf("%w: %s has no %q file", ErrMissingSplit, id, split))
				}
				continue
			}
			paths[id] = path
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return paths, nil
}

// LanguageCodes gibt die Sprachcodes aller Seiten mit lang_code zurueck
func (c *Config) LanguageCodes() map[corpus.CorpusID]string {
	codes := make(map[corpus.CorpusID]string)
	for name, sides := range c.Corpora {
		for side, splits := range sides {
			if code, ok := splits[LangCodeKey]; ok && code != "" {
				codes[corpus.CorpusID{Corpus: name, Side: side}] = code
			}
		}
	}
	return codes
}

// Splits gibt alle Split-Namen sortiert zurueck
func (c *Config) Splits() []string {
	seen := make(map[string]bool)
	for _, sides := range c.Corpora {
		for _, splits := range sides {
			for split := range splits {
				if split != LangCodeKey {
					seen[split] = true
				}
			}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// ResolvePaths macht relative Korpus-Pfade relativ zu base absolut
func (c *Config) ResolvePaths(base string) {
	for _, sides := range c.Corpora {
		for _, splits := range sides {
			for split, path := range splits {
				if split == LangCodeKey || path == "" || filepath.IsAbs(path) {
					continue
				}
				splits[split] = filepath.Join(base, path)
			}
		}
	}
}
