// construct.go - Mischungen aus Dateien oder Konfiguration erzeugen
//
// Dieses Modul enthaelt:
// - BitextDef: Quell-ID, Ziel-ID und optionales Zeilenintervall
// - FromFiles: Aus einer Tabelle CorpusID -> Datei
// - FromConfig: Aus einer geladenen Korpus-Konfiguration und einem Split
package mixture

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/config"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/corpus"
)

// BitextDef beschreibt einen Bitext ueber die CorpusIDs seiner Seiten
type BitextDef struct {
	Source corpus.CorpusID
	Target corpus.CorpusID
	Lines  *corpus.LineRange
}

// FromFiles erzeugt fuer jede Definition einen Bitext aus files.
// Unbekannte IDs und doppelte Schluessel sind Konfigurationsfehler.
func FromFiles(files map[corpus.CorpusID]string, defs []BitextDef, opts Options) (*Mixture, error) {
	bitexts := orderedmap.New[BitextKey, *corpus.Bitext](len(defs))
	for _, d := range defs {
		src, ok := files[d.Source]
		if !ok {
			return nil, fmt.Errorf("%w: no file for corpus %s", ErrConfig, d.Source)
		}
		tgt, ok := files[d.Target]
		if !ok {
			return nil, fmt.Errorf("%w: no file for corpus %s", ErrConfig, d.Target)
		}
		if d.Lines != nil {
			if err := d.Lines.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrConfig, err)
			}
		}

		key := BitextKey{Source: d.Source, Target: d.Target}
		if _, present := bitexts.Set(key, corpus.NewBitext(src, tgt, d.Lines)); present {
			return nil, fmt.Errorf("%w: duplicate bitext %s", ErrConfig, key)
		}
	}
	return New(bitexts, opts)
}

// FromConfig erzeugt die Mischung fuer split. train_lines gilt nur fuer
// den Split "train". BatchSize und Weights kommen aus der Konfiguration,
// wenn sie in opts nicht gesetzt sind.
func FromConfig(cfg *config.Config, split string, opts Options) (*Mixture, error) {
	paths, err := cfg.Paths(split)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	defs := make([]BitextDef, len(cfg.Bitexts))
	for i, b := range cfg.Bitexts {
		defs[i] = BitextDef{
			Source: b.SourceID(),
			Target: b.TargetID(),
			Lines:  b.LineRange(split),
		}
	}

	if opts.BatchSize == 0 {
		opts.BatchSize = cfg.Finetuning.BatchSize
	}
	if opts.Weights == nil {
		opts.Weights = cfg.Finetuning.SamplingWeights
	}
	return FromFiles(paths, defs, opts)
}
