// encoder.go - Kodierung von Satzpaar-Batches fuer das Training
//
// Dieses Modul enthaelt:
// - Encoder: Tokenisiert Quell- und Zielseite eines RawBatch parallel
// - Option: Permutationen pro CorpusID, Ignore-Index, Logger
// - TokenizedMixture: Mixture plus Encoder als ein Batch-Strom
//
// Reihenfolge pro Seite: Tokenisieren, (nur Ziel) Pad -> Ignore-Index,
// danach Permutation auf alle IDs, auch auf den Ignore-Index.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/corpus"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/logutil"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/mixture"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/tokenizer"
)

// ErrUnknownLanguage wird geliefert, wenn fuer eine CorpusID kein Sprachcode bekannt ist
var ErrUnknownLanguage = errors.New("encoder: no language code for corpus")

// DefaultIgnoreIndex ist der Label-Wert, den die Verlustfunktion ueberspringt
const DefaultIgnoreIndex int32 = -100

// Permutation bildet eine Token-ID auf eine andere ab
type Permutation func(int32) int32

type Option func(*Encoder)

// WithPermutations registriert Permutationen pro CorpusID
func WithPermutations(perms map[corpus.CorpusID]Permutation) Option {
	return func(e *Encoder) {
		for id, p := range perms {
			e.perms[id] = p
		}
	}
}

// WithIgnoreIndex setzt den Wert fuer aufgefuellte Ziel-Positionen
func WithIgnoreIndex(v int32) Option {
	return func(e *Encoder) { e.ignoreIndex = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Encoder) { e.log = l }
}

// Encoder kodiert RawBatches mit einem Tokenizer. Sicher fuer nebenlaeufige
// Nutzung, solange der Tokenizer es ist.
type Encoder struct {
	tok         tokenizer.Tokenizer
	langCodes   map[corpus.CorpusID]string
	perms       map[corpus.CorpusID]Permutation
	ignoreIndex int32
	log         *slog.Logger
}

// New erzeugt einen Encoder. langCodes bildet jede CorpusID auf den
// Sprachcode des Tokenizers ab (z.B. "eng_Latn").
func New(tok tokenizer.Tokenizer, langCodes map[corpus.CorpusID]string, opts ...Option) *Encoder {
	e := &Encoder{
		tok:         tok,
		langCodes:   make(map[corpus.CorpusID]string, len(langCodes)),
		perms:       make(map[corpus.CorpusID]Permutation),
		ignoreIndex: DefaultIgnoreIndex,
		log:         slog.Default(),
	}
	for id, code := range langCodes {
		e.langCodes[id] = code
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IgnoreIndex gibt den Ignore-Wert fuer Ziel-Labels zurueck
func (e *Encoder) IgnoreIndex() int32 {
	return e.ignoreIndex
}

// Encode tokenisiert beide Seiten von batch gleichzeitig
func (e *Encoder) Encode(ctx context.Context, batch *mixture.RawBatch) (*EncodedPair, error) {
	srcLang, err := e.language(batch.SourceID)
	if err != nil {
		return nil, err
	}
	tgtLang, err := e.language(batch.TargetID)
	if err != nil {
		return nil, err
	}

	pair := &EncodedPair{SourceID: batch.SourceID, TargetID: batch.TargetID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		enc, err := e.side(gctx, batch.Source, srcLang, batch.SourceID, false)
		if err != nil {
			return fmt.Errorf("source %s: %w", batch.SourceID, err)
		}
		pair.Source = enc
		return nil
	})
	g.Go(func() error {
		enc, err := e.side(gctx, batch.Target, tgtLang, batch.TargetID, true)
		if err != nil {
			return fmt.Errorf("target %s: %w", batch.TargetID, err)
		}
		pair.Target = enc
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sr, sc := pair.Source.Shape()
	tr, tc := pair.Target.Shape()
	logutil.Log(ctx, e.log, "encoded batch", "source", pair.SourceID, "target", pair.TargetID,
		"source_shape", fmt.Sprintf("%dx%d", sr, sc), "target_shape", fmt.Sprintf("%dx%d", tr, tc))
	return pair, nil
}

func (e *Encoder) language(id corpus.CorpusID) (string, error) {
	code, ok := e.langCodes[id]
	if !ok || code == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownLanguage, id)
	}
	return code, nil
}

func (e *Encoder) side(ctx context.Context, sentences []string, lang string, id corpus.CorpusID, labels bool) (EncodedBatch, error) {
	enc, err := e.tok.Tokenize(ctx, sentences, lang)
	if err != nil {
		return EncodedBatch{}, err
	}

	out := EncodedBatch{
		InputIDs:      clone(enc.InputIDs),
		AttentionMask: clone(enc.AttentionMask),
	}

	// Ohne Pad-Token gibt es keine aufgefuellten Positionen
	if pad := tokenizer.PadID(e.tok); labels && pad >= 0 {
		for _, row := range out.InputIDs {
			for j, v := range row {
				if v == pad {
					row[j] = e.ignoreIndex
				}
			}
		}
	}

	if perm, ok := e.perms[id]; ok {
		for _, row := range out.InputIDs {
			for j, v := range row {
				row[j] = perm(v)
			}
		}
	}
	return out, nil
}
