// tokenizer.go - Tokenizer fuer HuggingFace tokenizer.json Modelle
//
// Dieses Modul enthaelt:
// - Type: BPE (Byte-Level), SentencePiece-BPE (▁ fuer Leerzeichen), WordPiece
// - Vocabulary: Vokabular, Merges und Rollen der Spezial-Tokens
// - Tokenizer: Implementiert tokenizer.Tokenizer
//
// Siehe auch: loader.go fuer das Laden, encode.go/bpe.go fuer die Kodierung,
// decode.go fuer die Rueckrichtung, cache.go fuer den lokalen Hub-Cache
package hf

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/tokenizer"
)

// Type identifiziert den Kodierungsalgorithmus
type Type int

const (
	TypeBPE           Type = iota // GPT-2 Byte-Level BPE
	TypeSentencePiece             // BPE mit ▁ fuer Leerzeichen
	TypeWordPiece                 // BERT, ## fuer Fortsetzungen
)

func (t Type) String() string {
	switch t {
	case TypeSentencePiece:
		return "sentencepiece"
	case TypeWordPiece:
		return "wordpiece"
	default:
		return "bpe"
	}
}

// Vocabulary haelt Vokabular, Merges und Spezial-Token-Rollen
type Vocabulary struct {
	Values  []string
	Reverse map[string]int32
	Merges  map[string]int

	BOS    int32
	EOS    []int32
	PAD    int32
	UNK    int32
	Mask   int32
	AddBOS bool
	AddEOS *bool

	// <0xNN> Byte-Fallback (-1 wenn nicht vorhanden)
	byteTokens [256]int32
}

// template ist die Einzelsatz-Schablone des post_processor (z.B. [CLS] $A [SEP])
type template struct {
	prefix []int32
	suffix []int32
}

// Option konfiguriert einen Tokenizer
type Option func(*Tokenizer)

// WithMaxLength begrenzt die Zeilenlaenge inklusive Spezial-Tokens; 0 = unbegrenzt
func WithMaxLength(n int) Option {
	return func(t *Tokenizer) { t.maxLength = n }
}

// Tokenizer ist sicher fuer nebenlaeufige Aufrufe von Tokenize
type Tokenizer struct {
	vocab          *Vocabulary
	typ            Type
	pretokenizer   *regexp2.Regexp
	normalize      func(string) string
	addPrefixSpace bool
	template       *template
	maxLength      int

	mu                  sync.RWMutex
	specialTokens       map[string]int32
	sortedSpecialTokens []string
}

var _ tokenizer.Tokenizer = (*Tokenizer)(nil)

// Precomputed GPT-2 Byte-Level Tabelle: Byte -> kodierte Rune
var byteToRune [256]rune

func init() {
	for b := range 256 {
		r := rune(b)
		switch {
		case r == 0x00ad:
			r = 0x0143
		case r <= 0x0020:
			r = r + 0x0100
		case r >= 0x007f && r <= 0x00a0:
			r = r + 0x00a2
		}
		byteToRune[b] = r
	}
}

// Type gibt den Algorithmus zurueck
func (t *Tokenizer) Type() Type {
	return t.typ
}

// VocabularySize gibt die Groesse inklusive hinzugefuegter Tokens zurueck
func (t *Tokenizer) VocabularySize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.vocab.Values)
}

// SpecialTokens gibt eine Kopie aller Spezial-Tokens zurueck
func (t *Tokenizer) SpecialTokens() map[string]int32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int32, len(t.specialTokens))
	for k, v := range t.specialTokens {
		out[k] = v
	}
	return out
}

// Specials gibt die IDs nach Rolle zurueck. PAD ist -1, wenn das Modell
// kein Pad-Token definiert (z.B. GPT-2).
func (t *Tokenizer) Specials() tokenizer.Specials {
	return tokenizer.Specials{
		BOS:  t.vocab.BOS,
		PAD:  t.vocab.PAD,
		EOS:  t.eos(),
		UNK:  t.vocab.UNK,
		Mask: t.vocab.Mask,
	}
}

func (t *Tokenizer) eos() int32 {
	if len(t.vocab.EOS) > 0 {
		return t.vocab.EOS[0]
	}
	return -1
}

// AddSpecialTokens registriert Tokens als Spezial-Tokens. Bereits im
// Vokabular vorhandene Tokens behalten ihre ID, neue werden hinten angehaengt.
func (t *Tokenizer) AddSpecialTokens(tokens ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, tok := range tokens {
		if tok == "" {
			return fmt.Errorf("%w: empty special token", tokenizer.ErrUnknownToken)
		}
		if _, ok := t.specialTokens[tok]; ok {
			continue
		}
		id, ok := t.vocab.Reverse[tok]
		if !ok {
			id = int32(len(t.vocab.Values))
			t.vocab.Values = append(t.vocab.Values, tok)
			t.vocab.Reverse[tok] = id
		}
		t.specialTokens[tok] = id
	}
	t.sortSpecialTokens()
	return nil
}

// sortSpecialTokens sortiert nach Laenge, laengste zuerst (gierige Suche)
func (t *Tokenizer) sortSpecialTokens() {
	t.sortedSpecialTokens = t.sortedSpecialTokens[:0]
	for tok := range t.specialTokens {
		t.sortedSpecialTokens = append(t.sortedSpecialTokens, tok)
	}
	slices.SortFunc(t.sortedSpecialTokens, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
}

// Tokenize kodiert sentences. Ist lang ein Spezial-Token (z.B. eng_Latn),
// wird es statt BOS bzw. Schablonen-Prefix vorangestellt. Ohne Pad-Token
// liefern Batches mit ungleich langen Zeilen ErrNoPadToken.
func (t *Tokenizer) Tokenize(ctx context.Context, sentences []string, lang string) (*tokenizer.Encoding, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	prefix, suffix := t.affixes(lang)
	seqs := make([]tokenizer.Sequence, len(sentences))
	for i, s := range sentences {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := t.encode(s)
		if err != nil {
			return nil, err
		}
		seqs[i] = tokenizer.Sequence{Prefix: prefix, Body: body, Suffix: suffix}
	}
	if t.vocab.PAD < 0 && tokenizer.NeedsPadding(seqs, t.maxLength) {
		return nil, tokenizer.ErrNoPadToken
	}
	return tokenizer.Pack(seqs, t.vocab.PAD, t.maxLength), nil
}

// affixes bestimmt Prefix und Suffix einer Zeile
func (t *Tokenizer) affixes(lang string) (prefix, suffix []int32) {
	switch {
	case t.template != nil:
		prefix, suffix = t.template.prefix, t.template.suffix
	default:
		if t.vocab.AddBOS && t.vocab.BOS >= 0 {
			prefix = []int32{t.vocab.BOS}
		}
		if eos := t.eos(); eos >= 0 && (t.vocab.AddEOS == nil || *t.vocab.AddEOS) {
			suffix = []int32{eos}
		}
	}

	if id, ok := t.specialTokens[lang]; ok && lang != "" {
		prefix = []int32{id}
	}
	return prefix, suffix
}
