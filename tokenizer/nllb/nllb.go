// nllb.go - NLLB-200 Tokenizer auf Basis eines SentencePiece-Modells
//
// Dieses Modul enthaelt:
// - Tokenizer: Implementiert tokenizer.Tokenizer fuer facebook/nllb-200-*
// - Load/LoadFromCache: Laden aus Datei, Verzeichnis oder HuggingFace-Cache
//
// ID-Layout (fairseq-kompatibel):
//
//	0..3                    <s> <pad> </s> <unk>
//	4..spSize               SentencePiece-Stuecke (Stueck-ID p -> p+1)
//	spSize+1..spSize+202    Sprachcodes (siehe languages.go)
//	spSize+203              <mask>
//	danach                  zusaetzliche Spezial-Tokens
//
// Format einer Zeile: [Sprachcode] Tokens </s>
package nllb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	sentencepiece "github.com/eliben/go-sentencepiece"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/tokenizer"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/tokenizer/hf"
)

// Feste fairseq-IDs
const (
	BOS int32 = 0
	PAD int32 = 1
	EOS int32 = 2
	UNK int32 = 3

	// fairseqOffset verschiebt SentencePiece-IDs hinter die vier festen Tokens
	fairseqOffset = 1
)

// DefaultLanguage wird genutzt, wenn Tokenize ohne Sprachcode aufgerufen wird
const DefaultLanguage = "eng_Latn"

// ModelFile ist der Dateiname des SentencePiece-Modells im Modell-Repository
const ModelFile = "sentencepiece.bpe.model"

// ModelID gibt die HuggingFace-ID des destillierten Modells der Groesse size zurueck
func ModelID(size string) string {
	return "facebook/nllb-200-distilled-" + size
}

// pieceEncoder ist der Teil von sentencepiece.Processor, den der Tokenizer nutzt
type pieceEncoder interface {
	Encode(text string) []sentencepiece.Token
	Decode(ids []int) string
}

// Option konfiguriert einen Tokenizer
type Option func(*Tokenizer)

// WithMaxLength begrenzt die Zeilenlaenge (inklusive Sprachcode und </s>); 0 = unbegrenzt
func WithMaxLength(n int) Option {
	return func(t *Tokenizer) { t.maxLength = n }
}

// Tokenizer ist sicher fuer nebenlaeufige Aufrufe von Tokenize
type Tokenizer struct {
	sp        pieceEncoder
	spSize    int
	maxLength int

	mu      sync.RWMutex
	special map[string]int32
	byID    map[int32]string
	added   []string
}

var _ tokenizer.Tokenizer = (*Tokenizer)(nil)

func newTokenizer(sp pieceEncoder, spSize int, opts ...Option) *Tokenizer {
	t := &Tokenizer{
		sp:      sp,
		spSize:  spSize,
		special: make(map[string]int32, 5+len(LanguageCodes)),
		byID:    make(map[int32]string, 5+len(LanguageCodes)),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.register(tokenizer.TokenBOS, BOS)
	t.register(tokenizer.TokenPAD, PAD)
	t.register(tokenizer.TokenEOS, EOS)
	t.register(tokenizer.TokenUNK, UNK)
	for i, code := range LanguageCodes {
		t.register(code, int32(spSize+fairseqOffset+i))
	}
	t.register(tokenizer.TokenMask, int32(spSize+fairseqOffset+len(LanguageCodes)))
	return t
}

func (t *Tokenizer) register(token string, id int32) {
	t.special[token] = id
	t.byID[id] = token
}

// Load laedt das SentencePiece-Modell aus path. path darf die Modelldatei
// selbst oder ein Verzeichnis sein, das sentencepiece.bpe.model enthaelt.
func Load(path string, opts ...Option) (*Tokenizer, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ModelFile)
	}

	proc, err := sentencepiece.NewProcessorFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("load sentencepiece model %s: %w", path, err)
	}
	return newTokenizer(proc, proc.ModelInfo().VocabularySize, opts...), nil
}

// LoadFromCache laedt das Modell modelID aus dem lokalen HuggingFace-Cache
func LoadFromCache(modelID string, opts ...Option) (*Tokenizer, error) {
	dir, err := hf.ResolveSnapshot(modelID)
	if err != nil {
		return nil, err
	}
	return Load(dir, opts...)
}

// LanguageID gibt die Token-ID eines Sprachcodes zurueck
func (t *Tokenizer) LanguageID(code string) (int32, error) {
	idx := slices.Index(LanguageCodes, code)
	if idx < 0 {
		return 0, fmt.Errorf("%w: language %q", tokenizer.ErrUnknownToken, code)
	}
	return int32(t.spSize + fairseqOffset + idx), nil
}

// Tokenize kodiert sentences als [lang] Tokens </s>, gekuerzt und aufgefuellt
func (t *Tokenizer) Tokenize(ctx context.Context, sentences []string, lang string) (*tokenizer.Encoding, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	langID, err := t.LanguageID(lang)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	seqs := make([]tokenizer.Sequence, len(sentences))
	for i, s := range sentences {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seqs[i] = tokenizer.Sequence{
			Prefix: []int32{langID},
			Body:   t.encode(s),
			Suffix: []int32{EOS},
		}
	}
	return tokenizer.Pack(seqs, PAD, t.maxLength), nil
}

// encode kodiert einen Satz; zusaetzliche Spezial-Tokens werden vorher abgetrennt
func (t *Tokenizer) encode(text string) []int32 {
	var ids []int32
	for _, part := range splitAdded(text, t.added) {
		if id, ok := t.special[part]; ok && slices.Contains(t.added, part) {
			ids = append(ids, id)
			continue
		}
		for _, tok := range t.sp.Encode(part) {
			ids = append(ids, t.pieceToID(tok.ID))
		}
	}
	return ids
}

// pieceToID bildet eine SentencePiece-ID auf die fairseq-ID ab.
// Die Steuerstuecke 0..2 (<unk>, <s>, </s>) werden zu <unk>.
func (t *Tokenizer) pieceToID(p int) int32 {
	if p < 3 {
		return UNK
	}
	return int32(p + fairseqOffset)
}

// splitAdded zerlegt text an Vorkommen der Tokens in added (laengster Treffer zuerst)
func splitAdded(text string, added []string) []string {
	if len(added) == 0 {
		return []string{text}
	}

	var parts []string
	for text != "" {
		pos, match := -1, ""
		for _, tok := range added {
			i := strings.Index(text, tok)
			if i < 0 {
				continue
			}
			if pos < 0 || i < pos || (i == pos && len(tok) > len(match)) {
				pos, match = i, tok
			}
		}
		if pos < 0 {
			parts = append(parts, text)
			break
		}
		if pos > 0 {
			parts = append(parts, text[:pos])
		}
		parts = append(parts, match)
		text = text[pos+len(match):]
	}
	return parts
}

// VocabularySize zaehlt Stuecke, Sprachcodes, <mask> und zusaetzliche Spezial-Tokens
func (t *Tokenizer) VocabularySize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.spSize + fairseqOffset + len(LanguageCodes) + 1 + len(t.added)
}

// SpecialTokens gibt eine Kopie aller Spezial-Tokens zurueck (inklusive Sprachcodes)
func (t *Tokenizer) SpecialTokens() map[string]int32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int32, len(t.special))
	for k, v := range t.special {
		out[k] = v
	}
	return out
}

// Specials gibt die IDs nach Rolle zurueck
func (t *Tokenizer) Specials() tokenizer.Specials {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return tokenizer.Specials{
		BOS:  BOS,
		PAD:  PAD,
		EOS:  EOS,
		UNK:  UNK,
		Mask: t.special[tokenizer.TokenMask],
	}
}

// AddSpecialTokens haengt neue Spezial-Tokens hinten an das Vokabular an.
// Bereits bekannte Spezial-Tokens werden ignoriert.
func (t *Tokenizer) AddSpecialTokens(tokens ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, tok := range tokens {
		if tok == "" {
			return fmt.Errorf("%w: empty special token", tokenizer.ErrUnknownToken)
		}
		if _, ok := t.special[tok]; ok {
			continue
		}
		id := int32(t.spSize + fairseqOffset + len(LanguageCodes) + 1 + len(t.added))
		t.register(tok, id)
		t.added = append(t.added, tok)
	}
	return nil
}

// Decode wandelt jede Zeile zurueck in Text. Spezial-Tokens und
// Sprachcodes werden uebersprungen.
func (t *Tokenizer) Decode(grid [][]int32) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, len(grid))
	for i, row := range grid {
		pieces := make([]int, 0, len(row))
		for _, id := range row {
			if _, ok := t.byID[id]; ok {
				continue
			}
			if id <= UNK || int(id) > t.spSize {
				return nil, fmt.Errorf("%w: id %d in row %d", tokenizer.ErrUnknownToken, id, i)
			}
			pieces = append(pieces, int(id)-fairseqOffset)
		}
		out[i] = t.sp.Decode(pieces)
	}
	return out, nil
}
