// tokenizer.go - Schnittstelle fuer Subword-Tokenizer
//
// Dieses Modul enthaelt:
// - Tokenizer: Faehigkeiten, die Encoder und Werkzeuge benoetigen
// - Specials: Rollen der Spezial-Tokens (Start, Pad, Ende, Unbekannt, Maske)
// - Encoding: Token-Gitter plus Attention-Maske
//
// Konkrete Implementierungen: tokenizer/hf (tokenizer.json) und
// tokenizer/nllb (SentencePiece-Modell mit Sprach-Tokens)
package tokenizer

import (
	"context"
	"errors"
)

// ErrUnknownToken wird geliefert, wenn eine Sprache oder ein Token nicht im Vokabular ist
var ErrUnknownToken = errors.New("tokenizer: unknown token")

// ErrNoPadToken wird geliefert, wenn ein Batch aufgefuellt werden muesste,
// der Tokenizer aber kein Pad-Token hat
var ErrNoPadToken = errors.New("tokenizer: batch needs padding but no pad token is defined")

// Uebliche Namen der Spezial-Tokens
const (
	TokenBOS  = "<s>"
	TokenPAD  = "<pad>"
	TokenEOS  = "</s>"
	TokenUNK  = "<unk>"
	TokenMask = "<mask>"
)

// Specials enthaelt die IDs der Spezial-Tokens nach Rolle; -1 wenn nicht vorhanden
type Specials struct {
	BOS  int32
	PAD  int32
	EOS  int32
	UNK  int32
	Mask int32
}

// Tokenizer ist die schmale Schnittstelle zum externen Subword-Modell
type Tokenizer interface {
	// Tokenize kodiert einen Batch von Saetzen in der angegebenen Sprache.
	// Das Ergebnis ist rechts auf die laengste Zeile des Batches aufgefuellt
	// (mit der Pad-ID) und ggf. auf die maximale Laenge gekuerzt.
	Tokenize(ctx context.Context, sentences []string, lang string) (*Encoding, error)

	// VocabularySize gibt die Vokabulargroesse inklusive Spezial-Tokens zurueck
	VocabularySize() int

	// SpecialTokens bildet den Text jedes Spezial-Tokens auf seine ID ab
	SpecialTokens() map[string]int32

	// Specials gibt die IDs nach Rolle zurueck
	Specials() Specials

	// AddSpecialTokens registriert zusaetzliche Spezial-Tokens
	AddSpecialTokens(tokens ...string) error

	// Decode wandelt ein Gitter zurueck in Saetze, ohne Spezial-Tokens
	Decode(grid [][]int32) ([]string, error)
}

// Encoding ist das Ergebnis von Tokenize
type Encoding struct {
	InputIDs      [][]int32
	AttentionMask [][]int32
}

// Rows gibt die Anzahl der Zeilen zurueck
func (e *Encoding) Rows() int {
	return len(e.InputIDs)
}

// Cols gibt die (einheitliche) Zeilenlaenge zurueck
func (e *Encoding) Cols() int {
	if len(e.InputIDs) == 0 {
		return 0
	}
	return len(e.InputIDs[0])
}

// PadID gibt die Pad-ID des Tokenizers zurueck; -1 wenn es keine gibt
func PadID(tok Tokenizer) int32 {
	return tok.Specials().PAD
}
