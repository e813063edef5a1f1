// decode.go - Token-IDs zu Text
//
// Dieses Modul enthaelt:
// - Decode: Gitter zu Saetzen, Spezial-Tokens werden uebersprungen
// - decodeRow: Je nach Typ Byte-Level, ▁ oder ## zurueckwandeln
package hf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/tokenizer"
)

// Decode wandelt jede Zeile zurueck in Text
func (t *Tokenizer) Decode(grid [][]int32) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	special := make(map[int32]bool, len(t.specialTokens)+3)
	for _, id := range t.specialTokens {
		special[id] = true
	}
	for _, id := range append([]int32{t.vocab.BOS, t.vocab.PAD}, t.vocab.EOS...) {
		if id >= 0 {
			special[id] = true
		}
	}

	out := make([]string, len(grid))
	for i, row := range grid {
		ids := tokenizer.StripSpecial(row, special)
		for _, id := range ids {
			if id < 0 || int(id) >= len(t.vocab.Values) {
				return nil, fmt.Errorf("%w: id %d in row %d", tokenizer.ErrUnknownToken, id, i)
			}
		}
		out[i] = t.decodeRow(ids)
	}
	return out, nil
}

func (t *Tokenizer) decodeRow(ids []int32) string {
	var sb strings.Builder

	for i, id := range ids {
		token := t.vocab.Values[id]

		switch t.typ {
		case TypeWordPiece:
			if cont, ok := strings.CutPrefix(token, "##"); ok {
				sb.WriteString(cont)
				continue
			}
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(token)
		case TypeSentencePiece:
			// Byte-Fallback wie <0x0D>
			if len(token) == 6 && strings.HasPrefix(token, "<0x") && token[5] == '>' {
				if v, err := strconv.ParseUint(token[3:5], 16, 8); err == nil {
					sb.WriteByte(byte(v))
					continue
				}
			}
			sb.WriteString(strings.ReplaceAll(token, "▁", " "))
		default:
			for _, r := range token {
				switch {
				case r == 0x0100:
					sb.WriteByte(0)
					continue
				case r == 0x0143:
					r = 0x00ad
				case r > 0x0100 && r <= 0x0120:
					r = r - 0x0100
				case r > 0x0120 && r <= 0x0142:
					r = r - 0x00a2
				}
				sb.WriteByte(byte(r))
			}
		}
	}

	switch t.typ {
	case TypeWordPiece:
		return cleanUpSpaces(sb.String())
	case TypeSentencePiece:
		return strings.TrimPrefix(sb.String(), " ")
	default:
		return sb.String()
	}
}

// cleanUpSpaces entfernt Leerzeichen vor Satzzeichen ("hello , world" -> "hello, world")
var spaceCleaner = strings.NewReplacer(" .", ".", " ,", ",", " !", "!", " ?", "?", " ' ", "'", " n't", "n't", " 's", "'s")

func cleanUpSpaces(s string) string {
	return spaceCleaner.Replace(s)
}
