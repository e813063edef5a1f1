// bpe.go - BPE und WordPiece Kodierung einzelner Abschnitte
//
// Dieses Modul enthaelt:
// - encodeChunkInto: Waehlt den Algorithmus nach Tokenizer-Typ
// - encodeBPEMerge: BPE Merge (GPT-2 Byte-Level, SentencePiece)
// - encodeWordPieceInto: WordPiece (BERT), ganzes Wort wird bei Fehlschlag zu [UNK]
package hf

import (
	"math"
	"strings"
)

// encodeChunkInto haengt die IDs eines vortokenisierten Abschnitts an ids an
func (t *Tokenizer) encodeChunkInto(s string, ids []int32) []int32 {
	if s == "" {
		return ids
	}

	var encoded string
	switch t.typ {
	case TypeWordPiece:
		return t.encodeWordPieceInto(s, ids)
	case TypeSentencePiece:
		encoded = strings.ReplaceAll(s, " ", "▁")
	default:
		var sb strings.Builder
		sb.Grow(len(s) * 2)
		for i := 0; i < len(s); i++ {
			sb.WriteRune(byteToRune[s[i]])
		}
		encoded = sb.String()
	}

	// Ganzer Abschnitt ist ein Token
	if id, ok := t.vocab.Reverse[encoded]; ok {
		return append(ids, id)
	}
	return t.encodeBPEMerge(encoded, ids)
}

// encodeBPEMerge verschmilzt wiederholt das Paar mit dem niedrigsten Rang
func (t *Tokenizer) encodeBPEMerge(encoded string, ids []int32) []int32 {
	runes := []rune(encoded)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = string(r)
	}

	for len(parts) > 1 {
		minRank, minIdx := math.MaxInt, -1
		for i := 0; i < len(parts)-1; i++ {
			if rank, ok := t.vocab.Merges[parts[i]+" "+parts[i+1]]; ok && rank < minRank {
				minRank, minIdx = rank, i
			}
		}
		if minIdx < 0 {
			break
		}
		parts[minIdx] += parts[minIdx+1]
		parts = append(parts[:minIdx+1], parts[minIdx+2:]...)
	}

	for _, part := range parts {
		if id, ok := t.vocab.Reverse[part]; ok {
			ids = append(ids, id)
			continue
		}

		// Byte-Fallback, sonst <unk>
		fallback := false
		for _, b := range []byte(part) {
			if id := t.vocab.byteTokens[b]; id >= 0 {
				ids = append(ids, id)
				fallback = true
			}
		}
		if !fallback && t.vocab.UNK >= 0 {
			ids = append(ids, t.vocab.UNK)
		}
	}
	return ids
}

// encodeWordPieceInto zerlegt ein Wort gierig in das laengste bekannte Praefix
// und ##-Fortsetzungen. Laesst sich ein Teil nicht zuordnen, wird das ganze Wort [UNK].
func (t *Tokenizer) encodeWordPieceInto(s string, ids []int32) []int32 {
	if id, ok := t.vocab.Reverse[s]; ok {
		return append(ids, id)
	}

	runes := []rune(s)
	var pieces []int32
	for start := 0; start < len(runes); {
		end := len(runes)
		found := false
		for end > start {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if id, ok := t.vocab.Reverse[sub]; ok {
				pieces = append(pieces, id)
				found = true
				break
			}
			end--
		}
		if !found {
			if t.vocab.UNK >= 0 {
				return append(ids, t.vocab.UNK)
			}
			return ids
		}
		start = end
	}
	return append(ids, pieces...)
}
