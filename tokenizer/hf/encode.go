// encode.go - Text zu Token-IDs
//
// Dieses Modul enthaelt:
// - encode: Normalisieren, Spezial-Tokens abtrennen, vortokenisieren, kodieren
// - splitBySpecialTokens: Trennt Spezial-Tokens als eigene Teile ab
// - pretokenize: Zerlegt Text mit dem regexp2 Muster (inklusive Lookahead)
//
// Siehe auch: bpe.go fuer die Algorithmen, decode.go fuer die Rueckrichtung
package hf

import (
	"fmt"
	"strings"
)

// splitBySpecialTokens zerlegt s, Spezial-Tokens bleiben eigene Elemente
func (t *Tokenizer) splitBySpecialTokens(s string) []string {
	if len(t.sortedSpecialTokens) == 0 {
		return []string{s}
	}

	var result []string
	remaining := s
	for len(remaining) > 0 {
		found := false
		for _, tok := range t.sortedSpecialTokens {
			if strings.HasPrefix(remaining, tok) {
				result = append(result, tok)
				remaining = remaining[len(tok):]
				found = true
				break
			}
		}
		if found {
			continue
		}

		next := len(remaining)
		for _, tok := range t.sortedSpecialTokens {
			if idx := strings.Index(remaining, tok); idx != -1 && idx < next {
				next = idx
			}
		}
		result = append(result, remaining[:next])
		remaining = remaining[next:]
	}
	return result
}

// pretokenize zerlegt part an den Treffern des Musters. Text zwischen
// Treffern wird als eigener Abschnitt behalten.
func (t *Tokenizer) pretokenize(part string) ([]string, error) {
	if t.pretokenizer == nil {
		return []string{part}, nil
	}

	r := []rune(part)
	var chunks []string
	offset := 0
	m, err := t.pretokenizer.FindRunesMatch(r)
	for ; m != nil; m, err = t.pretokenizer.FindNextMatch(m) {
		if m.Index > offset {
			chunks = append(chunks, string(r[offset:m.Index]))
		}
		chunks = append(chunks, m.String())
		offset = m.Index + m.Length
	}
	if err != nil {
		return nil, fmt.Errorf("pretokenize: %w", err)
	}
	if offset < len(r) {
		chunks = append(chunks, string(r[offset:]))
	}
	return chunks, nil
}

// encode kodiert einen Satz ohne BOS/EOS
func (t *Tokenizer) encode(s string) ([]int32, error) {
	var ids []int32
	first := true
	for _, part := range t.splitBySpecialTokens(s) {
		if id, ok := t.specialTokens[part]; ok {
			ids = append(ids, id)
			continue
		}

		if t.normalize != nil {
			part = t.normalize(part)
		}
		if first && t.addPrefixSpace && !strings.HasPrefix(part, " ") {
			part = " " + part
		}
		first = false

		chunks, err := t.pretokenize(part)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			if t.typ == TypeWordPiece && strings.TrimSpace(c) == "" {
				continue
			}
			ids = t.encodeChunkInto(c, ids)
		}
	}
	return ids, nil
}
