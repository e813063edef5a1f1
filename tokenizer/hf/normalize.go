// normalize.go - Normalisierer aus tokenizer.json
//
// Dieses Modul enthaelt:
// - normalizerSpec: JSON-Form eines Normalisierers
// - buildNormalizer: Baut eine Funktion aus NFC/NFD/NFKC/NFKD, Lowercase,
//   Strip, Replace, Prepend, BertNormalizer und Sequence
package hf

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type normalizerSpec struct {
	Type         string           `json:"type"`
	Normalizers  []normalizerSpec `json:"normalizers"`
	Lowercase    *bool            `json:"lowercase"`
	StripAccents *bool            `json:"strip_accents"`
	Prepend      string           `json:"prepend"`
	Content      string           `json:"content"`
	Pattern      struct {
		String string `json:"String"`
		Regex  string `json:"Regex"`
	} `json:"pattern"`
}

// stripAccents zerlegt (NFD), entfernt Kombinationszeichen und setzt wieder zusammen
func stripAccents(s string) string {
	out, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		return s
	}
	return out
}

// buildNormalizer gibt nil zurueck, wenn keine Normalisierung noetig ist.
// "Precompiled" (SentencePiece-Zeichentabelle) wird durch NFKC angenaehert.
func buildNormalizer(spec *normalizerSpec) (func(string) string, error) {
	if spec == nil || spec.Type == "" {
		return nil, nil
	}

	switch spec.Type {
	case "NFC":
		return norm.NFC.String, nil
	case "NFD":
		return norm.NFD.String, nil
	case "NFKC", "Precompiled":
		return norm.NFKC.String, nil
	case "NFKD":
		return norm.NFKD.String, nil
	case "Lowercase":
		return strings.ToLower, nil
	case "Strip":
		return strings.TrimSpace, nil
	case "StripAccents":
		return stripAccents, nil
	case "Prepend":
		prepend := spec.Prepend
		return func(s string) string { return prepend + s }, nil
	case "Replace":
		if spec.Pattern.Regex != "" {
			re, err := regexp2.Compile(spec.Pattern.Regex, regexp2.None)
			if err != nil {
				return nil, fmt.Errorf("normalizer Replace %q: %w", spec.Pattern.Regex, err)
			}
			content := spec.Content
			return func(s string) string {
				out, err := re.Replace(s, content, -1, -1)
				if err != nil {
					return s
				}
				return out
			}, nil
		}
		from, to := spec.Pattern.String, spec.Content
		return func(s string) string { return strings.ReplaceAll(s, from, to) }, nil
	case "BertNormalizer":
		lower := spec.Lowercase == nil || *spec.Lowercase
		strip := lower
		if spec.StripAccents != nil {
			strip = *spec.StripAccents
		}
		return func(s string) string {
			if strip {
				s = stripAccents(s)
			}
			if lower {
				s = strings.ToLower(s)
			}
			return s
		}, nil
	case "Sequence":
		var steps []func(string) string
		for i := range spec.Normalizers {
			fn, err := buildNormalizer(&spec.Normalizers[i])
			if err != nil {
				return nil, err
			}
			if fn != nil {
				steps = append(steps, fn)
			}
		}
		if len(steps) == 0 {
			return nil, nil
		}
		return func(s string) string {
			for _, fn := range steps {
				s = fn(s)
			}
			return s
		}, nil
	default:
		return nil, fmt.Errorf("unsupported normalizer %q", spec.Type)
	}
}
