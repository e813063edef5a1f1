// loader.go - Laden von tokenizer.json
//
// Dieses Modul enthaelt:
// - Load: Aus Datei oder Verzeichnis (tokenizer.json oder vocab.json + merges.txt)
// - LoadFromBytes: Aus Byte-Slices mit optionalen Begleitdateien
// - loadFromTokenizerJSON: Parst Modell, Normalisierer, Vortokenisierer, post_processor
//
// Siehe auch: loader_vocab.go fuer das GPT-2 Format
package hf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dlclark/regexp2"
)

// Vortokenisierer-Muster
const (
	// GPT-2 (ByteLevel mit use_regex)
	patternGPT2 = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`
	// BertPreTokenizer: Woerter und einzelne Satzzeichen
	patternBert = `[^\s\p{P}]+|\p{P}`
	// Whitespace: \w+|[^\w\s]+
	patternWhitespace = `\w+|[^\w\s]+`
	// WhitespaceSplit
	patternWhitespaceSplit = `\S+`
)

// Load laedt einen Tokenizer aus path:
// - einer tokenizer.json Datei (Begleitdateien im selben Verzeichnis)
// - einem Verzeichnis mit tokenizer.json oder vocab.json + merges.txt
func Load(path string, opts ...Option) (*Tokenizer, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		data, err := os.ReadFile(filepath.Join(path, "tokenizer.json"))
		if errors.Is(err, os.ErrNotExist) {
			return LoadVocabMerges(path, opts...)
		}
		if err != nil {
			return nil, fmt.Errorf("read tokenizer: %w", err)
		}
		return loadFromTokenizerJSON(data, readCompanionConfig(path), opts...)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}
	return loadFromTokenizerJSON(data, readCompanionConfig(filepath.Dir(path)), opts...)
}

// LoadFromBytes laedt aus tokenizer.json Bytes; cfg darf nil sein
func LoadFromBytes(data []byte, cfg *CompanionConfig, opts ...Option) (*Tokenizer, error) {
	return loadFromTokenizerJSON(data, cfg, opts...)
}

type preTokenizerSpec struct {
	Type           string             `json:"type"`
	Pretokenizers  []preTokenizerSpec `json:"pretokenizers"`
	AddPrefixSpace *bool              `json:"add_prefix_space"`
	PrependScheme  string             `json:"prepend_scheme"`
	UseRegex       *bool              `json:"use_regex"`
	Pattern        struct {
		String string `json:"String"`
		Regex  string `json:"Regex"`
	} `json:"pattern"`
}

type postProcessorSpec struct {
	Type   string `json:"type"`
	Single []struct {
		SpecialToken *struct {
			ID string `json:"id"`
		} `json:"SpecialToken"`
		Sequence *struct {
			ID string `json:"id"`
		} `json:"Sequence"`
	} `json:"single"`
	Cls        []any               `json:"cls"`
	Sep        []any               `json:"sep"`
	Processors []postProcessorSpec `json:"processors"`
}

func loadFromTokenizerJSON(data []byte, cfg *CompanionConfig, opts ...Option) (*Tokenizer, error) {
	var raw struct {
		Model struct {
			Type     string           `json:"type"`
			Vocab    map[string]int32 `json:"vocab"`
			Merges   json.RawMessage  `json:"merges"`
			UnkToken string           `json:"unk_token"`
		} `json:"model"`
		Normalizer    *normalizerSpec    `json:"normalizer"`
		PreTokenizer  *preTokenizerSpec  `json:"pre_tokenizer"`
		PostProcessor *postProcessorSpec `json:"post_processor"`
		Decoder       json.RawMessage    `json:"decoder"`
		AddedTokens   []struct {
			ID      int32  `json:"id"`
			Content string `json:"content"`
			Special bool   `json:"special"`
		} `json:"added_tokens"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse tokenizer: %w", err)
	}

	// Merges: []string (Llama) oder [][]string (neuere Formate); WordPiece hat keine
	var merges []string
	if raw.Model.Type != "WordPiece" && len(raw.Model.Merges) > 0 {
		if err := json.Unmarshal(raw.Model.Merges, &merges); err != nil {
			var pairs [][]string
			if err := json.Unmarshal(raw.Model.Merges, &pairs); err != nil {
				return nil, fmt.Errorf("parse merges: %w", err)
			}
			merges = make([]string, len(pairs))
			for i, pair := range pairs {
				if len(pair) != 2 {
					return nil, fmt.Errorf("parse merges: entry %d has %d parts", i, len(pair))
				}
				merges[i] = pair[0] + " " + pair[1]
			}
		}
	}

	t := newTokenizer(raw.Model.Vocab, merges, opts...)

	for _, tok := range raw.AddedTokens {
		t.setValue(tok.ID, tok.Content)
		if tok.Special {
			t.specialTokens[tok.Content] = tok.ID
		}
	}
	if raw.Model.UnkToken != "" {
		if id, ok := t.vocab.Reverse[raw.Model.UnkToken]; ok {
			t.vocab.UNK = id
		}
	}

	applySpecialTokenConfig(t, cfg)
	t.finish()

	normalize, err := buildNormalizer(raw.Normalizer)
	if err != nil {
		return nil, err
	}
	t.normalize = normalize

	switch {
	case raw.Model.Type == "WordPiece":
		t.typ = TypeWordPiece
	case detectSentencePiece(raw.Decoder, raw.PreTokenizer):
		t.typ = TypeSentencePiece
	default:
		t.typ = TypeBPE
	}

	pattern, prefixSpace := extractPretokenizer(raw.PreTokenizer)
	if pattern == "" && t.typ == TypeBPE {
		pattern = patternGPT2
	}
	if pattern != "" {
		re, err := regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("compile pretokenizer regex %q: %w", pattern, err)
		}
		t.pretokenizer = re
	}
	t.addPrefixSpace = prefixSpace

	t.template = t.buildTemplate(raw.PostProcessor)
	return t, nil
}

// newTokenizer baut einen Tokenizer aus Vokabular und Merges
func newTokenizer(vocab map[string]int32, merges []string, opts ...Option) *Tokenizer {
	t := &Tokenizer{
		vocab: &Vocabulary{
			Values:  make([]string, len(vocab)),
			Reverse: make(map[string]int32, len(vocab)),
			Merges:  make(map[string]int, len(merges)),
			BOS:     -1,
			PAD:     -1,
			UNK:     -1,
			Mask:    -1,
		},
		specialTokens: make(map[string]int32),
	}
	for _, opt := range opts {
		opt(t)
	}
	for token, id := range vocab {
		t.setValue(id, token)
	}
	for i, merge := range merges {
		t.vocab.Merges[merge] = i
	}
	return t
}

// setValue traegt token unter id ein und vergroessert Values bei Bedarf
func (t *Tokenizer) setValue(id int32, token string) {
	if int(id) >= len(t.vocab.Values) {
		values := make([]string, id+1)
		copy(values, t.vocab.Values)
		t.vocab.Values = values
	}
	t.vocab.Values[id] = token
	t.vocab.Reverse[token] = id
}

// finish berechnet Byte-Fallback und sortierte Spezial-Tokens
func (t *Tokenizer) finish() {
	for b := range t.vocab.byteTokens {
		t.vocab.byteTokens[b] = -1
		if id, ok := t.vocab.Reverse[fmt.Sprintf("<0x%02X>", b)]; ok {
			t.vocab.byteTokens[b] = id
		}
	}
	t.sortSpecialTokens()
}

// detectSentencePiece erkennt ▁-Kodierung am Decoder (Replace ▁ oder Metaspace)
// oder am Metaspace-Vortokenisierer
func detectSentencePiece(decoder json.RawMessage, pre *preTokenizerSpec) bool {
	if pre != nil && pre.Type == "Metaspace" {
		return true
	}
	if len(decoder) == 0 {
		return false
	}

	var seq struct {
		Type     string `json:"type"`
		Decoders []struct {
			Type    string `json:"type"`
			Pattern struct {
				String string `json:"String"`
			} `json:"pattern"`
		} `json:"decoders"`
	}
	if err := json.Unmarshal(decoder, &seq); err != nil {
		return false
	}
	if seq.Type == "Metaspace" {
		return true
	}
	for _, dec := range seq.Decoders {
		if dec.Type == "Metaspace" || (dec.Type == "Replace" && dec.Pattern.String == "▁") {
			return true
		}
	}
	return false
}

// extractPretokenizer gibt das erste Muster und den add_prefix_space Schalter zurueck
func extractPretokenizer(spec *preTokenizerSpec) (pattern string, prefixSpace bool) {
	if spec == nil {
		return "", false
	}

	switch spec.Type {
	case "Split":
		if spec.Pattern.Regex != "" {
			return spec.Pattern.Regex, false
		}
		return regexp2.Escape(spec.Pattern.String), false
	case "ByteLevel":
		prefix := spec.AddPrefixSpace != nil && *spec.AddPrefixSpace
		if spec.UseRegex != nil && !*spec.UseRegex {
			return "", prefix
		}
		return patternGPT2, prefix
	case "BertPreTokenizer":
		return patternBert, false
	case "Whitespace":
		return patternWhitespace, false
	case "WhitespaceSplit":
		return patternWhitespaceSplit, false
	case "Metaspace":
		prefix := spec.PrependScheme == "always" || spec.PrependScheme == "first" ||
			(spec.AddPrefixSpace != nil && *spec.AddPrefixSpace)
		return "", prefix
	case "Sequence":
		for i := range spec.Pretokenizers {
			p, ps := extractPretokenizer(&spec.Pretokenizers[i])
			if pattern == "" {
				pattern = p
			}
			prefixSpace = prefixSpace || ps
		}
	}
	return pattern, prefixSpace
}

// buildTemplate liest die Einzelsatz-Schablone des post_processor
func (t *Tokenizer) buildTemplate(spec *postProcessorSpec) *template {
	if spec == nil {
		return nil
	}

	lookup := func(token string) (int32, bool) {
		if id, ok := t.specialTokens[token]; ok {
			return id, true
		}
		id, ok := t.vocab.Reverse[token]
		return id, ok
	}

	switch spec.Type {
	case "TemplateProcessing":
		tmpl := &template{}
		seen := false
		for _, piece := range spec.Single {
			switch {
			case piece.Sequence != nil:
				seen = true
			case piece.SpecialToken != nil:
				id, ok := lookup(piece.SpecialToken.ID)
				if !ok {
					continue
				}
				if seen {
					tmpl.suffix = append(tmpl.suffix, id)
				} else {
					tmpl.prefix = append(tmpl.prefix, id)
				}
			}
		}
		return tmpl
	case "BertProcessing", "RobertaProcessing":
		tmpl := &template{}
		if len(spec.Cls) == 2 {
			if f, ok := spec.Cls[1].(float64); ok {
				tmpl.prefix = []int32{int32(f)}
			}
		}
		if len(spec.Sep) == 2 {
			if f, ok := spec.Sep[1].(float64); ok {
				tmpl.suffix = []int32{int32(f)}
			}
		}
		return tmpl
	case "Sequence":
		for i := range spec.Processors {
			if tmpl := t.buildTemplate(&spec.Processors[i]); tmpl != nil {
				return tmpl
			}
		}
	}
	return nil
}
