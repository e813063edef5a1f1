// loader_vocab.go - GPT-2 Format (vocab.json + merges.txt)
//
// Dieses Modul enthaelt:
// - LoadVocabMerges: Laedt aus getrennten Dateien, added_tokens.json optional
package hf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dlclark/regexp2"
)

// patternTiktoken ist das Vortokenisierer-Muster fuer GPT-2/tiktoken Modelle
const patternTiktoken = `(?i:'s|'t|'re|'ve|'m|'ll|'d)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`

// LoadVocabMerges laedt einen Byte-Level BPE Tokenizer aus dir
func LoadVocabMerges(dir string, opts ...Option) (*Tokenizer, error) {
	vocabData, err := os.ReadFile(filepath.Join(dir, "vocab.json"))
	if err != nil {
		return nil, fmt.Errorf("read vocab.json: %w", err)
	}
	vocab := make(map[string]int32)
	if err := json.Unmarshal(vocabData, &vocab); err != nil {
		return nil, fmt.Errorf("parse vocab.json: %w", err)
	}

	mergesData, err := os.ReadFile(filepath.Join(dir, "merges.txt"))
	if err != nil {
		return nil, fmt.Errorf("read merges.txt: %w", err)
	}
	var merges []string
	for _, line := range strings.Split(string(mergesData), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		merges = append(merges, line)
	}

	t := newTokenizer(vocab, merges, opts...)

	if data, err := os.ReadFile(filepath.Join(dir, "added_tokens.json")); err == nil {
		added := make(map[string]int32)
		if err := json.Unmarshal(data, &added); err != nil {
			return nil, fmt.Errorf("parse added_tokens.json: %w", err)
		}
		for token, id := range added {
			t.setValue(id, token)
			t.specialTokens[token] = id
		}
	}

	applySpecialTokenConfig(t, readCompanionConfig(dir))
	t.finish()

	re, err := regexp2.Compile(patternTiktoken, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile pretokenizer regex: %w", err)
	}
	t.pretokenizer = re
	t.typ = TypeBPE
	return t, nil
}
