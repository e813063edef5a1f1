// config.go - Spezial-Token Konfiguration aus Begleitdateien
//
// Dieses Modul enthaelt:
// - CompanionConfig: Inhalte der Begleitdateien neben tokenizer.json
// - readCompanionConfig: Liest sie aus einem Verzeichnis
// - applySpecialTokenConfig: Setzt BOS/EOS/PAD/UNK/MASK und add_*_token
// - extractTokenString: Token als String oder {"content": ...}
package hf

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// CompanionConfig enthaelt die optionalen Begleitdateien eines Modells
type CompanionConfig struct {
	TokenizerConfigJSON  []byte // tokenizer_config.json
	GenerationConfigJSON []byte // generation_config.json
	SpecialTokensMapJSON []byte // special_tokens_map.json
	ConfigJSON           []byte // config.json
}

func readCompanionConfig(dir string) *CompanionConfig {
	read := func(name string) []byte {
		if dir == "" {
			return nil
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil
		}
		return data
	}
	return &CompanionConfig{
		TokenizerConfigJSON:  read("tokenizer_config.json"),
		GenerationConfigJSON: read("generation_config.json"),
		SpecialTokensMapJSON: read("special_tokens_map.json"),
		ConfigJSON:           read("config.json"),
	}
}

// parseTokenIDs liest eos_token_id, das int oder []int sein kann
func parseTokenIDs(v any) []int32 {
	switch val := v.(type) {
	case float64:
		return []int32{int32(val)}
	case []any:
		ids := make([]int32, 0, len(val))
		for _, id := range val {
			if f, ok := id.(float64); ok {
				ids = append(ids, int32(f))
			}
		}
		return ids
	}
	return nil
}

// extractTokenString liest ein Token als "token" oder {"content": "token"}
func extractTokenString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if content, ok := val["content"].(string); ok {
			return content
		}
	}
	return ""
}

// applySpecialTokenConfig setzt die Rollen in dieser Reihenfolge:
//  1. generation_config.json (eos_token_id, bos_token_id)
//  2. config.json (gleiches Format)
//  3. tokenizer_config.json (Token-Strings und add_bos/add_eos)
//  4. special_tokens_map.json
//
// Ohne bos/eos dienen cls/sep als Ersatz (BERT).
func applySpecialTokenConfig(t *Tokenizer, cfg *CompanionConfig) {
	if cfg == nil {
		return
	}

	for _, data := range [][]byte{cfg.GenerationConfigJSON, cfg.ConfigJSON} {
		if len(data) == 0 {
			continue
		}
		var ids struct {
			EOSTokenID any `json:"eos_token_id"`
			BOSTokenID any `json:"bos_token_id"`
			PADTokenID any `json:"pad_token_id"`
		}
		if err := json.Unmarshal(data, &ids); err != nil {
			continue
		}
		if v := parseTokenIDs(ids.EOSTokenID); len(v) > 0 && len(t.vocab.EOS) == 0 {
			t.vocab.EOS = v
		}
		if v := parseTokenIDs(ids.BOSTokenID); len(v) > 0 && t.vocab.BOS < 0 {
			t.vocab.BOS = v[0]
		}
		if v := parseTokenIDs(ids.PADTokenID); len(v) > 0 && t.vocab.PAD < 0 {
			t.vocab.PAD = v[0]
		}
	}

	for _, data := range [][]byte{cfg.TokenizerConfigJSON, cfg.SpecialTokensMapJSON} {
		if len(data) == 0 {
			continue
		}
		var tokens struct {
			BOSToken    any   `json:"bos_token"`
			EOSToken    any   `json:"eos_token"`
			PADToken    any   `json:"pad_token"`
			UNKToken    any   `json:"unk_token"`
			MaskToken   any   `json:"mask_token"`
			CLSToken    any   `json:"cls_token"`
			SEPToken    any   `json:"sep_token"`
			AddBOSToken *bool `json:"add_bos_token"`
			AddEOSToken *bool `json:"add_eos_token"`
		}
		if err := json.Unmarshal(data, &tokens); err != nil {
			continue
		}

		lookup := func(v any) (int32, bool) {
			s := extractTokenString(v)
			if s == "" {
				return -1, false
			}
			if id, ok := t.specialTokens[s]; ok {
				return id, true
			}
			id, ok := t.vocab.Reverse[s]
			return id, ok
		}

		if t.vocab.BOS < 0 {
			if id, ok := lookup(tokens.BOSToken); ok {
				t.vocab.BOS = id
			} else if id, ok := lookup(tokens.CLSToken); ok {
				t.vocab.BOS = id
			}
		}
		if len(t.vocab.EOS) == 0 {
			if id, ok := lookup(tokens.EOSToken); ok {
				t.vocab.EOS = []int32{id}
			} else if id, ok := lookup(tokens.SEPToken); ok {
				t.vocab.EOS = []int32{id}
			}
		}
		if id, ok := lookup(tokens.PADToken); ok && t.vocab.PAD < 0 {
			t.vocab.PAD = id
		}
		if id, ok := lookup(tokens.UNKToken); ok && t.vocab.UNK < 0 {
			t.vocab.UNK = id
		}
		if id, ok := lookup(tokens.MaskToken); ok && t.vocab.Mask < 0 {
			t.vocab.Mask = id
		}
		if tokens.AddBOSToken != nil {
			t.vocab.AddBOS = *tokens.AddBOSToken
		}
		if tokens.AddEOSToken != nil && t.vocab.AddEOS == nil {
			t.vocab.AddEOS = tokens.AddEOSToken
		}
	}
}
