// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String/StringWithDefault: String-Getter
// - Uint/Uint64: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// StringWithDefault wie String, aber mit Default bei leerem Wert
func StringWithDefault(s, defaultValue string) func() string {
	return func() string {
		if v := Var(s); v != "" {
			return v
		}
		return defaultValue
	}
}

// =============================================================================
// Integer-Getter
// =============================================================================

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Uint64 gibt eine Funktion zurueck, die einen uint64 mit Default-Wert liest
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return n
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BITEXT_DEBUG":      {"BITEXT_DEBUG", LogLevel(), "Show additional debug information (e.g. BITEXT_DEBUG=1, 2 for trace)"},
		"BITEXT_LOG_FORMAT": {"BITEXT_LOG_FORMAT", LogFormat(), "Log output format: text or json (default text)"},
		"BITEXT_SEED":       {"BITEXT_SEED", Var("BITEXT_SEED"), "Seed for the weighted bitext draw (default: time based)"},
		"BITEXT_CONFIG":     {"BITEXT_CONFIG", ConfigPath(), "Path to the corpus configuration (yaml or json)"},
		"BITEXT_TOKENIZER":  {"BITEXT_TOKENIZER", Tokenizer(), "Tokenizer path or HuggingFace model id"},
		"BITEXT_SPLIT":      {"BITEXT_SPLIT", Split(), "Corpus split to read (default train)"},
		"BITEXT_MAX_LENGTH": {"BITEXT_MAX_LENGTH", MaxLength(), "Maximum tokens per row, 0 for unlimited"},
		"BITEXT_ONLY_ONCE":  {"BITEXT_ONLY_ONCE", OnlyOnce(), "Retire bitexts once exhausted instead of restarting"},
		"HF_HUB_CACHE":      {"HF_HUB_CACHE", HFCache(), "HuggingFace hub cache directory"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
