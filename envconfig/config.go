// config.go - Haupt-Konfigurationsfunktionen fuer die Bitext-Pipeline
//
// Dieses Modul enthaelt:
// - LogLevel: Gibt Log-Level zurueck (BITEXT_DEBUG)
// - LogFormat: Gibt das Log-Format zurueck (BITEXT_LOG_FORMAT)
// - Seed: Startwert fuer die gewichtete Auswahl (BITEXT_SEED)
// - HFCache: HuggingFace Cache-Verzeichnis (HF_HUB_CACHE, HF_HOME)
// - Var: Liest eine Environment-Variable
//
// Weitere Konfigurationen sind ausgelagert:
// - config_features.go: Korpus- und Tokenizer-Variablen
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via BITEXT_DEBUG
// Werte: true/1 = Debug, 2 = Trace, sonst Info
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("BITEXT_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// LogFormat gibt das Log-Format zurueck ("text" oder "json")
// Konfigurierbar via BITEXT_LOG_FORMAT
var LogFormat = String("BITEXT_LOG_FORMAT")

// seed liest BITEXT_SEED; 0 heisst nicht gesetzt
var seed = Uint64("BITEXT_SEED", 0)

// Seed gibt den Startwert fuer den Zufallsgenerator zurueck
// Konfigurierbar via BITEXT_SEED
// Default: aktuelle Zeit (nicht reproduzierbar)
func Seed() uint64 {
	if n := seed(); n != 0 {
		return n
	}
	return uint64(time.Now().UnixNano())
}

// HFCache gibt das HuggingFace Hub Cache-Verzeichnis zurueck
// Prioritaet: HF_HUB_CACHE > HF_HOME/hub > XDG_CACHE_HOME > ~/.cache
func HFCache() string {
	if dir := Var("HF_HUB_CACHE"); dir != "" {
		return dir
	}
	if home := Var("HF_HOME"); home != "" {
		return filepath.Join(home, "hub")
	}

	base := Var("XDG_CACHE_HOME")
	if base == "" {
		if home, err := os.UserHomeDir(); err == nil {
			base = filepath.Join(home, ".cache")
		} else {
			base = filepath.Join(os.TempDir(), "huggingface_cache")
		}
	}
	return filepath.Join(base, "huggingface", "hub")
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
