// config_features.go - Korpus- und Tokenizer-Konfiguration
//
// Dieses Modul enthaelt:
// - Pfade (Konfigurationsdatei, Tokenizer)
// - Split-Auswahl und Laengenbegrenzung
// - Erschoepfungs-Verhalten der Mischung
package envconfig

// =============================================================================
// Pfade
// =============================================================================

var (
	// ConfigPath ist der Pfad zur Korpus-Konfiguration (YAML oder JSON)
	ConfigPath = String("BITEXT_CONFIG")

	// Tokenizer ist ein Tokenizer-Pfad oder eine HuggingFace Model-ID
	Tokenizer = String("BITEXT_TOKENIZER")
)

// =============================================================================
// Batch-Erzeugung
// =============================================================================

var (
	// Split waehlt die Dateivariante der Korpora (z.B. train, dev)
	Split = StringWithDefault("BITEXT_SPLIT", "train")

	// MaxLength begrenzt die Token-Laenge pro Zeile (0 = unbegrenzt)
	MaxLength = Uint("BITEXT_MAX_LENGTH", 0)

	// OnlyOnce zieht jedes Bitext nur einmal durch statt neu zu starten
	OnlyOnce = Bool("BITEXT_ONLY_ONCE")
)
