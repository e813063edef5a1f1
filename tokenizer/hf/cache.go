// cache.go - Lokaler HuggingFace Hub Cache
// Kompatibel mit der Cache-Struktur von huggingface_hub:
//
//	<cache>/models--<org>--<name>/refs/<revision>      enthaelt den Commit-Hash
//	<cache>/models--<org>--<name>/snapshots/<hash>/    enthaelt die Dateien
//
// Dieses Modul enthaelt:
// - CacheDir: Cache-Verzeichnis (HF_HUB_CACHE, HF_HOME, XDG)
// - ResolveSnapshot: Snapshot-Verzeichnis eines Modells
// - LoadFromCache: Tokenizer eines Modells aus dem Cache laden
package hf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/envconfig"
)

// Cache-Konstanten
const (
	CacheModelPrefix = "models--"
	CacheRefDir      = "refs"
	CacheSnapshotDir = "snapshots"
	DefaultRevision  = "main"
)

// ErrModelNotInCache wird geliefert, wenn kein Snapshot gefunden wurde
var ErrModelNotInCache = errors.New("hf: model not in cache")

// CacheDir gibt das Hub Cache-Verzeichnis zurueck
func CacheDir() string {
	return envconfig.HFCache()
}

// ModelCacheDir gibt das Cache-Verzeichnis eines Modells zurueck,
// z.B. facebook/nllb-200-distilled-600M -> models--facebook--nllb-200-distilled-600M
func ModelCacheDir(modelID string) string {
	return filepath.Join(CacheDir(), CacheModelPrefix+strings.ReplaceAll(modelID, "/", "--"))
}

// ResolveSnapshot gibt das Snapshot-Verzeichnis der Revision main zurueck
func ResolveSnapshot(modelID string) (string, error) {
	return ResolveSnapshotRevision(modelID, DefaultRevision)
}

// ResolveSnapshotRevision loest revision ueber refs/ auf einen Commit-Hash auf.
// Fehlt die Referenz, wird revision direkt als Snapshot-Name versucht.
func ResolveSnapshotRevision(modelID, revision string) (string, error) {
	base := ModelCacheDir(modelID)

	snapshot := revision
	if ref, err := os.ReadFile(filepath.Join(base, CacheRefDir, revision)); err == nil {
		if hash := strings.TrimSpace(string(ref)); hash != "" {
			snapshot = hash
		}
	}

	dir := filepath.Join(base, CacheSnapshotDir, snapshot)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir, nil
	}
	return "", fmt.Errorf("%w: %s@%s (%s)", ErrModelNotInCache, modelID, revision, base)
}

// LoadFromCache laedt den Tokenizer von modelID aus dem lokalen Cache
func LoadFromCache(modelID string, opts ...Option) (*Tokenizer, error) {
	dir, err := ResolveSnapshot(modelID)
	if err != nil {
		return nil, err
	}
	return Load(dir, opts...)
}
