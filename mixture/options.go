// options.go - Optionen einer Mischung
//
// Dieses Modul enthaelt:
// - Policy: Verhalten bei erschoepftem Bitext (neu starten oder stilllegen)
// - Options: Batch-Groesse, Gewichte, Policy, Seed, Logger
// - normalizeWeights: Prueft und normiert die Gewichte
package mixture

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// ErrConfig markiert Konfigurationsfehler beim Erzeugen einer Mischung
var ErrConfig = errors.New("mixture: invalid configuration")

// Policy bestimmt, was mit einem erschoepften Bitext passiert
type Policy int

const (
	// RestartOnExhaustion beginnt den Bitext von vorne (endloser Strom)
	RestartOnExhaustion Policy = iota
	// RetireOnExhaustion legt den Bitext still (jeder Bitext genau einmal)
	RetireOnExhaustion
)

func (p Policy) String() string {
	switch p {
	case RestartOnExhaustion:
		return "restart"
	case RetireOnExhaustion:
		return "retire"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Options konfiguriert eine Mischung
type Options struct {
	// BatchSize ist die Anzahl der Satzpaare pro Batch (> 0)
	BatchSize int

	// Weights sind die Ziehungsgewichte in Schluessel-Reihenfolge.
	// nil = gleichverteilt; sonst gleiche Laenge, nicht negativ, positive Summe.
	Weights []float64

	Policy Policy

	// Seed fuer die Ziehung; 0 = BITEXT_SEED bzw. zeitbasiert
	Seed uint64

	Logger *slog.Logger
}

// normalizeWeights gibt die auf Summe 1 normierten Gewichte zurueck
func normalizeWeights(weights []float64, n int) ([]float64, error) {
	if weights == nil {
		out := make([]float64, n)
		for i := range out {
			out[i] = 1 / float64(n)
		}
		return out, nil
	}

	if len(weights) != n {
		return nil, fmt.Errorf("%w: %d weights for %d bitexts", ErrConfig, len(weights), n)
	}
	sum := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %d is %v", ErrConfig, i, w)
		}
		sum += w
	}
	if sum <= 0 {
		return nil, fmt.Errorf("%w: weights must have a positive sum", ErrConfig)
	}

	out := make([]float64, n)
	for i, w := range weights {
		out[i] = w / sum
	}
	return out, nil
}
