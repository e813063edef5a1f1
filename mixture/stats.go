package mixture

import "slices"

// KeyStats zaehlt pro Bitext Ziehungen, gelieferte Batches und Neustarts
type KeyStats struct {
	Key      BitextKey
	Draws    int
	Batches  int
	Restarts int
	Retired  bool
}

// Stats gibt die Statistiken in Schluessel-Reihenfolge zurueck
func (m *Mixture) Stats() []KeyStats {
	return slices.Clone(m.stats)
}
