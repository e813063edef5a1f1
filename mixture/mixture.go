// mixture.go - Gewichtete Mischung mehrerer Bitexte
//
// Dieses Modul enthaelt:
// - BitextKey: (Quell-CorpusID, Ziel-CorpusID)
// - RawBatch: Ein Batch Satzpaare mit Herkunft
// - Mixture: Zieht pro Batch einen Bitext nach Gewicht und liest genau
//   BatchSize Paare aus dessen Cursor
//
// Siehe auch: construct.go fuer FromFiles/FromConfig, stats.go fuer Statistiken
package mixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/emirpasic/gods/v2/sets/hashset"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/corpus"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/envconfig"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/logutil"
)

// BitextKey identifiziert einen Bitext in der Mischung
type BitextKey struct {
	Source corpus.CorpusID
	Target corpus.CorpusID
}

func (k BitextKey) String() string {
	return k.Source.String() + " -> " + k.Target.String()
}

// RawBatch ist ein Batch untokenisierter Satzpaare.
// Source und Target haben immer genau BatchSize Eintraege.
type RawBatch struct {
	Source   []string
	Target   []string
	SourceID corpus.CorpusID
	TargetID corpus.CorpusID
}

// Key gibt den Schluessel des Bitexts zurueck, aus dem der Batch stammt
func (b *RawBatch) Key() BitextKey {
	return BitextKey{Source: b.SourceID, Target: b.TargetID}
}

// Mixture liefert Batches aus mehreren Bitexten. Nicht sicher fuer
// nebenlaeufige Nutzung.
type Mixture struct {
	keys      []BitextKey
	bitexts   []*corpus.Bitext
	weights   []float64
	batchSize int
	policy    Policy

	dist    distuv.Categorical
	cursors []*corpus.PairCursor
	fresh   []bool // Cursor hat seit dem Oeffnen noch keinen Batch geliefert
	stats   []KeyStats
	retired *hashset.Set[BitextKey]

	log *slog.Logger
}

// New erzeugt eine Mischung. Die Reihenfolge der Schluessel in bitexts
// bestimmt die Reihenfolge von Options.Weights.
func New(bitexts *orderedmap.OrderedMap[BitextKey, *corpus.Bitext], opts Options) (*Mixture, error) {
	if bitexts == nil || bitexts.Len() == 0 {
		return nil, fmt.Errorf("%w: no bitexts", ErrConfig)
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be > 0 (got %d)", ErrConfig, opts.BatchSize)
	}
	if opts.Policy != RestartOnExhaustion && opts.Policy != RetireOnExhaustion {
		return nil, fmt.Errorf("%w: unknown policy %v", ErrConfig, opts.Policy)
	}

	m := &Mixture{
		batchSize: opts.BatchSize,
		policy:    opts.Policy,
		retired:   hashset.New[BitextKey](),
	}
	for pair := bitexts.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			return nil, fmt.Errorf("%w: bitext %s is nil", ErrConfig, pair.Key)
		}
		m.keys = append(m.keys, pair.Key)
		m.bitexts = append(m.bitexts, pair.Value)
	}

	weights, err := normalizeWeights(opts.Weights, len(m.keys))
	if err != nil {
		return nil, err
	}
	m.weights = weights

	seed := opts.Seed
	if seed == 0 {
		seed = envconfig.Seed()
	}
	m.dist = distuv.NewCategorical(weights, rand.NewSource(seed))

	m.cursors = make([]*corpus.PairCursor, len(m.keys))
	m.fresh = make([]bool, len(m.keys))
	m.stats = make([]KeyStats, len(m.keys))
	for i, k := range m.keys {
		m.stats[i].Key = k
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m.log = logger.With("run", uuid.NewString())
	m.log.Debug("mixture created", "bitexts", len(m.keys), "batch_size", m.batchSize, "policy", m.policy, "seed", seed)
	return m, nil
}

// NextBatch liefert den naechsten Batch oder io.EOF, wenn alle Bitexte
// stillgelegt sind. Bitexte mit Gewicht 0 werden nie gezogen und zaehlen
// dabei nicht.
//
// Auch mit RestartOnExhaustion ist io.EOF moeglich: ein Bitext, der nach dem
// Oeffnen keinen vollen Batch liefert, wird stillgelegt statt endlos neu
// gestartet. Sind alle ziehbaren Bitexte so klein, endet der Strom.
func (m *Mixture) NextBatch(ctx context.Context) (*RawBatch, error) {
	for !m.done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		i := int(m.dist.Rand())
		m.stats[i].Draws++
		if m.retired.Contains(m.keys[i]) {
			continue
		}

		batch, err := m.pull(i)
		if err != nil {
			return nil, fmt.Errorf("bitext %s: %w", m.keys[i], err)
		}
		if batch != nil {
			m.fresh[i] = false
			m.stats[i].Batches++
			logutil.Log(ctx, m.log, "batch", "bitext", m.keys[i], "draws", m.stats[i].Draws)
			return batch, nil
		}
		m.exhausted(i)
	}
	return nil, io.EOF
}

// done meldet, ob kein ziehbarer Bitext mehr aktiv ist
func (m *Mixture) done() bool {
	for i, k := range m.keys {
		if m.weights[i] > 0 && !m.retired.Contains(k) {
			return false
		}
	}
	return true
}

// pull liest genau batchSize Paare; nil ohne Fehler heisst erschoepft
func (m *Mixture) pull(i int) (*RawBatch, error) {
	if m.cursors[i] == nil {
		m.cursors[i] = m.bitexts[i].Open()
		m.fresh[i] = true
	}

	batch := &RawBatch{
		Source:   make([]string, 0, m.batchSize),
		Target:   make([]string, 0, m.batchSize),
		SourceID: m.keys[i].Source,
		TargetID: m.keys[i].Target,
	}
	for range m.batchSize {
		p, err := m.cursors[i].Next()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		batch.Source = append(batch.Source, p.Source)
		batch.Target = append(batch.Target, p.Target)
	}
	return batch, nil
}

// exhausted behandelt einen erschoepften Cursor nach der Policy. Ein Cursor,
// der direkt nach dem Oeffnen keinen vollen Batch liefert, wird immer stillgelegt.
func (m *Mixture) exhausted(i int) {
	key := m.keys[i]
	if err := m.cursors[i].Close(); err != nil {
		m.log.Warn("closing bitext failed", "bitext", key, "error", err)
	}
	m.cursors[i] = nil

	barren := m.fresh[i]
	switch {
	case barren:
		if m.policy == RestartOnExhaustion {
			m.log.Warn("bitext has fewer pairs than one batch, retiring", "bitext", key, "batch_size", m.batchSize)
		}
		m.retire(i)
	case m.policy == RetireOnExhaustion:
		m.retire(i)
	default:
		m.stats[i].Restarts++
		m.log.Debug("bitext restarted", "bitext", key, "restarts", m.stats[i].Restarts)
	}
}

func (m *Mixture) retire(i int) {
	m.retired.Add(m.keys[i])
	m.stats[i].Retired = true
	m.log.Info("bitext retired", "bitext", m.keys[i], "batches", m.stats[i].Batches, "retired", m.retired.Size(), "total", len(m.keys))
}

// Keys gibt die Schluessel in Einfuege-Reihenfolge zurueck
func (m *Mixture) Keys() []BitextKey {
	return slices.Clone(m.keys)
}

// Weights gibt die normierten Gewichte in Schluessel-Reihenfolge zurueck
func (m *Mixture) Weights() []float64 {
	return slices.Clone(m.weights)
}

// BatchSize gibt die Batch-Groesse zurueck
func (m *Mixture) BatchSize() int {
	return m.batchSize
}

// Retired meldet, ob key stillgelegt ist
func (m *Mixture) Retired(key BitextKey) bool {
	return m.retired.Contains(key)
}

// CorpusIDs gibt alle CorpusIDs der Mischung sortiert und ohne Duplikate zurueck
func (m *Mixture) CorpusIDs() []corpus.CorpusID {
	seen := make(map[corpus.CorpusID]bool)
	var ids []corpus.CorpusID
	for _, k := range m.keys {
		for _, id := range []corpus.CorpusID{k.Source, k.Target} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	slices.SortFunc(ids, func(a, b corpus.CorpusID) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return ids
}

// Close schliesst alle offenen Cursor
func (m *Mixture) Close() error {
	var errs []error
	for i, c := range m.cursors {
		if c != nil {
			errs = append(errs, c.Close())
			m.cursors[i] = nil
		}
	}
	return errors.Join(errs...)
}
