package mixture

import (
	"context"
	"errors"
	"io"
	"math"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/config"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/corpus"
)

var (
	lang1 = corpus.ID("lang1")
	lang2 = corpus.ID("lang2")
	lang3 = corpus.ID("lang3")

	testFiles = map[corpus.CorpusID]string{
		lang1: filepath.Join("..", "corpus", "testdata", "lang1.txt"),
		lang2: filepath.Join("..", "corpus", "testdata", "lang2.txt"),
		lang3: filepath.Join("..", "corpus", "testdata", "lang3.txt"),
	}

	key12 = BitextKey{lang1, lang2}
	key13 = BitextKey{lang1, lang3}
)

func twoBitexts(lines12, lines13 *corpus.LineRange) []BitextDef {
	return []BitextDef{
		{Source: lang1, Target: lang2, Lines: lines12},
		{Source: lang1, Target: lang3, Lines: lines13},
	}
}

func mustMixture(t *testing.T, defs []BitextDef, opts Options) *Mixture {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	m, err := FromFiles(testFiles, defs, opts)
	if err != nil {
		t.Fatalf("FromFiles: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

// drain liest alle Batches bis io.EOF
func drain(t *testing.T, m *Mixture) []*RawBatch {
	t.Helper()
	var batches []*RawBatch
	for {
		b, err := m.NextBatch(context.Background())
		if errors.Is(err, io.EOF) {
			return batches
		}
		if err != nil {
			t.Fatalf("NextBatch: %v", err)
		}
		batches = append(batches, b)
		if len(batches) > 10000 {
			t.Fatal("Mischung endet nicht")
		}
	}
}

func TestFirstBatch(t *testing.T) {
	m := mustMixture(t, twoBitexts(nil, nil), Options{BatchSize: 2})

	b, err := m.NextBatch(context.Background())
	if err != nil {
		t.Fatalf("NextBatch: %v", err)
	}

	options := []*RawBatch{
		{
			Source:   []string{"The cat chased the mouse.", "She reads a book."},
			Target:   []string{"Le chat a poursuivi la souris.", "Elle lit un livre."},
			SourceID: lang1, TargetID: lang2,
		},
		{
			Source:   []string{"The cat chased the mouse.", "She reads a book."},
			Target:   []string{"Die Katze jagte die Maus.", "Sie liest ein Buch."},
			SourceID: lang1, TargetID: lang3,
		},
	}
	if !slices.ContainsFunc(options, func(o *RawBatch) bool { return cmp.Equal(o, b) }) {
		t.Errorf("unerwarteter erster Batch: %+v", b)
	}
}

func TestRetireCountsBatches(t *testing.T) {
	m := mustMixture(t, twoBitexts(nil, nil), Options{BatchSize: 5, Policy: RetireOnExhaustion})

	batches := drain(t, m)
	if len(batches) != 8 {
		t.Errorf("Erwartete 8 Batches, bekam %d", len(batches))
	}
	for _, b := range batches {
		if len(b.Source) != 5 || len(b.Target) != 5 {
			t.Errorf("Batch hat %d/%d Paare, erwartet 5", len(b.Source), len(b.Target))
		}
	}

	// io.EOF bleibt bestehen
	for range 3 {
		if _, err := m.NextBatch(context.Background()); !errors.Is(err, io.EOF) {
			t.Fatalf("Erwartete io.EOF, bekam %v", err)
		}
	}
	if !m.Retired(key12) || !m.Retired(key13) {
		t.Error("alle Bitexte sollten stillgelegt sein")
	}
}

func TestRetireLastBatch(t *testing.T) {
	m := mustMixture(t, twoBitexts(nil, nil), Options{BatchSize: 2, Policy: RetireOnExhaustion})

	var last *RawBatch
	count := 0
	for _, b := range drain(t, m) {
		count++
		if b.Key() == key12 {
			last = b
		}
	}
	if count != 20 {
		t.Errorf("Erwartete 20 Batches, bekam %d", count)
	}

	want := &RawBatch{
		Source:   []string{"The chef cooked a meal.", "They built a house."},
		Target:   []string{"Le chef a cuisiné un repas.", "Ils ont construit une maison."},
		SourceID: lang1, TargetID: lang2,
	}
	if diff := cmp.Diff(want, last); diff != "" {
		t.Errorf("letzter Batch weicht ab (-want +got):\n%s", diff)
	}
}

func TestLimitedLines(t *testing.T) {
	m := mustMixture(t, twoBitexts(corpus.Lines(4, 7), corpus.Lines(14, 17)), Options{BatchSize: 2, Policy: RetireOnExhaustion})

	batches := drain(t, m)
	if len(batches) != 2 {
		t.Fatalf("Erwartete 2 Batches (floor(3/2) je Bitext), bekam %d", len(batches))
	}

	want := map[BitextKey]*RawBatch{
		key12: {
			Source:   []string{"He drinks coffee.", "We watched a movie."},
			Target:   []string{"Il boit du café.", "Nous avons regardé un film."},
			SourceID: lang1, TargetID: lang2,
		},
		key13: {
			Source:   []string{"The child drew a star.", "My brother broke the window."},
			Target:   []string{"Das Kind hat einen Stern gezeichnet.", "Mein Bruder hat das Fenster zerbrochen."},
			SourceID: lang1, TargetID: lang3,
		},
	}
	for _, b := range batches {
		if diff := cmp.Diff(want[b.Key()], b); diff != "" {
			t.Errorf("Batch %s weicht ab (-want +got):\n%s", b.Key(), diff)
		}
	}
}

func TestRestartIsEndless(t *testing.T) {
	m := mustMixture(t, twoBitexts(nil, nil), Options{BatchSize: 5})

	for i := range 50 {
		if _, err := m.NextBatch(context.Background()); err != nil {
			t.Fatalf("Batch %d: %v", i, err)
		}
	}

	restarts := 0
	for _, s := range m.Stats() {
		restarts += s.Restarts
		if s.Retired {
			t.Errorf("%s darf bei Neustart nicht stillgelegt werden", s.Key)
		}
	}
	if restarts == 0 {
		t.Error("Erwartete mindestens einen Neustart")
	}
}

func TestWeightedDraws(t *testing.T) {
	m := mustMixture(t, twoBitexts(nil, nil), Options{BatchSize: 2, Weights: []float64{1, 3}, Seed: 1234})

	if diff := cmp.Diff([]float64{0.25, 0.75}, m.Weights()); diff != "" {
		t.Errorf("Gewichte nicht normiert (-want +got):\n%s", diff)
	}

	const n = 4000
	counts := make(map[BitextKey]int)
	for range n {
		b, err := m.NextBatch(context.Background())
		if err != nil {
			t.Fatalf("NextBatch: %v", err)
		}
		counts[b.Key()]++
	}

	got := float64(counts[key12]) / n
	if math.Abs(got-0.25) > 0.03 {
		t.Errorf("Anteil von %s = %.3f, erwartet 0.25 +- 0.03", key12, got)
	}
}

func TestSeedIsDeterministic(t *testing.T) {
	keys := func() []BitextKey {
		m := mustMixture(t, twoBitexts(nil, nil), Options{BatchSize: 3, Seed: 7})
		var out []BitextKey
		for range 30 {
			b, err := m.NextBatch(context.Background())
			if err != nil {
				t.Fatalf("NextBatch: %v", err)
			}
			out = append(out, b.Key())
		}
		return out
	}

	if diff := cmp.Diff(keys(), keys()); diff != "" {
		t.Errorf("gleicher Seed liefert andere Folge:\n%s", diff)
	}
}

func TestBarrenBitext(t *testing.T) {
	// [0, 1) liefert nie einen vollen Batch der Groesse 2
	m := mustMixture(t, twoBitexts(corpus.Lines(0, 1), nil), Options{BatchSize: 2})

	for range 20 {
		b, err := m.NextBatch(context.Background())
		if err != nil {
			t.Fatalf("NextBatch: %v", err)
		}
		if b.Key() != key13 {
			t.Fatalf("Batch aus unfruchtbarem Bitext %s", b.Key())
		}
	}
	if !m.Retired(key12) {
		t.Error("unfruchtbarer Bitext sollte stillgelegt sein")
	}
	if m.Retired(key13) {
		t.Error("gesunder Bitext darf nicht stillgelegt sein")
	}
}

func TestOnlyBarrenBitexts(t *testing.T) {
	// Auch bei RestartOnExhaustion endet der Strom
	m := mustMixture(t, twoBitexts(corpus.Lines(0, 1), corpus.Lines(5, 5)), Options{BatchSize: 2, Policy: RestartOnExhaustion})

	if _, err := m.NextBatch(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Erwartete io.EOF, bekam %v", err)
	}
}

func TestZeroWeight(t *testing.T) {
	m := mustMixture(t, twoBitexts(nil, nil), Options{BatchSize: 5, Weights: []float64{1, 0}, Policy: RetireOnExhaustion})

	batches := drain(t, m)
	if len(batches) != 4 {
		t.Errorf("Erwartete 4 Batches, bekam %d", len(batches))
	}
	for _, b := range batches {
		if b.Key() != key12 {
			t.Errorf("Bitext mit Gewicht 0 gezogen: %s", b.Key())
		}
	}
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		defs []BitextDef
		opts Options
	}{
		{"Batch-Groesse 0", twoBitexts(nil, nil), Options{}},
		{"Batch-Groesse negativ", twoBitexts(nil, nil), Options{BatchSize: -1}},
		{"Gewichte Anzahl", twoBitexts(nil, nil), Options{BatchSize: 2, Weights: []float64{1}}},
		{"Gewicht negativ", twoBitexts(nil, nil), Options{BatchSize: 2, Weights: []float64{1, -1}}},
		{"Gewicht NaN", twoBitexts(nil, nil), Options{BatchSize: 2, Weights: []float64{1, math.NaN()}}},
		{"Gewichte Summe 0", twoBitexts(nil, nil), Options{BatchSize: 2, Weights: []float64{0, 0}}},
		{"keine Bitexte", nil, Options{BatchSize: 2}},
		{"unbekannte ID", []BitextDef{{Source: lang1, Target: corpus.ID("lang4")}}, Options{BatchSize: 2}},
		{"doppelt", []BitextDef{{Source: lang1, Target: lang2}, {Source: lang1, Target: lang2}}, Options{BatchSize: 2}},
		{"negatives Intervall", []BitextDef{{Source: lang1, Target: lang2, Lines: corpus.Lines(-1, 3)}}, Options{BatchSize: 2}},
		{"unbekannte Policy", twoBitexts(nil, nil), Options{BatchSize: 2, Policy: Policy(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromFiles(testFiles, tt.defs, tt.opts); !errors.Is(err, ErrConfig) {
				t.Errorf("Erwartete ErrConfig, bekam %v", err)
			}
		})
	}
}

func TestNewKeepsInsertionOrder(t *testing.T) {
	bitexts := orderedmap.New[BitextKey, *corpus.Bitext]()
	bitexts.Set(key13, corpus.NewBitext(testFiles[lang1], testFiles[lang3], nil))
	bitexts.Set(key12, corpus.NewBitext(testFiles[lang1], testFiles[lang2], nil))

	m, err := New(bitexts, Options{BatchSize: 2, Weights: []float64{1, 0}, Seed: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	if diff := cmp.Diff([]BitextKey{key13, key12}, m.Keys()); diff != "" {
		t.Errorf("Keys() (-want +got):\n%s", diff)
	}
	b, err := m.NextBatch(context.Background())
	if err != nil {
		t.Fatalf("NextBatch: %v", err)
	}
	if b.Key() != key13 {
		t.Errorf("Gewicht 1 gehoert zum ersten Schluessel %s, gezogen wurde %s", key13, b.Key())
	}
}

func TestCorpusIDs(t *testing.T) {
	m := mustMixture(t, twoBitexts(nil, nil), Options{BatchSize: 2})
	if diff := cmp.Diff([]corpus.CorpusID{lang1, lang2, lang3}, m.CorpusIDs()); diff != "" {
		t.Errorf("CorpusIDs() (-want +got):\n%s", diff)
	}
}

func TestContextCanceled(t *testing.T) {
	m := mustMixture(t, twoBitexts(nil, nil), Options{BatchSize: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.NextBatch(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Erwartete context.Canceled, bekam %v", err)
	}
}

func TestReadError(t *testing.T) {
	files := map[corpus.CorpusID]string{
		lang1: testFiles[lang1],
		lang2: filepath.Join(t.TempDir(), "fehlt.txt"),
	}
	m, err := FromFiles(files, []BitextDef{{Source: lang1, Target: lang2}}, Options{BatchSize: 2, Seed: 1})
	if err != nil {
		t.Fatalf("FromFiles: %v", err)
	}
	defer m.Close()

	if _, err := m.NextBatch(context.Background()); !errors.Is(err, corpus.ErrRead) {
		t.Errorf("Erwartete corpus.ErrRead, bekam %v", err)
	}
}

func TestFromConfigDev(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "config", "testdata", "example_config.json"))
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	m, err := FromConfig(cfg, "dev", Options{Seed: 5})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer m.Close()

	if m.BatchSize() != 2 {
		t.Errorf("BatchSize() = %d, erwartet 2 aus der Konfiguration", m.BatchSize())
	}

	b, err := m.NextBatch(context.Background())
	if err != nil {
		t.Fatalf("NextBatch: %v", err)
	}
	options := []*RawBatch{
		{
			Source:   []string{"The cat slept.", "She runs fast."},
			Target:   []string{"Le chat a dormi.", "Elle court vite."},
			SourceID: corpus.CorpusID{Corpus: "l1-l2", Side: "lang1"},
			TargetID: corpus.CorpusID{Corpus: "l1-l2", Side: "lang2"},
		},
		{
			Source:   []string{"The cat slept.", "She runs fast."},
			Target:   []string{"Die Katze hat geschlafen.", "Sie rennt schnell."},
			SourceID: corpus.CorpusID{Corpus: "l1-l3", Side: "lang1"},
			TargetID: corpus.CorpusID{Corpus: "l1-l3", Side: "lang3"},
		},
	}
	if !slices.ContainsFunc(options, func(o *RawBatch) bool { return cmp.Equal(o, b) }) {
		t.Errorf("unerwarteter erster Batch: %+v", b)
	}
}

func TestFromConfigTrainUsesTrainLines(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "config", "testdata", "example_config.json"))
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	m, err := FromConfig(cfg, "train", Options{Policy: RetireOnExhaustion, Seed: 5})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	defer m.Close()

	// [0, 10) und [10, 20) bei Batch-Groesse 2
	if got := len(drain(t, m)); got != 10 {
		t.Errorf("Erwartete 10 Batches, bekam %d", got)
	}

	if _, err := FromConfig(cfg, "test", Options{}); !errors.Is(err, ErrConfig) || !errors.Is(err, config.ErrMissingSplit) {
		t.Errorf("Erwartete ErrConfig und ErrMissingSplit, bekam %v", err)
	}
}
