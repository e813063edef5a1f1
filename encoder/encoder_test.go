package encoder

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/corpus"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/mixture"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/tokenizer"
	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/tokenizer/hf"
)

// wordTokenizer vergibt jedem Wort eine feste ID ab 10. Sprache als Prefix, </s> als Suffix.
type wordTokenizer struct {
	words     map[string]int32
	langs     map[string]int32
	maxLength int
	err       error
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{
		words: map[string]int32{
			"the": 10, "cat": 11, "slept": 12, "she": 13, "runs": 14, "fast": 15,
			"le": 20, "chat": 21, "a": 22, "dormi": 23, "elle": 24, "court": 25, "vite": 26,
		},
		langs: map[string]int32{"eng_Latn": 100, "fra_Latn": 101},
	}
}

func (w *wordTokenizer) Tokenize(ctx context.Context, sentences []string, lang string) (*tokenizer.Encoding, error) {
	if w.err != nil {
		return nil, w.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	langID, ok := w.langs[lang]
	if !ok {
		return nil, tokenizer.ErrUnknownToken
	}

	seqs := make([]tokenizer.Sequence, len(sentences))
	for i, s := range sentences {
		var body []int32
		for _, word := range strings.Fields(strings.ToLower(strings.Trim(s, "."))) {
			id, ok := w.words[word]
			if !ok {
				id = 3
			}
			body = append(body, id)
		}
		seqs[i] = tokenizer.Sequence{Prefix: []int32{langID}, Body: body, Suffix: []int32{2}}
	}
	return tokenizer.Pack(seqs, 1, w.maxLength), nil
}

func (w *wordTokenizer) VocabularySize() int { return 102 }

func (w *wordTokenizer) SpecialTokens() map[string]int32 {
	return map[string]int32{"<s>": 0, "<pad>": 1, "</s>": 2, "<unk>": 3, "eng_Latn": 100, "fra_Latn": 101}
}

func (w *wordTokenizer) Specials() tokenizer.Specials {
	return tokenizer.Specials{BOS: 0, PAD: 1, EOS: 2, UNK: 3, Mask: -1}
}

func (w *wordTokenizer) AddSpecialTokens(tokens ...string) error { return nil }

func (w *wordTokenizer) Decode(grid [][]int32) ([]string, error) { return nil, nil }

var (
	eng = corpus.CorpusID{Corpus: "c", Side: "eng"}
	fra = corpus.CorpusID{Corpus: "c", Side: "fra"}

	testLangs = map[corpus.CorpusID]string{eng: "eng_Latn", fra: "fra_Latn"}
)

func testBatch() *mixture.RawBatch {
	return &mixture.RawBatch{
		Source:   []string{"The cat slept.", "She runs fast."},
		Target:   []string{"Le chat a dormi.", "Elle court vite."},
		SourceID: eng,
		TargetID: fra,
	}
}

func TestEncode(t *testing.T) {
	e := New(newWordTokenizer(), testLangs)

	got, err := e.Encode(context.Background(), testBatch())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := &EncodedPair{
		Source: EncodedBatch{
			InputIDs:      [][]int32{{100, 10, 11, 12, 2}, {100, 13, 14, 15, 2}},
			AttentionMask: [][]int32{{1, 1, 1, 1, 1}, {1, 1, 1, 1, 1}},
		},
		Target: EncodedBatch{
			InputIDs:      [][]int32{{101, 20, 21, 22, 23, 2}, {101, 24, 25, 26, 2, -100}},
			AttentionMask: [][]int32{{1, 1, 1, 1, 1, 1}, {1, 1, 1, 1, 1, 0}},
		},
		SourceID: eng,
		TargetID: fra,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Kodierung weicht ab (-want +got):\n%s", diff)
	}
}

func TestSourceKeepsPad(t *testing.T) {
	e := New(newWordTokenizer(), testLangs)
	batch := testBatch()
	batch.Source, batch.Target = batch.Target, batch.Source
	batch.SourceID, batch.TargetID = batch.TargetID, batch.SourceID

	got, err := e.Encode(context.Background(), batch)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]int32{101, 24, 25, 26, 2, 1}, got.Source.InputIDs[1]); diff != "" {
		t.Errorf("Quellseite muss die rohe Pad-ID behalten (-want +got):\n%s", diff)
	}
	for _, row := range got.Target.InputIDs {
		for _, v := range row {
			if v == 1 {
				t.Errorf("Zielseite enthaelt Pad-ID: %v", row)
			}
		}
	}
}

func TestPermutationAfterMasking(t *testing.T) {
	e := New(newWordTokenizer(), testLangs, WithPermutations(map[corpus.CorpusID]Permutation{
		eng: func(x int32) int32 { return x + 1 },
		fra: func(x int32) int32 { return x + 2 },
	}))

	got, err := e.Encode(context.Background(), testBatch())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	wantSource := [][]int32{{101, 11, 12, 13, 3}, {101, 14, 15, 16, 3}}
	if diff := cmp.Diff(wantSource, got.Source.InputIDs); diff != "" {
		t.Errorf("Quelle (-want +got):\n%s", diff)
	}
	// Auch der Ignore-Index wird permutiert: -100 + 2 = -98
	wantTarget := [][]int32{{103, 22, 23, 24, 25, 4}, {103, 26, 27, 28, 4, -98}}
	if diff := cmp.Diff(wantTarget, got.Target.InputIDs); diff != "" {
		t.Errorf("Ziel (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]int32{{1, 1, 1, 1, 1, 1}, {1, 1, 1, 1, 1, 0}}, got.Target.AttentionMask); diff != "" {
		t.Errorf("Maske darf nicht permutiert werden (-want +got):\n%s", diff)
	}
}

func TestIgnoreIndexOption(t *testing.T) {
	e := New(newWordTokenizer(), testLangs, WithIgnoreIndex(-1))
	if e.IgnoreIndex() != -1 {
		t.Fatalf("IgnoreIndex() = %d", e.IgnoreIndex())
	}
	got, err := e.Encode(context.Background(), testBatch())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if v := got.Target.InputIDs[1][5]; v != -1 {
		t.Errorf("Aufgefuellte Position = %d, erwartet -1", v)
	}
}

func TestTruncation(t *testing.T) {
	tok := newWordTokenizer()
	tok.maxLength = 4
	e := New(tok, testLangs)

	got, err := e.Encode(context.Background(), testBatch())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, b := range []EncodedBatch{got.Source, got.Target} {
		rows, cols := b.Shape()
		if rows != 2 || cols != 4 {
			t.Errorf("Shape() = (%d, %d), erwartet (2, 4)", rows, cols)
		}
		for _, row := range b.InputIDs {
			if row[len(row)-1] != 2 {
				t.Errorf("Endmarke fehlt nach dem Kuerzen: %v", row)
			}
		}
	}
}

func TestUnknownLanguage(t *testing.T) {
	e := New(newWordTokenizer(), map[corpus.CorpusID]string{eng: "eng_Latn"})
	if _, err := e.Encode(context.Background(), testBatch()); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("Erwartete ErrUnknownLanguage, bekam %v", err)
	}
}

func TestTokenizerErrorPropagates(t *testing.T) {
	tok := newWordTokenizer()
	tok.err = tokenizer.ErrUnknownToken
	e := New(tok, testLangs)

	if _, err := e.Encode(context.Background(), testBatch()); !errors.Is(err, tokenizer.ErrUnknownToken) {
		t.Errorf("Erwartete tokenizer.ErrUnknownToken, bekam %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(newWordTokenizer(), testLangs).Encode(ctx, testBatch()); !errors.Is(err, context.Canceled) {
		t.Errorf("Erwartete context.Canceled, bekam %v", err)
	}
}

func TestTensor(t *testing.T) {
	b := EncodedBatch{
		InputIDs:      [][]int32{{1, 2, 3}, {4, 5, 6}},
		AttentionMask: [][]int32{{1, 1, 1}, {1, 1, 0}},
	}

	tt := b.Tensor()
	if diff := cmp.Diff([]int{2, 3}, []int(tt.Shape())); diff != "" {
		t.Errorf("Tensor-Form (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{1, 2, 3, 4, 5, 6}, tt.Data().([]int32)); diff != "" {
		t.Errorf("Tensor-Daten (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int32{1, 1, 1, 1, 1, 0}, b.MaskTensor().Data().([]int32)); diff != "" {
		t.Errorf("Masken-Daten (-want +got):\n%s", diff)
	}

	if r, c := (EncodedBatch{}).Shape(); r != 0 || c != 0 {
		t.Errorf("leerer Batch: Shape() = (%d, %d)", r, c)
	}
}

func TestTokenizedMixture(t *testing.T) {
	files := map[corpus.CorpusID]string{
		eng: filepath.Join("..", "corpus", "testdata", "lang1_dev.txt"),
		fra: filepath.Join("..", "corpus", "testdata", "lang2_dev.txt"),
	}
	mix, err := mixture.FromFiles(files, []mixture.BitextDef{{Source: eng, Target: fra}},
		mixture.Options{BatchSize: 2, Policy: mixture.RetireOnExhaustion, Seed: 1})
	if err != nil {
		t.Fatalf("FromFiles: %v", err)
	}
	tm := NewTokenizedMixture(mix, New(newWordTokenizer(), testLangs))
	defer tm.Close()

	first, err := tm.NextBatch(context.Background())
	if err != nil {
		t.Fatalf("NextBatch: %v", err)
	}
	if diff := cmp.Diff([][]int32{{100, 10, 11, 12, 2}, {100, 13, 14, 15, 2}}, first.Source.InputIDs); diff != "" {
		t.Errorf("erster Batch (-want +got):\n%s", diff)
	}

	if _, err := tm.NextBatch(context.Background()); err != nil {
		t.Fatalf("NextBatch: %v", err)
	}
	if _, err := tm.NextBatch(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Erwartete io.EOF, bekam %v", err)
	}
}

func TestTargetKeepsTerminatorWithoutPadToken(t *testing.T) {
	// GPT-2 hat kein Pad-Token, <|endoftext|> (18) ist nur Endmarke
	tok, err := hf.Load(filepath.Join("..", "tokenizer", "hf", "testdata", "gpt2"))
	if err != nil {
		t.Fatalf("hf.Load: %v", err)
	}
	e := New(tok, testLangs)

	batch := &mixture.RawBatch{
		Source:   []string{"hello world", "hello world"},
		Target:   []string{"hello world", "hello world"},
		SourceID: eng,
		TargetID: fra,
	}
	got, err := e.Encode(context.Background(), batch)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := [][]int32{{11, 16, 18}, {11, 16, 18}}
	if diff := cmp.Diff(want, got.Target.InputIDs); diff != "" {
		t.Errorf("Endmarke der Ziel-Labels verloren (-want +got):\n%s", diff)
	}

	batch.Target = []string{"hello world", "hell"}
	if _, err := e.Encode(context.Background(), batch); !errors.Is(err, tokenizer.ErrNoPadToken) {
		t.Errorf("Erwartete tokenizer.ErrNoPadToken, bekam %v", err)
	}
}
