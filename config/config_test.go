package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/corpus"
)

var corpusTestdata = filepath.Join("..", "corpus", "testdata")

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJSON(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "example_config.json"))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Finetuning.BatchSize)
	assert.Equal(t, 128, cfg.Finetuning.MaxLength)
	assert.Equal(t, "facebook/nllb-200-distilled-600M", cfg.Finetuning.BaseModel)
	assert.Nil(t, cfg.Finetuning.SamplingWeights)
	require.Len(t, cfg.Bitexts, 2)
	assert.Equal(t, corpus.CorpusID{Corpus: "l1-l3", Side: "lang3"}, cfg.Bitexts[1].TargetID())
	assert.Equal(t, []string{"dev", "train"}, cfg.Splits())
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "example_config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Finetuning.BatchSize)
	assert.Equal(t, []float64{1.0}, cfg.Finetuning.SamplingWeights)
	assert.Equal(t, &corpus.LineRange{Start: 4, End: 7}, cfg.Bitexts[0].LineRange("train"))
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BITEXT_BATCH_SIZE", "7")

	cfg, err := Load(filepath.Join("testdata", "example_config.json"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Finetuning.BatchSize)
}

func TestPaths(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "example_config.json"))
	require.NoError(t, err)

	dev, err := cfg.Paths("dev")
	require.NoError(t, err)
	require.Len(t, dev, 4)

	// Relative Pfade werden relativ zur Konfigurationsdatei aufgeloest
	want, err := filepath.Abs(filepath.Join(corpusTestdata, "lang2_dev.txt"))
	require.NoError(t, err)
	got, err := filepath.Abs(dev[corpus.CorpusID{Corpus: "l1-l2", Side: "lang2"}])
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = cfg.Paths("test")
	require.ErrorIs(t, err, ErrMissingSplit)
}

func TestLineRangeOnlyForTrain(t *testing.T) {
	b := BitextConfig{Corpus: "c", Src: "a", Tgt: "b", TrainLines: []int{0, 10}}

	assert.Equal(t, &corpus.LineRange{Start: 0, End: 10}, b.LineRange("train"))
	assert.Nil(t, b.LineRange("dev"))
	assert.Nil(t, BitextConfig{}.LineRange("train"))
}

func TestLanguageCodes(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "example_config.json"))
	require.NoError(t, err)

	codes := cfg.LanguageCodes()
	assert.Equal(t, map[corpus.CorpusID]string{
		{Corpus: "l1-l2", Side: "lang1"}: "eng_Latn",
		{Corpus: "l1-l2", Side: "lang2"}: "fra_Latn",
		{Corpus: "l1-l3", Side: "lang1"}: "eng_Latn",
		{Corpus: "l1-l3", Side: "lang3"}: "deu_Latn",
	}, codes)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Corpora: map[string]map[string]Sides{
				"europarl": {
					"eng": {"train": "eng.txt"},
					"fra": {"train": "fra.txt"},
				},
			},
			Bitexts:    []BitextConfig{{Corpus: "europarl", Src: "eng", Tgt: "fra"}},
			Finetuning: FinetuningParameters{BatchSize: 4},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		wantMsg string
	}{
		{"gueltig", func(*Config) {}, nil, ""},
		{"unbekanntes Korpus", func(c *Config) { c.Bitexts[0].Corpus = "europar" }, ErrUnknownCorpus, `did you mean "europarl"`},
		{"unbekannte Seite", func(c *Config) { c.Bitexts[0].Tgt = "fr" }, ErrUnknownCorpus, `did you mean "fra"`},
		{"kein Vorschlag", func(c *Config) { c.Bitexts[0].Src = "zzzzzzzz" }, ErrUnknownCorpus, `side "zzzzzzzz"`},
		{"train_lines falsch", func(c *Config) { c.Bitexts[0].TrainLines = []int{1} }, ErrInvalid, "train_lines"},
		{"train_lines negativ", func(c *Config) { c.Bitexts[0].TrainLines = []int{-1, 4} }, ErrInvalid, "negative"},
		{"batch_size", func(c *Config) { c.Finetuning.BatchSize = 0 }, ErrInvalid, "batch_size"},
		{"Gewichte Anzahl", func(c *Config) { c.Finetuning.SamplingWeights = []float64{1, 2} }, ErrInvalid, "sampling_weights"},
		{"Gewichte negativ", func(c *Config) { c.Finetuning.SamplingWeights = []float64{-1} }, ErrInvalid, "negative"},
		{"Gewichte Summe", func(c *Config) { c.Finetuning.SamplingWeights = []float64{0} }, ErrInvalid, "positive sum"},
		{"doppelt", func(c *Config) { c.Bitexts = append(c.Bitexts, c.Bitexts[0]) }, ErrInvalid, "duplicate"},
		{"leer", func(c *Config) { c.Bitexts = nil }, ErrInvalid, "no bitexts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "fehlt.json"))
	require.Error(t, err)

	path := writeConfig(t, "bad.yaml", "corpora:\n  c:\n    a: {train: a.txt}\nbitexts:\n  - {corpus: d, src: a, tgt: a}\nfinetuning_parameters:\n  batch_size: 1\n")
	_, err = Load(path)
	require.ErrorIs(t, err, ErrUnknownCorpus)
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, "lang1", suggest("lang", []string{"lang1", "lang2"}))
	assert.Equal(t, "", suggest("completely-different", []string{"a", "b"}))
	assert.Equal(t, "", suggest("x", nil))
}
