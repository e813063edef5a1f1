package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/agnivade/levenshtein"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/corpus"
)

// Validate prueft die Konfiguration und meldet alle Fehler gemeinsam
func (c *Config) Validate() error {
	var errs []error

	if len(c.Corpora) == 0 {
		errs = append(errs, fmt.Errorf("%w: no corpora", ErrInvalid))
	}
	if len(c.Bitexts) == 0 {
		errs = append(errs, fmt.Errorf("%w: no bitexts", ErrInvalid))
	}

	seen := make(map[[2]corpus.CorpusID]bool)
	for i, b := range c.Bitexts {
		if err := c.validateBitext(b); err != nil {
			errs = append(errs, fmt.Errorf("bitexts[%d]: %w", i, err))
		}
		key := [2]corpus.CorpusID{b.SourceID(), b.TargetID()}
		if seen[key] {
			errs = append(errs, fmt.Errorf("bitexts[%d]: %w: duplicate bitext %s -> %s", i, ErrInvalid, key[0], key[1]))
		}
		seen[key] = true
	}

	if err := c.Finetuning.validate(len(c.Bitexts)); err != nil {
		errs = append(errs, fmt.Errorf("finetuning_parameters: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Config) validateBitext(b BitextConfig) error {
	sides, ok := c.Corpora[b.Corpus]
	if !ok {
		return unknown(fmt.Sprintf("corpus %q", b.Corpus), b.Corpus, slices.Collect(maps.Keys(c.Corpora)))
	}

	var errs []error
	for _, side := range []string{b.Src, b.Tgt} {
		if _, ok := sides[side]; !ok {
			errs = append(errs, unknown(fmt.Sprintf("side %q in corpus %q", side, b.Corpus), side, slices.Collect(maps.Keys(sides))))
		}
	}

	if b.TrainLines != nil {
		switch {
		case len(b.TrainLines) != 2:
			errs = append(errs, fmt.Errorf("%w: train_lines must be [start, end], got %v", ErrInvalid, b.TrainLines))
		default:
			r := corpus.LineRange{Start: b.TrainLines[0], End: b.TrainLines[1]}
			if err := r.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%w: train_lines: %w", ErrInvalid, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (f *FinetuningParameters) validate(bitexts int) error {
	if f.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be > 0 (got %d)", ErrInvalid, f.BatchSize)
	}
	if f.MaxLength < 0 {
		return fmt.Errorf("%w: max_length must be >= 0 (got %d)", ErrInvalid, f.MaxLength)
	}
	if f.SamplingWeights == nil {
		return nil
	}
	if len(f.SamplingWeights) != bitexts {
		return fmt.Errorf("%w: %d sampling_weights for %d bitexts", ErrInvalid, len(f.SamplingWeights), bitexts)
	}
	sum := 0.0
	for _, w := range f.SamplingWeights {
		if w < 0 {
			return fmt.Errorf("%w: negative sampling weight %v", ErrInvalid, w)
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("%w: sampling_weights must have a positive sum", ErrInvalid)
	}
	return nil
}

// unknown baut einen ErrUnknownCorpus Fehler mit Vorschlag
func unknown(what, name string, candidates []string) error {
	if s := suggest(name, candidates); s != "" {
		return fmt.Errorf("%w: %s (did you mean %q?)", ErrUnknownCorpus, what, s)
	}
	return fmt.Errorf("%w: %s", ErrUnknownCorpus, what)
}

// suggest gibt den naechstgelegenen Kandidaten zurueck, wenn er nah genug ist
func suggest(name string, candidates []string) string {
	slices.Sort(candidates)
	best, score := "", -1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); score < 0 || d < score {
			best, score = c, d
		}
	}
	if score < 0 || score > max(2, len(name)/3) {
		return ""
	}
	return best
}
