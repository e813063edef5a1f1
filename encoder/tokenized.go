package encoder

import (
	"context"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/mixture"
)

// TokenizedMixture liefert kodierte Batches aus einer Mischung
type TokenizedMixture struct {
	mix *mixture.Mixture
	enc *Encoder
}

func NewTokenizedMixture(mix *mixture.Mixture, enc *Encoder) *TokenizedMixture {
	return &TokenizedMixture{mix: mix, enc: enc}
}

// NextBatch zieht den naechsten Batch und kodiert ihn; io.EOF am Ende der Mischung
func (t *TokenizedMixture) NextBatch(ctx context.Context) (*EncodedPair, error) {
	raw, err := t.mix.NextBatch(ctx)
	if err != nil {
		return nil, err
	}
	return t.enc.Encode(ctx, raw)
}

// Mixture gibt die zugrundeliegende Mischung zurueck
func (t *TokenizedMixture) Mixture() *mixture.Mixture {
	return t.mix
}

func (t *TokenizedMixture) Close() error {
	return t.mix.Close()
}
