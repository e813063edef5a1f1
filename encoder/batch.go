package encoder

import (
	"slices"

	"github.com/pdevine/tensor"

	"github.com/Mark-Hopkins-at-Williams/independent-study-aidan/corpus"
)

// EncodedBatch ist ein rechteckiges Gitter von Token-IDs mit Maske
type EncodedBatch struct {
	InputIDs      [][]int32
	AttentionMask [][]int32
}

// Shape gibt (Zeilen, Spalten) zurueck
func (b EncodedBatch) Shape() (int, int) {
	if len(b.InputIDs) == 0 {
		return 0, 0
	}
	return len(b.InputIDs), len(b.InputIDs[0])
}

// Tensor kopiert die IDs in einen dichten Int32-Tensor der Form (Zeilen, Spalten)
func (b EncodedBatch) Tensor() *tensor.Dense {
	return dense(b.InputIDs)
}

// MaskTensor kopiert die Maske in einen dichten Int32-Tensor
func (b EncodedBatch) MaskTensor() *tensor.Dense {
	return dense(b.AttentionMask)
}

func dense(grid [][]int32) *tensor.Dense {
	rows, cols := len(grid), 0
	if rows > 0 {
		cols = len(grid[0])
	}
	backing := make([]int32, 0, rows*cols)
	for _, row := range grid {
		backing = append(backing, row...)
	}
	return tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))
}

func clone(grid [][]int32) [][]int32 {
	out := make([][]int32, len(grid))
	for i, row := range grid {
		out[i] = slices.Clone(row)
	}
	return out
}

// EncodedPair ist ein kodierter Batch mit Herkunft beider Seiten
type EncodedPair struct {
	Source   EncodedBatch
	Target   EncodedBatch
	SourceID corpus.CorpusID
	TargetID corpus.CorpusID
}
