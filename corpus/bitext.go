// bitext.go - Parallele Korpora und Satzpaar-Cursor
//
// Dieses Modul enthaelt:
// - Bitext: Unveraenderliches Paar aus Quell- und Ziel-FileSet
// - PairCursor: Positionelles Paaren zweier Zeilenleser
// - All: Iterator ueber alle Paare (range-over-func)
package corpus

import (
	"errors"
	"fmt"
	"io"
	"iter"
)

// Pair ist ein ausgerichtetes Satzpaar
type Pair struct {
	Source string
	Target string
}

// Bitext ist ein paralleles Korpus. Es ist unveraenderlich und beliebig oft
// iterierbar; jeder Open-Aufruf oeffnet eigene Datei-Handles ab Zeile 0.
type Bitext struct {
	source FileSet
	target FileSet
}

// NewBitext erzeugt ein Bitext aus je einer Datei pro Seite.
// lines (optional) gilt fuer beide Dateien.
func NewBitext(sourcePath, targetPath string, lines *LineRange) *Bitext {
	return &Bitext{
		source: Files(sourcePath).WithLines(lines),
		target: Files(targetPath).WithLines(lines),
	}
}

// NewMultifileBitext erzeugt ein Bitext aus mehreren Dateien pro Seite.
// lines ist entweder leer oder enthaelt ein Intervall pro Dateiindex;
// Intervall i gilt fuer Datei i auf beiden Seiten.
func NewMultifileBitext(sourcePaths, targetPaths []string, lines []LineRange) (*Bitext, error) {
	if len(sourcePaths) != len(targetPaths) {
		return nil, fmt.Errorf("bitext: %d source files but %d target files", len(sourcePaths), len(targetPaths))
	}
	if len(lines) > 0 && len(lines) != len(sourcePaths) {
		return nil, fmt.Errorf("bitext: %d line ranges for %d files", len(lines), len(sourcePaths))
	}

	src, tgt := Files(sourcePaths...), Files(targetPaths...)
	for i := range lines {
		r := lines[i]
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("bitext: file %d: %w", i, err)
		}
		src[i].Lines = &r
		tgt[i].Lines = &r
	}
	return &Bitext{source: src, target: tgt}, nil
}

// NewBitextFromFileSets erzeugt ein Bitext aus beliebigen FileSets
func NewBitextFromFileSets(source, target FileSet) *Bitext {
	return &Bitext{
		source: append(FileSet(nil), source...),
		target: append(FileSet(nil), target...),
	}
}

// Source gibt eine Kopie des Quell-FileSets zurueck
func (b *Bitext) Source() FileSet { return append(FileSet(nil), b.source...) }

// Target gibt eine Kopie des Ziel-FileSets zurueck
func (b *Bitext) Target() FileSet { return append(FileSet(nil), b.target...) }

// Open startet eine neue Iteration ab dem ersten Paar
func (b *Bitext) Open() *PairCursor {
	return &PairCursor{
		source: OpenLines(b.source),
		target: OpenLines(b.target),
	}
}

// All iteriert ueber alle Paare. Ein Lesefehler wird als letztes Element
// geliefert, danach endet die Iteration.
func (b *Bitext) All() iter.Seq2[Pair, error] {
	return func(yield func(Pair, error) bool) {
		c := b.Open()
		defer c.Close()
		for {
			p, err := c.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

// Len zaehlt die Paare durch vollstaendiges Lesen
func (b *Bitext) Len() (int, error) {
	n := 0
	for _, err := range b.All() {
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// PairCursor paart die i-te Quellzeile mit der i-ten Zielzeile.
// Endet, sobald eine der beiden Seiten erschoepft ist; ueberzaehlige
// Zeilen der laengeren Seite werden still ignoriert.
type PairCursor struct {
	source *LineReader
	target *LineReader
	err    error
}

// Next gibt das naechste Paar zurueck oder io.EOF.
// Nach einem Fehler liefert Next immer wieder denselben Fehler.
func (c *PairCursor) Next() (Pair, error) {
	if c.err != nil {
		return Pair{}, c.err
	}

	src, err := c.source.Next()
	if err != nil {
		return Pair{}, c.fail(err)
	}
	tgt, err := c.target.Next()
	if err != nil {
		return Pair{}, c.fail(err)
	}
	return Pair{Source: src, Target: tgt}, nil
}

// Close gibt die Datei-Handles frei
func (c *PairCursor) Close() error {
	if c.err == nil {
		c.err = io.EOF
	}
	return errors.Join(c.source.Close(), c.target.Close())
}

func (c *PairCursor) fail(err error) error {
	c.source.Close()
	c.target.Close()
	c.err = err
	return err
}
