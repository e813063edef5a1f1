// corpus.go - Grundtypen fuer parallele Korpora
//
// Dieses Modul enthaelt:
// - CorpusID: Schluessel fuer eine Sprachseite eines Korpus
// - LineRange: Halboffenes Zeilenintervall [Start, End)
// - FileSpec/FileSet: Dateien einer Sprachseite, in Reihenfolge gelesen
//
// Siehe auch: lines.go fuer den Zeilenleser, bitext.go fuer Satzpaare
package corpus

import (
	"errors"
	"fmt"
)

// ErrRead markiert Lesefehler (fehlende oder unlesbare Korpus-Dateien)
var ErrRead = errors.New("corpus: read failed")

// CorpusID identifiziert eine Sprachseite eines Korpus, z.B. {"europarl", "eng"}.
// Vergleichbar und als Map-Schluessel nutzbar.
type CorpusID struct {
	Corpus string
	Side   string
}

// ID erzeugt eine CorpusID ohne Korpus-Namen
func ID(side string) CorpusID {
	return CorpusID{Side: side}
}

func (id CorpusID) String() string {
	if id.Corpus == "" {
		return id.Side
	}
	return id.Corpus + "/" + id.Side
}

// Less ordnet CorpusIDs zuerst nach Korpus, dann nach Seite
func (id CorpusID) Less(other CorpusID) bool {
	if id.Corpus != other.Corpus {
		return id.Corpus < other.Corpus
	}
	return id.Side < other.Side
}

// LineRange beschraenkt die sichtbaren Zeilen einer Datei auf [Start, End).
// Die Zeilennummern sind 0-basiert und beziehen sich auf die einzelne Datei.
type LineRange struct {
	Start int
	End   int
}

// Lines erzeugt einen Zeiger auf ein LineRange
func Lines(start, end int) *LineRange {
	return &LineRange{Start: start, End: end}
}

// Contains prueft, ob die Zeile i im Intervall liegt
func (r LineRange) Contains(i int) bool {
	return r.Start <= i && i < r.End
}

// Len gibt die Anzahl der Zeilen im Intervall zurueck (nie negativ)
func (r LineRange) Len() int {
	return max(0, r.End-r.Start)
}

// Validate prueft, dass das Intervall keine negativen Grenzen hat
func (r LineRange) Validate() error {
	if r.Start < 0 || r.End < 0 {
		return fmt.Errorf("line range [%d, %d): negative bound", r.Start, r.End)
	}
	return nil
}

func (r LineRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// FileSpec ist eine Datei mit optionaler Zeilenbeschraenkung.
// Lines == nil bedeutet: ganze Datei.
type FileSpec struct {
	Path  string
	Lines *LineRange
}

// FileSet ist die geordnete Liste der Dateien einer Sprachseite
type FileSet []FileSpec

// Files erzeugt ein FileSet ohne Zeilenbeschraenkung
func Files(paths ...string) FileSet {
	fs := make(FileSet, len(paths))
	for i, p := range paths {
		fs[i] = FileSpec{Path: p}
	}
	return fs
}

// WithLines gibt eine Kopie zurueck, in der jede Datei dasselbe Intervall nutzt
func (fs FileSet) WithLines(r *LineRange) FileSet {
	out := make(FileSet, len(fs))
	for i, f := range fs {
		out[i] = FileSpec{Path: f.Path, Lines: r}
	}
	return out
}

// Paths gibt die Dateipfade zurueck
func (fs FileSet) Paths() []string {
	paths := make([]string, len(fs))
	for i, f := range fs {
		paths[i] = f.Path
	}
	return paths
}
