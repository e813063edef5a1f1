// lines.go - Zeilenleser ueber ein FileSet
//
// Dieses Modul enthaelt:
// - LineReader: Liest Zeilen lazy aus einer oder mehreren Dateien
// - OpenLines: Erzeugt einen frischen Leser (eigene Datei-Handles)
//
// Dateien werden erst beim ersten Zugriff geoeffnet. Ein Fehler beim
// Oeffnen oder Lesen ist endgueltig und wird nicht wiederholt.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const readBufSize = 64 * 1024

// LineReader liefert die Zeilen eines FileSets in Dateireihenfolge.
// Jede Datei wird auf ihr LineRange beschraenkt; sobald das Ende des
// Intervalls erreicht ist, wird der Rest der Datei nicht mehr gelesen.
type LineReader struct {
	files FileSet
	idx   int

	f    *os.File
	r    *bufio.Reader
	line int

	err error
}

// OpenLines erzeugt einen Leser. Es wird noch keine Datei geoeffnet.
func OpenLines(files FileSet) *LineReader {
	return &LineReader{files: files}
}

// Next gibt die naechste sichtbare Zeile ohne Zeilenumbruch zurueck.
// Am Ende aller Dateien wird io.EOF geliefert.
func (lr *LineReader) Next() (string, error) {
	for {
		if lr.err != nil {
			return "", lr.err
		}

		if lr.r == nil {
			if lr.idx >= len(lr.files) {
				lr.err = io.EOF
				return "", io.EOF
			}
			if err := lr.open(lr.files[lr.idx].Path); err != nil {
				lr.err = err
				return "", err
			}
		}

		spec := lr.files[lr.idx]
		if spec.Lines != nil && lr.line >= spec.Lines.End {
			lr.advance()
			continue
		}

		text, err := lr.r.ReadString('\n')
		if err != nil && err != io.EOF {
			lr.closeCurrent()
			lr.err = fmt.Errorf("%w: %s: %w", ErrRead, spec.Path, err)
			return "", lr.err
		}
		if err == io.EOF && text == "" {
			lr.advance()
			continue
		}

		i := lr.line
		lr.line++
		if spec.Lines == nil || spec.Lines.Contains(i) {
			return trimNewline(text), nil
		}
	}
}

// Close schliesst die aktuell geoeffnete Datei. Danach liefert Next io.EOF.
func (lr *LineReader) Close() error {
	var err error
	if lr.f != nil {
		err = lr.f.Close()
		lr.f, lr.r = nil, nil
	}
	if lr.err == nil {
		lr.err = io.EOF
	}
	return err
}

func (lr *LineReader) open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRead, err)
	}
	lr.f = f
	lr.r = bufio.NewReaderSize(f, readBufSize)
	lr.line = 0
	return nil
}

func (lr *LineReader) advance() {
	lr.closeCurrent()
	lr.idx++
}

func (lr *LineReader) closeCurrent() {
	if lr.f != nil {
		lr.f.Close()
	}
	lr.f, lr.r = nil, nil
}

// trimNewline entfernt "\n" bzw. "\r\n" am Zeilenende
func trimNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
