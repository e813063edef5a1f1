// pack.go - Kuerzen und Auffuellen von Token-Sequenzen
//
// Dieses Modul enthaelt:
// - Sequence: Prefix (z.B. Sprach-Token), Body, Suffix (z.B. </s>)
// - Pack: Baut ein rechteckiges Encoding aus einem Batch von Sequenzen
// - StripSpecial: Entfernt Spezial-Tokens vor dem Dekodieren
package tokenizer

// Sequence ist eine kodierte Zeile vor dem Auffuellen.
// Beim Kuerzen wird nur Body verkuerzt; Prefix und Suffix bleiben erhalten.
type Sequence struct {
	Prefix []int32
	Body   []int32
	Suffix []int32
}

// Len gibt die Gesamtlaenge zurueck
func (s Sequence) Len() int {
	return len(s.Prefix) + len(s.Body) + len(s.Suffix)
}

// Truncate kuerzt die Sequenz von rechts auf maxLength Tokens.
// Das Suffix (Endmarke) bleibt immer am Ende erhalten. maxLength <= 0 heisst unbegrenzt.
func (s Sequence) Truncate(maxLength int) []int32 {
	if maxLength <= 0 || s.Len() <= maxLength {
		return s.ids(s.Body)
	}

	keep := maxLength - len(s.Prefix) - len(s.Suffix)
	if keep >= 0 {
		return s.ids(s.Body[:keep])
	}

	// Nicht einmal Prefix und Suffix passen: Suffix hat Vorrang
	suffix := s.Suffix
	if len(suffix) > maxLength {
		suffix = suffix[len(suffix)-maxLength:]
	}
	out := make([]int32, 0, maxLength)
	out = append(out, s.Prefix[:maxLength-len(suffix)]...)
	return append(out, suffix...)
}

func (s Sequence) ids(body []int32) []int32 {
	out := make([]int32, 0, len(s.Prefix)+len(body)+len(s.Suffix))
	out = append(out, s.Prefix...)
	out = append(out, body...)
	return append(out, s.Suffix...)
}

// Pack kuerzt jede Sequenz auf maxLength und fuellt rechts mit padID auf
// die laengste Zeile des Batches auf. Die Maske ist 1 fuer echte Tokens
// und 0 fuer Auffuellung.
func Pack(seqs []Sequence, padID int32, maxLength int) *Encoding {
	rows := make([][]int32, len(seqs))
	width := 0
	for i, s := range seqs {
		rows[i] = s.Truncate(maxLength)
		width = max(width, len(rows[i]))
	}

	enc := &Encoding{
		InputIDs:      make([][]int32, len(rows)),
		AttentionMask: make([][]int32, len(rows)),
	}
	for i, row := range rows {
		ids := make([]int32, width)
		mask := make([]int32, width)
		for j := range width {
			if j < len(row) {
				ids[j] = row[j]
				mask[j] = 1
			} else {
				ids[j] = padID
			}
		}
		enc.InputIDs[i] = ids
		enc.AttentionMask[i] = mask
	}
	return enc
}

// NeedsPadding meldet, ob Pack bei maxLength Zeilen auffuellen muesste
func NeedsPadding(seqs []Sequence, maxLength int) bool {
	for i := 1; i < len(seqs); i++ {
		if seqs[i].truncatedLen(maxLength) != seqs[0].truncatedLen(maxLength) {
			return true
		}
	}
	return false
}

func (s Sequence) truncatedLen(maxLength int) int {
	if maxLength > 0 {
		return min(s.Len(), maxLength)
	}
	return s.Len()
}

// StripSpecial entfernt alle IDs, die in special enthalten sind
func StripSpecial(ids []int32, special map[int32]bool) []int32 {
	out := make([]int32, 0, len(ids))
	for _, id := range ids {
		if !special[id] {
			out = append(out, id)
		}
	}
	return out
}
