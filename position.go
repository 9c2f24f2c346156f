package xmlembed

import (
	"sort"
	"unicode/utf8"
)

// Position is a zero-based location in a text document. Character is
// measured in UTF-16 code units, the unit editors exchange positions in.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open span [Start, End) of a text document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// TextEdit replaces the text in Range with NewText.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// lineIndex records the byte offset at which every line of a text starts.
type lineIndex struct {
	text       string
	lineStarts []int
}

func newLineIndex(text string) *lineIndex {
	idx := &lineIndex{text: text, lineStarts: []int{0}}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			idx.lineStarts = append(idx.lineStarts, i+1)
		}
	}
	return idx
}

// lineFor returns the zero-based line containing byte offset pos.
func (idx *lineIndex) lineFor(pos int) int {
	return sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > pos
	}) - 1
}

// position converts a byte offset into a Position. Offsets outside the
// text are clamped to its bounds.
func (idx *lineIndex) position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(idx.text) {
		offset = len(idx.text)
	}
	line := idx.lineFor(offset)
	return Position{Line: line, Character: utf16Len(idx.text[idx.lineStarts[line]:offset])}
}

func utf16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		// Runes outside the Basic Multilingual Plane take a surrogate pair.
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// PositionAt returns the Position of byte offset in text.
func PositionAt(text string, offset int) Position {
	return newLineIndex(text).position(offset)
}

// FullDocumentEdit returns an edit replacing the whole of original with
// formatted.
func FullDocumentEdit(original, formatted string) TextEdit {
	return TextEdit{
		Range: Range{
			Start: Position{},
			End:   PositionAt(original, len(original)),
		},
		NewText: formatted,
	}
}
