package lsp

import (
	"strings"
	"unicode/utf8"

	"github.com/antchfx/xmlembed"
)

// applyRange replaces the text in r with newText.
func applyRange(text string, r xmlembed.Range, newText string) string {
	start := offsetAt(text, r.Start)
	end := offsetAt(text, r.End)
	if end < start {
		start, end = end, start
	}
	return text[:start] + newText + text[end:]
}

// offsetAt converts a position to a byte offset, clamping positions past
// the end of a line or of the text.
func offsetAt(text string, pos xmlembed.Position) int {
	offset := 0
	for line := 0; line < pos.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}
	for units := 0; units < pos.Character && offset < len(text); {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		offset += size
	}
	return offset
}
