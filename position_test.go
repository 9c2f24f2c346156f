package xmlembed

import (
	"encoding/json"
	"testing"
)

func TestPositionAt(t *testing.T) {
	for _, test := range []struct {
		name   string
		text   string
		offset int
		want   Position
	}{
		{name: "start", text: "ab\ncd", offset: 0, want: Position{0, 0}},
		{name: "end of first line", text: "ab\ncd", offset: 2, want: Position{0, 2}},
		{name: "after newline", text: "ab\ncd", offset: 3, want: Position{1, 0}},
		{name: "end", text: "ab\ncd", offset: 5, want: Position{1, 2}},
		{name: "trailing newline", text: "ab\n", offset: 3, want: Position{1, 0}},
		{name: "clamped", text: "ab", offset: 10, want: Position{0, 2}},
		{name: "negative", text: "ab", offset: -1, want: Position{0, 0}},
		{name: "two byte rune", text: "é=1", offset: len("é="), want: Position{0, 2}},
		{name: "astral rune", text: "a😀b", offset: len("a😀b"), want: Position{0, 4}},
		{name: "crlf", text: "a\r\nb", offset: 4, want: Position{1, 1}},
	} {
		t.Run(test.name, func(t *testing.T) {
			testValue(t, PositionAt(test.text, test.offset), test.want)
		})
	}
}

func TestFullDocumentEdit(t *testing.T) {
	edit := FullDocumentEdit("<a>\n  <b/>\n</a>", "<a>\n    <b/>\n</a>\n")
	testValue(t, edit.Range.Start, Position{})
	testValue(t, edit.Range.End, Position{Line: 2, Character: 4})
	testValue(t, edit.NewText, "<a>\n    <b/>\n</a>\n")

	edit = FullDocumentEdit("", "<a/>")
	testValue(t, edit.Range.End, Position{})
}

func TestTextEditJSON(t *testing.T) {
	b, err := json.Marshal(FullDocumentEdit("x", "y"))
	if err != nil {
		t.Fatal(err)
	}
	testValue(t, string(b), `{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"newText":"y"}`)
}
