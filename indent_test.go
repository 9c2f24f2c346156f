package xmlembed

import (
	"testing"
)

func TestIndent(t *testing.T) {
	doc := mustParse(t, `<a><b><c/></b></a>`)
	a := doc.Root()
	b := findNode(a, "b")
	c := findNode(b, "c")
	testValue(t, Indent(a), "")
	testValue(t, Indent(b), "    ")
	testValue(t, Indent(c), "        ")
}

func TestIndentedLines(t *testing.T) {
	for _, test := range []struct {
		content string
		indent  string
		want    string
	}{
		{content: "a\nb\n", indent: "  ", want: "  a\n  b\n"},
		{content: "a\n\n   \nb", indent: "  ", want: "  a\n\n\n  b"},
		{content: "", indent: "  ", want: ""},
		{content: "  nested", indent: "\t", want: "\t  nested"},
	} {
		testValue(t, indentedLines(test.content, test.indent), test.want)
	}
}

func TestDedent(t *testing.T) {
	for _, test := range []struct {
		name string
		in   string
		want string
	}{
		{name: "common prefix", in: "\n    a {\n        b;\n    }\n", want: "\na {\n    b;\n}\n"},
		{name: "first line decides", in: "  a\n    b\nc", want: "a\n  b\nc"},
		{name: "no indentation", in: "a\n  b", want: "a\n  b"},
		{name: "blank", in: "\n   \n", want: "\n   \n"},
		{name: "tabs", in: "\t\tx\n\t\ty", want: "x\ny"},
	} {
		t.Run(test.name, func(t *testing.T) {
			testValue(t, dedent(test.in), test.want)
		})
	}
}
