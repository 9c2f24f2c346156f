package subfmt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScanJSComments(t *testing.T) {
	for _, test := range []struct {
		src  string
		css  bool
		want bool
	}{
		{src: `a = "// not a comment"`, want: false},
		{src: `a = '/* nor this */'`, want: false},
		{src: "a = `// inside a template`", want: false},
		{src: `ok = /\/\//.test(b)`, want: false},
		{src: `x = a / b / c`, want: false},
		{src: `x = [/*/]`, want: true},
		{src: "// leading\nx()", want: true},
		{src: "a(); /* trailing */", want: true},
		{src: "`${ {a: 1} /* in substitution */ }`", want: true},
		{src: `a { content: "//" } // not css`, css: true, want: false},
		{src: `a { color: red } /* css */`, css: true, want: true},
		{src: `a { background: url(http://x/y.png) }`, css: true, want: false},
	} {
		if got := scanJS(test.src, test.css).comments; got != test.want {
			t.Errorf("scanJS(%q, css=%v).comments = %v, want %v", test.src, test.css, got, test.want)
		}
	}
}

func TestScanJSTemplateLines(t *testing.T) {
	src := "a = `x\ny\n${b}\nz`;\nc = `p\n${`q\nr`}\ns`;\nd"
	got := scanJS(src, false).templateLines
	want := map[int]bool{1: true, 2: true, 3: true, 5: true, 6: true, 7: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("templateLines mismatch (-want +got):\n%s", diff)
	}
}

func TestRegexAllowed(t *testing.T) {
	for _, c := range []byte("(,=:[!&|?{};") {
		if !regexAllowed(c) {
			t.Errorf("regexAllowed(%q) = false", c)
		}
	}
	for _, c := range []byte("a1)]") {
		if regexAllowed(c) {
			t.Errorf("regexAllowed(%q) = true", c)
		}
	}
}
