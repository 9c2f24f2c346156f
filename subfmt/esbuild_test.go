package subfmt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestPrintCSS(t *testing.T) {
	out, err := printCSS(".a{color:red}", Profile{Syntax: CSS, IndentWidth: 4, LineWidth: 80})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(".a {\n    color: red;\n}\n", out); diff != "" {
		t.Fatalf("printCSS mismatch (-want +got):\n%s", diff)
	}

	_, err = printCSS("/* keep me */ .a{color:red}", Profile{Syntax: CSS, IndentWidth: 4})
	if !errors.Is(err, ErrLossyComments) {
		t.Fatalf("got %v, want ErrLossyComments", err)
	}
}

func TestPrintJavaScript(t *testing.T) {
	for _, test := range []struct {
		name string
		in   string
		p    Profile
		want string
	}{
		{
			name: "statement",
			in:   "var x=1;",
			p:    Profile{Syntax: JavaScript, IndentWidth: 4},
			want: "var x = 1;\n",
		},
		{
			name: "nested blocks",
			in:   "function f(a){if(a){return 1}return 2}",
			p:    Profile{Syntax: JavaScript, IndentWidth: 4},
			want: "function f(a) {\n    if (a) {\n        return 1;\n    }\n    return 2;\n}\n",
		},
		{
			name: "tabs",
			in:   "function f(){return 1}",
			p:    Profile{Syntax: JavaScript, Flags: map[string]bool{FlagUseTabs: true}},
			want: "function f() {\n\treturn 1;\n}\n",
		},
		{
			name: "template literal lines are kept",
			in:   "function f(){return `a\n  b`}",
			p:    Profile{Syntax: JavaScript, IndentWidth: 4},
			want: "function f() {\n    return `a\n  b`;\n}\n",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			out, err := printJavaScript(test.in, test.p)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, out); diff != "" {
				t.Fatalf("printJavaScript mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrintJavaScriptErrors(t *testing.T) {
	p := Profile{Syntax: JavaScript, IndentWidth: 4}
	if _, err := printJavaScript("// note\nvar x=1;", p); !errors.Is(err, ErrLossyComments) {
		t.Fatalf("got %v, want ErrLossyComments", err)
	}
	_, err := printJavaScript("var = ;", p)
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if errors.Is(err, ErrLossyComments) {
		t.Fatalf("unexpected %v", err)
	}
}

func TestPrintTypeScript(t *testing.T) {
	p := Profile{Syntax: TypeScript, IndentWidth: 4}
	out, err := printTypeScript("let a: number = 1;   \nlet b = a;\t", p)
	if err != nil {
		t.Fatal(err)
	}
	if out != "let a: number = 1;\nlet b = a;" {
		t.Fatalf("got %q", out)
	}
	if _, err := printTypeScript("let a: = 1", p); err == nil {
		t.Fatal("expected a syntax error")
	}
}
