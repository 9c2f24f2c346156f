package xmlembed

import (
	"testing"
)

func TestExtract(t *testing.T) {
	script := Rule{Tag: "Script", Kind: CDATA, Profile: ScriptProfile, CommentTransform: true}
	style := Rule{Tag: "Style", Kind: PlainText, Profile: cssProfile}

	for _, test := range []struct {
		name string
		xml  string
		rule Rule
		want string
	}{
		{
			name: "plain text is trimmed",
			xml:  `<Style>  .a{color:red}  </Style>`,
			rule: style,
			want: ".a{color:red}",
		},
		{
			name: "plain text is unescaped",
			xml:  `<Style>a &gt; b { }</Style>`,
			rule: style,
			want: "a > b { }",
		},
		{
			name: "plain text skips comments",
			xml:  `<Style>a { }<!-- note -->b { }</Style>`,
			rule: style,
			want: "a { }b { }",
		},
		{
			name: "plain text is dedented",
			xml:  "<Style>\n        .a {\n            color: red;\n        }\n    </Style>",
			rule: style,
			want: ".a {\n    color: red;\n}",
		},
		{
			name: "first cdata section only",
			xml:  `<Script>  <![CDATA[ var a = 1; ]]><![CDATA[ var b = 2; ]]></Script>`,
			rule: script,
			want: "var a = 1;",
		},
		{
			name: "text around cdata is ignored",
			xml:  `<Script>before<![CDATA[x()]]>after</Script>`,
			rule: script,
			want: "x()",
		},
		{
			name: "no cdata section",
			xml:  `<Script>var a = 1;</Script>`,
			rule: script,
			want: "",
		},
		{
			name: "empty element",
			xml:  `<Script/>`,
			rule: script,
			want: "",
		},
		{
			name: "xml comments become line comments",
			xml:  "<Script><![CDATA[\n    <!-- first\n    second -->\n    run();\n]]></Script>",
			rule: script,
			want: "// first\n// second\nrun();",
		},
		{
			name: "comment transform disabled",
			xml:  `<Script><![CDATA[<!-- keep -->]]></Script>`,
			rule: Rule{Tag: "Script", Kind: CDATA, Profile: ScriptProfile},
			want: "<!-- keep -->",
		},
		{
			name: "custom comment marker",
			xml:  `<Script><![CDATA[<!-- note -->]]></Script>`,
			rule: Rule{Tag: "Script", Kind: CDATA, CommentTransform: true, CommentMarker: "#"},
			want: "# note",
		},
		{
			name: "code after a comment stays code",
			xml:  "<Script><![CDATA[var a = 1; <!-- note --> var b = 2;\nuse(a, b);]]></Script>",
			rule: script,
			want: "var a = 1; // note\nvar b = 2;\nuse(a, b);",
		},
		{
			name: "empty comment line",
			xml:  "<Script><![CDATA[<!--\n-->]]></Script>",
			rule: script,
			want: "//\n//",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			doc := mustParse(t, test.xml)
			testValue(t, Extract(doc.Root(), test.rule), test.want)
		})
	}
}

func TestExtractKeepsNode(t *testing.T) {
	doc := mustParse(t, `<Root><Html><![CDATA[<p>x</p>]]></Html></Root>`)
	n := findNode(doc.Root(), "Html")
	rule := Rule{Tag: "Html", Kind: CDATA, Profile: htmlProfile}
	b := extract(n, rule)
	testValue(t, b.Raw, "<p>x</p>")
	testValue(t, b.Kind, CDATA)
	testValue(t, b.Node, n)
}

func TestLineComments(t *testing.T) {
	for _, test := range []struct {
		in, want string
	}{
		{in: "no comments", want: "no comments"},
		{in: "a();<!-- x -->b();<!--y-->", want: "a();// x\nb();// y"},
		{in: "a; <!-- c --> b;", want: "a; // c\nb;"},
		{in: "var a = 1; <!-- note --> var b = 2;\nuse(a, b);", want: "var a = 1; // note\nvar b = 2;\nuse(a, b);"},
		{in: "<!-- a --><!-- b -->", want: "// a\n// b"},
		{in: "x(); <!-- end -->   \ny();", want: "x(); // end   \ny();"},
		{in: "<!-- one\ntwo -->f();", want: "// one\n// two\nf();"},
	} {
		testValue(t, lineComments(test.in, "//"), test.want)
	}
}
