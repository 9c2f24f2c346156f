package xmlembed

import (
	"testing"
)

func TestReinsertPlainText(t *testing.T) {
	doc := mustParse(t, `<Root><Style>old<!-- c --></Style></Root>`)
	n := findNode(doc.Root(), "Style")
	Reinsert(n, ".a {\n    color: red;\n}\n", Indent(n), PlainText)

	testValue(t, len(n.Children()), 1)
	testValue(t, n.FirstChild.Type, TextNode)
	testValue(t, n.FirstChild.Data, "\n    .a {\n        color: red;\n    }\n    ")
	verifyNodePointers(t, doc)
}

func TestReinsertCDATA(t *testing.T) {
	doc := mustParse(t, `<Root><Script>x<![CDATA[old]]></Script></Root>`)
	n := findNode(doc.Root(), "Script")
	Reinsert(n, "var x = 1;\n", Indent(n), CDATA)

	children := n.Children()
	testValue(t, len(children), 3)
	testValue(t, children[0].Type, TextNode)
	testValue(t, children[0].Data, "\n    ")
	testValue(t, children[1].Type, CharDataNode)
	testValue(t, children[1].Data, "\n        var x = 1;\n    ")
	testValue(t, children[2].Data, "\n    ")
	testValue(t, n.OutputXML(true), "<Script>\n    <![CDATA[\n        var x = 1;\n    ]]>\n    </Script>")
	verifyNodePointers(t, doc)
}

func TestReinsertNested(t *testing.T) {
	doc := mustParse(t, `<Root><Style/><Script/></Root>`)
	style := findNode(doc.Root(), "Style")
	script := findNode(doc.Root(), "Script")

	reinsertNested(style, ".a {\n    color: red;\n}\n\n.b {\n}\n", Indent(style), PlainText)
	testValue(t, style.OutputXML(true), "<Style>\n        .a {\n            color: red;\n        }\n\n        .b {\n        }\n    </Style>")

	reinsertNested(script, "var x = 1;\n", Indent(script), CDATA)
	testValue(t, script.OutputXML(true), "<Script>\n        <![CDATA[\n            var x = 1;\n        ]]>\n    </Script>")
	verifyNodePointers(t, doc)
}

func TestReinsertRoundTrip(t *testing.T) {
	style := Rule{Tag: "Style", Kind: PlainText, Profile: cssProfile}
	script := Rule{Tag: "Script", Kind: CDATA, Profile: ScriptProfile, CommentTransform: true}
	content := "if (a) {\n    b();\n}\n\nc();\n"

	for _, test := range []struct {
		name   string
		rule   Rule
		insert func(n *Node, content, indent string, kind ContentKind)
	}{
		{name: "plain", rule: style, insert: Reinsert},
		{name: "plain nested", rule: style, insert: reinsertNested},
		{name: "cdata", rule: script, insert: Reinsert},
		{name: "cdata nested", rule: script, insert: reinsertNested},
	} {
		t.Run(test.name, func(t *testing.T) {
			doc := mustParse(t, "<Root><Page><"+test.rule.Tag+"/></Page></Root>")
			n := Find(doc, "//"+test.rule.Tag)[0]
			test.insert(n, content, Indent(n), test.rule.Kind)

			// The serialized tree parses back to the same block.
			again := mustParse(t, doc.OutputXML(false))
			m := Find(again, "//"+test.rule.Tag)[0]
			testValue(t, Extract(m, test.rule), "if (a) {\n    b();\n}\n\nc();")
		})
	}
}
