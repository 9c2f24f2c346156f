package xmlembed

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

// FormatOption configures the whole-document formatter.
type FormatOption func(*formatter)

// FormatOptionIndent indent the XML using the provided
// pattern.
func FormatOptionIndent(s string) FormatOption {
	return func(t *formatter) {
		t.Indent = s
	}
}

// FormatOptionDeclaration enable/disable the xml declaration.
func FormatOptionDeclaration(b bool) FormatOption {
	return func(t *formatter) {
		t.XMLDeclaration = b
	}
}

// FormatOptionLineSeparator sets the string written between lines.
func FormatOptionLineSeparator(s string) FormatOption {
	return func(t *formatter) {
		t.LineSeparator = s
	}
}

// FormatOptionIgnore marks elements whose content must be written exactly
// as it is in the tree. The element's own tags are still indented.
func FormatOptionIgnore(names ...string) FormatOption {
	return func(t *formatter) {
		if t.Ignored == nil {
			t.Ignored = make(map[string]bool, len(names))
		}
		for _, name := range names {
			t.Ignored[name] = true
		}
	}
}

// FormatOptionStrict makes FormatString reject documents without a root
// element and verify that its own output parses again.
func FormatOptionStrict(b bool) FormatOption {
	return func(t *formatter) {
		t.Strict = b
	}
}

// FormatOptionCollapseContent keeps elements whose only content is text on
// a single line.
func FormatOptionCollapseContent(b bool) FormatOption {
	return func(t *formatter) {
		t.CollapseContent = b
	}
}

// FormatString formats a xml string.
func FormatString(data string, options ...FormatOption) (string, error) {
	t := newFormatter(options...)
	root, err := ParseString(data)
	if err != nil {
		return "", errors.Wrap(err, "xmlembed: cannot format document")
	}
	if t.Strict && root.Root() == nil {
		return "", ErrNoRoot
	}

	out := t.String(root)
	if t.Strict {
		again, err := ParseString(out)
		if err != nil {
			return "", errors.Wrap(err, "xmlembed: formatted document is not well-formed")
		}
		if significantContent(again) != significantContent(root) {
			return "", errors.New("xmlembed: formatting changed the document content")
		}
	}
	return out, nil
}

// significantContent serializes the document element with whitespace
// trimmed outside xml:space="preserve" scopes. Reformatting must leave it
// unchanged.
func significantContent(doc *Node) string {
	root := doc.Root()
	if root == nil {
		return ""
	}
	return root.OutputXMLWithOptions(WithOutputSelf(), WithoutPreserveSpace())
}

// Format a tree with the provided options
func Format(n *Node, options ...FormatOption) string {
	return newFormatter(options...).String(n)
}

type formatter struct {
	Indent          string
	LineSeparator   string
	XMLDeclaration  bool
	Strict          bool
	CollapseContent bool
	Ignored         map[string]bool
}

func newFormatter(options ...FormatOption) formatter {
	return formatter{
		Indent:          IndentUnit,
		LineSeparator:   "\n",
		XMLDeclaration:  true,
		CollapseContent: true,
	}.merge(options...)
}

func (t formatter) merge(options ...FormatOption) formatter {
	for _, opt := range options {
		opt(&t)
	}
	return t
}

func (t formatter) String(n *Node) string {
	var buf bytes.Buffer
	if n.Type == DocumentNode {
		first := true
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if !t.significant(child, false) || (child.Type == DeclarationNode && !t.XMLDeclaration) {
				continue
			}
			if !first {
				buf.WriteString(t.LineSeparator)
			}
			first = false
			t.output(&buf, child, 0, false)
		}
	} else {
		t.output(&buf, n, 0, false)
	}
	return buf.String()
}

func (t formatter) indent(buf *bytes.Buffer, level int) {
	buf.WriteString(strings.Repeat(t.Indent, level))
}

// significant reports whether a child takes a line of its own. Whitespace
// between elements is dropped and regenerated.
func (t formatter) significant(n *Node, preserve bool) bool {
	if n.Type == TextNode && !preserve {
		return strings.TrimSpace(n.Data) != ""
	}
	return true
}

func (t formatter) output(buf *bytes.Buffer, n *Node, level int, preserve bool) {
	preserveSpaces := calculatePreserveSpaces(n, preserve)

	t.indent(buf, level)
	switch n.Type {
	case TextNode:
		escapeText(buf, strings.TrimSpace(n.Data))
		return
	case CharDataNode:
		writeCharData(buf, n.Data)
		return
	case CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
		return
	case DirectiveNode:
		buf.WriteString("<!")
		buf.WriteString(n.Data)
		buf.WriteString(">")
		return
	case DeclarationNode:
		writeDeclaration(buf, n)
		return
	}

	name := n.QualifiedName()
	buf.WriteString("<" + name)
	writeAttrs(buf, n.Attr)

	if t.Ignored[name] || preserveSpaces {
		if n.FirstChild == nil {
			buf.WriteString("/>")
			return
		}
		buf.WriteString(">")
		buf.WriteString(n.OutputXMLWithOptions(WithEmptyTagSupport()))
		buf.WriteString("</" + name + ">")
		return
	}

	var children []*Node
	textOnly := true
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if !t.significant(child, preserveSpaces) {
			continue
		}
		if child.Type != TextNode {
			textOnly = false
		}
		children = append(children, child)
	}

	if len(children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteString(">")

	if textOnly && t.CollapseContent {
		for i, child := range children {
			if i > 0 {
				buf.WriteByte(' ')
			}
			escapeText(buf, strings.TrimSpace(child.Data))
		}
		buf.WriteString("</" + name + ">")
		return
	}

	for _, child := range children {
		buf.WriteString(t.LineSeparator)
		t.output(buf, child, level+1, preserveSpaces)
	}
	buf.WriteString(t.LineSeparator)
	t.indent(buf, level)
	buf.WriteString("</" + name + ">")
}
