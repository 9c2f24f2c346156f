package xmlembed

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// A NodeType is the type of a Node.
type NodeType uint

const (
	// DocumentNode is a document object that, as the root of the document tree,
	// provides access to the entire XML document.
	DocumentNode NodeType = iota
	// DeclarationNode is a processing instruction, for example the XML
	// declaration <?xml version="1.0"?>.
	DeclarationNode
	// ElementNode is an element (for example, <item> ).
	ElementNode
	// TextNode is plain (escaped) text content of a node.
	TextNode
	// CharDataNode node <![CDATA[content]]>
	CharDataNode
	// CommentNode a comment (for example, <!-- my comment --> ).
	CommentNode
	// DirectiveNode is a markup declaration such as <!DOCTYPE ...>.
	DirectiveNode
)

// Attr is an attribute of an element. Name.Space holds the literal prefix
// as written in the source document.
type Attr struct {
	Name  xml.Name
	Value string
}

// A Node consists of a NodeType and some Data (tag name for
// element nodes, content for text) and are part of a tree of Nodes.
type Node struct {
	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node

	Type         NodeType
	Data         string
	Prefix       string
	NamespaceURI string
	Attr         []Attr

	// inst is the raw instruction text of a DeclarationNode.
	inst string
}

// Root returns the document element, or nil when the tree has none.
func (n *Node) Root() *Node {
	for ; n.Parent != nil; n = n.Parent {
	}
	if n.Type == ElementNode {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == ElementNode {
			return child
		}
	}
	return nil
}

// QualifiedName returns the element name including its prefix.
func (n *Node) QualifiedName() string {
	if n.Prefix == "" {
		return n.Data
	}
	return n.Prefix + ":" + n.Data
}

// InnerText returns the text between the start and end tags of the object.
// Text and CDATA content is concatenated, comments are skipped.
func (n *Node) InnerText() string {
	var output func(*strings.Builder, *Node)
	output = func(b *strings.Builder, n *Node) {
		switch n.Type {
		case TextNode, CharDataNode:
			b.WriteString(n.Data)
		case CommentNode, DeclarationNode, DirectiveNode:
		default:
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				output(b, child)
			}
		}
	}

	var b strings.Builder
	output(&b, n)
	return b.String()
}

// SelectAttr returns the attribute value with the specified name.
func (n *Node) SelectAttr(name string) string {
	var local, space string
	local = name
	if i := strings.Index(name, ":"); i > 0 {
		space = name[:i]
		local = name[i+1:]
	}
	for _, attr := range n.Attr {
		if attr.Name.Local == local && attr.Name.Space == space {
			return attr.Value
		}
	}
	return ""
}

// Depth returns the number of element ancestors of n. The document
// element has depth 0, its children depth 1, and so on.
func (n *Node) Depth() int {
	depth := 0
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == ElementNode {
			depth++
		}
	}
	return depth
}

// Children returns the immediate children of n.
func (n *Node) Children() []*Node {
	var list []*Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		list = append(list, child)
	}
	return list
}

// Attached reports whether n is still reachable from the document node.
func (n *Node) Attached() bool {
	for ; n != nil; n = n.Parent {
		if n.Type == DocumentNode {
			return true
		}
	}
	return false
}

func calculatePreserveSpaces(n *Node, pastValue bool) bool {
	if attr := n.SelectAttr("xml:space"); attr == "preserve" {
		return true
	} else if attr == "default" {
		return false
	}
	return pastValue
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\t", "&#x9;",
		"\n", "&#xA;",
		"\r", "&#xD;",
	)
)

func escapeText(buf *bytes.Buffer, s string) {
	textEscaper.WriteString(buf, s)
}

func writeCharData(buf *bytes.Buffer, s string) {
	buf.WriteString("<![CDATA[")
	// "]]>" cannot appear inside a section; split it across two.
	buf.WriteString(strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>"))
	buf.WriteString("]]>")
}

func writeAttrs(buf *bytes.Buffer, attrs []Attr) {
	for _, attr := range attrs {
		buf.WriteByte(' ')
		if attr.Name.Space != "" {
			buf.WriteString(attr.Name.Space)
			buf.WriteByte(':')
		}
		buf.WriteString(attr.Name.Local)
		buf.WriteString(`="`)
		attrEscaper.WriteString(buf, attr.Value)
		buf.WriteByte('"')
	}
}

func writeDeclaration(buf *bytes.Buffer, n *Node) {
	buf.WriteString("<?")
	buf.WriteString(n.Data)
	if n.inst != "" {
		buf.WriteByte(' ')
		buf.WriteString(n.inst)
	}
	buf.WriteString("?>")
}

type outputConfiguration struct {
	printSelf              bool
	trimSpaces             bool
	emptyElementTagSupport bool
}

// OutputOption configures OutputXMLWithOptions.
type OutputOption func(*outputConfiguration)

// WithOutputSelf configures the serializer to include the node itself.
func WithOutputSelf() OutputOption {
	return func(oc *outputConfiguration) {
		oc.printSelf = true
	}
}

// WithEmptyTagSupport writes elements without children as <empty/>.
func WithEmptyTagSupport() OutputOption {
	return func(oc *outputConfiguration) {
		oc.emptyElementTagSupport = true
	}
}

// WithoutPreserveSpace trims text content outside xml:space="preserve"
// scopes.
func WithoutPreserveSpace() OutputOption {
	return func(oc *outputConfiguration) {
		oc.trimSpaces = true
	}
}

func outputXML(buf *bytes.Buffer, n *Node, preserveSpaces bool, config *outputConfiguration) {
	preserveSpaces = calculatePreserveSpaces(n, preserveSpaces)
	switch n.Type {
	case TextNode:
		s := n.Data
		if config.trimSpaces && !preserveSpaces {
			s = strings.TrimSpace(s)
		}
		escapeText(buf, s)
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
	case DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			outputXML(buf, child, preserveSpaces, config)
		}
		return
	}

	buf.WriteString("<" + n.QualifiedName())
	writeAttrs(buf, n.Attr)
	if n.FirstChild == nil && config.emptyElementTagSupport {
		buf.WriteString("/>")
		return
	}
	buf.WriteString(">")
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		outputXML(buf, child, preserveSpaces, config)
	}
	buf.WriteString("</" + n.QualifiedName() + ">")
}

// OutputXML returns the text that including tags name. The output is an
// exact serialization of the tree: no whitespace is added or removed.
func (n *Node) OutputXML(self bool) string {
	if self {
		return n.OutputXMLWithOptions(WithOutputSelf())
	}
	return n.OutputXMLWithOptions()
}

// OutputXMLWithOptions returns the text that including tags name.
func (n *Node) OutputXMLWithOptions(opts ...OutputOption) string {
	config := &outputConfiguration{}
	for _, opt := range opts {
		opt(config)
	}

	var buf bytes.Buffer
	if config.printSelf || n.Type == DocumentNode {
		outputXML(&buf, n, false, config)
	} else {
		preserve := false
		for p := n; p != nil; p = p.Parent {
			if p.Type == ElementNode {
				if attr := p.SelectAttr("xml:space"); attr != "" {
					preserve = attr == "preserve"
					break
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			outputXML(&buf, child, preserve, config)
		}
	}
	return buf.String()
}

func addAttr(n *Node, key, val string) {
	var attr Attr
	if i := strings.Index(key, ":"); i > 0 {
		attr = Attr{
			Name:  xml.Name{Space: key[:i], Local: key[i+1:]},
			Value: val,
		}
	} else {
		attr = Attr{
			Name:  xml.Name{Local: key},
			Value: val,
		}
	}

	n.Attr = append(n.Attr, attr)
}

// AddChild adds a new node 'n' to a node 'parent' as its last child.
func AddChild(parent, n *Node) {
	n.Parent = parent
	n.NextSibling = nil
	if parent.FirstChild == nil {
		parent.FirstChild = n
		n.PrevSibling = nil
	} else {
		parent.LastChild.NextSibling = n
		n.PrevSibling = parent.LastChild
	}

	parent.LastChild = n
}

// RemoveFromTree removes a node and its subtree from the tree it is in.
// If the node is the root of the tree, then it's no-op.
func RemoveFromTree(n *Node) {
	if n.Parent == nil {
		return
	}

	if n.Parent.FirstChild == n {
		if n.Parent.LastChild == n {
			n.Parent.FirstChild = nil
			n.Parent.LastChild = nil
		} else {
			n.Parent.FirstChild = n.NextSibling
			n.NextSibling.PrevSibling = nil
		}
	} else {
		if n.Parent.LastChild == n {
			n.Parent.LastChild = n.PrevSibling
			n.PrevSibling.NextSibling = nil
		} else {
			n.PrevSibling.NextSibling = n.NextSibling
			n.NextSibling.PrevSibling = n.PrevSibling
		}
	}
	n.Parent = nil
	n.PrevSibling = nil
	n.NextSibling = nil
}

// RemoveChildren detaches every child of n.
func (n *Node) RemoveChildren() {
	for n.FirstChild != nil {
		RemoveFromTree(n.FirstChild)
	}
}
