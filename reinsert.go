package xmlembed

// Reinsert replaces the children of n with content laid out for an
// element whose tags are indented by indent.
//
// PlainText content becomes a single text node holding the content lines
// prefixed with indent, after a newline and followed by indent. CDATA
// content becomes a CDATA section framed by newline+indent text nodes,
// its lines indented one IndentUnit deeper than indent.
//
// content is expected to end with a newline so the closing tag starts a
// line of its own.
func Reinsert(n *Node, content, indent string, kind ContentKind) {
	n.RemoveChildren()
	if kind == CDATA {
		payload := "\n" + indentedLines(content, indent+IndentUnit) + indent
		AddChild(n, &Node{Type: TextNode, Data: "\n" + indent})
		AddChild(n, &Node{Type: CharDataNode, Data: payload})
		AddChild(n, &Node{Type: TextNode, Data: "\n" + indent})
		return
	}
	AddChild(n, &Node{Type: TextNode, Data: "\n" + indentedLines(content, indent) + indent})
}

// reinsertNested is Reinsert with the content moved one level deeper than
// the element's tags, so it reads as a child of the element:
//
//	<Style>
//	    .a {
//	        color: red;
//	    }
//	</Style>
func reinsertNested(n *Node, content, indent string, kind ContentKind) {
	inner := indent + IndentUnit
	n.RemoveChildren()
	if kind == CDATA {
		payload := "\n" + indentedLines(content, inner+IndentUnit) + inner
		AddChild(n, &Node{Type: TextNode, Data: "\n" + inner})
		AddChild(n, &Node{Type: CharDataNode, Data: payload})
		AddChild(n, &Node{Type: TextNode, Data: "\n" + indent})
		return
	}
	AddChild(n, &Node{Type: TextNode, Data: "\n" + indentedLines(content, inner) + indent})
}
