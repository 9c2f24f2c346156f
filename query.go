package xmlembed

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/xpath"
	"github.com/pkg/errors"
)

// CreateXPathNavigator creates a new xpath.NodeNavigator for the specified
// XML Node.
func CreateXPathNavigator(top *Node) *NodeNavigator {
	return &NodeNavigator{curr: top, root: top, attr: -1}
}

// Query searches the Node that matches by the specified XPath expr and
// returns all matches in document order.
func Query(top *Node, expr string) ([]*Node, error) {
	exp, err := queries.compile(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "xmlembed: invalid query %q", expr)
	}
	return selectAll(top, exp), nil
}

// Find is like Query but panics if expr cannot be compiled.
func Find(top *Node, expr string) []*Node {
	list, err := Query(top, expr)
	if err != nil {
		panic(err)
	}
	return list
}

// FindByTag returns every element below top whose qualified name is tag,
// in document order.
func FindByTag(top *Node, tag string) ([]*Node, error) {
	if strings.ContainsAny(tag, `'"`) {
		return nil, errors.Errorf("xmlembed: invalid tag name %q", tag)
	}
	return Query(top, fmt.Sprintf("//*[name()='%s']", tag))
}

func selectAll(top *Node, exp *xpath.Expr) []*Node {
	t := exp.Select(CreateXPathNavigator(top))
	var elems []*Node
	seen := make(map[*Node]struct{})
	for t.MoveNext() {
		nav := t.Current().(*NodeNavigator)
		if nav.attr != -1 {
			continue
		}
		if _, ok := seen[nav.curr]; ok {
			continue
		}
		seen[nav.curr] = struct{}{}
		elems = append(elems, nav.curr)
	}
	if len(elems) > 1 {
		sortDocumentOrder(top, elems)
	}
	return elems
}

// sortDocumentOrder sorts nodes of the tree holding top by their pre-order
// position. xpath yields descendant matches grouped by axis step, not in
// document order.
func sortDocumentOrder(top *Node, nodes []*Node) {
	root := top
	for root.Parent != nil {
		root = root.Parent
	}
	order := make(map[*Node]int)
	var walk func(n *Node)
	walk = func(n *Node) {
		order[n] = len(order)
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	sort.SliceStable(nodes, func(i, j int) bool {
		return order[nodes[i]] < order[nodes[j]]
	})
}

// NodeNavigator implements xpath.NodeNavigator over a Node tree.
type NodeNavigator struct {
	root, curr *Node
	attr       int
}

// Current returns the node the navigator is positioned on.
func (x *NodeNavigator) Current() *Node {
	return x.curr
}

func (x *NodeNavigator) NodeType() xpath.NodeType {
	switch x.curr.Type {
	case CommentNode:
		return xpath.CommentNode
	case TextNode, CharDataNode:
		return xpath.TextNode
	case DocumentNode, DeclarationNode, DirectiveNode:
		// xpath has no node type for processing instructions or doctype
		// declarations; they are never selected by element tests.
		return xpath.RootNode
	case ElementNode:
		if x.attr != -1 {
			return xpath.AttributeNode
		}
		return xpath.ElementNode
	}
	panic(fmt.Sprintf("unknown XML node type: %v", x.curr.Type))
}

func (x *NodeNavigator) LocalName() string {
	if x.attr != -1 {
		return x.curr.Attr[x.attr].Name.Local
	}
	return x.curr.Data
}

func (x *NodeNavigator) Prefix() string {
	if x.NodeType() == xpath.AttributeNode {
		return x.curr.Attr[x.attr].Name.Space
	}
	return x.curr.Prefix
}

func (x *NodeNavigator) NamespaceURL() string {
	if x.attr != -1 {
		return ""
	}
	return x.curr.NamespaceURI
}

func (x *NodeNavigator) Value() string {
	switch x.curr.Type {
	case CommentNode:
		return x.curr.Data
	case ElementNode:
		if x.attr != -1 {
			return x.curr.Attr[x.attr].Value
		}
		return x.curr.InnerText()
	case TextNode, CharDataNode:
		return x.curr.Data
	}
	return ""
}

func (x *NodeNavigator) Copy() xpath.NodeNavigator {
	n := *x
	return &n
}

func (x *NodeNavigator) MoveToRoot() {
	x.curr = x.root
	x.attr = -1
}

func (x *NodeNavigator) MoveToParent() bool {
	if x.attr != -1 {
		x.attr = -1
		return true
	} else if node := x.curr.Parent; node != nil {
		x.curr = node
		return true
	}
	return false
}

func (x *NodeNavigator) MoveToNextAttribute() bool {
	if x.attr >= len(x.curr.Attr)-1 {
		return false
	}
	x.attr++
	return true
}

func (x *NodeNavigator) MoveToChild() bool {
	if x.attr != -1 {
		return false
	}
	if node := x.curr.FirstChild; node != nil {
		x.curr = node
		return true
	}
	return false
}

func (x *NodeNavigator) MoveToFirst() bool {
	if x.attr != -1 || x.curr.PrevSibling == nil {
		return false
	}
	for {
		node := x.curr.PrevSibling
		if node == nil {
			break
		}
		x.curr = node
	}
	return true
}

func (x *NodeNavigator) String() string {
	return x.Value()
}

func (x *NodeNavigator) MoveToNext() bool {
	if x.attr != -1 {
		return false
	}
	if node := x.curr.NextSibling; node != nil {
		x.curr = node
		return true
	}
	return false
}

func (x *NodeNavigator) MoveToPrevious() bool {
	if x.attr != -1 {
		return false
	}
	if node := x.curr.PrevSibling; node != nil {
		x.curr = node
		return true
	}
	return false
}

func (x *NodeNavigator) MoveTo(other xpath.NodeNavigator) bool {
	node, ok := other.(*NodeNavigator)
	if !ok || node.root != x.root {
		return false
	}

	x.curr = node.curr
	x.attr = node.attr
	return true
}
