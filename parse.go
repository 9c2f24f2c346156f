package xmlembed

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// xmlURL is the namespace bound by definition to the prefix xml.
const xmlURL = "http://www.w3.org/XML/1998/namespace"

var (
	// ErrNoRoot is returned when a document has no document element.
	ErrNoRoot = errors.New("xmlembed: document has no root element")
	// ErrMultipleRoots is returned when a document has more than one
	// top-level element.
	ErrMultipleRoots = errors.New("xmlembed: invalid XML document, multiple root elements")
	// ErrContentOutsideRoot is returned for non-whitespace text before or
	// after the document element.
	ErrContentOutsideRoot = errors.New("xmlembed: invalid XML document, text outside the root element")
)

var cdataStart = []byte("<![CDATA[")

// Parse returns the parse tree for the XML from the given Reader.
//
// The input is treated as already decoded text: an encoding named by the
// XML declaration is not applied. Plain text and CDATA sections become
// TextNode and CharDataNode respectively.
func Parse(r io.Reader) (*Node, error) {
	p := createParser(r)
	return p.parse()
}

// ParseString is like Parse for an in-memory document.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

type parser struct {
	decoder *xml.Decoder
	raw     *rawReader
	doc     *Node
	cur     *Node
	// scopes holds the prefix->namespace bindings of every open element,
	// innermost last.
	scopes  []map[string]string
	sawRoot bool
}

func createParser(r io.Reader) *parser {
	raw := newRawReader(r)
	p := &parser{
		decoder: xml.NewDecoder(raw),
		raw:     raw,
		doc:     &Node{Type: DocumentNode},
	}
	p.decoder.Strict = true
	p.decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	p.cur = p.doc
	return p
}

func (p *parser) parse() (*Node, error) {
	for {
		start := p.decoder.InputOffset()
		tok, err := p.decoder.Token()
		if err == io.EOF {
			return p.doc, nil
		}
		if err != nil {
			return nil, err
		}
		end := p.decoder.InputOffset()

		switch tok := tok.(type) {
		case xml.StartElement:
			if p.cur == p.doc {
				if p.sawRoot {
					return nil, ErrMultipleRoots
				}
				p.sawRoot = true
			}
			p.pushScope(tok.Attr)
			node := &Node{
				Type:         ElementNode,
				Data:         tok.Name.Local,
				Prefix:       rawPrefix(p.raw.Slice(start, end)),
				NamespaceURI: tok.Name.Space,
				Attr:         p.attrs(tok.Attr),
			}
			AddChild(p.cur, node)
			p.cur = node
		case xml.EndElement:
			p.scopes = p.scopes[:len(p.scopes)-1]
			p.cur = p.cur.Parent
		case xml.CharData:
			typ := TextNode
			if bytes.HasPrefix(p.raw.Slice(start, end), cdataStart) {
				typ = CharDataNode
			}
			if p.cur == p.doc {
				if typ == TextNode && len(bytes.TrimSpace(tok)) == 0 {
					continue
				}
				return nil, ErrContentOutsideRoot
			}
			AddChild(p.cur, &Node{Type: typ, Data: string(tok)})
		case xml.Comment:
			AddChild(p.cur, &Node{Type: CommentNode, Data: string(tok)})
		case xml.ProcInst: // Processing Instruction
			node := &Node{Type: DeclarationNode, Data: tok.Target, inst: strings.TrimSpace(string(tok.Inst))}
			pairs := strings.Fields(node.inst)
			for _, pair := range pairs {
				if i := strings.Index(pair, "="); i > 0 {
					addAttr(node, pair[:i], strings.Trim(pair[i+1:], `"'`))
				}
			}
			AddChild(p.cur, node)
		case xml.Directive:
			AddChild(p.cur, &Node{Type: DirectiveNode, Data: string(tok)})
		}
	}
}

func (p *parser) pushScope(attrs []xml.Attr) {
	scope := make(map[string]string)
	// https://www.w3.org/TR/xml-names/#scoping-defaulting
	for _, att := range attrs {
		if att.Name.Space == "" && att.Name.Local == "xmlns" {
			scope[""] = att.Value
		} else if att.Name.Space == "xmlns" {
			scope[att.Name.Local] = att.Value
		}
	}
	p.scopes = append(p.scopes, scope)
}

// attrs maps the namespace URLs the decoder resolved back to the prefixes
// used in the source.
func (p *parser) attrs(in []xml.Attr) []Attr {
	if len(in) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(in))
	for _, att := range in {
		name := att.Name
		switch name.Space {
		case "", "xmlns":
		case xmlURL:
			name.Space = "xml"
		default:
			if prefix, ok := p.prefixFor(name.Space); ok {
				name.Space = prefix
			}
		}
		out = append(out, Attr{Name: name, Value: att.Value})
	}
	return out
}

func (p *parser) prefixFor(url string) (string, bool) {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		var found []string
		for prefix, v := range p.scopes[i] {
			if v == url && prefix != "" {
				found = append(found, prefix)
			}
		}
		if len(found) > 0 {
			sort.Strings(found)
			return found[0], true
		}
	}
	return "", false
}

// rawPrefix returns the prefix of the element name at the start of a raw
// start tag such as `<ns:item attr="1">`.
func rawPrefix(raw []byte) string {
	if len(raw) < 2 || raw[0] != '<' {
		return ""
	}
	name := raw[1:]
	if i := bytes.IndexAny(name, " \t\r\n/>"); i >= 0 {
		name = name[:i]
	}
	if i := bytes.IndexByte(name, ':'); i > 0 {
		return string(name[:i])
	}
	return ""
}
