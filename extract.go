package xmlembed

import (
	"regexp"
	"strings"
)

// Extracted is an embedded block read out of an element.
type Extracted struct {
	Raw  string
	Kind ContentKind
	Node *Node
}

var xmlComment = regexp.MustCompile(`(?s)<!--(.*?)-->`)

// Extract returns the embedded block of n as rule describes it, trimmed and
// with the indentation of its first line removed from every line. An
// empty string means there is nothing to format.
//
// For CDATA rules the block is the first CDATA section directly inside n.
// For PlainText rules it is all text below n, comments excluded.
func Extract(n *Node, rule Rule) string {
	var raw string
	switch rule.Kind {
	case CDATA:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == CharDataNode {
				raw = child.Data
				break
			}
		}
		if rule.CommentTransform {
			raw = lineComments(raw, rule.commentMarker())
		}
	default:
		raw = n.InnerText()
	}
	return strings.TrimSpace(dedent(raw))
}

// extract is Extract packaged with its source.
func extract(n *Node, rule Rule) Extracted {
	return Extracted{Raw: Extract(n, rule), Kind: rule.Kind, Node: n}
}

// lineComments replaces every XML comment in s with one single-line
// comment per line of the comment's text. Code following a comment on the
// same line is moved to the next line.
func lineComments(s, marker string) string {
	var b strings.Builder
	last := 0
	for _, m := range xmlComment.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(s[last:m[0]])
		lines := strings.Split(s[m[2]:m[3]], "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(marker + " " + strings.TrimSpace(line))
		}
		b.WriteString(strings.Join(lines, "\n"))

		last = m[1]
		rest := s[last:]
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[:i]
		}
		if trimmed := strings.TrimLeft(rest, " \t"); strings.TrimSpace(trimmed) != "" {
			b.WriteByte('\n')
			last += len(rest) - len(trimmed)
		}
	}
	b.WriteString(s[last:])
	return b.String()
}
