package subfmt

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
)

type htmlToken struct {
	typ  html.TokenType
	raw  string
	name string
}

// printHTML puts every block tag, comment and inline run of an HTML
// fragment on its own line, indented by nesting. An inline run is text
// mixed with inline elements; it is kept on one line with its whitespace
// collapsed, so the fragment renders the same. Content of pre, textarea,
// script and style is copied verbatim. An element holding only an inline
// run stays on one line when it fits the profile's line width.
func printHTML(content string, p Profile) (string, error) {
	tokens, err := tokenizeHTML(content)
	if err != nil {
		return "", err
	}

	unit := p.IndentUnit()
	buf := &bytes.Buffer{}
	level := 0
	var rawTagStack []string
	needIndent := true

	indent := func() {
		if needIndent {
			buf.WriteString(strings.Repeat(unit, level))
		}
	}
	newline := func() {
		buf.WriteByte('\n')
		needIndent = true
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		inRawTag := len(rawTagStack) > 0

		if inRawTag {
			wasRawEnd := tok.typ == html.EndTagToken && tok.name == rawTagStack[len(rawTagStack)-1]
			if wasRawEnd {
				rawTagStack = rawTagStack[:len(rawTagStack)-1]
				if level > 0 {
					level--
				}
			}
			buf.WriteString(tok.raw)
			needIndent = false
			if wasRawEnd && len(rawTagStack) == 0 {
				newline()
			}
			continue
		}

		if n := inlineRun(tokens[i:]); n > 0 {
			if line := renderRun(tokens[i : i+n]); line != "" {
				indent()
				buf.WriteString(line)
				newline()
			}
			i += n - 1
			continue
		}

		switch tok.typ {
		case html.DoctypeToken, html.CommentToken, html.SelfClosingTagToken:
			indent()
			buf.WriteString(tok.raw)
			newline()

		case html.StartTagToken:
			if line, n := inlineElement(tokens[i:]); n > 0 &&
				(p.LineWidth <= 0 || len(unit)*level+len(line) <= p.LineWidth) {
				indent()
				buf.WriteString(line)
				newline()
				i += n - 1
				break
			}
			indent()
			buf.WriteString(tok.raw)
			switch {
			case isPreformatted(tok.name):
				rawTagStack = append(rawTagStack, tok.name)
				level++
				needIndent = false
			case isVoidElement(tok.name):
				newline()
			default:
				level++
				newline()
			}

		case html.EndTagToken:
			if level > 0 {
				level--
			}
			indent()
			buf.WriteString(tok.raw)
			newline()

		}
	}
	return buf.String(), nil
}

func tokenizeHTML(content string) ([]htmlToken, error) {
	z := html.NewTokenizer(strings.NewReader(content))
	var tokens []htmlToken
	for {
		typ := z.Next()
		if typ == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, errors.Wrap(err, "subfmt: invalid HTML")
			}
			return tokens, nil
		}
		tok := htmlToken{typ: typ, raw: string(z.Raw())}
		if typ == html.StartTagToken || typ == html.EndTagToken || typ == html.SelfClosingTagToken {
			name, _ := z.TagName()
			tok.name = string(name)
		}
		tokens = append(tokens, tok)
	}
}

// inlineElement returns the one-line rendering of a start tag, an inline
// run and the matching end tag, and the number of tokens it covers. It
// returns 0 when tokens do not start with such an element.
func inlineElement(tokens []htmlToken) (string, int) {
	if len(tokens) < 3 || isPreformatted(tokens[0].name) || isVoidElement(tokens[0].name) {
		return "", 0
	}
	n := inlineRun(tokens[1:])
	if n == 0 || len(tokens) < n+2 {
		return "", 0
	}
	end := tokens[n+1]
	if end.typ != html.EndTagToken || end.name != tokens[0].name {
		return "", 0
	}
	body := renderRun(tokens[1 : n+1])
	if body == "" {
		return "", 0
	}
	return tokens[0].raw + body + end.raw, n + 2
}

// inlineRun returns the number of leading tokens forming text and
// balanced inline elements.
func inlineRun(tokens []htmlToken) int {
	var open []string
	balanced := 0
	for i, tok := range tokens {
		switch tok.typ {
		case html.TextToken:
		case html.SelfClosingTagToken:
			if !isInline(tok.name) {
				return balanced
			}
		case html.StartTagToken:
			if !isInline(tok.name) {
				return balanced
			}
			if !isVoidElement(tok.name) {
				open = append(open, tok.name)
			}
		case html.EndTagToken:
			if len(open) == 0 || open[len(open)-1] != tok.name {
				return balanced
			}
			open = open[:len(open)-1]
		default:
			return balanced
		}
		if len(open) == 0 {
			balanced = i + 1
		}
	}
	return balanced
}

// renderRun joins an inline run into one line, collapsing whitespace.
func renderRun(tokens []htmlToken) string {
	var b strings.Builder
	for _, tok := range tokens {
		if tok.typ == html.TextToken {
			b.WriteString(collapseSpaces(tok.raw))
			continue
		}
		b.WriteString(tok.raw)
	}
	return strings.TrimSpace(b.String())
}

func isPreformatted(tagName string) bool {
	switch tagName {
	case "pre", "textarea", "script", "style":
		return true
	}
	return false
}

func isInline(tagName string) bool {
	switch tagName {
	case "a", "abbr", "b", "bdi", "bdo", "br", "cite", "code", "data", "dfn",
		"em", "i", "img", "kbd", "label", "mark", "q", "s", "samp", "small",
		"span", "strong", "sub", "sup", "time", "u", "var", "wbr":
		return true
	}
	return false
}

func isVoidElement(tagName string) bool {
	switch tagName {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}

func collapseSpaces(s string) string {
	var result strings.Builder
	prevWasSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !prevWasSpace {
				result.WriteByte(' ')
				prevWasSpace = true
			}
		} else {
			result.WriteRune(r)
			prevWasSpace = false
		}
	}
	return result.String()
}
