package xmlembed

import (
	"strings"
)

// Indent returns the indentation of n's tags: IndentUnit once per element
// ancestor. A detached node has no indentation.
func Indent(n *Node) string {
	return strings.Repeat(IndentUnit, n.Depth())
}

// indentedLines prefixes every line of content holding anything but
// whitespace with indent. Blank lines become empty.
func indentedLines(content, indent string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
		} else {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// dedent removes the leading whitespace of the first line of text from
// every line that starts with it.
func dedent(text string) string {
	lines := strings.Split(text, "\n")
	first := 0
	for first < len(lines) && strings.TrimSpace(lines[first]) == "" {
		first++
	}
	if first == len(lines) {
		return text
	}
	line := lines[first]
	prefix := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	if prefix == "" {
		return text
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}
