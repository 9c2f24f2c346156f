package subfmt

import (
	"strings"
)

// reindent rewrites the leading indentation of every line, where the
// printer indented with one unit of from per level, to use p's unit.
// Lines for which keep returns true are copied untouched.
func reindent(text, from string, p Profile, keep func(line int) bool) string {
	to := p.IndentUnit()
	if from == to {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if keep != nil && keep(i) {
			continue
		}
		level := 0
		rest := line
		for strings.HasPrefix(rest, from) {
			rest = rest[len(from):]
			level++
		}
		if level == 0 {
			continue
		}
		lines[i] = strings.Repeat(to, level) + rest
	}
	return strings.Join(lines, "\n")
}
