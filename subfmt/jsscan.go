package subfmt

// jsScan summarizes the lexical structure of a script or stylesheet that
// matters to the printers.
type jsScan struct {
	// comments is set when the source has a comment outside of strings,
	// template literals and regular expressions.
	comments bool
	// templateLines holds the zero-based lines that start inside a
	// template literal. Their leading whitespace is string content.
	templateLines map[int]bool
}

type jsFrame struct {
	template bool
	// depth counts open braces inside a ${} substitution.
	depth int
}

// scanJS lexes src just far enough to find comments and template literal
// lines. With css set, only quoted strings and block comments are
// recognized.
func scanJS(src string, css bool) jsScan {
	res := jsScan{templateLines: make(map[int]bool)}
	stack := []jsFrame{{}}
	line := 0
	var prev byte

	newline := func() {
		line++
		if stack[len(stack)-1].template {
			res.templateLines[line] = true
		}
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '\n' {
			newline()
			continue
		}
		if top := &stack[len(stack)-1]; top.template {
			switch {
			case c == '\\' && i+1 < len(src):
				i++
				if src[i] == '\n' {
					newline()
				}
			case c == '`':
				stack = stack[:len(stack)-1]
				prev = c
			case c == '$' && i+1 < len(src) && src[i+1] == '{':
				i++
				stack = append(stack, jsFrame{})
				prev = '{'
			}
			continue
		}

		switch c {
		case ' ', '\t', '\r':
		case '"', '\'':
			i = skipQuoted(src, i, newline)
			prev = c
		case '`':
			if css {
				prev = c
				break
			}
			stack = append(stack, jsFrame{template: true})
		case '{':
			stack[len(stack)-1].depth++
			prev = c
		case '}':
			if top := &stack[len(stack)-1]; top.depth == 0 && len(stack) > 1 {
				stack = stack[:len(stack)-1]
			} else if top.depth > 0 {
				top.depth--
			}
			prev = c
		case '/':
			switch {
			case i+1 < len(src) && src[i+1] == '*':
				res.comments = true
				i = skipBlockComment(src, i, newline)
			case !css && i+1 < len(src) && src[i+1] == '/':
				res.comments = true
				for i+1 < len(src) && src[i+1] != '\n' {
					i++
				}
			case !css && regexAllowed(prev):
				i = skipRegex(src, i)
				prev = '/'
			default:
				prev = c
			}
		default:
			prev = c
		}
	}
	return res
}

// regexAllowed reports whether a slash following prev starts a regular
// expression literal rather than a division.
func regexAllowed(prev byte) bool {
	switch prev {
	case 0, '(', ',', '=', ':', '[', '!', '&', '|', '?', '{', '}', ';', '+', '-', '*', '%', '<', '>', '~', '^':
		return true
	}
	return false
}

// skipQuoted returns the index of the quote closing the string that opens
// at src[i].
func skipQuoted(src string, i int, newline func()) int {
	quote := src[i]
	for i++; i < len(src); i++ {
		switch src[i] {
		case '\\':
			if i+1 < len(src) && src[i+1] == '\n' {
				newline()
			}
			i++
		case quote:
			return i
		case '\n':
			// Unterminated; let the caller see the newline.
			return i - 1
		}
	}
	return len(src)
}

func skipBlockComment(src string, i int, newline func()) int {
	for i += 2; i < len(src); i++ {
		if src[i] == '\n' {
			newline()
		}
		if src[i] == '*' && i+1 < len(src) && src[i+1] == '/' {
			return i + 1
		}
	}
	return len(src)
}

func skipRegex(src string, i int) int {
	inClass := false
	for i++; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return i
			}
		case '\n':
			return i - 1
		}
	}
	return len(src)
}
