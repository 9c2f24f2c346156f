package subfmt

import (
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/errors"
)

// esbuildIndent is the indentation esbuild prints with.
const esbuildIndent = "  "

func printCSS(content string, p Profile) (string, error) {
	return transform(content, esbuild.LoaderCSS, p)
}

func printJavaScript(content string, p Profile) (string, error) {
	return transform(content, esbuild.LoaderJS, p)
}

// printTypeScript only checks that content parses. esbuild prints
// TypeScript as JavaScript, so its output cannot be used; the block keeps
// its own layout with trailing whitespace removed.
func printTypeScript(content string, p Profile) (string, error) {
	if _, err := run(content, esbuild.LoaderTS); err != nil {
		return "", err
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.Join(lines, "\n"), nil
}

// transform pretty-prints content through esbuild and re-indents the
// result to the profile. esbuild drops ordinary comments, so content that
// has any is refused rather than silently losing them.
func transform(content string, loader esbuild.Loader, p Profile) (string, error) {
	css := loader == esbuild.LoaderCSS
	if scanJS(content, css).comments {
		return "", ErrLossyComments
	}
	out, err := run(content, loader)
	if err != nil {
		return "", err
	}
	templates := scanJS(out, css).templateLines
	return reindent(out, esbuildIndent, p, func(line int) bool {
		return templates[line]
	}), nil
}

func run(content string, loader esbuild.Loader) (string, error) {
	result := esbuild.Transform(content, esbuild.TransformOptions{
		Loader:        loader,
		Target:        esbuild.ESNext,
		Charset:       esbuild.CharsetUTF8,
		LegalComments: esbuild.LegalCommentsInline,
		LogLevel:      esbuild.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", messageError(result.Errors[0])
	}
	return string(result.Code), nil
}

func messageError(m esbuild.Message) error {
	if m.Location == nil {
		return errors.Errorf("subfmt: %s", m.Text)
	}
	return errors.Errorf("subfmt: %d:%d: %s", m.Location.Line, m.Location.Column, m.Text)
}
