package main

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// collectFiles expands the command line arguments into XML files:
// directories are walked for *.xml files, glob patterns (including **) are
// expanded, and plain files are taken as given.
func collectFiles(ctx context.Context, args []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	addFile := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range args {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isGlob(arg) {
			matches, err := doublestar.FilepathGlob(filepath.Clean(arg))
			if err != nil {
				return nil, errors.Wrapf(err, "invalid pattern %q", arg)
			}
			for _, m := range matches {
				if info, err := os.Stat(m); err == nil && !info.IsDir() {
					addFile(m)
				}
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			addFile(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".xml") {
				addFile(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// excluded reports whether path matches one of patterns. Patterns are
// relative to base; paths outside base never match.
func excluded(path, base string, patterns []string) (bool, error) {
	if len(patterns) == 0 {
		return false, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	if base == "" {
		base = "."
	}
	if base, err = filepath.Abs(base); err != nil {
		return false, err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false, nil
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, errors.Wrapf(err, "invalid exclude pattern %q", pattern)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

var (
	utf8BOM     = []byte("\xef\xbb\xbf")
	declPattern = regexp.MustCompile(`^\s*<\?xml[^>]*?\bencoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)
)

// sourceText is the decoded content of an XML file together with what is
// needed to write it back the same way.
type sourceText struct {
	Text string
	enc  encoding.Encoding
	bom  bool
}

// decodeSource turns file bytes into text. A UTF-8 byte order mark is
// removed and remembered; an encoding named by the XML declaration other
// than UTF-8 is decoded.
func decodeSource(data []byte) (sourceText, error) {
	var src sourceText
	if bytes.HasPrefix(data, utf8BOM) {
		src.bom = true
		data = data[len(utf8BOM):]
	}
	if m := declPattern.FindSubmatch(data); m != nil && !src.bom {
		enc, name := charset.Lookup(string(m[1]))
		if enc == nil {
			return src, errors.Errorf("unsupported encoding %q", m[1])
		}
		if name != "utf-8" {
			decoded, err := enc.NewDecoder().Bytes(data)
			if err != nil {
				return src, errors.Wrapf(err, "decode %s", name)
			}
			src.enc = enc
			data = decoded
		}
	}
	src.Text = string(data)
	return src, nil
}

// encode converts formatted text back to the file's encoding.
func (s sourceText) encode(text string) ([]byte, error) {
	var out []byte
	if s.enc != nil {
		encoded, err := s.enc.NewEncoder().String(text)
		if err != nil {
			return nil, errors.Wrap(err, "encode")
		}
		out = []byte(encoded)
	} else {
		out = []byte(text)
	}
	if s.bom {
		out = append(append([]byte(nil), utf8BOM...), out...)
	}
	return out, nil
}
