package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCollectFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.xml":         "<a/>",
		"sub/b.XML":     "<b/>",
		"sub/c.txt":     "c",
		".hidden/d.xml": "<d/>",
		"deep/x/y.xml":  "<y/>",
	})
	join := func(name string) string { return filepath.Join(root, filepath.FromSlash(name)) }

	files, err := collectFiles(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{join("a.xml"), join("deep/x/y.xml"), join("sub/b.XML")}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("directory walk mismatch (-want +got):\n%s", diff)
	}

	files, err = collectFiles(context.Background(), []string{filepath.Join(root, "deep", "**", "*.xml"), join("sub/c.txt"), join("a.xml"), join("a.xml")})
	if err != nil {
		t.Fatal(err)
	}
	want = []string{join("a.xml"), join("deep/x/y.xml"), join("sub/c.txt")}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("glob mismatch (-want +got):\n%s", diff)
	}

	if _, err := collectFiles(context.Background(), []string{join("missing.xml")}); err == nil {
		t.Fatal("expected an error for a missing path")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := collectFiles(ctx, []string{root}); err == nil {
		t.Fatal("expected an error for a canceled context")
	}
}

func TestExcluded(t *testing.T) {
	base := t.TempDir()
	for _, test := range []struct {
		path     string
		patterns []string
		want     bool
	}{
		{path: filepath.Join(base, "vendor", "a.xml"), patterns: []string{"vendor/**"}, want: true},
		{path: filepath.Join(base, "src", "a.xml"), patterns: []string{"vendor/**"}, want: false},
		{path: filepath.Join(base, "src", "gen", "a.xml"), patterns: []string{"**/gen/*.xml"}, want: true},
		{path: filepath.Join(filepath.Dir(base), "other.xml"), patterns: []string{"**"}, want: false},
		{path: filepath.Join(base, "a.xml"), patterns: nil, want: false},
	} {
		got, err := excluded(test.path, base, test.patterns)
		if err != nil {
			t.Fatal(err)
		}
		if got != test.want {
			t.Errorf("excluded(%q, %v) = %v, want %v", test.path, test.patterns, got, test.want)
		}
	}

	if _, err := excluded(filepath.Join(base, "a.xml"), base, []string{"["}); err == nil {
		t.Fatal("expected an error for a bad pattern")
	}
}

func TestDecodeSource(t *testing.T) {
	t.Run("utf-8 with bom", func(t *testing.T) {
		data := append([]byte("\xef\xbb\xbf"), "<a>é</a>"...)
		src, err := decodeSource(data)
		if err != nil {
			t.Fatal(err)
		}
		if src.Text != "<a>é</a>" || !src.bom {
			t.Fatalf("unexpected source %+v", src)
		}
		out, err := src.encode("<a>\n    é\n</a>")
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != "\xef\xbb\xbf<a>\n    é\n</a>" {
			t.Fatalf("encode = %q", out)
		}
	})

	t.Run("latin-1", func(t *testing.T) {
		data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><a>caf\xe9</a>")
		src, err := decodeSource(data)
		if err != nil {
			t.Fatal(err)
		}
		if src.Text != `<?xml version="1.0" encoding="ISO-8859-1"?><a>café</a>` {
			t.Fatalf("unexpected text %q", src.Text)
		}
		out, err := src.encode(src.Text)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != string(data) {
			t.Fatalf("encode = %q, want %q", out, data)
		}
	})

	t.Run("declared utf-8", func(t *testing.T) {
		src, err := decodeSource([]byte(`<?xml version="1.0" encoding="UTF-8"?><a/>`))
		if err != nil {
			t.Fatal(err)
		}
		if src.enc != nil || src.bom {
			t.Fatalf("unexpected source %+v", src)
		}
	})

	t.Run("unknown encoding", func(t *testing.T) {
		if _, err := decodeSource([]byte(`<?xml version="1.0" encoding="x-unknown"?><a/>`)); err == nil {
			t.Fatal("expected an error")
		}
	})
}
