package xmlembed

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlembed/subfmt"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const bom = "\uFEFF"

// SubFormatter prints one embedded block. Implementations report failure
// in the Result instead of returning an error.
type SubFormatter interface {
	Format(ctx context.Context, content string, p subfmt.Profile) subfmt.Result
}

// Fallback records an embedded block that was left unformatted.
type Fallback struct {
	Tag  string
	Path string
	Err  error
}

// Result is the outcome of a successful formatting pass.
type Result struct {
	// Text is the formatted document.
	Text string
	// Blocks is the number of embedded blocks that were reinserted.
	Blocks int
	// Fallbacks lists the blocks whose printer failed; they were
	// reinserted unformatted.
	Fallbacks []Fallback
}

// Formatter formats XML documents with embedded blocks. A Formatter holds
// no per-document state and is safe for concurrent use.
type Formatter struct {
	rules        Rules
	sub          SubFormatter
	logger       *zap.Logger
	concurrency  int
	timeout      time.Duration
	nestContent  bool
	finalNewline bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithRules replaces the default rule table.
func WithRules(rules Rules) Option {
	return func(f *Formatter) {
		f.rules = rules
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(f *Formatter) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithSubFormatter replaces the built-in printers.
func WithSubFormatter(s SubFormatter) Option {
	return func(f *Formatter) {
		f.sub = s
	}
}

// WithConcurrency bounds the number of blocks printed at the same time.
func WithConcurrency(n int) Option {
	return func(f *Formatter) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithTimeout bounds each call of the built-in printers. It has no effect
// together with WithSubFormatter.
func WithTimeout(d time.Duration) Option {
	return func(f *Formatter) {
		f.timeout = d
	}
}

// WithNestContent selects where reinserted content goes. When set, the
// default, content sits one level deeper than the element's tags and the
// closing tag lines up with the opening tag. When unset, plain content is
// indented like the tags themselves and a CDATA section starts at the
// tags' level.
func WithNestContent(b bool) Option {
	return func(f *Formatter) {
		f.nestContent = b
	}
}

// WithFinalNewline ends the formatted document with a newline.
func WithFinalNewline(b bool) Option {
	return func(f *Formatter) {
		f.finalNewline = b
	}
}

// New returns a Formatter. The rule table must pass Rules.Validate.
func New(opts ...Option) (*Formatter, error) {
	f := &Formatter{
		rules:       DefaultRules(),
		logger:      zap.NewNop(),
		concurrency: 4,
		timeout:     subfmt.DefaultTimeout,
		nestContent: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.rules.Validate(); err != nil {
		return nil, err
	}
	if f.sub == nil {
		f.sub = subfmt.NewDispatcher(subfmt.WithLogger(f.logger), subfmt.WithTimeout(f.timeout))
	}
	return f, nil
}

// Rules returns the formatter's rule table.
func (f *Formatter) Rules() Rules {
	return f.rules
}

// FormatString formats text and returns the formatted document.
func (f *Formatter) FormatString(ctx context.Context, text string) (string, error) {
	res, err := f.Format(ctx, text)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Edits formats text and returns a single edit replacing the whole
// document, or no edits and the error.
func (f *Formatter) Edits(ctx context.Context, text string) ([]TextEdit, error) {
	res, err := f.Format(ctx, text)
	if err != nil {
		return nil, err
	}
	return []TextEdit{FullDocumentEdit(text, res.Text)}, nil
}

// Format runs one formatting pass over text: the document is parsed, the
// embedded blocks are printed and reinserted rule by rule, and the
// resulting tree is reformatted as a whole with the embedded blocks left
// as they are.
//
// Errors are of type *Error, except for ctx's error, which is checked
// between rules. A block whose printer fails is reinserted unformatted
// and reported in Result.Fallbacks.
func (f *Formatter) Format(ctx context.Context, text string) (*Result, error) {
	hasBOM := strings.HasPrefix(text, bom)
	text = strings.TrimPrefix(text, bom)

	doc, err := ParseString(text)
	if err != nil {
		return nil, newError(InvalidDocument, err, "parse document")
	}
	if doc.Root() == nil {
		return nil, newError(InvalidDocument, ErrNoRoot, "parse document")
	}

	res := &Result{}
	seen := make(map[*Node]bool)
	for _, rule := range f.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := f.apply(ctx, doc, rule, seen, res); err != nil {
			return nil, err
		}
	}

	out, err := FormatString(doc.OutputXML(false),
		FormatOptionIndent(IndentUnit),
		FormatOptionLineSeparator("\n"),
		FormatOptionIgnore(f.rules.Tags()...),
		FormatOptionStrict(true),
	)
	if err != nil {
		return nil, newError(DocumentFormattingFailed, err, "reformat document")
	}
	if f.finalNewline {
		out += "\n"
	}
	if hasBOM {
		out = bom + out
	}
	res.Text = out
	return res, nil
}

// apply formats every element matched by rule. The printers run
// concurrently; the tree is only touched after all of them have returned.
func (f *Formatter) apply(ctx context.Context, doc *Node, rule Rule, seen map[*Node]bool, res *Result) error {
	nodes, err := FindByTag(doc, rule.Tag)
	if err != nil {
		return newError(InvalidDocument, err, "find "+rule.Tag)
	}

	var blocks []Extracted
	for _, n := range nodes {
		// An element inside an earlier block was replaced along with it.
		if seen[n] || !n.Attached() {
			continue
		}
		seen[n] = true
		if b := extract(n, rule); b.Raw != "" {
			blocks = append(blocks, b)
		}
	}
	if len(blocks) == 0 {
		return nil
	}

	results := make([]subfmt.Result, len(blocks))
	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, b := range blocks {
		i, b := i, b
		g.Go(func() error {
			results[i] = f.sub.Format(ctx, b.Raw, rule.Profile)
			return nil
		})
	}
	_ = g.Wait()

	for i, b := range blocks {
		// Replaced together with an enclosing block of the same rule.
		if !b.Node.Attached() {
			continue
		}
		r := results[i]
		if !r.OK() {
			path := nodePath(b.Node)
			f.logger.Debug("reinserting block unformatted",
				zap.String("tag", rule.Tag),
				zap.String("path", path),
				zap.Error(r.Err))
			res.Fallbacks = append(res.Fallbacks, Fallback{
				Tag:  rule.Tag,
				Path: path,
				Err:  &Error{Kind: SubFormatFailure, Err: r.Err},
			})
		}
		f.reinsert(b.Node, r.Value(b.Raw), Indent(b.Node), b.Kind)
		res.Blocks++
	}
	return nil
}

func (f *Formatter) reinsert(n *Node, content, indent string, kind ContentKind) {
	if f.nestContent {
		reinsertNested(n, content, indent, kind)
		return
	}
	Reinsert(n, content, indent, kind)
}

// nodePath returns a slash separated path of element names from the
// document element down to n, such as /Root/Page[2]/Script.
func nodePath(n *Node) string {
	var parts []string
	for ; n != nil && n.Type == ElementNode; n = n.Parent {
		name := n.QualifiedName()
		pos, count := 0, 0
		if n.Parent != nil {
			for s := n.Parent.FirstChild; s != nil; s = s.NextSibling {
				if s.Type == ElementNode && s.QualifiedName() == name {
					count++
					if s == n {
						pos = count
					}
				}
			}
		}
		if count > 1 {
			name += "[" + strconv.Itoa(pos) + "]"
		}
		parts = append(parts, name)
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString("/")
		b.WriteString(parts[i])
	}
	return b.String()
}
