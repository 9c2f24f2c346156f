// Package subfmt pretty-prints the foreign-language blocks embedded in XML
// documents. A Dispatcher selects a printer by syntax and never fails: a
// block that cannot be printed is handed back unchanged.
package subfmt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Syntax names the language of an embedded block.
type Syntax string

const (
	CSS        Syntax = "css"
	JSON       Syntax = "json"
	HTML       Syntax = "html"
	JavaScript Syntax = "javascript"
	TypeScript Syntax = "typescript"
)

// Style flags understood by the printers.
const (
	// FlagUseTabs indents with tabs instead of IndentWidth spaces.
	FlagUseTabs = "useTabs"
	// FlagStandardize strips comments and trailing commas from JSON.
	FlagStandardize = "standardize"
)

// DefaultTimeout bounds a single printer call.
const DefaultTimeout = 5 * time.Second

var (
	// ErrUnsupportedSyntax is returned for a syntax without a printer.
	ErrUnsupportedSyntax = errors.New("subfmt: unsupported syntax")
	// ErrLossyComments is returned when printing would drop comments.
	ErrLossyComments = errors.New("subfmt: printer would drop comments")
	// ErrTimeout is returned when a printer exceeds its time budget.
	ErrTimeout = errors.New("subfmt: printer timed out")
)

// Profile controls how one kind of block is printed.
type Profile struct {
	Syntax      Syntax
	IndentWidth int
	LineWidth   int
	Flags       map[string]bool
}

// Flag reports whether the named style flag is set.
func (p Profile) Flag(name string) bool {
	return p.Flags[name]
}

// IndentUnit returns the string for one indentation level.
func (p Profile) IndentUnit() string {
	if p.Flag(FlagUseTabs) {
		return "\t"
	}
	width := p.IndentWidth
	if width <= 0 {
		width = 2
	}
	return strings.Repeat(" ", width)
}

// Result is the outcome of one printer call: either formatted Text or the
// Err that prevented it.
type Result struct {
	Text string
	Err  error
}

// OK reports whether the block was printed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Value returns the formatted text, or original when printing failed.
// The returned text always ends with a single newline.
func (r Result) Value(original string) string {
	if r.Err != nil {
		return withNewline(original)
	}
	return r.Text
}

func withNewline(s string) string {
	return strings.TrimRight(s, " \t\r\n") + "\n"
}

// A Printer pretty-prints content of one syntax.
type Printer interface {
	Print(content string, p Profile) (string, error)
}

// PrinterFunc adapts a function to the Printer interface.
type PrinterFunc func(content string, p Profile) (string, error)

// Print calls f(content, p).
func (f PrinterFunc) Print(content string, p Profile) (string, error) {
	return f(content, p)
}

// Dispatcher routes blocks to the printer registered for their syntax.
// It is safe for concurrent use once configured.
type Dispatcher struct {
	printers map[Syntax]Printer
	timeout  time.Duration
	logger   *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds every printer call. Zero or less disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *Dispatcher) {
		o.timeout = d
	}
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(o *Dispatcher) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPrinter registers p for syntax s, replacing any default.
func WithPrinter(s Syntax, p Printer) Option {
	return func(o *Dispatcher) {
		o.printers[s] = p
	}
}

// NewDispatcher returns a Dispatcher with the built-in printers.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		printers: map[Syntax]Printer{
			CSS:        PrinterFunc(printCSS),
			JavaScript: PrinterFunc(printJavaScript),
			TypeScript: PrinterFunc(printTypeScript),
			JSON:       PrinterFunc(printJSON),
			HTML:       PrinterFunc(printHTML),
		},
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register sets the printer for syntax s. It must not be called
// concurrently with Format.
func (d *Dispatcher) Register(s Syntax, p Printer) {
	d.printers[s] = p
}

// Format prints content with the printer selected by p.Syntax. Failures
// are logged and reported in the Result, never returned.
func (d *Dispatcher) Format(ctx context.Context, content string, p Profile) Result {
	text, err := d.call(ctx, content, p)
	if err != nil {
		d.logger.Debug("embedded block left unformatted",
			zap.String("syntax", string(p.Syntax)),
			zap.Int("bytes", len(content)),
			zap.Error(err))
		return Result{Err: err}
	}
	return Result{Text: withNewline(text)}
}

func (d *Dispatcher) call(ctx context.Context, content string, p Profile) (string, error) {
	printer, ok := d.printers[p.Syntax]
	if !ok {
		return "", errors.Wrapf(ErrUnsupportedSyntax, "syntax %q", p.Syntax)
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	type outcome struct {
		text string
		err  error
	}
	// Printers are not cancellable; a call that overruns is abandoned and
	// finishes in the background.
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("subfmt: %s printer panicked: %v", p.Syntax, r)}
			}
		}()
		text, err := printer.Print(content, p)
		done <- outcome{text: text, err: err}
	}()

	select {
	case o := <-done:
		return o.text, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", errors.Wrapf(ErrTimeout, "%s printer after %v", p.Syntax, d.timeout)
		}
		return "", ctx.Err()
	}
}
