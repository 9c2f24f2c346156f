package xmlembed

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies why a formatting request failed.
type ErrorKind int

const (
	// InvalidDocument means the input is not well-formed XML or has no root
	// element.
	InvalidDocument ErrorKind = iota + 1
	// SubFormatFailure means a single embedded block could not be
	// formatted. It never aborts a request.
	SubFormatFailure
	// DocumentFormattingFailed means the whole-document formatter rejected
	// the serialized tree.
	DocumentFormattingFailed
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidDocument:
		return "invalid document"
	case SubFormatFailure:
		return "sub-format failure"
	case DocumentFormattingFailed:
		return "document formatting failed"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the error returned by a failed formatting request.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "xmlembed: " + e.Kind.String()
	}
	return fmt.Sprintf("xmlembed: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Cause implements the causer interface of github.com/pkg/errors.
func (e *Error) Cause() error { return e.Err }

// Is matches another *Error of the same Kind, so the package level
// sentinels can be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidDocument          = &Error{Kind: InvalidDocument}
	ErrSubFormatFailure         = &Error{Kind: SubFormatFailure}
	ErrDocumentFormattingFailed = &Error{Kind: DocumentFormattingFailed}
)

func newError(kind ErrorKind, err error, msg string) *Error {
	return &Error{Kind: kind, Err: errors.Wrap(err, msg)}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
