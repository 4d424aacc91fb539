package diag

import (
	"errors"
	"fmt"
)

// Kind classifies a conversion failure.
type Kind int

const (
	KindParse Kind = iota + 1
	KindStructural
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse error"
	case KindStructural:
		return "structural error"
	default:
		return "error"
	}
}

// Sentinels for errors.Is checks.
var (
	ErrParse      = errors.New("parse error")
	ErrStructural = errors.New("structural error")
)

// Error is a fatal, per-file conversion failure.
// Line is zero-based; it is printed one-based.
type Error struct {
	Kind Kind
	Path string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line+1, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s: %s", e.Path, e.Line+1, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindParse:
		return ErrParse
	case KindStructural:
		return ErrStructural
	}
	return nil
}

// Parse builds a ParseError at the given zero-based line.
func Parse(line int, format string, args ...any) *Error {
	return &Error{Kind: KindParse, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Structural builds a StructuralError at the given zero-based line.
func Structural(line int, format string, args ...any) *Error {
	return &Error{Kind: KindStructural, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// WithPath returns a copy of err carrying path. Errors that are not *Error are
// wrapped with the path as a prefix.
func WithPath(err error, path string) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		cp := *de
		cp.Path = path
		return &cp
	}
	return fmt.Errorf("%s: %w", path, err)
}

// Position extracts the path and zero-based line from err, if it carries one.
func Position(err error) (path string, line int, ok bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Path, de.Line, true
	}
	return "", 0, false
}
