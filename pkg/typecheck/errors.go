package typecheck

import (
	"fmt"

	"github.com/leapstack-labs/squint/pkg/token"
)

// Kind classifies checker failures.
type Kind int

// Error kinds.
const (
	// KindNotFound reports an unknown table, column, or function.
	KindNotFound Kind = iota
	// KindAmbiguous reports an unqualified column visible in more than one
	// FROM source.
	KindAmbiguous
	// KindTypeConflict reports a failed unification.
	KindTypeConflict
	// KindArity reports a width mismatch: function arguments, VALUES rows,
	// compound query sides, or a subquery that must produce one column.
	KindArity
	// KindStructural reports a malformed construct: NATURAL JOIN misuse,
	// wildcard without FROM, unaliased expression column, duplicate FROM
	// binding, empty VALUES.
	KindStructural
	// KindUnsupported reports a construct the checker does not handle,
	// such as table-valued function invocations.
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAmbiguous:
		return "ambiguous"
	case KindTypeConflict:
		return "type conflict"
	case KindArity:
		return "arity mismatch"
	case KindStructural:
		return "structural error"
	case KindUnsupported:
		return "unsupported"
	}
	return "error"
}

// Error is a positioned checker failure. The span covers the smallest
// enclosing node of the fault.
type Error struct {
	Span    token.Span
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Span.IsValid() {
		return fmt.Sprintf("%s: %s", e.Span.Start, e.Message)
	}
	return e.Message
}

// errorf builds a positioned error.
func errorf(span token.Span, kind Kind, format string, args ...any) *Error {
	return &Error{Span: span, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// positioned attaches a span to a bare unification or resolution error.
// An error that already carries a position is returned unchanged.
func positioned(span token.Span, err error) error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *Error:
		return e
	case *conflictError:
		return &Error{Span: span, Kind: KindTypeConflict, Message: e.Error()}
	case *resolveError:
		return &Error{Span: span, Kind: e.kind, Message: e.msg}
	}
	return &Error{Span: span, Kind: KindTypeConflict, Message: err.Error()}
}

// conflictError is an unpositioned unification failure.
type conflictError struct {
	left  string
	right string
}

func (e *conflictError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s", e.left, e.right)
}

// resolveError is an unpositioned name-resolution failure.
type resolveError struct {
	kind Kind
	msg  string
}

func (e *resolveError) Error() string { return e.msg }

func notFoundf(format string, args ...any) *resolveError {
	return &resolveError{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

func ambiguousf(format string, args ...any) *resolveError {
	return &resolveError{kind: KindAmbiguous, msg: fmt.Sprintf(format, args...)}
}
