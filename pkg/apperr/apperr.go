package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation                 Kind = "validation_error"
	KindIncompleteDocuments        Kind = "incomplete_documents"
	KindInvalidTransition          Kind = "invalid_transition"
	KindPermissionDenied           Kind = "permission_denied"
	KindImmutableAfterDisbursement Kind = "immutable_after_disbursement"
	KindNotFound                   Kind = "not_found"
	KindConflict                   Kind = "conflict"
)

// Error is the structured error returned by every lifecycle command.
// Detail carries machine-readable context (e.g. the missing document list).
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Detail  map[string]any
	Err     error
}

// Kind-only sentinels; errors.Is matches any error of the same kind.
var (
	ErrValidation                 = &Error{Kind: KindValidation}
	ErrIncompleteDocuments        = &Error{Kind: KindIncompleteDocuments}
	ErrInvalidTransition          = &Error{Kind: KindInvalidTransition}
	ErrPermissionDenied           = &Error{Kind: KindPermissionDenied}
	ErrImmutableAfterDisbursement = &Error{Kind: KindImmutableAfterDisbursement}
	ErrNotFound                   = &Error{Kind: KindNotFound}
	ErrConflict                   = &Error{Kind: KindConflict}
)

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validation(code, msg string) *Error { return New(KindValidation, code, msg) }

func NotFound(what string) *Error {
	return Newf(KindNotFound, what+"_not_found", "%s not found", what)
}

func InvalidTransition(format string, args ...any) *Error {
	return Newf(KindInvalidTransition, "invalid_transition", format, args...)
}

func PermissionDenied(format string, args ...any) *Error {
	return Newf(KindPermissionDenied, "permission_denied", format, args...)
}

func Conflict(code, format string, args ...any) *Error {
	return Newf(KindConflict, code, format, args...)
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind, and on code too when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// WithDetail returns a copy of e with key set in Detail.
func (e *Error) WithDetail(key string, v any) *Error {
	cp := *e
	cp.Detail = make(map[string]any, len(e.Detail)+1)
	for k, val := range e.Detail {
		cp.Detail[k] = val
	}
	cp.Detail[key] = v
	return &cp
}

// Wrap attaches a cause while keeping kind and code.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// As is a shorthand for errors.As into *Error.
func As(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}
