// Package apperr carries coded errors from services to the transport layer.
package apperr

import "errors"

// Kind groups codes by how callers should react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	// KindBusinessRule marks permanent rule violations such as out-of-stock.
	KindBusinessRule
	// KindTransient marks contention or timeouts; the request is safe to retry.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBusinessRule:
		return "business_rule"
	case KindTransient:
		return "transient"
	default:
		return "internal"
	}
}

type Code string

// Error is a coded error. Two Errors match under errors.Is when their codes match.
type Error struct {
	Kind Kind
	Code Code
	Err  error
}

func New(kind Kind, code Code) *Error { return &Error{Kind: kind, Code: code} }

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) error {
	return &Error{Kind: e.Kind, Code: e.Code, Err: cause}
}

// CodeOf extracts the code, or "" when err carries none.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// KindOf extracts the kind, defaulting to KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
