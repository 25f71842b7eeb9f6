package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected core operation.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindAccessDenied
	KindInvalidState
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindAccessDenied:
		return "ACCESS_DENIED"
	case KindInvalidState:
		return "INVALID_STATE"
	default:
		return "UNKNOWN"
	}
}

type DenyReason string

const (
	ReasonNotAssigned   DenyReason = "NOT_ASSIGNED"
	ReasonAdminRequired DenyReason = "ADMIN_REQUIRED"
)

// Error is returned when a core operation is rejected by business rules.
type Error struct {
	Kind    ErrorKind
	Reason  DenyReason
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation   = &Error{Kind: KindValidation, Message: "validation error"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrAccessDenied = &Error{Kind: KindAccessDenied, Message: "access denied"}
	ErrInvalidState = &Error{Kind: KindInvalidState, Message: "invalid state"}
)

func NewValidation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewAccessDenied(reason DenyReason, format string, args ...any) *Error {
	return &Error{Kind: KindAccessDenied, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
