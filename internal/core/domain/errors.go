package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the core surfaces to the boundary.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindBadRequest
	KindNotFound
	KindAuthentication
	KindAuthorization
	KindResourcePersistence
	KindConflict
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindResourcePersistence:
		return "resource_persistence"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the tagged error type returned by services and gateways.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrBadRequest          = &Error{Kind: KindBadRequest, Message: "invalid request"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrAuthentication      = &Error{Kind: KindAuthentication, Message: "authentication failed"}
	ErrAuthorization       = &Error{Kind: KindAuthorization, Message: "access forbidden"}
	ErrResourcePersistence = &Error{Kind: KindResourcePersistence, Message: "resource could not be persisted"}
	ErrConflict            = &Error{Kind: KindConflict, Message: "request conflicts with current resource state"}
	ErrInternal            = &Error{Kind: KindInternal, Message: "internal server error"}
)

// NewError returns an *Error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
