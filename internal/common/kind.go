package common

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide whether to retry,
// surface it to the user, or treat it as fatal.
type Kind string

const (
	KindLocalStorage      Kind = "LOCAL_STORAGE"
	KindRemoteUnavailable Kind = "REMOTE_UNAVAILABLE"
	KindNotFound          Kind = "NOT_FOUND"
	KindValidation        Kind = "VALIDATION"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindInternal          Kind = "INTERNAL"
)

type kindMeta struct {
	retryable bool
	sentinel  error
}

var metadataByKind = map[Kind]kindMeta{
	KindLocalStorage:      {retryable: false, sentinel: ErrorInternal},
	KindRemoteUnavailable: {retryable: true},
	KindNotFound:          {retryable: false, sentinel: ErrorNotFound},
	KindValidation:        {retryable: false, sentinel: ErrorValidation},
	KindUnauthorized:      {retryable: false, sentinel: ErrorUnauthorized},
	KindInternal:          {retryable: false, sentinel: ErrorInternal},
}

// Error is a classified failure. Op names the operation that failed,
// e.g. "tips.upsert" or "sync.pushOne".
type Error struct {
	kind    Kind
	op      string
	message string
	details map[string]string
	cause   error
}

// New creates a classified error without an underlying cause.
func New(kind Kind, op, message string) *Error {
	return &Error{kind: kind, op: op, message: message}
}

// Wrap classifies err. A nil err yields a plain New.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return New(kind, op, "")
	}
	return &Error{kind: kind, op: op, cause: err}
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *Error) Op() string {
	if e == nil {
		return ""
	}
	return e.op
}

func (e *Error) Details() map[string]string {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches field-level details (validation messages keyed by
// json field name).
func (e *Error) WithDetails(details map[string]string) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.message
	if msg == "" && e.cause != nil {
		msg = e.cause.Error()
	}
	if e.op == "" {
		return fmt.Sprintf("%s: %s", e.kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.op, e.kind, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is lets errors.Is match the sentinel associated with the error's kind,
// so errors.Is(err, ErrorNotFound) holds for a KindNotFound error.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	meta, ok := metadataByKind[e.kind]
	return ok && meta.sentinel != nil && meta.sentinel == target
}

// AsError returns the first *Error in err's chain, or nil.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// KindOf reports the kind of err. Unclassified errors are KindInternal,
// except bare ErrorNotFound/ErrorValidation/ErrorUnauthorized sentinels.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if typed := AsError(err); typed != nil {
		return typed.Kind()
	}
	switch {
	case errors.Is(err, ErrorNotFound):
		return KindNotFound
	case errors.Is(err, ErrorValidation):
		return KindValidation
	case errors.Is(err, ErrorUnauthorized):
		return KindUnauthorized
	}
	return KindInternal
}

// IsRetryable reports whether a later attempt may succeed without any
// change on the caller's side.
func IsRetryable(err error) bool {
	return metadataByKind[KindOf(err)].retryable
}
