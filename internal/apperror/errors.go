package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindPreconditionFailed  Kind = "PRECONDITION_FAILED"
	KindValidation          Kind = "VALIDATION_ERROR"
	KindTransientConnection Kind = "TRANSIENT_CONNECTION"
	KindRateLimited         Kind = "RATE_LIMITED"
	KindInvalidInput        Kind = "INVALID_INPUT"
	KindExternalService     Kind = "EXTERNAL_SERVICE_ERROR"
	KindInternal            Kind = "INTERNAL_ERROR"
)

// Error carries a Kind so callers branch on classification instead of message text.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy of e with key set in Details.
func (e *Error) WithDetail(key string, value any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func NotFound(op, message string) *Error {
	return New(KindNotFound, op, message)
}

func Precondition(op, message string) *Error {
	return New(KindPreconditionFailed, op, message)
}

func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

func Transient(op string, err error) *Error {
	return Wrap(KindTransientConnection, op, err)
}

func External(op string, err error) *Error {
	return Wrap(KindExternalService, op, err)
}

func Internal(op string, err error) *Error {
	return Wrap(KindInternal, op, err)
}

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable is true only for kinds a backend may recover from on its own.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransientConnection, KindRateLimited:
		return true
	}
	return false
}

func DetailsOf(err error) map[string]any {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}
