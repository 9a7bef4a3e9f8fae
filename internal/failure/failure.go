// Package failure defines the recoverable outcomes of registration, check-in
// and event management. Anything that is not a *Error is an unexpected
// failure and should be treated as a server error.
package failure

import "errors"

type Code string

const (
	CodeUnauthorized          Code = "UNAUTHORIZED"
	CodeForbidden             Code = "FORBIDDEN"
	CodeEventNotFound         Code = "EVENT_NOT_FOUND"
	CodeEventNotAvailable     Code = "EVENT_NOT_AVAILABLE"
	CodeAlreadyRegistered     Code = "ALREADY_REGISTERED"
	CodeEventFull             Code = "EVENT_FULL"
	CodeNotRegistered         Code = "NOT_REGISTERED"
	CodeEventStarted          Code = "EVENT_STARTED"
	CodeInvalidToken          Code = "INVALID_TOKEN"
	CodeWrongEvent            Code = "WRONG_EVENT"
	CodeRegistrationCancelled Code = "REGISTRATION_CANCELLED"
	CodeAlreadyCheckedIn      Code = "ALREADY_CHECKED_IN"
	CodeValidationFailed      Code = "VALIDATION_FAILED"
)

type Kind string

const (
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindForbidden        Kind = "FORBIDDEN"
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidState     Kind = "INVALID_STATE"
	KindCapacityExceeded Kind = "CAPACITY_EXCEEDED"
	KindTokenMismatch    Kind = "TOKEN_MISMATCH"
	KindAlreadyDone      Kind = "ALREADY_DONE"
	KindInvalidInput     Kind = "INVALID_INPUT"
)

var kinds = map[Code]Kind{
	CodeUnauthorized:          KindUnauthorized,
	CodeForbidden:             KindForbidden,
	CodeEventNotFound:         KindNotFound,
	CodeNotRegistered:         KindNotFound,
	CodeEventNotAvailable:     KindInvalidState,
	CodeEventStarted:          KindInvalidState,
	CodeRegistrationCancelled: KindInvalidState,
	CodeEventFull:             KindCapacityExceeded,
	CodeInvalidToken:          KindTokenMismatch,
	CodeWrongEvent:            KindTokenMismatch,
	CodeAlreadyRegistered:     KindAlreadyDone,
	CodeAlreadyCheckedIn:      KindAlreadyDone,
	CodeValidationFailed:      KindInvalidInput,
}

// Error is a typed, expected failure carrying a stable machine-readable code.
type Error struct {
	Code    Code
	Message string
	// Field names the offending input field for validation failures.
	Field string
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Invalid returns a validation failure for one input field.
func Invalid(field, message string) *Error {
	return &Error{Code: CodeValidationFailed, Message: message, Field: field}
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) Kind() Kind {
	if k, ok := kinds[e.Code]; ok {
		return k
	}
	return KindInvalidState
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var f *Error
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

var (
	ErrUnauthorized          = New(CodeUnauthorized, "Please sign in first")
	ErrForbidden             = New(CodeForbidden, "You are not allowed to do this")
	ErrEventNotFound         = New(CodeEventNotFound, "Event not found")
	ErrEventNotAvailable     = New(CodeEventNotAvailable, "This event is not open for registration")
	ErrAlreadyRegistered     = New(CodeAlreadyRegistered, "You are already registered for this event")
	ErrEventFull             = New(CodeEventFull, "This event is full")
	ErrNotRegistered         = New(CodeNotRegistered, "You are not registered for this event")
	ErrEventStarted          = New(CodeEventStarted, "The event has already started, registration can no longer be cancelled")
	ErrInvalidToken          = New(CodeInvalidToken, "Invalid check-in code")
	ErrWrongEvent            = New(CodeWrongEvent, "This check-in code belongs to another event")
	ErrRegistrationCancelled = New(CodeRegistrationCancelled, "This registration has been cancelled")
	ErrAlreadyCheckedIn      = New(CodeAlreadyCheckedIn, "This attendee has already checked in")
)
