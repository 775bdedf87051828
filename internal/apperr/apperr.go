package apperr

import "fmt"

// Kind classifies a failure so the HTTP boundary can map it to exactly one
// response shape. Workflows return these instead of formatting HTTP themselves.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindStoreRequest
	KindStoreValidation
	KindStoreUnavailable
	KindStoreInternal
)

// FieldError describes a single failed validation rule on one input field.
type FieldError struct {
	Field  string   `json:"field"`
	Errors []string `json:"errors"`
}

// Error is the tagged failure carried from workflows to the boundary.
type Error struct {
	Kind    Kind
	Message string
	// Code holds the store's own error code (SQLSTATE) when Kind is a
	// store-layer kind.
	Code string
	// Err is the underlying cause, kept for logging, never serialized.
	Err error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind with a fixed message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// StoreRequest builds a known store request failure carrying the store's code.
func StoreRequest(code string, err error) *Error {
	return &Error{
		Kind:    KindStoreRequest,
		Message: fmt.Sprintf("Database error (code %s)", code),
		Code:    code,
		Err:     err,
	}
}
