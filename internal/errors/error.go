package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryUsage     Category = "usage"
	CategoryTransport Category = "transport"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// BoardError is a structured error with a code, detail and suggestion.
type BoardError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (usage, transport, config).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *BoardError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *BoardError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a BoardError with the same code.
func (e *BoardError) Is(target error) bool {
	t, ok := target.(*BoardError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *BoardError) WithSuggestion(s string) *BoardError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *BoardError) WithDetail(d string) *BoardError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *BoardError) Wrap(err error) *BoardError {
	e.Wrapped = err
	return e
}

// New creates a BoardError from a registered error code.
func New(code string) *BoardError {
	template, ok := registry[code]
	if !ok {
		return &BoardError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &BoardError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new BoardError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *BoardError {
	return &BoardError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a BoardError.
func FromError(err error, code string) *BoardError {
	if err == nil {
		return nil
	}
	if be, ok := err.(*BoardError); ok {
		return be
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first BoardError in err's chain, or "".
func Code(err error) string {
	for err != nil {
		if be, ok := err.(*BoardError); ok {
			return be.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Is forwards to the standard library so callers importing this package
// as errors keep errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As forwards to the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
