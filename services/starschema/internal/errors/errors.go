package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeInvalidInput ErrorType = "INVALID_INPUT"
	ErrTypeUnreadable   ErrorType = "UNREADABLE"
	ErrTypeInternal     ErrorType = "INTERNAL"
	ErrTypeUnavailable  ErrorType = "UNAVAILABLE"
)

// DomainError is the only error shape that crosses a package boundary in this
// service. Structural failures (no input, unreadable input) and sink failures
// are DomainErrors; per-record data gaps never are.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

// IsType reports whether err, or anything it wraps, is a DomainError of type t.
func IsType(err error, t ErrorType) bool {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Type == t
	}
	return false
}

// ExitCode maps err to the process exit status of a batch run: 2 when the
// input is at fault, 3 when a sink or broker could not be reached, 1 for
// anything else.
func ExitCode(err error) int {
	var de *DomainError
	if !stderrors.As(err, &de) {
		return 1
	}
	switch de.Type {
	case ErrTypeNotFound, ErrTypeInvalidInput, ErrTypeUnreadable:
		return 2
	case ErrTypeUnavailable:
		return 3
	default:
		return 1
	}
}

func NotFound(message string, err error) *DomainError {
	return New(ErrTypeNotFound, message, err)
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func Unreadable(message string, err error) *DomainError {
	return New(ErrTypeUnreadable, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}

func Unavailable(message string, err error) *DomainError {
	return New(ErrTypeUnavailable, message, err)
}
