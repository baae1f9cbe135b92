package errors

import (
	goErrors "errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string) error {
	return goErrors.New(msg)
}

// ContextError annotates an error with a short description of the operation
// that failed. The original error is preserved so that callers can still
// inspect the root cause.
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return fmt.Sprintf("%s: %s", err.Context, err.Err)
}

func (err ContextError) Unwrap() error {
	return err.Err
}

// WithContext wraps `err` with a description of the operation being performed
// when the error occurred. It returns nil if `err` is nil so that callers can
// wrap unconditionally.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return ContextError{Context: context, Err: err}
}

// RootCause returns the innermost error in a chain of ContextErrors.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = ctxErr.Err
	}
}

// FriendlyError is an error with a message meant to be read by the end user.
// When a FriendlyError reaches the top of the process, only its message is
// printed, without the chain of contexts that led to it.
type FriendlyError struct {
	Message string
}

func (err FriendlyError) Error() string {
	return err.Message
}

// FriendlyMessage implements the friendlier interface.
func (err FriendlyError) FriendlyMessage() string {
	return err.Message
}

// NewFriendlyError creates an error that's printed directly to the user
// without any additional formatting.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{Message: fmt.Sprintf(format, args...)}
}

// friendlier is implemented by errors that carry a user-facing message. Typed
// errors outside this package (such as config version mismatches) implement it
// to control how they're printed.
type friendlier interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the message that should be shown to the user
// for the given error. If any error in the chain has a friendly message, that
// message is used. Otherwise, the full error is returned.
func GetPrintableMessage(err error) string {
	if err == nil {
		return ""
	}

	for curr := err; ; {
		if friendly, ok := curr.(friendlier); ok {
			return friendly.FriendlyMessage()
		}

		ctxErr, ok := curr.(ContextError)
		if !ok {
			break
		}
		curr = ctxErr.Err
	}
	return err.Error()
}
