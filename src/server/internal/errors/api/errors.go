package api

import (
	"github.com/cockroachdb/errors"
)

type ErrorCode string

const DefaultErrorCode = ErrorCode("default_error")

// Error pairs an internal error with the code and message that are
// safe to surface to the client.
type Error struct {
	error
	ErrorCode   ErrorCode
	UserMessage string
}

func CommitError(err error, errorCode ErrorCode, userMessage string) *Error {
	return &Error{
		error:       err,
		ErrorCode:   errorCode,
		UserMessage: userMessage,
	}
}

func WrapError(apiError *Error, msg string) *Error {
	return &Error{
		error:       errors.Wrap(apiError.error, msg),
		ErrorCode:   apiError.ErrorCode,
		UserMessage: apiError.UserMessage,
	}
}
