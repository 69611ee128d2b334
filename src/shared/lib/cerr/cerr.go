package cerr

import (
	"fmt"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

type F map[string]any

// ErrorContext accumulates structured fields before an error is
// created, so the fields travel with the error to wherever it gets
// logged instead of being stringified into the message.
type ErrorContext struct {
	fields F
	err    error
}

func Field(key string, value any) ErrorContext {
	return ErrorContext{}.Field(key, value)
}

func Fields(fields F) ErrorContext {
	return ErrorContext{}.Fields(fields)
}

func Wrap(err error) ErrorContext {
	return ErrorContext{}.Wrap(err)
}

func Error(msg string) error {
	return ErrorContext{}.Error(msg)
}

func (c ErrorContext) Field(key string, value any) ErrorContext {
	newFields := F{}
	for k, v := range c.fields {
		newFields[k] = v
	}

	newFields[key] = value
	c.fields = newFields
	return c
}

func (c ErrorContext) Fields(fields F) ErrorContext {
	errctx := c
	for k, v := range fields {
		errctx = errctx.Field(k, v)
	}

	return errctx
}

func (c ErrorContext) Wrap(err error) ErrorContext {
	c.err = err
	return c
}

func (c ErrorContext) Error(msg string) error {
	var err error
	if c.err != nil {
		err = errors.Wrap(c.err, msg)
	} else {
		err = errors.New(msg)
	}

	if len(c.fields) == 0 {
		return err
	}

	return fieldedError{err: err, fields: c.fields}
}

type fieldedError struct {
	err    error
	fields F
}

func (f fieldedError) Error() string {
	return f.err.Error()
}

func (f fieldedError) Unwrap() error {
	return f.err
}

// Log writes the error with every field collected along the chain.
// Inner fields win over outer ones when keys collide.
func Log(err error) {
	logger := log.WithFields(log.Fields(collectFields(err)))
	logger.Error(fmt.Sprintf("%+v", err))
}

func collectFields(err error) map[string]any {
	fields := map[string]any{}

	for err != nil {
		if fielded, ok := err.(fieldedError); ok {
			for k, v := range fielded.fields {
				fields[k] = v
			}
		}

		err = errors.UnwrapOnce(err)
	}

	return fields
}
