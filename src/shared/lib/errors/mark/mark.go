package mark

import "github.com/cockroachdb/errors"

// Wrap marks an error with a sentinel so callers can branch on
// markers.Is without string matching, and adds a message for context.
func Wrap(err error, markingErr error, msg string) error {
	markedErr := errors.Mark(err, markingErr)
	return errors.Wrap(markedErr, msg)
}

func Message(markingErr error, msg string) error {
	err := errors.New(msg)
	return errors.Mark(err, markingErr)
}
