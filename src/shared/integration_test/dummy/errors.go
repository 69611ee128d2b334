package dummy

import "github.com/cockroachdb/errors"

var (
	NetworkFailure = errors.New("the network has failed")
	NotFound       = errors.New("the record is not found")
)
