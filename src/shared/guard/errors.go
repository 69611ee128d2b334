package guard

import "github.com/cockroachdb/errors"

var (
	UnknownTokenMark = errors.New("unknown_token")
)
