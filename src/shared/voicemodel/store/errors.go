package voicemodelstore

import "github.com/cockroachdb/errors"

var (
	ModelNotFoundMark = errors.New("model_not_found")
	ModelInUseMark    = errors.New("model_in_use")
	DuplicateNameMark = errors.New("duplicate_model_name")
	InvalidSourceMark = errors.New("invalid_model_source")
	DefaultErrorMark  = errors.New("default_error")
)
