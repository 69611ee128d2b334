package pipeline

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	InvalidOptionsMark      = errors.New("invalid_options")
	UnknownStageMark        = errors.New("unknown_stage")
	MissingPrerequisiteMark = errors.New("missing_prerequisite")
	StageFailedMark         = errors.New("stage_failed")
	RetrievalFailedMark     = errors.New("retrieval_failed")
	CacheCorruptionMark     = errors.New("cache_corruption")
	RunCancelledMark        = errors.New("run_cancelled")
	DefaultErrorMark        = errors.New("default_error")
)

// MissingPrerequisiteError names the stage whose output is required but
// absent, so callers can tell the user exactly which step to run first.
type MissingPrerequisiteError struct {
	Stage Stage
}

func (e MissingPrerequisiteError) Error() string {
	return fmt.Sprintf("the %s stage has no committed output for the current options", e.Stage)
}
