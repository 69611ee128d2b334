package covererrors

import (
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/api"
)

const (
	BadRequestDataCode      = api.ErrorCode("bad_request_data")
	InvalidOptionsCode      = api.ErrorCode("invalid_options")
	UnknownStageCode        = api.ErrorCode("unknown_stage")
	MissingPrerequisiteCode = api.ErrorCode("missing_prerequisite")
	JobNotFoundCode         = api.ErrorCode("job_not_found")
)
