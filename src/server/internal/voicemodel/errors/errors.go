package voicemodelerrors

import (
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/api"
)

const (
	ModelNotFoundCode      = api.ErrorCode("model_not_found")
	ModelInUseCode         = api.ErrorCode("model_in_use")
	DuplicateModelCode     = api.ErrorCode("duplicate_model_name")
	InvalidModelSourceCode = api.ErrorCode("invalid_model_source")
	BadModelDataCode       = api.ErrorCode("bad_model_data")
	UnknownDeleteTokenCode = api.ErrorCode("unknown_model_delete_token")
)
