package gateway

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/veedubyou/cover-gen-be/src/server/api_error"
	"github.com/veedubyou/cover-gen-be/src/server/internal/cover/errors"
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/api"
	"github.com/veedubyou/cover-gen-be/src/server/internal/voicemodel/errors"
	"github.com/veedubyou/cover-gen-be/src/server/internal/workspace/errors"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:                    http.StatusInternalServerError,
	covererrors.BadRequestDataCode:          http.StatusBadRequest,
	covererrors.InvalidOptionsCode:          http.StatusBadRequest,
	covererrors.UnknownStageCode:            http.StatusBadRequest,
	covererrors.MissingPrerequisiteCode:     http.StatusConflict,
	covererrors.JobNotFoundCode:             http.StatusNotFound,
	workspaceerrors.InvalidSongIDCode:       http.StatusBadRequest,
	workspaceerrors.WorkspaceNotFoundCode:   http.StatusNotFound,
	workspaceerrors.UnknownDeleteTokenCode:  http.StatusNotFound,
	voicemodelerrors.ModelNotFoundCode:      http.StatusNotFound,
	voicemodelerrors.ModelInUseCode:         http.StatusConflict,
	voicemodelerrors.DuplicateModelCode:     http.StatusBadRequest,
	voicemodelerrors.InvalidModelSourceCode: http.StatusBadRequest,
	voicemodelerrors.BadModelDataCode:       http.StatusBadRequest,
	voicemodelerrors.UnknownDeleteTokenCode: http.StatusNotFound,
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode, ok := httpStatusCodeMap[err.ErrorCode]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", err.ErrorCode)
		panic(msg)
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Code:         string(err.ErrorCode),
		Msg:          err.UserMessage,
		ErrorDetails: err.Error(),
	})
}
