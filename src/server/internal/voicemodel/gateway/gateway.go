package voicemodelgateway

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/api"
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/gateway"
	"github.com/veedubyou/cover-gen-be/src/server/internal/lib/request"
	"github.com/veedubyou/cover-gen-be/src/server/internal/voicemodel/errors"
	"github.com/veedubyou/cover-gen-be/src/server/internal/voicemodel/usecase"
	"github.com/veedubyou/cover-gen-be/src/shared/guard"
	voicemodelentity "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/entity"
)

type modelJSON struct {
	Name        string    `json:"name"`
	InstalledAt time.Time `json:"installed_at"`
}

type installRequestJSON struct {
	Name      string `json:"name"`
	SourceDir string `json:"source_dir"`
}

type stagedDeletionJSON struct {
	Token    string    `json:"token"`
	Items    []string  `json:"items"`
	StagedAt time.Time `json:"staged_at"`
}

type deleteRequestJSON struct {
	Names []string `json:"names"`
}

type deleteOutcomeJSON struct {
	Deleted []string          `json:"deleted"`
	Refused map[string]string `json:"refused"`
}

type Gateway struct {
	usecase voicemodelusecase.Usecase
}

func NewGateway(usecase voicemodelusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) ListModels(c echo.Context) error {
	ctx := request.Context(c)

	models, apiErr := g.usecase.ListModels(ctx)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to list voice models")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, toModelJSONList(models))
}

func (g Gateway) InstallModel(c echo.Context) error {
	ctx := request.Context(c)

	installRequest := installRequestJSON{}
	err := c.Bind(&installRequest)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to the install request")
		apiErr := api.CommitError(err,
			voicemodelerrors.BadModelDataCode,
			"The install request received was malformed. Please contact the developer")
		return gateway.ErrorResponse(c, apiErr)
	}

	model, apiErr := g.usecase.InstallModel(ctx, installRequest.Name, installRequest.SourceDir)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusCreated, toModelJSON(model))
}

func (g Gateway) StageDeletion(c echo.Context) error {
	ctx := request.Context(c)

	deleteRequest := deleteRequestJSON{}
	err := c.Bind(&deleteRequest)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to the delete request")
		apiErr := api.CommitError(err,
			voicemodelerrors.BadModelDataCode,
			"The delete request received was malformed. Please contact the developer")
		return gateway.ErrorResponse(c, apiErr)
	}

	staged, apiErr := g.usecase.StageDeletion(ctx, deleteRequest.Names)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusAccepted, toStagedDeletionJSON(staged))
}

func (g Gateway) ConfirmDeletion(c echo.Context, token string) error {
	ctx := request.Context(c)

	outcome, apiErr := g.usecase.ConfirmDeletion(ctx, token)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to confirm the staged deletion")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, toDeleteOutcomeJSON(outcome))
}

func (g Gateway) CancelDeletion(c echo.Context, token string) error {
	ctx := request.Context(c)

	if apiErr := g.usecase.CancelDeletion(ctx, token); apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to cancel the staged deletion")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.NoContent(http.StatusNoContent)
}

func toModelJSON(model voicemodelentity.VoiceModel) modelJSON {
	return modelJSON{
		Name:        model.Name,
		InstalledAt: model.InstalledAt,
	}
}

func toModelJSONList(models []voicemodelentity.VoiceModel) []modelJSON {
	jsonModels := []modelJSON{}
	for _, model := range models {
		jsonModels = append(jsonModels, toModelJSON(model))
	}

	return jsonModels
}

func toStagedDeletionJSON(staged guard.Staged) stagedDeletionJSON {
	return stagedDeletionJSON{
		Token:    staged.Token,
		Items:    staged.Items,
		StagedAt: staged.StagedAt,
	}
}

func toDeleteOutcomeJSON(outcome voicemodelentity.DeleteOutcome) deleteOutcomeJSON {
	refused := map[string]string{}
	for name, refusalErr := range outcome.Refused {
		refused[name] = refusalErr.Error()
	}

	return deleteOutcomeJSON{
		Deleted: outcome.Deleted,
		Refused: refused,
	}
}
