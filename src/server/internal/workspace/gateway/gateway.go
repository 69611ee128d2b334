package workspacegateway

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/api"
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/gateway"
	"github.com/veedubyou/cover-gen-be/src/server/internal/lib/request"
	"github.com/veedubyou/cover-gen-be/src/server/internal/workspace/errors"
	"github.com/veedubyou/cover-gen-be/src/server/internal/workspace/usecase"
	"github.com/veedubyou/cover-gen-be/src/shared/guard"
	workspaceentity "github.com/veedubyou/cover-gen-be/src/shared/workspace/entity"
)

type artifactJSON struct {
	ID          string    `json:"id"`
	Stage       string    `json:"stage"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

type stagedDeletionJSON struct {
	Token    string    `json:"token"`
	Items    []string  `json:"items"`
	StagedAt time.Time `json:"staged_at"`
}

type deleteRequestJSON struct {
	SongIDs []string `json:"song_ids"`
}

type deletedJSON struct {
	Deleted []string `json:"deleted"`
}

type Gateway struct {
	usecase workspaceusecase.Usecase
}

func NewGateway(usecase workspaceusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) ListWorkspaces(c echo.Context) error {
	ctx := request.Context(c)

	songIDs, apiErr := g.usecase.ListWorkspaces(ctx)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to list workspaces")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, songIDs)
}

func (g Gateway) ListArtifacts(c echo.Context, songID string) error {
	ctx := request.Context(c)

	artifacts, apiErr := g.usecase.ListArtifacts(ctx, songID)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to list artifacts")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, toArtifactJSONList(artifacts))
}

func (g Gateway) StageDeletion(c echo.Context) error {
	ctx := request.Context(c)

	deleteRequest := deleteRequestJSON{}
	err := c.Bind(&deleteRequest)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to the delete request")
		apiErr := api.CommitError(err,
			workspaceerrors.InvalidSongIDCode,
			"The delete request received was malformed. Please contact the developer")
		return gateway.ErrorResponse(c, apiErr)
	}

	staged, apiErr := g.usecase.StageDeletion(ctx, deleteRequest.SongIDs)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusAccepted, toStagedDeletionJSON(staged))
}

func (g Gateway) ConfirmDeletion(c echo.Context, token string) error {
	ctx := request.Context(c)

	deleted, apiErr := g.usecase.ConfirmDeletion(ctx, token)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to confirm the staged deletion")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, deletedJSON{Deleted: deleted})
}

func (g Gateway) CancelDeletion(c echo.Context, token string) error {
	ctx := request.Context(c)

	if apiErr := g.usecase.CancelDeletion(ctx, token); apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to cancel the staged deletion")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.NoContent(http.StatusNoContent)
}

func toArtifactJSONList(artifacts []workspaceentity.Artifact) []artifactJSON {
	jsonArtifacts := []artifactJSON{}
	for _, artifact := range artifacts {
		jsonArtifacts = append(jsonArtifacts, artifactJSON{
			ID:          artifact.ID(),
			Stage:       artifact.Stage,
			Fingerprint: artifact.Fingerprint,
			CreatedAt:   artifact.CreatedAt,
		})
	}

	return jsonArtifacts
}

func toStagedDeletionJSON(staged guard.Staged) stagedDeletionJSON {
	return stagedDeletionJSON{
		Token:    staged.Token,
		Items:    staged.Items,
		StagedAt: staged.StagedAt,
	}
}
