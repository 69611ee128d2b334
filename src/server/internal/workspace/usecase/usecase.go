package workspaceusecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/api"
	"github.com/veedubyou/cover-gen-be/src/server/internal/workspace/errors"
	"github.com/veedubyou/cover-gen-be/src/shared/guard"
	workspaceentity "github.com/veedubyou/cover-gen-be/src/shared/workspace/entity"
	workspacestore "github.com/veedubyou/cover-gen-be/src/shared/workspace/store"
)

type Usecase struct {
	workspaceStore workspacestore.Store
	deletionGuard  *guard.Guard
}

func NewUsecase(workspaceStore workspacestore.Store, deletionGuard *guard.Guard) Usecase {
	return Usecase{
		workspaceStore: workspaceStore,
		deletionGuard:  deletionGuard,
	}
}

func (u Usecase) ListWorkspaces(ctx context.Context) ([]string, *api.Error) {
	songIDs, err := u.workspaceStore.List()
	if err != nil {
		err = errors.Wrap(err, "Failed to list workspaces")
		return nil, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to list the workspaces. Please contact the developer")
	}

	return songIDs, nil
}

func (u Usecase) ListArtifacts(ctx context.Context, songID string) ([]workspaceentity.Artifact, *api.Error) {
	artifacts, err := u.workspaceStore.ArtifactsOf(songID)
	if err != nil {
		err = errors.Wrap(err, "Failed to list the workspace's artifacts")
		switch {
		case markers.Is(err, workspacestore.InvalidIdentifierMark):
			return nil, api.CommitError(err,
				workspaceerrors.InvalidSongIDCode,
				"The song ID is not usable. Please pick a different name")

		case markers.Is(err, workspacestore.WorkspaceNotFoundMark):
			return nil, api.CommitError(err,
				workspaceerrors.WorkspaceNotFoundCode,
				"No workspace exists for this song")

		default:
			return nil, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Failed to list the artifacts. Please contact the developer")
		}
	}

	return artifacts, nil
}

// StageDeletion records the selection and hands back a token. Nothing
// is removed until the token is confirmed.
func (u Usecase) StageDeletion(ctx context.Context, songIDs []string) (guard.Staged, *api.Error) {
	for _, songID := range songIDs {
		if err := workspacestore.ValidateSongID(songID); err != nil {
			err = errors.Wrap(err, "Refusing to stage an invalid song ID for deletion")
			return guard.Staged{}, api.CommitError(err,
				workspaceerrors.InvalidSongIDCode,
				"The song ID is not usable. Please pick a different name")
		}
	}

	return u.deletionGuard.Stage(songIDs), nil
}

// ConfirmDeletion consumes the token and removes the staged workspaces.
func (u Usecase) ConfirmDeletion(ctx context.Context, token string) ([]string, *api.Error) {
	songIDs, err := u.deletionGuard.Confirm(token)
	if err != nil {
		err = errors.Wrap(err, "Failed to confirm the staged deletion")
		return nil, u.commitTokenError(err)
	}

	if err := u.workspaceStore.Delete(songIDs); err != nil {
		err = errors.Wrap(err, "Failed to delete the staged workspaces")
		return nil, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to delete the workspaces. Please contact the developer")
	}

	return songIDs, nil
}

func (u Usecase) CancelDeletion(ctx context.Context, token string) *api.Error {
	if err := u.deletionGuard.Cancel(token); err != nil {
		err = errors.Wrap(err, "Failed to cancel the staged deletion")
		return u.commitTokenError(err)
	}

	return nil
}

func (u Usecase) commitTokenError(err error) *api.Error {
	switch {
	case markers.Is(err, guard.UnknownTokenMark):
		return api.CommitError(err,
			workspaceerrors.UnknownDeleteTokenCode,
			"No staged deletion exists for this token. It may have been confirmed or cancelled already")

	default:
		return api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to act on the staged deletion. Please contact the developer")
	}
}
