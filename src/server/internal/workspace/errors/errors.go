package workspaceerrors

import (
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/api"
)

const (
	InvalidSongIDCode      = api.ErrorCode("invalid_song_id")
	WorkspaceNotFoundCode  = api.ErrorCode("workspace_not_found")
	UnknownDeleteTokenCode = api.ErrorCode("unknown_delete_token")
)
