package workspacestore

import "github.com/cockroachdb/errors"

var (
	InvalidIdentifierMark = errors.New("invalid_identifier")
	WorkspaceNotFoundMark = errors.New("workspace_not_found")
	DefaultErrorMark      = errors.New("default_error")
)
