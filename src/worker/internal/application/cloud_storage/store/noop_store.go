package store

import (
	"context"

	"github.com/veedubyou/cover-gen-be/src/shared/cloud_storage/entity"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

var _ entity.FileStore = NoopFileStore{}

// NoopFileStore stands in when no cloud storage is configured, e.g.
// local development. Covers stay in the workspace and no URL is
// published.
type NoopFileStore struct{}

func (n NoopFileStore) GetFile(ctx context.Context, bucketName string, objectPath string) ([]byte, error) {
	return nil, cerr.Error("No cloud storage is configured")
}

func (n NoopFileStore) WriteFile(ctx context.Context, bucketName string, objectPath string, fileContents []byte) (string, error) {
	return "", nil
}
