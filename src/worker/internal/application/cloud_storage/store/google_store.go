package store

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/veedubyou/cover-gen-be/src/shared/cloud_storage/entity"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
	"google.golang.org/api/option"
)

var _ entity.FileStore = GoogleFileStore{}

func NewGoogleFileStore(jsonKey string, storageHost string) (GoogleFileStore, error) {
	storageClient, err := storage.NewClient(context.Background(), option.WithCredentialsJSON([]byte(jsonKey)))
	if err != nil {
		return GoogleFileStore{}, cerr.Wrap(err).Error("Failed to create Google Cloud Storage client")
	}

	return GoogleFileStore{
		storageHost:   storageHost,
		storageClient: storageClient,
	}, nil
}

type GoogleFileStore struct {
	storageHost   string
	storageClient *storage.Client
}

func (g GoogleFileStore) GetFile(ctx context.Context, bucketName string, objectPath string) ([]byte, error) {
	reader, err := g.storageClient.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, cerr.Field("object_path", objectPath).
			Wrap(err).Error("Failed to open the storage object for reading")
	}

	defer reader.Close()

	contents, err := io.ReadAll(reader)
	if err != nil {
		return nil, cerr.Field("object_path", objectPath).
			Wrap(err).Error("Failed to read the storage object")
	}

	return contents, nil
}

func (g GoogleFileStore) WriteFile(ctx context.Context, bucketName string, objectPath string, fileContents []byte) (string, error) {
	writer := g.storageClient.Bucket(bucketName).Object(objectPath).NewWriter(ctx)

	if _, err := writer.Write(fileContents); err != nil {
		_ = writer.Close()
		return "", cerr.Field("object_path", objectPath).
			Wrap(err).Error("Failed to write the storage object")
	}

	if err := writer.Close(); err != nil {
		return "", cerr.Field("object_path", objectPath).
			Wrap(err).Error("Failed to finish writing the storage object")
	}

	return fmt.Sprintf("%s/%s/%s", g.storageHost, bucketName, objectPath), nil
}
