package dummy

import (
	"context"
	"fmt"
	"sync"

	"github.com/veedubyou/cover-gen-be/src/shared/cloud_storage/entity"
)

var _ entity.FileStore = &FileStore{}

func NewDummyFileStore() *FileStore {
	return &FileStore{
		Unavailable: false,
		State:       make(map[string][]byte),
	}
}

type FileStore struct {
	Unavailable bool
	State       map[string][]byte
	mutex       sync.RWMutex
}

func objectKey(bucketName string, objectPath string) string {
	return bucketName + "/" + objectPath
}

func (f *FileStore) GetFile(ctx context.Context, bucketName string, objectPath string) ([]byte, error) {
	if f.Unavailable {
		return nil, NetworkFailure
	}

	f.mutex.RLock()
	defer f.mutex.RUnlock()

	contents, ok := f.State[objectKey(bucketName, objectPath)]
	if !ok {
		return nil, NotFound
	}

	return contents, nil
}

func (f *FileStore) WriteFile(ctx context.Context, bucketName string, objectPath string, fileContents []byte) (string, error) {
	if f.Unavailable {
		return "", NetworkFailure
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.State[objectKey(bucketName, objectPath)] = fileContents
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucketName, objectPath), nil
}
