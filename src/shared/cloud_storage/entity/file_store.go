package entity

import (
	"context"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . FileStore
type FileStore interface {
	GetFile(ctx context.Context, bucketName string, objectPath string) ([]byte, error)
	// WriteFile stores the contents and returns the public URL.
	WriteFile(ctx context.Context, bucketName string, objectPath string, fileContents []byte) (string, error)
}
