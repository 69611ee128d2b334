package storagepath

import "fmt"

type Generator struct {
	Bucket string
}

func (g Generator) GeneratePath(songID string, jobID string, leafPath string) string {
	return fmt.Sprintf("covers/%s/%s/%s", songID, jobID, leafPath)
}

func (g Generator) BucketName() string {
	return g.Bucket
}
