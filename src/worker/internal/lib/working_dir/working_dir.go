package working_dir

import (
	"os"
	"path/filepath"

	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

type WorkingDir struct {
	root string
}

func NewWorkingDir(dirStr string) (WorkingDir, error) {
	absDir, err := filepath.Abs(dirStr)
	if err != nil {
		return WorkingDir{}, cerr.Wrap(err).Error("Failed to convert working dir to absolute format")
	}

	if err := os.MkdirAll(absDir, os.ModePerm); err != nil {
		return WorkingDir{}, cerr.Wrap(err).Error("Failed to create the working dir")
	}

	return WorkingDir{root: absDir}, nil
}

func (w WorkingDir) Root() string {
	return w.root
}

// TempDir makes a scratch directory under the working dir. Callers own
// the cleanup.
func (w WorkingDir) TempDir(pattern string) (string, error) {
	tempDir, err := os.MkdirTemp(w.root, pattern)
	if err != nil {
		return "", cerr.Wrap(err).Error("Failed to create a temp dir in the working dir")
	}

	return tempDir, nil
}
