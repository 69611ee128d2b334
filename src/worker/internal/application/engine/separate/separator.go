package separate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/executor"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/lib/working_dir"
)

// Separator shells out to the audio-separator CLI. Each call runs one
// ONNX model against one input file and leaves the stems in a scratch
// directory for the caller to pick through.
type Separator struct {
	binPath    string
	workingDir working_dir.WorkingDir
	executor   executor.Executor
}

func NewSeparator(binPath string, workingDir working_dir.WorkingDir, commandExecutor executor.Executor) Separator {
	return Separator{
		binPath:    binPath,
		workingDir: workingDir,
		executor:   commandExecutor,
	}
}

// Stems is the output directory of one separation run. audio-separator
// names its outputs <input>_(<stem label>)_<model>.<ext>, so stems are
// found by label rather than by exact name.
type Stems struct {
	dir string
}

func (s Stems) Find(label string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*("+label+")*"))
	if err != nil {
		return "", cerr.Field("stem_label", label).
			Wrap(err).Error("Failed to glob for the stem file")
	}

	if len(matches) == 0 {
		return "", cerr.Field("stem_label", label).
			Field("output_dir", s.dir).
			Error("The separation output has no stem with this label")
	}

	return matches[0], nil
}

// Separate runs the model and returns the stems with a cleanup func
// that removes the scratch directory.
func (s Separator) Separate(ctx context.Context, inputFilePath string, modelFileName string) (Stems, func(), error) {
	if err := ctx.Err(); err != nil {
		return Stems{}, nil, cerr.Wrap(err).Error("Context cancelled before separation could happen")
	}

	outputDir, err := s.workingDir.TempDir("separate-*")
	if err != nil {
		return Stems{}, nil, cerr.Wrap(err).Error("Failed to create the separation output dir")
	}

	cleanup := func() { _ = os.RemoveAll(outputDir) }

	logger := log.WithFields(log.Fields{
		"input_file": inputFilePath,
		"model":      modelFileName,
		"output_dir": outputDir,
	})

	logger.Info("Running audio-separator command")

	args := []string{
		inputFilePath,
		"--model_filename", modelFileName,
		"--output_dir", outputDir,
		"--output_format", "mp3",
	}

	cmd := s.executor.Command(s.binPath, args...)
	cmd.SetDir(s.workingDir.Root())

	output, err := cmd.CombinedOutput()
	if err != nil {
		cleanup()
		return Stems{}, nil, cerr.Field("separator_args", args).
			Field("separator_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while running audio-separator: %s", string(output)))
	}

	logger.Debug(string(output))
	logger.Info("Finished audio-separator command")

	return Stems{dir: outputDir}, cleanup, nil
}

func copyFile(sourcePath string, destPath string) error {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return cerr.Field("source_path", sourcePath).
			Wrap(err).Error("Failed to open the stem file")
	}

	defer sourceFile.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return cerr.Field("dest_path", destPath).
			Wrap(err).Error("Failed to create the output file")
	}

	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return cerr.Wrap(err).Error("Failed to copy the stem file")
	}

	return nil
}
