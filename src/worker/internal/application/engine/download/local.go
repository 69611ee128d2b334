package download

import (
	"io"
	"os"

	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

var _ Downloader = LocalFileDLer{}

func NewLocalFileDLer() LocalFileDLer {
	return LocalFileDLer{}
}

// LocalFileDLer handles sources that are already files on disk, for
// songs the user uploaded instead of linking.
type LocalFileDLer struct{}

func (l LocalFileDLer) Download(source string, outFilePath string) error {
	sourceFile, err := os.Open(source)
	if err != nil {
		return cerr.Field("source_path", source).
			Wrap(err).Error("Failed to open the local source file")
	}

	defer sourceFile.Close()

	outFile, err := os.Create(outFilePath)
	if err != nil {
		return cerr.Field("out_file_path", outFilePath).
			Wrap(err).Error("Failed to create the output file")
	}

	defer outFile.Close()

	if _, err := io.Copy(outFile, sourceFile); err != nil {
		return cerr.Wrap(err).Error("Failed to copy the local source file")
	}

	return nil
}
