package download

import (
	"fmt"

	"github.com/apex/log"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/executor"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

var _ Downloader = YoutubeDLer{}

func NewYoutubeDLer(youtubedlBinPath string, commandExecutor executor.Executor) YoutubeDLer {
	return YoutubeDLer{
		youtubedlBinPath: youtubedlBinPath,
		commandExecutor:  commandExecutor,
	}
}

type YoutubeDLer struct {
	youtubedlBinPath string
	commandExecutor  executor.Executor
}

func (y YoutubeDLer) Download(source string, outFilePath string) error {
	err := y.download(source, outFilePath)
	// error may be fixable by clearing the cache dir
	// so try again in case that's the issue
	if err != nil {
		y.clearCache()
		return y.download(source, outFilePath)
	}

	return nil
}

func (y YoutubeDLer) download(source string, outFilePath string) error {
	log.Info("Running yt-dlp")

	cmd := y.commandExecutor.Command(y.youtubedlBinPath, "-o", outFilePath, "-x", "--audio-format", "mp3", "--audio-quality", "0", source)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return cerr.Field("error_msg", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Failed to run yt-dlp: %s", string(output)))
	}

	return nil
}

func (y YoutubeDLer) clearCache() {
	log.Info("Clearing yt-dlp cache")
	cmd := y.commandExecutor.Command(y.youtubedlBinPath, "--rm-cache-dir")
	output, err := cmd.CombinedOutput()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to clear cache: %s", string(output))
		log.Error(errorMsg)
	}
}
