package retrieve

import (
	"context"

	"github.com/veedubyou/cover-gen-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/jsonlib"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/engine/download"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

var _ pipeline.StageRunner = Runner{}

// Runner fetches the source song into the workspace as mp3.
type Runner struct {
	downloader download.Downloader
}

func NewRunner(downloader download.Downloader) Runner {
	return Runner{downloader: downloader}
}

func (r Runner) Run(ctx context.Context, execution pipeline.Execution) error {
	if err := ctx.Err(); err != nil {
		return cerr.Wrap(err).Error("Context cancelled before the download could happen")
	}

	options, err := jsonlib.MapToStruct[pipeline.RetrieveOptions](execution.Options)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to decode the retrieve options")
	}

	outFilePath := execution.OutputFile(pipeline.OriginalFileName)
	if err := r.downloader.Download(options.Source, outFilePath); err != nil {
		err = mark.Wrap(err, pipeline.RetrievalFailedMark, "The song source could not be retrieved")
		return cerr.Field("source", options.Source).
			Wrap(err).Error("Failed to download the song")
	}

	return nil
}
