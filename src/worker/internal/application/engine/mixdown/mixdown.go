package mixdown

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/jsonlib"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/executor"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

var _ pipeline.StageRunner = Runner{}

// Runner joins the polished vocals and the shifted instrumental into
// the final cover with ffmpeg.
type Runner struct {
	ffmpegBinPath string
	executor      executor.Executor
}

func NewRunner(ffmpegBinPath string, commandExecutor executor.Executor) Runner {
	return Runner{
		ffmpegBinPath: ffmpegBinPath,
		executor:      commandExecutor,
	}
}

func (r Runner) Run(ctx context.Context, execution pipeline.Execution) error {
	if err := ctx.Err(); err != nil {
		return cerr.Wrap(err).Error("Context cancelled before mixing could happen")
	}

	options, err := jsonlib.MapToStruct[pipeline.MixOptions](execution.Options)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to decode the mix options")
	}

	vocalsFilePath := execution.UpstreamFile(pipeline.StagePostprocess, pipeline.FinalVocalsFileName)
	instrumentalFilePath := execution.UpstreamFile(pipeline.StagePitchShift, pipeline.ShiftedInstrumentalFileName)
	outFilePath := execution.OutputFile(pipeline.CoverFileName(options.OutputFormat))

	filter := fmt.Sprintf(
		"[0:a]volume=%ddB[v];[1:a]volume=%ddB[i];[v][i]amix=inputs=2:duration=longest:normalize=0",
		options.MainGain,
		options.InstGain,
	)

	args := []string{
		"-y",
		"-i", vocalsFilePath,
		"-i", instrumentalFilePath,
		"-filter_complex", filter,
		"-b:a", "320k",
		outFilePath,
	}

	log.WithFields(log.Fields{
		"vocals_file":       vocalsFilePath,
		"instrumental_file": instrumentalFilePath,
		"output_format":     options.OutputFormat,
	}).Info("Running ffmpeg mix command")

	cmd := r.executor.Command(r.ffmpegBinPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return cerr.Field("ffmpeg_args", args).
			Field("ffmpeg_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while mixing the cover: %s", string(output)))
	}

	return nil
}
