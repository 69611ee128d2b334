package convert

import (
	"context"
	"fmt"
	"strconv"

	"github.com/apex/log"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/jsonlib"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	voicemodelstore "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/store"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/executor"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/lib/working_dir"
)

var _ pipeline.StageRunner = Runner{}

// Runner converts the dry main vocals to the selected voice with the
// RVC inference CLI.
type Runner struct {
	rvcBinPath string
	workingDir working_dir.WorkingDir
	executor   executor.Executor
	modelStore *voicemodelstore.Store
}

func NewRunner(
	rvcBinPath string,
	workingDir working_dir.WorkingDir,
	commandExecutor executor.Executor,
	modelStore *voicemodelstore.Store,
) Runner {
	return Runner{
		rvcBinPath: rvcBinPath,
		workingDir: workingDir,
		executor:   commandExecutor,
		modelStore: modelStore,
	}
}

func (r Runner) Run(ctx context.Context, execution pipeline.Execution) error {
	options, err := jsonlib.MapToStruct[pipeline.ConvertVocalsOptions](execution.Options)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to decode the conversion options")
	}

	model, err := r.modelStore.Get(options.VoiceModel)
	if err != nil {
		return cerr.Field("voice_model", options.VoiceModel).
			Wrap(err).Error("Failed to resolve the voice model")
	}

	// conversion is a lengthy process, if we want to halt now is the time
	if err := ctx.Err(); err != nil {
		return cerr.Wrap(err).Error("Context cancelled before the conversion could happen")
	}

	inputFilePath := execution.UpstreamFile(pipeline.StageDereverb, pipeline.DryMainVocalsFileName)
	outFilePath := execution.OutputFile(pipeline.ConvertedVocalsFileName)

	logger := log.WithFields(log.Fields{
		"input_file":  inputFilePath,
		"voice_model": model.Name,
	})

	logger.Info("Running rvc command")

	args := []string{
		"infer",
		"--model-dir", model.Path,
		"--input", inputFilePath,
		"--output", outFilePath,
		"--f0-method", options.F0Method,
		"--pitch-shift", strconv.Itoa(options.NSemitones),
		"--index-rate", formatFloat(options.IndexRate),
		"--filter-radius", strconv.Itoa(options.FilterRadius),
		"--rms-mix-rate", formatFloat(options.RMSMixRate),
		"--protect", formatFloat(options.ProtectRate),
	}

	cmd := r.executor.Command(r.rvcBinPath, args...)
	cmd.SetDir(r.workingDir.Root())

	output, err := cmd.CombinedOutput()
	if err != nil {
		return cerr.Field("rvc_args", args).
			Field("rvc_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while running rvc: %s", string(output)))
	}

	logger.Debug(string(output))
	logger.Info("Finished rvc command")

	return nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
