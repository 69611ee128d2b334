package soxfx

import (
	"context"
	"fmt"
	"strconv"

	"github.com/apex/log"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/jsonlib"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/executor"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

// Sox shells out to the sox binary for the effect stages.
type Sox struct {
	binPath  string
	executor executor.Executor
}

func NewSox(binPath string, commandExecutor executor.Executor) Sox {
	return Sox{
		binPath:  binPath,
		executor: commandExecutor,
	}
}

func (s Sox) run(inputFilePath string, outFilePath string, effects []string) error {
	args := []string{inputFilePath, outFilePath}
	args = append(args, effects...)

	log.WithFields(log.Fields{
		"input_file": inputFilePath,
		"effects":    effects,
	}).Info("Running sox command")

	cmd := s.executor.Command(s.binPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return cerr.Field("sox_args", args).
			Field("sox_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while running sox: %s", string(output)))
	}

	return nil
}

var _ pipeline.StageRunner = PostprocessRunner{}

// PostprocessRunner polishes the converted vocals with a touch of room
// reverb before they rejoin the instrumental.
type PostprocessRunner struct {
	sox Sox
}

func NewPostprocessRunner(sox Sox) PostprocessRunner {
	return PostprocessRunner{sox: sox}
}

func (r PostprocessRunner) Run(ctx context.Context, execution pipeline.Execution) error {
	if err := ctx.Err(); err != nil {
		return cerr.Wrap(err).Error("Context cancelled before postprocessing could happen")
	}

	options, err := jsonlib.MapToStruct[pipeline.PostprocessOptions](execution.Options)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to decode the postprocess options")
	}

	inputFilePath := execution.UpstreamFile(pipeline.StageConvertVocals, pipeline.ConvertedVocalsFileName)
	outFilePath := execution.OutputFile(pipeline.FinalVocalsFileName)

	// sox's reverb knobs run 0-100, the dry level approximates the
	// wet/dry blend as an output volume
	effects := []string{
		"reverb",
		formatFloat(options.ReverbWet * 100),
		formatFloat(options.ReverbDamping * 100),
		formatFloat(options.RoomSize * 100),
		"vol",
		formatFloat(options.ReverbDry + options.ReverbWet),
	}

	if err := r.sox.run(inputFilePath, outFilePath, effects); err != nil {
		return cerr.Wrap(err).Error("Failed to postprocess the vocals")
	}

	return nil
}

var _ pipeline.StageRunner = PitchShiftRunner{}

// PitchShiftRunner transposes the instrumental to match the converted
// vocals' key.
type PitchShiftRunner struct {
	sox Sox
}

func NewPitchShiftRunner(sox Sox) PitchShiftRunner {
	return PitchShiftRunner{sox: sox}
}

func (r PitchShiftRunner) Run(ctx context.Context, execution pipeline.Execution) error {
	if err := ctx.Err(); err != nil {
		return cerr.Wrap(err).Error("Context cancelled before pitch shifting could happen")
	}

	options, err := jsonlib.MapToStruct[pipeline.PitchShiftOptions](execution.Options)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to decode the pitch shift options")
	}

	inputFilePath := execution.UpstreamFile(pipeline.StageSeparateVocals, pipeline.InstrumentalFileName)
	outFilePath := execution.OutputFile(pipeline.ShiftedInstrumentalFileName)

	if options.NSemitones == 0 {
		// sox still recompresses on a zero shift, a plain copy is lossless
		if err := r.sox.run(inputFilePath, outFilePath, nil); err != nil {
			return cerr.Wrap(err).Error("Failed to copy the instrumental")
		}

		return nil
	}

	// sox pitch takes cents
	effects := []string{"pitch", strconv.Itoa(options.NSemitones * 100)}

	if err := r.sox.run(inputFilePath, outFilePath, effects); err != nil {
		return cerr.Wrap(err).Error("Failed to pitch shift the instrumental")
	}

	return nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
