package dummy

import (
	"context"
	"os"

	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

var stageOutputs = map[pipeline.Stage][]string{
	pipeline.StageRetrieve:           {pipeline.OriginalFileName},
	pipeline.StageSeparateVocals:     {pipeline.VocalsFileName, pipeline.InstrumentalFileName},
	pipeline.StageSeparateMainBackup: {pipeline.MainVocalsFileName, pipeline.BackupVocalsFileName},
	pipeline.StageDereverb:           {pipeline.DryMainVocalsFileName},
	pipeline.StageConvertVocals:      {pipeline.ConvertedVocalsFileName},
	pipeline.StagePostprocess:        {pipeline.FinalVocalsFileName},
	pipeline.StagePitchShift:         {pipeline.ShiftedInstrumentalFileName},
}

var _ pipeline.StageRunner = StageRunner{}

// StageRunner writes the stage's expected output files without invoking
// any audio tooling.
type StageRunner struct{}

func (s StageRunner) Run(ctx context.Context, execution pipeline.Execution) error {
	outputs := stageOutputs[execution.Stage]
	if execution.Stage == pipeline.StageMix {
		format, ok := execution.Options["output_format"].(string)
		if !ok {
			return cerr.Field("stage", execution.Stage).Error("No output format in the mix options")
		}

		outputs = []string{pipeline.CoverFileName(format)}
	}

	for _, fileName := range outputs {
		if err := os.WriteFile(execution.OutputFile(fileName), []byte("dummy audio"), 0o644); err != nil {
			return cerr.Field("file_name", fileName).Wrap(err).Error("Failed to write the dummy output")
		}
	}

	return nil
}

// NewRunnerMap binds every stage to the file writing dummy runner.
func NewRunnerMap() pipeline.RunnerMap {
	runnerMap := pipeline.RunnerMap{}
	for _, stage := range pipeline.AllStages() {
		runnerMap[stage] = StageRunner{}
	}

	return runnerMap
}
