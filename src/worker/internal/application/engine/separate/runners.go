package separate

import (
	"context"
	"fmt"

	"github.com/veedubyou/cover-gen-be/src/shared/lib/jsonlib"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/executor"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

// Stem labels as audio-separator emits them. The vocal models label
// their outputs Vocals/Instrumental, where for the karaoke models
// Vocals means the lead and Instrumental means the backup singers. The
// reverb models use No Reverb/Reverb.
const (
	vocalsLabel       = "Vocals"
	instrumentalLabel = "Instrumental"
	noReverbLabel     = "No Reverb"
	reverbLabel       = "Reverb"
)

var _ pipeline.StageRunner = VocalsRunner{}

// VocalsRunner splits the retrieved song into vocals and instrumental.
type VocalsRunner struct {
	separator Separator
}

func NewVocalsRunner(separator Separator) VocalsRunner {
	return VocalsRunner{separator: separator}
}

func (r VocalsRunner) Run(ctx context.Context, execution pipeline.Execution) error {
	options, err := jsonlib.MapToStruct[pipeline.SeparateVocalsOptions](execution.Options)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to decode the separation options")
	}

	inputFilePath := execution.UpstreamFile(pipeline.StageRetrieve, pipeline.OriginalFileName)

	stems, cleanup, err := r.separator.Separate(ctx, inputFilePath, options.SeparationModel)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to separate the vocals")
	}
	defer cleanup()

	if err := exportStem(stems, vocalsLabel, execution.OutputFile(pipeline.VocalsFileName)); err != nil {
		return err
	}

	return exportStem(stems, instrumentalLabel, execution.OutputFile(pipeline.InstrumentalFileName))
}

var _ pipeline.StageRunner = MainBackupRunner{}

// MainBackupRunner splits the vocal stem into the lead singer and the
// backup singers with a karaoke model.
type MainBackupRunner struct {
	separator Separator
}

func NewMainBackupRunner(separator Separator) MainBackupRunner {
	return MainBackupRunner{separator: separator}
}

func (r MainBackupRunner) Run(ctx context.Context, execution pipeline.Execution) error {
	options, err := jsonlib.MapToStruct[pipeline.SeparateMainBackupOptions](execution.Options)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to decode the separation options")
	}

	inputFilePath := execution.UpstreamFile(pipeline.StageSeparateVocals, pipeline.VocalsFileName)

	stems, cleanup, err := r.separator.Separate(ctx, inputFilePath, options.SeparationModel)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to separate the main vocals from the backup")
	}
	defer cleanup()

	if err := exportStem(stems, vocalsLabel, execution.OutputFile(pipeline.MainVocalsFileName)); err != nil {
		return err
	}

	return exportStem(stems, instrumentalLabel, execution.OutputFile(pipeline.BackupVocalsFileName))
}

var _ pipeline.StageRunner = DereverbRunner{}

// DereverbRunner strips room reverb off the main vocals. The dry/wet
// ratio blends the model's dry stem back with the removed reverb, at
// 1.0 the output is the dry stem untouched.
type DereverbRunner struct {
	separator     Separator
	ffmpegBinPath string
	executor      executor.Executor
}

func NewDereverbRunner(separator Separator, ffmpegBinPath string, commandExecutor executor.Executor) DereverbRunner {
	return DereverbRunner{
		separator:     separator,
		ffmpegBinPath: ffmpegBinPath,
		executor:      commandExecutor,
	}
}

func (r DereverbRunner) Run(ctx context.Context, execution pipeline.Execution) error {
	options, err := jsonlib.MapToStruct[pipeline.DereverbOptions](execution.Options)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to decode the dereverb options")
	}

	inputFilePath := execution.UpstreamFile(pipeline.StageSeparateMainBackup, pipeline.MainVocalsFileName)

	stems, cleanup, err := r.separator.Separate(ctx, inputFilePath, options.DereverbModel)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to dereverb the main vocals")
	}
	defer cleanup()

	outFilePath := execution.OutputFile(pipeline.DryMainVocalsFileName)

	if options.DryWet >= 1 {
		return exportStem(stems, noReverbLabel, outFilePath)
	}

	dryFilePath, err := stems.Find(noReverbLabel)
	if err != nil {
		return err
	}

	wetFilePath, err := stems.Find(reverbLabel)
	if err != nil {
		return err
	}

	return r.blend(dryFilePath, wetFilePath, options.DryWet, outFilePath)
}

func (r DereverbRunner) blend(dryFilePath string, wetFilePath string, dryWet float64, outFilePath string) error {
	filter := fmt.Sprintf(
		"[0:a]volume=%g[dry];[1:a]volume=%g[wet];[dry][wet]amix=inputs=2:duration=longest:normalize=0",
		dryWet,
		1-dryWet,
	)

	args := []string{
		"-y",
		"-i", dryFilePath,
		"-i", wetFilePath,
		"-filter_complex", filter,
		"-b:a", "320k",
		outFilePath,
	}

	cmd := r.executor.Command(r.ffmpegBinPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return cerr.Field("ffmpeg_args", args).
			Field("ffmpeg_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while blending the dereverb stems: %s", string(output)))
	}

	return nil
}

func exportStem(stems Stems, label string, outFilePath string) error {
	stemFilePath, err := stems.Find(label)
	if err != nil {
		return err
	}

	if err := copyFile(stemFilePath, outFilePath); err != nil {
		return cerr.Field("stem_label", label).
			Wrap(err).Error("Failed to export the stem")
	}

	return nil
}
