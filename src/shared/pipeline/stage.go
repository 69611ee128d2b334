package pipeline

// Stage identifies one step of the cover pipeline. The values double as
// artifact directory prefixes and must never contain a dot.
type Stage string

const (
	StageRetrieve           Stage = "retrieve"
	StageSeparateVocals     Stage = "separate_vocals"
	StageSeparateMainBackup Stage = "separate_main_backup"
	StageDereverb           Stage = "dereverb"
	StageConvertVocals      Stage = "convert_vocals"
	StagePostprocess        Stage = "postprocess"
	StagePitchShift         Stage = "pitch_shift"
	StageMix                Stage = "mix"
)

// Output file names inside a committed artifact directory. Runners must
// produce exactly these names, downstream stages read them by name.
const (
	OriginalFileName            = "original.mp3"
	VocalsFileName              = "vocals.mp3"
	InstrumentalFileName        = "instrumental.mp3"
	MainVocalsFileName          = "main.mp3"
	BackupVocalsFileName        = "backup.mp3"
	DryMainVocalsFileName       = "main_dry.mp3"
	ConvertedVocalsFileName     = "converted.mp3"
	FinalVocalsFileName         = "vocals_final.mp3"
	ShiftedInstrumentalFileName = "instrumental_shifted.mp3"
	CoverFileNamePrefix         = "cover"
)

// stageUpstreams declares the pipeline graph. The vocals chain runs
// retrieve through postprocess, the instrumental branch forks after
// vocal separation, and mix joins the two.
var stageUpstreams = map[Stage][]Stage{
	StageRetrieve:           {},
	StageSeparateVocals:     {StageRetrieve},
	StageSeparateMainBackup: {StageSeparateVocals},
	StageDereverb:           {StageSeparateMainBackup},
	StageConvertVocals:      {StageDereverb},
	StagePostprocess:        {StageConvertVocals},
	StagePitchShift:         {StageSeparateVocals},
	StageMix:                {StagePostprocess, StagePitchShift},
}

// stageOutputs lists the files a committed artifact of each stage must
// contain. The cache uses it to detect corrupted entries. Mix is absent
// because its file name depends on the requested output format.
var stageOutputs = map[Stage][]string{
	StageRetrieve:           {OriginalFileName},
	StageSeparateVocals:     {VocalsFileName, InstrumentalFileName},
	StageSeparateMainBackup: {MainVocalsFileName, BackupVocalsFileName},
	StageDereverb:           {DryMainVocalsFileName},
	StageConvertVocals:      {ConvertedVocalsFileName},
	StagePostprocess:        {FinalVocalsFileName},
	StagePitchShift:         {ShiftedInstrumentalFileName},
}

// runOrder is a topological order of the graph, used to compute
// fingerprints bottom up.
var runOrder = []Stage{
	StageRetrieve,
	StageSeparateVocals,
	StageSeparateMainBackup,
	StageDereverb,
	StageConvertVocals,
	StagePostprocess,
	StagePitchShift,
	StageMix,
}

func AllStages() []Stage {
	stages := make([]Stage, len(runOrder))
	copy(stages, runOrder)
	return stages
}

func KnownStage(stage Stage) bool {
	_, ok := stageUpstreams[stage]
	return ok
}

func Upstreams(stage Stage) []Stage {
	upstreams := make([]Stage, len(stageUpstreams[stage]))
	copy(upstreams, stageUpstreams[stage])
	return upstreams
}

// CoverFileName is the mix output name for a given format, e.g.
// cover.mp3 or cover.wav.
func CoverFileName(outputFormat string) string {
	return CoverFileNamePrefix + "." + outputFormat
}
