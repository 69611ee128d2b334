package pipeline

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/jsonlib"
)

// Per stage option structs. Every field here changes the stage's output,
// so every field participates in the stage fingerprint. Knobs that don't
// affect output, like worker concurrency, must not appear here.

type RetrieveOptions struct {
	// Source is a URL or a local file path to the song to cover.
	Source string `json:"source"`
}

type SeparateVocalsOptions struct {
	SeparationModel string `json:"separation_model"`
}

type SeparateMainBackupOptions struct {
	SeparationModel string `json:"separation_model"`
}

type DereverbOptions struct {
	DereverbModel string  `json:"dereverb_model"`
	DryWet        float64 `json:"dry_wet"`
}

type ConvertVocalsOptions struct {
	VoiceModel   string  `json:"voice_model"`
	NSemitones   int     `json:"n_semitones"`
	IndexRate    float64 `json:"index_rate"`
	FilterRadius int     `json:"filter_radius"`
	RMSMixRate   float64 `json:"rms_mix_rate"`
	ProtectRate  float64 `json:"protect_rate"`
	F0Method     string  `json:"f0_method"`
}

type PostprocessOptions struct {
	RoomSize      float64 `json:"room_size"`
	ReverbWet     float64 `json:"reverb_wet"`
	ReverbDry     float64 `json:"reverb_dry"`
	ReverbDamping float64 `json:"reverb_damping"`
}

type PitchShiftOptions struct {
	NSemitones int `json:"n_semitones"`
}

type MixOptions struct {
	MainGain     int    `json:"main_gain"`
	InstGain     int    `json:"inst_gain"`
	OutputFormat string `json:"output_format"`
}

// Options is the full option set for one pipeline run. The JSON shape
// is also the workspace option snapshot format.
type Options struct {
	Retrieve           RetrieveOptions           `json:"retrieve"`
	SeparateVocals     SeparateVocalsOptions     `json:"separate_vocals"`
	SeparateMainBackup SeparateMainBackupOptions `json:"separate_main_backup"`
	Dereverb           DereverbOptions           `json:"dereverb"`
	ConvertVocals      ConvertVocalsOptions      `json:"convert_vocals"`
	Postprocess        PostprocessOptions        `json:"postprocess"`
	PitchShift         PitchShiftOptions         `json:"pitch_shift"`
	Mix                MixOptions                `json:"mix"`
}

func DefaultOptions() Options {
	return Options{
		SeparateVocals: SeparateVocalsOptions{
			SeparationModel: "UVR-MDX-NET-Voc_FT.onnx",
		},
		SeparateMainBackup: SeparateMainBackupOptions{
			SeparationModel: "UVR_MDXNET_KARA_2.onnx",
		},
		Dereverb: DereverbOptions{
			DereverbModel: "Reverb_HQ_By_FoxJoy.onnx",
			DryWet:        0.8,
		},
		ConvertVocals: ConvertVocalsOptions{
			IndexRate:    0.5,
			FilterRadius: 3,
			RMSMixRate:   0.25,
			ProtectRate:  0.33,
			F0Method:     "rmvpe",
		},
		Postprocess: PostprocessOptions{
			RoomSize:      0.15,
			ReverbWet:     0.2,
			ReverbDry:     0.8,
			ReverbDamping: 0.7,
		},
		Mix: MixOptions{
			OutputFormat: "mp3",
		},
	}
}

var supportedOutputFormats = map[string]bool{
	"mp3":  true,
	"wav":  true,
	"flac": true,
	"ogg":  true,
}

// Validate checks the full option set before a one-click run.
func (o Options) Validate() error {
	for _, stage := range runOrder {
		if err := o.ValidateStage(stage); err != nil {
			return err
		}
	}

	return nil
}

// ValidateStage checks only the options one stage consumes, so a
// step-by-step retrieve doesn't demand a voice model up front.
func (o Options) ValidateStage(stage Stage) error {
	switch stage {
	case StageRetrieve:
		if strings.TrimSpace(o.Retrieve.Source) == "" {
			return mark.Message(InvalidOptionsMark, "A song source must be provided")
		}

	case StageDereverb:
		if o.Dereverb.DryWet < 0 || o.Dereverb.DryWet > 1 {
			return mark.Message(InvalidOptionsMark, "The dry/wet ratio must be between 0 and 1")
		}

	case StageConvertVocals:
		if strings.TrimSpace(o.ConvertVocals.VoiceModel) == "" {
			return mark.Message(InvalidOptionsMark, "A voice model must be selected")
		}

		if o.ConvertVocals.NSemitones < -24 || o.ConvertVocals.NSemitones > 24 {
			return mark.Message(InvalidOptionsMark, "The vocal pitch shift must be between -24 and 24 semitones")
		}

	case StagePitchShift:
		if o.PitchShift.NSemitones < -24 || o.PitchShift.NSemitones > 24 {
			return mark.Message(InvalidOptionsMark, "The instrumental pitch shift must be between -24 and 24 semitones")
		}

	case StageMix:
		if !supportedOutputFormats[o.Mix.OutputFormat] {
			return mark.Message(InvalidOptionsMark, "The output format is not supported")
		}
	}

	return nil
}

// ForStage flattens one stage's option struct into the map shape used
// for fingerprinting and for the runner execution payload.
func (o Options) ForStage(stage Stage) (map[string]any, error) {
	var section any
	switch stage {
	case StageRetrieve:
		section = o.Retrieve
	case StageSeparateVocals:
		section = o.SeparateVocals
	case StageSeparateMainBackup:
		section = o.SeparateMainBackup
	case StageDereverb:
		section = o.Dereverb
	case StageConvertVocals:
		section = o.ConvertVocals
	case StagePostprocess:
		section = o.Postprocess
	case StagePitchShift:
		section = o.PitchShift
	case StageMix:
		section = o.Mix
	default:
		return nil, mark.Message(UnknownStageMark, "No such pipeline stage")
	}

	sectionMap, err := jsonlib.StructToMap(section)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to flatten the stage options")
	}

	return sectionMap, nil
}

// ReplaceStage returns a copy with one stage's options swapped in from
// another option set. Step-by-step runs use it to overlay the requested
// stage's options onto the workspace snapshot.
func (o Options) ReplaceStage(stage Stage, from Options) Options {
	switch stage {
	case StageRetrieve:
		o.Retrieve = from.Retrieve
	case StageSeparateVocals:
		o.SeparateVocals = from.SeparateVocals
	case StageSeparateMainBackup:
		o.SeparateMainBackup = from.SeparateMainBackup
	case StageDereverb:
		o.Dereverb = from.Dereverb
	case StageConvertVocals:
		o.ConvertVocals = from.ConvertVocals
	case StagePostprocess:
		o.Postprocess = from.Postprocess
	case StagePitchShift:
		o.PitchShift = from.PitchShift
	case StageMix:
		o.Mix = from.Mix
	}

	return o
}

func (o Options) ToSnapshot() (map[string]any, error) {
	return jsonlib.StructToMap(o)
}

func OptionsFromSnapshot(snapshot map[string]any) (Options, error) {
	return jsonlib.MapToStruct[Options](snapshot)
}
