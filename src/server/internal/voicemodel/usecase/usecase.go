package voicemodelusecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/api"
	"github.com/veedubyou/cover-gen-be/src/server/internal/voicemodel/errors"
	"github.com/veedubyou/cover-gen-be/src/shared/guard"
	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	voicemodelentity "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/entity"
	voicemodelstore "github.com/veedubyou/cover-gen-be/src/shared/voicemodel/store"
)

type Usecase struct {
	modelStore    *voicemodelstore.Store
	jobStore      jobentity.Store
	deletionGuard *guard.Guard
}

func NewUsecase(modelStore *voicemodelstore.Store, jobStore jobentity.Store, deletionGuard *guard.Guard) Usecase {
	return Usecase{
		modelStore:    modelStore,
		jobStore:      jobStore,
		deletionGuard: deletionGuard,
	}
}

func (u Usecase) ListModels(ctx context.Context) ([]voicemodelentity.VoiceModel, *api.Error) {
	models, err := u.modelStore.List()
	if err != nil {
		err = errors.Wrap(err, "Failed to list voice models")
		return nil, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to list the voice models. Please contact the developer")
	}

	return models, nil
}

func (u Usecase) InstallModel(ctx context.Context, name string, sourceDir string) (voicemodelentity.VoiceModel, *api.Error) {
	model, err := u.modelStore.Install(name, sourceDir)
	if err != nil {
		err = errors.Wrap(err, "Failed to install the voice model")
		switch {
		case markers.Is(err, voicemodelstore.DuplicateNameMark):
			return voicemodelentity.VoiceModel{}, api.CommitError(err,
				voicemodelerrors.DuplicateModelCode,
				"A voice model is already installed under this name")

		case markers.Is(err, voicemodelstore.InvalidSourceMark):
			return voicemodelentity.VoiceModel{}, api.CommitError(err,
				voicemodelerrors.InvalidModelSourceCode,
				"The voice model source is not usable")

		default:
			return voicemodelentity.VoiceModel{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Failed to install the voice model. Please contact the developer")
		}
	}

	return model, nil
}

// StageDeletion records the selection and hands back a token. The
// in-use check happens at confirm time, not here, because jobs can be
// queued between staging and confirming.
func (u Usecase) StageDeletion(ctx context.Context, names []string) (guard.Staged, *api.Error) {
	return u.deletionGuard.Stage(names), nil
}

// ConfirmDeletion consumes the token and removes the staged models.
// Models referenced by a requested or processing conversion job are
// refused individually so the rest of the selection still goes through.
func (u Usecase) ConfirmDeletion(ctx context.Context, token string) (voicemodelentity.DeleteOutcome, *api.Error) {
	names, err := u.deletionGuard.Confirm(token)
	if err != nil {
		err = errors.Wrap(err, "Failed to confirm the staged deletion")
		return voicemodelentity.DeleteOutcome{}, u.commitTokenError(err)
	}

	inUseNames, err := u.modelsInActiveJobs(ctx)
	if err != nil {
		err = errors.Wrap(err, "Failed to check active jobs for model references")
		return voicemodelentity.DeleteOutcome{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to check the models against running jobs. Please contact the developer")
	}

	outcome := voicemodelentity.DeleteOutcome{
		Deleted: []string{},
		Refused: map[string]error{},
	}

	deletableNames := []string{}
	for _, name := range names {
		if inUseNames[name] {
			outcome.Refused[name] = mark.Message(voicemodelstore.ModelInUseMark,
				"The model is referenced by an active job")
			continue
		}

		deletableNames = append(deletableNames, name)
	}

	storeOutcome := u.modelStore.Delete(deletableNames)
	outcome.Deleted = storeOutcome.Deleted
	for name, refusalErr := range storeOutcome.Refused {
		outcome.Refused[name] = refusalErr
	}

	return outcome, nil
}

func (u Usecase) CancelDeletion(ctx context.Context, token string) *api.Error {
	if err := u.deletionGuard.Cancel(token); err != nil {
		err = errors.Wrap(err, "Failed to cancel the staged deletion")
		return u.commitTokenError(err)
	}

	return nil
}

// modelsInActiveJobs collects the voice model names referenced by jobs
// that haven't finished. The job's option snapshot is the reference -
// a run_stage job only counts when it targets the conversion stage,
// since its snapshot may name a model the job never touches.
func (u Usecase) modelsInActiveJobs(ctx context.Context) (map[string]bool, error) {
	activeJobs, err := u.jobStore.ListActiveJobs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list active jobs")
	}

	inUseNames := map[string]bool{}
	for _, job := range activeJobs {
		if job.Defined.Type == jobentity.RunStageJobType &&
			job.Defined.Stage != string(pipeline.StageConvertVocals) {
			continue
		}

		options, err := pipeline.OptionsFromSnapshot(job.Defined.Options)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to decode an active job's options")
		}

		if options.ConvertVocals.VoiceModel != "" {
			inUseNames[options.ConvertVocals.VoiceModel] = true
		}
	}

	return inUseNames, nil
}

func (u Usecase) commitTokenError(err error) *api.Error {
	switch {
	case markers.Is(err, guard.UnknownTokenMark):
		return api.CommitError(err,
			voicemodelerrors.UnknownDeleteTokenCode,
			"No staged deletion exists for this token. It may have been confirmed or cancelled already")

	default:
		return api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to act on the staged deletion. Please contact the developer")
	}
}
