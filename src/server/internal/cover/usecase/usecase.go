package coverusecase

import (
	"context"
	"encoding/json"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/cover-gen-be/src/server/internal/cover/errors"
	"github.com/veedubyou/cover-gen-be/src/server/internal/errors/api"
	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	jobstorage "github.com/veedubyou/cover-gen-be/src/shared/job/storage"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/rabbitmq"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	workspacestore "github.com/veedubyou/cover-gen-be/src/shared/workspace/store"
)

// Job type strings for queue messages. These must line up with what the
// worker routes on.
const (
	OneClickMessageType = "one_click_generate"
	RunStageMessageType = "run_stage"
)

type Usecase struct {
	jobStore  jobentity.Store
	publisher rabbitmq.Publisher
}

func NewUsecase(jobStore jobentity.Store, publisher rabbitmq.Publisher) Usecase {
	return Usecase{
		jobStore:  jobStore,
		publisher: publisher,
	}
}

// CreateOneClickJob records a full pipeline run and queues it for the
// worker.
func (u Usecase) CreateOneClickJob(ctx context.Context, songID string, options pipeline.Options) (jobentity.Job, *api.Error) {
	if err := workspacestore.ValidateSongID(songID); err != nil {
		return jobentity.Job{}, api.CommitError(err,
			covererrors.BadRequestDataCode,
			"The song ID is not usable. Please pick a different name")
	}

	if err := options.Validate(); err != nil {
		return jobentity.Job{}, api.CommitError(err,
			covererrors.InvalidOptionsCode,
			"The cover options are invalid")
	}

	snapshot, err := options.ToSnapshot()
	if err != nil {
		return jobentity.Job{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to encode the cover options. Please contact the developer")
	}

	return u.createAndPublish(ctx, jobentity.NewOneClickJob(songID, snapshot), OneClickMessageType)
}

// CreateRunStageJob records a single stage run and queues it for the
// worker.
func (u Usecase) CreateRunStageJob(ctx context.Context, songID string, stage string, options pipeline.Options) (jobentity.Job, *api.Error) {
	if err := workspacestore.ValidateSongID(songID); err != nil {
		return jobentity.Job{}, api.CommitError(err,
			covererrors.BadRequestDataCode,
			"The song ID is not usable. Please pick a different name")
	}

	if !pipeline.KnownStage(pipeline.Stage(stage)) {
		return jobentity.Job{}, api.CommitError(
			errors.Errorf("No stage exists with the name %s", stage),
			covererrors.UnknownStageCode,
			"No pipeline stage exists with this name")
	}

	if err := options.ValidateStage(pipeline.Stage(stage)); err != nil {
		return jobentity.Job{}, api.CommitError(err,
			covererrors.InvalidOptionsCode,
			"The stage options are invalid")
	}

	snapshot, err := options.ToSnapshot()
	if err != nil {
		return jobentity.Job{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to encode the stage options. Please contact the developer")
	}

	return u.createAndPublish(ctx, jobentity.NewRunStageJob(songID, stage, snapshot), RunStageMessageType)
}

func (u Usecase) GetJob(ctx context.Context, jobID string) (jobentity.Job, *api.Error) {
	job, err := u.jobStore.GetJob(ctx, jobID)
	if err != nil {
		err = errors.Wrap(err, "Failed to get job from DB")
		switch {
		case markers.Is(err, jobstorage.JobNotFoundMark):
			fallthrough
		case markers.Is(err, jobstorage.IDEmptyMark):
			return jobentity.Job{}, api.CommitError(err,
				covererrors.JobNotFoundCode,
				"No job exists with this ID")

		default:
			return jobentity.Job{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Failed to fetch the job. Please contact the developer")
		}
	}

	return job, nil
}

func (u Usecase) ListJobsForSong(ctx context.Context, songID string) ([]jobentity.Job, *api.Error) {
	jobs, err := u.jobStore.ListJobsForSong(ctx, songID)
	if err != nil {
		err = errors.Wrap(err, "Failed to list jobs from DB")
		return nil, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to fetch the song's jobs. Please contact the developer")
	}

	return jobs, nil
}

func (u Usecase) createAndPublish(ctx context.Context, newJob jobentity.Job, messageType string) (jobentity.Job, *api.Error) {
	job, err := u.jobStore.CreateJob(ctx, newJob)
	if err != nil {
		err = errors.Wrap(err, "Failed to create the job record")
		return jobentity.Job{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to create the job. Please contact the developer")
	}

	if err := u.publishJob(job, messageType); err != nil {
		u.markJobFailed(job, err)
		return jobentity.Job{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to queue the job. Please contact the developer")
	}

	return job, nil
}

type jobIdentifier struct {
	JobID string `json:"job_id"`
}

func (u Usecase) publishJob(job jobentity.Job, messageType string) error {
	jsonBytes, err := json.Marshal(jobIdentifier{JobID: job.GetID()})
	if err != nil {
		return errors.Wrap(err, "Failed to marshal job ID for queue msg")
	}

	publishMsg := amqp091.Publishing{
		Type: messageType,
		Body: jsonBytes,
	}

	err = u.publisher.Publish(publishMsg)
	if err != nil {
		return errors.Wrap(err, "Failed to publish message to rabbitmq")
	}

	return nil
}

func (u Usecase) markJobFailed(job jobentity.Job, jobErr error) {
	updater := func(job jobentity.Job) (jobentity.Job, error) {
		job.Defined.Status = jobentity.ErrorStatus
		job.Defined.StatusMessage = "Failed to queue the job"
		job.Defined.StatusDebugLog = jobErr.Error()
		return job, nil
	}

	_, err := u.jobStore.UpdateJob(context.Background(), job.GetID(), updater)
	if err != nil {
		log.WithField("job_id", job.GetID()).
			Error("Failed to set job in DB")
		return
	}
}
