package one_click

import (
	"context"
	"encoding/json"
	"os"

	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	"github.com/veedubyou/cover-gen-be/src/shared/cloud_storage/entity"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/job_message"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/lib/storagepath"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = "one_click_generate"
const ErrorMessage string = "Failed to generate the song cover"

//counterfeiter:generate . OneClickJobHandler
type OneClickJobHandler interface {
	HandleOneClickJob(ctx context.Context, message []byte) (JobParams, error)
}

type JobParams struct {
	job_message.JobIdentifier
}

func NewJobHandler(
	jobStore jobentity.Store,
	orchestrator *pipeline.Orchestrator,
	fileStore entity.FileStore,
	pathGenerator storagepath.Generator,
) JobHandler {
	return JobHandler{
		jobStore:      jobStore,
		orchestrator:  orchestrator,
		fileStore:     fileStore,
		pathGenerator: pathGenerator,
	}
}

type JobHandler struct {
	jobStore      jobentity.Store
	orchestrator  *pipeline.Orchestrator
	fileStore     entity.FileStore
	pathGenerator storagepath.Generator
}

func (d JobHandler) HandleOneClickJob(ctx context.Context, message []byte) (JobParams, error) {
	params, err := unmarshalMessage(message)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("job_id", params.JobID)

	job, err := d.markProcessing(ctx, params.JobID)
	if err != nil {
		return params, errctx.Wrap(err).Error("Failed to set the job status")
	}

	options, err := pipeline.OptionsFromSnapshot(job.Defined.Options)
	if err != nil {
		return params, errctx.Wrap(err).Error("Failed to decode the job options")
	}

	artifact, err := d.orchestrator.RunOneClick(ctx, job.Defined.SongID, options)
	if err != nil {
		return params, errctx.Wrap(err).Error("Failed to run the pipeline")
	}

	coverURL, err := d.publishCover(ctx, job, options, artifact.OutputPath(pipeline.CoverFileName(options.Mix.OutputFormat)))
	if err != nil {
		return params, errctx.Wrap(err).Error("Failed to publish the cover")
	}

	_, err = d.jobStore.UpdateJob(ctx, params.JobID, func(job jobentity.Job) (jobentity.Job, error) {
		job.Defined.Status = jobentity.DoneStatus
		job.Defined.StatusMessage = "The cover has been generated"
		job.Defined.Progress = 100
		job.Defined.ArtifactID = artifact.ID()
		job.Defined.CoverURL = coverURL
		return job, nil
	})
	if err != nil {
		return params, errctx.Wrap(err).Error("Failed to mark the job as done")
	}

	return params, nil
}

func (d JobHandler) markProcessing(ctx context.Context, jobID string) (jobentity.Job, error) {
	return d.jobStore.UpdateJob(ctx, jobID, func(job jobentity.Job) (jobentity.Job, error) {
		if job.Defined.Status != jobentity.RequestedStatus {
			return jobentity.Job{}, cerr.Field("job_status", job.Defined.Status).
				Error("Job is not in requested status, abort processing to be safe")
		}

		job.Defined.Status = jobentity.ProcessingStatus
		job.Defined.StatusMessage = "Generating the cover"
		return job, nil
	})
}

func (d JobHandler) publishCover(ctx context.Context, job jobentity.Job, options pipeline.Options, coverFilePath string) (string, error) {
	coverContents, err := os.ReadFile(coverFilePath)
	if err != nil {
		return "", cerr.Field("cover_file_path", coverFilePath).
			Wrap(err).Error("Failed to read the cover file")
	}

	objectPath := d.pathGenerator.GeneratePath(
		job.Defined.SongID,
		job.GetID(),
		pipeline.CoverFileName(options.Mix.OutputFormat),
	)

	coverURL, err := d.fileStore.WriteFile(ctx, d.pathGenerator.BucketName(), objectPath, coverContents)
	if err != nil {
		return "", cerr.Wrap(err).Error("Failed to upload the cover")
	}

	return coverURL, nil
}

func unmarshalMessage(message []byte) (JobParams, error) {
	params := JobParams{}
	err := json.Unmarshal(message, &params)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	if params.JobID == "" {
		return JobParams{}, cerr.Field("job_params", params).Error("Missing job ID")
	}

	return params, nil
}
