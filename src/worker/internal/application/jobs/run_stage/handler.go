package run_stage

import (
	"context"
	"encoding/json"

	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	"github.com/veedubyou/cover-gen-be/src/shared/pipeline"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/job_message"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = "run_stage"
const ErrorMessage string = "Failed to run the pipeline stage"

//counterfeiter:generate . RunStageJobHandler
type RunStageJobHandler interface {
	HandleRunStageJob(ctx context.Context, message []byte) (JobParams, error)
}

type JobParams struct {
	job_message.JobIdentifier
}

func NewJobHandler(jobStore jobentity.Store, orchestrator *pipeline.Orchestrator) JobHandler {
	return JobHandler{
		jobStore:     jobStore,
		orchestrator: orchestrator,
	}
}

type JobHandler struct {
	jobStore     jobentity.Store
	orchestrator *pipeline.Orchestrator
}

func (d JobHandler) HandleRunStageJob(ctx context.Context, message []byte) (JobParams, error) {
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

	stage := pipeline.Stage(job.Defined.Stage)
	artifact, err := d.orchestrator.RunStep(ctx, job.Defined.SongID, stage, options)
	if err != nil {
		return params, errctx.Field("stage", stage).
			Wrap(err).Error("Failed to run the stage")
	}

	_, err = d.jobStore.UpdateJob(ctx, params.JobID, func(job jobentity.Job) (jobentity.Job, error) {
		job.Defined.Status = jobentity.DoneStatus
		job.Defined.StatusMessage = "The stage has finished"
		job.Defined.Progress = 100
		job.Defined.ArtifactID = artifact.ID()
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
		job.Defined.StatusMessage = "Running the pipeline stage"
		return job, nil
	})
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
