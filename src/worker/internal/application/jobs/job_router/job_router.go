package job_router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/job_message"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/one_click"
	"github.com/veedubyou/cover-gen-be/src/worker/internal/application/jobs/run_stage"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

func NewJobRouter(
	jobStore jobentity.Store,
	oneClickHandler one_click.OneClickJobHandler,
	runStageHandler run_stage.RunStageJobHandler,
) JobRouter {
	return JobRouter{
		jobStore:        jobStore,
		oneClickHandler: oneClickHandler,
		runStageHandler: runStageHandler,
	}
}

type JobRouter struct {
	jobStore        jobentity.Store
	oneClickHandler one_click.OneClickJobHandler
	runStageHandler run_stage.RunStageJobHandler
}

func (j JobRouter) HandleMessage(message amqp091.Delivery) error {
	switch message.Type {
	case one_click.JobType:
		_, err := j.oneClickHandler.HandleOneClickJob(context.Background(), message.Body)
		if err != nil {
			j.markJobError(message.Body, one_click.ErrorMessage, err)
			return cerr.Wrap(err).Error("Failed to handle the one click job")
		}

		return nil

	case run_stage.JobType:
		_, err := j.runStageHandler.HandleRunStageJob(context.Background(), message.Body)
		if err != nil {
			j.markJobError(message.Body, run_stage.ErrorMessage, err)
			return cerr.Wrap(err).Error("Failed to handle the run stage job")
		}

		return nil

	default:
		return cerr.Field("message_type", message.Type).Error("Unrecognized message type")
	}
}

// markJobError records the failure on the job so the dashboard can show
// it. The message is re-parsed here because the handler may have failed
// before it got that far.
func (j JobRouter) markJobError(message []byte, userMessage string, jobErr error) {
	identifier := job_message.JobIdentifier{}
	if err := json.Unmarshal(message, &identifier); err != nil || identifier.JobID == "" {
		cerr.Log(cerr.Wrap(err).Error("Failed to identify the job to mark as errored"))
		return
	}

	_, err := j.jobStore.UpdateJob(context.Background(), identifier.JobID, func(job jobentity.Job) (jobentity.Job, error) {
		job.Defined.Status = jobentity.ErrorStatus
		job.Defined.StatusMessage = userMessage
		job.Defined.StatusDebugLog = fmt.Sprintf("%+v", jobErr)
		return job, nil
	})

	if err != nil {
		cerr.Log(cerr.Field("job_id", identifier.JobID).
			Wrap(err).Error("Failed to mark the job as errored"))
	}
}
