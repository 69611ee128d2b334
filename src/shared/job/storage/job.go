package jobstorage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/guregu/dynamo"
	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	dynamolib "github.com/veedubyou/cover-gen-be/src/shared/lib/dynamo"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/errors/mark"
)

const JobsTable = "CoverJobs"

var _ jobentity.Store = DB{}

type DB struct {
	dynamoDB dynamolib.DynamoDBWrapper
}

func NewDB(dynamoDB dynamolib.DynamoDBWrapper) DB {
	return DB{
		dynamoDB: dynamoDB,
	}
}

func (d DB) GetJob(ctx context.Context, jobID string) (jobentity.Job, error) {
	if jobID == "" {
		return jobentity.Job{}, mark.Message(IDEmptyMark, "No job ID was provided")
	}

	value := dbJob{}
	err := d.dynamoDB.Table(JobsTable).
		Get(idKey, jobID).
		OneWithContext(ctx, &value)

	if err != nil {
		switch {
		case markers.Is(err, UnmarshalMark):
			return jobentity.Job{}, errors.Wrap(err, "Failed to fetch job")
		case errors.Is(err, dynamo.ErrNotFound):
			return jobentity.Job{}, mark.Wrap(err, JobNotFoundMark, "Job is not found")
		default:
			return jobentity.Job{}, mark.Wrap(err, DefaultErrorMark, "Failed to fetch job")
		}
	}

	job := jobentity.Job{}
	err = job.FromMap(value)
	if err != nil {
		return jobentity.Job{},
			mark.Wrap(err, UnmarshalMark, "Failed to transform DB map back to entity job")
	}

	return job, nil
}

func (d DB) CreateJob(ctx context.Context, job jobentity.Job) (jobentity.Job, error) {
	if !job.IsNew() {
		return jobentity.Job{}, mark.Message(DefaultErrorMark, "The job to create already has an ID")
	}

	job.CreateID()

	dbObject, err := job.ToMap()
	if err != nil {
		return jobentity.Job{}, mark.Wrap(err,
			MarshalMark,
			"Failed to transform entity job to a generic map object")
	}

	err = d.dynamoDB.Table(JobsTable).Put(dbObject).RunWithContext(ctx)
	if err != nil {
		return jobentity.Job{}, mark.Wrap(err,
			DefaultErrorMark,
			"Failed to put the job in the DB")
	}

	return job, nil
}

func (d DB) UpdateJob(ctx context.Context, jobID string, updater jobentity.JobUpdater) (jobentity.Job, error) {
	job, err := d.GetJob(ctx, jobID)
	if err != nil {
		return jobentity.Job{}, errors.Wrap(err, "Can't find the job to update")
	}

	updatedJob, err := updater(job)
	if err != nil {
		return jobentity.Job{}, mark.Wrap(err, DefaultErrorMark, "The updater failed to make changes to the job")
	}

	if updatedJob.GetID() != jobID {
		return jobentity.Job{}, mark.Message(DefaultErrorMark, "The updater changed the job ID")
	}

	dbObject, err := updatedJob.ToMap()
	if err != nil {
		return jobentity.Job{}, mark.Wrap(err, MarshalMark, "Failed to marshal job entity to map")
	}

	err = d.dynamoDB.Table(JobsTable).Put(dbObject).RunWithContext(ctx)
	if err != nil {
		return jobentity.Job{}, mark.Wrap(err, DefaultErrorMark, "Failed to put the updated job in the DB")
	}

	return updatedJob, nil
}

func (d DB) ListJobsForSong(ctx context.Context, songID string) ([]jobentity.Job, error) {
	if songID == "" {
		return nil, mark.Message(IDEmptyMark, "No song ID was provided")
	}

	values := []dbJob{}
	err := d.dynamoDB.Table(JobsTable).
		Scan().
		Filter("$ = ?", songIDKey, songID).
		AllWithContext(ctx, &values)

	if err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to scan for the song's jobs")
	}

	return unmarshalJobs(values)
}

func (d DB) ListActiveJobs(ctx context.Context) ([]jobentity.Job, error) {
	values := []dbJob{}
	err := d.dynamoDB.Table(JobsTable).
		Scan().
		Filter("$ = ? OR $ = ?", statusKey, jobentity.RequestedStatus, statusKey, jobentity.ProcessingStatus).
		AllWithContext(ctx, &values)

	if err != nil {
		return nil, mark.Wrap(err, DefaultErrorMark, "Failed to scan for active jobs")
	}

	return unmarshalJobs(values)
}

func unmarshalJobs(values []dbJob) ([]jobentity.Job, error) {
	jobs := []jobentity.Job{}
	for _, value := range values {
		job := jobentity.Job{}
		if err := job.FromMap(value); err != nil {
			return nil, mark.Wrap(err, UnmarshalMark, "Failed to transform DB map back to entity job")
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}
