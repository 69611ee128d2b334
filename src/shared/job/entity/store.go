package jobentity

import (
	"context"
)

type JobUpdater func(job Job) (Job, error)

type Store interface {
	GetJob(ctx context.Context, jobID string) (Job, error)
	CreateJob(ctx context.Context, job Job) (Job, error)
	UpdateJob(ctx context.Context, jobID string, updater JobUpdater) (Job, error)
	ListJobsForSong(ctx context.Context, songID string) ([]Job, error)
	// ListActiveJobs returns jobs that are requested or processing.
	ListActiveJobs(ctx context.Context) ([]Job, error)
}
