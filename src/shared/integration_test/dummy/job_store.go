package dummy

import (
	"context"
	"sync"

	jobentity "github.com/veedubyou/cover-gen-be/src/shared/job/entity"
	jobstorage "github.com/veedubyou/cover-gen-be/src/shared/job/storage"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/errors/mark"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/cerr"
)

var _ jobentity.Store = &JobStore{}

func NewDummyJobStore() *JobStore {
	return &JobStore{
		Unavailable: false,
		State:       make(map[string]jobentity.Job),
	}
}

// JobStore mimics the DB-backed job store, including its error marks,
// so callers branching on marks behave the same against it.
type JobStore struct {
	Unavailable bool
	State       map[string]jobentity.Job
	mutex       sync.RWMutex
}

func (j *JobStore) GetJob(ctx context.Context, jobID string) (jobentity.Job, error) {
	if j.Unavailable {
		return jobentity.Job{}, NetworkFailure
	}

	if jobID == "" {
		return jobentity.Job{}, mark.Wrap(NotFound, jobstorage.IDEmptyMark, "No job ID was provided")
	}

	j.mutex.RLock()
	defer j.mutex.RUnlock()

	job, ok := j.State[jobID]
	if !ok {
		return jobentity.Job{}, mark.Wrap(NotFound, jobstorage.JobNotFoundMark, "Job is not found")
	}

	return job, nil
}

func (j *JobStore) CreateJob(ctx context.Context, job jobentity.Job) (jobentity.Job, error) {
	if j.Unavailable {
		return jobentity.Job{}, NetworkFailure
	}

	if !job.IsNew() {
		return jobentity.Job{}, cerr.Error("The job to create already has an ID")
	}

	job.CreateID()

	j.mutex.Lock()
	defer j.mutex.Unlock()

	j.State[job.GetID()] = job
	return job, nil
}

func (j *JobStore) UpdateJob(ctx context.Context, jobID string, updater jobentity.JobUpdater) (jobentity.Job, error) {
	job, err := j.GetJob(ctx, jobID)
	if err != nil {
		return jobentity.Job{}, cerr.Wrap(err).Error("Can't find the job to update")
	}

	updatedJob, err := updater(job)
	if err != nil {
		return jobentity.Job{}, cerr.Wrap(err).Error("The updater failed to make changes to the job")
	}

	if updatedJob.GetID() != jobID {
		return jobentity.Job{}, cerr.Error("The updater changed the job ID")
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	j.State[jobID] = updatedJob
	return updatedJob, nil
}

func (j *JobStore) ListJobsForSong(ctx context.Context, songID string) ([]jobentity.Job, error) {
	if j.Unavailable {
		return nil, NetworkFailure
	}

	j.mutex.RLock()
	defer j.mutex.RUnlock()

	jobs := []jobentity.Job{}
	for _, job := range j.State {
		if job.Defined.SongID == songID {
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

func (j *JobStore) ListActiveJobs(ctx context.Context) ([]jobentity.Job, error) {
	if j.Unavailable {
		return nil, NetworkFailure
	}

	j.mutex.RLock()
	defer j.mutex.RUnlock()

	jobs := []jobentity.Job{}
	for _, job := range j.State {
		if job.Defined.Status == jobentity.RequestedStatus || job.Defined.Status == jobentity.ProcessingStatus {
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}
