package jobentity

import (
	"github.com/google/uuid"
	"github.com/veedubyou/cover-gen-be/src/shared/lib/jsonlib"
)

const InitialProgressPercentage = 5

type JobType string

const (
	OneClickJobType JobType = "one_click"
	RunStageJobType JobType = "run_stage"
)

type JobStatus string

const (
	RequestedStatus  JobStatus = "requested"
	ProcessingStatus JobStatus = "processing"
	ErrorStatus      JobStatus = "error"
	DoneStatus       JobStatus = "done"
)

type JobFields struct {
	ID     string  `json:"id"`
	SongID string  `json:"song_id"`
	Type   JobType `json:"job_type"`
	// Stage is only set for run_stage jobs.
	Stage   string         `json:"stage"`
	Options map[string]any `json:"options"`

	Status         JobStatus `json:"job_status"`
	StatusMessage  string    `json:"job_status_message"`
	StatusDebugLog string    `json:"job_status_debug_log"`
	Progress       int       `json:"job_progress"`

	ArtifactID string `json:"artifact_id"`
	CoverURL   string `json:"cover_url"`
}

// Job is a pipeline run request and its progress record. Unknown fields
// from newer writers survive a read-modify-write cycle through Flatten.
type Job struct {
	jsonlib.Flatten[JobFields]
}

func NewOneClickJob(songID string, options map[string]any) Job {
	job := Job{}
	job.Defined = JobFields{
		SongID:  songID,
		Type:    OneClickJobType,
		Options: options,
	}
	job.Extra = map[string]any{}
	job.InitializeRequest()
	return job
}

func NewRunStageJob(songID string, stage string, options map[string]any) Job {
	job := Job{}
	job.Defined = JobFields{
		SongID:  songID,
		Type:    RunStageJobType,
		Stage:   stage,
		Options: options,
	}
	job.Extra = map[string]any{}
	job.InitializeRequest()
	return job
}

func (j Job) GetID() string {
	return j.Defined.ID
}

func (j Job) IsNew() bool {
	return j.Defined.ID == ""
}

func (j *Job) CreateID() {
	if !j.IsNew() {
		panic("Cannot assign an ID to a job that already has one")
	}

	j.Defined.ID = uuid.New().String()
}

func (j *Job) InitializeRequest() {
	j.Defined.Status = RequestedStatus
	j.Defined.StatusMessage = "The cover generation job has been requested"
	j.Defined.StatusDebugLog = ""
	j.Defined.Progress = InitialProgressPercentage
}

func (j Job) ToMap() (map[string]any, error) {
	return jsonlib.StructToMap(j)
}

func (j *Job) FromMap(m map[string]any) error {
	flattened := jsonlib.Flatten[JobFields]{}
	if err := flattened.FromMap(m); err != nil {
		return err
	}

	j.Flatten = flattened
	return nil
}
