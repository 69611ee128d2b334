package job_message

// JobIdentifier is the whole queue message. Everything else about the
// run lives on the job record, so a requeued message always picks up
// the current state instead of a stale copy.
type JobIdentifier struct {
	JobID string `json:"job_id"`
}
