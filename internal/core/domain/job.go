package domain

import "time"

// JobStatus is the lifecycle state of an asynchronous query job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobHandle identifies a submitted job. Handles stay resolvable after
// completion until the job is explicitly cleaned up.
type JobHandle string

// Job is one asynchronous query execution. The result artifact is
// written exactly once, on completion.
type Job struct {
	ID     JobHandle
	Kind   string
	Status JobStatus

	// Error holds the failure message when Status is JobFailed.
	Error string

	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	// Report is the query outcome, set on completion.
	Report *QueryReport

	// ArtifactPath locates the serialized result on disk.
	ArtifactPath string
}

// Done reports whether the job reached a terminal state.
func (j *Job) Done() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
