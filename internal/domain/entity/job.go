package entity

import (
	"errors"
	"math"
	"time"
)

type JobState string

const (
	StateQueued    JobState = "queued"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
)

var ErrJobNotFound = errors.New("job not found")

// Job is the durable status record kept at jobs/{jobId}/status.json.
// Done may lag or, under message redelivery, run ahead of the true count;
// it is always kept within [0, Total].
type Job struct {
	JobID        string    `json:"jobId"`
	State        JobState  `json:"state"`
	Error        string    `json:"error,omitempty"`
	CreatedAtUTC time.Time `json:"createdAtUtc"`
	Total        int       `json:"total"`
	Done         int       `json:"done"`
}

func NewQueuedJob(jobID string) *Job {
	return &Job{
		JobID:        jobID,
		State:        StateQueued,
		Total:        0,
		Done:         0,
		CreatedAtUTC: time.Now().UTC(),
	}
}

// Percent reports progress rounded to one decimal. Zero total means 0.0.
func (j *Job) Percent() float64 {
	if j.Total <= 0 {
		return 0.0
	}
	return math.Round(float64(j.Done)/float64(j.Total)*1000) / 10
}

func (j *Job) Completed() bool {
	return j.State == StateCompleted
}
