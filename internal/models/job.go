package models

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of a queued job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is one durable unit of asynchronous work.
type Job struct {
	ID          string
	Queue       string
	Payload     json.RawMessage
	Status      JobStatus
	Attempts    int
	LastError   string
	AvailableAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ThumbnailJob requests thumbnail generation for one image.
type ThumbnailJob struct {
	UserID string `json:"userId"`
	FileID string `json:"fileId"`
}
