package model

import "time"

// Job is the persisted record for one end-to-end production run.
// ID, Keyword, ChatID and CreatedAt never change after creation.
type Job struct {
	ID        string    `json:"id"`
	Keyword   string    `json:"keyword"`
	ChatID    int64     `json:"chatId"`
	Status    JobStatus `json:"status"`
	Headline  string    `json:"headline,omitempty"`
	ResultURL string    `json:"resultUrl,omitempty"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// JobPatch is a partial update applied atomically by the store. Nil
// fields are left untouched.
type JobPatch struct {
	Status    *JobStatus
	Headline  *string
	ResultURL *string
	Error     *string
}

// JobListResponse wraps the dashboard job listing.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// CreateJobRequest is the operator trigger: start a pipeline without a
// Telegram message. ChatID is optional; without it no terminal
// notification is delivered.
type CreateJobRequest struct {
	Keyword string `json:"keyword" validate:"required,min=1,max=80"`
	ChatID  int64  `json:"chatId" validate:"omitempty"`
}

// CreateJobResponse acknowledges an accepted operator trigger.
type CreateJobResponse struct {
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
