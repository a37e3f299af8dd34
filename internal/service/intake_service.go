package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clipforge/api/internal/keyword"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/store"
)

const (
	// TaskTypePipeline is the asynq task type for one pipeline run.
	TaskTypePipeline = "pipeline:run"
	// PipelineQueue is the asynq queue pipeline tasks go to. Its worker
	// concurrency bounds how many jobs run at once.
	PipelineQueue = "pipeline"
)

// PipelineTaskPayload is the asynq payload: only the job id. Everything
// the run needs is already persisted on the job record.
type PipelineTaskPayload struct {
	JobID string `json:"jobId"`
}

// TaskEnqueuer is the slice of asynq.Client the intake needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// IntakeService accepts webhook triggers: it validates the update,
// creates the queued job and hands it to the worker pool. Accept
// returns as soon as the job is durably queued; it never waits on a
// pipeline stage.
type IntakeService struct {
	store    store.JobStore
	enqueuer TaskEnqueuer
}

// NewIntakeService creates a new intake service
func NewIntakeService(jobStore store.JobStore, enqueuer TaskEnqueuer) *IntakeService {
	return &IntakeService{
		store:    jobStore,
		enqueuer: enqueuer,
	}
}

// Accept processes one Telegram update. Updates without an extractable
// keyword are acknowledged but ignored; no job is created for them.
func (s *IntakeService) Accept(ctx context.Context, update *model.TelegramUpdate) (*model.WebhookResponse, error) {
	if update.Message == nil || update.Message.Text == "" {
		return &model.WebhookResponse{OK: true, Ignored: true}, nil
	}

	kw := keyword.Extract(update.Message.Text)
	if kw == "" {
		return &model.WebhookResponse{OK: true, Ignored: true, Reason: "no_keyword"}, nil
	}

	job, err := s.AcceptKeyword(ctx, kw, update.Message.Chat.ID)
	if err != nil {
		return nil, err
	}

	return &model.WebhookResponse{OK: true, JobID: job.ID}, nil
}

// AcceptKeyword is the operator entry point: the keyword arrives
// already extracted. Same queue, same fail-fast policy.
func (s *IntakeService) AcceptKeyword(ctx context.Context, kw string, chatID int64) (*model.Job, error) {
	job, err := s.store.Create(ctx, kw, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if err := s.enqueue(ctx, job.ID); err != nil {
		errMsg := fmt.Sprintf("Could not schedule pipeline: %v", err)
		failed := model.JobStatusFailed
		if _, patchErr := s.store.Patch(ctx, job.ID, model.JobPatch{Status: &failed, Error: &errMsg}); patchErr != nil {
			log.Printf("[job %s] failed to mark unschedulable job: %v", job.ID, patchErr)
		}
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Printf("[job %s] queued for keyword %q", job.ID, kw)
	return job, nil
}

func (s *IntakeService) enqueue(ctx context.Context, jobID string) error {
	payload, err := json.Marshal(PipelineTaskPayload{JobID: jobID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePipeline, payload)

	// Fail-fast policy: stages perform costed, non-idempotent external
	// side effects, so a failed run is never retried automatically.
	_, err = s.enqueuer.EnqueueContext(ctx, task,
		asynq.Queue(PipelineQueue),
		asynq.MaxRetry(0),
		asynq.Timeout(2*time.Hour),
		asynq.Retention(7*24*time.Hour),
	)
	return err
}
