package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/clipforge/api/internal/service"
)

// PipelineWorker runs queued pipeline tasks. The asynq server's
// concurrency setting is the admission control: a job stays queued
// until a worker slot frees up.
type PipelineWorker struct {
	pipeline *service.PipelineService
}

// NewPipelineWorker creates a new pipeline worker
func NewPipelineWorker(pipeline *service.PipelineService) *PipelineWorker {
	return &PipelineWorker{pipeline: pipeline}
}

// ProcessTask handles one pipeline task. The run itself records any
// failure on the job; the returned error only feeds asynq's log.
func (w *PipelineWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.PipelineTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	if payload.JobID == "" {
		return fmt.Errorf("task payload missing job id")
	}

	log.Printf("[job %s] worker picked up pipeline task", payload.JobID)
	return w.pipeline.Run(ctx, payload.JobID)
}
