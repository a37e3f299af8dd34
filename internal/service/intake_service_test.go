package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/store"
)

type fakeEnqueuer struct {
	mu    sync.Mutex
	err   error
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: PipelineQueue, Type: task.Type()}, nil
}

func (f *fakeEnqueuer) enqueued() []*asynq.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*asynq.Task(nil), f.tasks...)
}

func telegramUpdate(text string, chatID int64) *model.TelegramUpdate {
	return &model.TelegramUpdate{
		UpdateID: 1,
		Message: &model.TelegramMessage{
			MessageID: 1,
			Text:      text,
			Chat:      model.TelegramChat{ID: chatID},
		},
	}
}

func TestAcceptCreatesAndEnqueues(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	enq := &fakeEnqueuer{}
	svc := NewIntakeService(ms, enq)

	resp, err := svc.Accept(ctx, telegramUpdate("northern lights", 77))
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !resp.OK || resp.Ignored || resp.JobID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	job, err := ms.Get(ctx, resp.JobID)
	if err != nil {
		t.Fatalf("job not stored: %v", err)
	}
	if job.Status != model.JobStatusQueued {
		t.Errorf("status = %s, want queued", job.Status)
	}
	if job.Keyword != "northern lights" {
		t.Errorf("keyword = %q", job.Keyword)
	}
	if job.ChatID != 77 {
		t.Errorf("chatId = %d", job.ChatID)
	}

	tasks := enq.enqueued()
	if len(tasks) != 1 {
		t.Fatalf("enqueued %d tasks, want 1", len(tasks))
	}
	if tasks[0].Type() != TaskTypePipeline {
		t.Errorf("task type = %q", tasks[0].Type())
	}
	var payload PipelineTaskPayload
	if err := json.Unmarshal(tasks[0].Payload(), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.JobID != resp.JobID {
		t.Errorf("payload jobId = %q, want %q", payload.JobID, resp.JobID)
	}
}

func TestAcceptExtractsKeywordFromCommand(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	enq := &fakeEnqueuer{}
	svc := NewIntakeService(ms, enq)

	resp, err := svc.Accept(ctx, telegramUpdate("/video ocean cleanup", 5))
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	job, _ := ms.Get(ctx, resp.JobID)
	if job.Keyword != "ocean cleanup" {
		t.Errorf("keyword = %q, want command argument", job.Keyword)
	}
}

func TestAcceptIgnoresUpdatesWithoutKeyword(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	// nil enqueuer: ignored updates must never reach the queue.
	svc := NewIntakeService(ms, nil)

	cases := []struct {
		name   string
		update *model.TelegramUpdate
	}{
		{"no message", &model.TelegramUpdate{UpdateID: 1}},
		{"empty text", telegramUpdate("", 5)},
		{"whitespace", telegramUpdate("   ", 5)},
		{"bare command", telegramUpdate("/start", 5)},
		{"url", telegramUpdate("https://example.com/watch", 5)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := svc.Accept(ctx, tc.update)
			if err != nil {
				t.Fatalf("accept: %v", err)
			}
			if !resp.OK || !resp.Ignored {
				t.Errorf("response = %+v, want ok+ignored", resp)
			}
			if resp.JobID != "" {
				t.Errorf("ignored update produced job %s", resp.JobID)
			}
		})
	}

	jobs, _ := ms.List(ctx)
	if len(jobs) != 0 {
		t.Errorf("%d jobs created for ignored updates", len(jobs))
	}
}

func TestAcceptMarksJobFailedWhenEnqueueFails(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	enq := &fakeEnqueuer{err: errors.New("broker down")}
	svc := NewIntakeService(ms, enq)

	_, err := svc.Accept(ctx, telegramUpdate("volcano", 9))
	if err == nil {
		t.Fatal("expected enqueue failure to surface")
	}

	// The job record exists and is failed, so the dashboard shows what
	// happened instead of a silently vanished trigger.
	jobs, _ := ms.List(ctx)
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	if jobs[0].Status != model.JobStatusFailed {
		t.Errorf("status = %s, want failed", jobs[0].Status)
	}
	if jobs[0].Error == nil {
		t.Error("expected error on unschedulable job")
	}
}

func TestAcceptKeywordForOperator(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	enq := &fakeEnqueuer{}
	svc := NewIntakeService(ms, enq)

	job, err := svc.AcceptKeyword(ctx, "city timelapse", 0)
	if err != nil {
		t.Fatalf("accept keyword: %v", err)
	}
	if job.ChatID != 0 {
		t.Errorf("operator job carries chatId %d", job.ChatID)
	}
	if len(enq.enqueued()) != 1 {
		t.Error("operator job was not enqueued")
	}
}
