package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/clipforge/api/internal/model"
)

func statusPtr(s model.JobStatus) *model.JobStatus { return &s }
func strPtr(s string) *string                      { return &s }

func TestCreateSetsQueuedRecord(t *testing.T) {
	s := NewMemoryStore()
	job, err := s.Create(context.Background(), "sunset", 42)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if job.ID == "" {
		t.Error("expected non-empty id")
	}
	if job.Keyword != "sunset" {
		t.Errorf("keyword = %q, want sunset", job.Keyword)
	}
	if job.ChatID != 42 {
		t.Errorf("chatId = %d, want 42", job.ChatID)
	}
	if job.Status != model.JobStatusQueued {
		t.Errorf("status = %s, want queued", job.Status)
	}
	if job.CreatedAt.IsZero() {
		t.Error("expected createdAt to be set")
	}
	if job.ResultURL != "" || job.Error != nil {
		t.Error("fresh job must not carry resultUrl or error")
	}
}

func TestGetNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPatchNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Patch(context.Background(), "nope", model.JobPatch{Status: statusPtr(model.JobStatusGathering)})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPatchWalksForwardPath(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	job, _ := s.Create(ctx, "sunset", 1)

	for _, next := range model.PipelineOrder[1:] {
		updated, err := s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(next)})
		if err != nil {
			t.Fatalf("patch to %s failed: %v", next, err)
		}
		if updated.Status != next {
			t.Fatalf("status = %s, want %s", updated.Status, next)
		}
	}
}

func TestPatchRejectsSkips(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	job, _ := s.Create(ctx, "sunset", 1)

	_, err := s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(model.JobStatusRenderingVideo)})
	if !errors.Is(err, ErrInvalidPatch) {
		t.Errorf("expected ErrInvalidPatch for queued -> rendering-video, got %v", err)
	}
}

func TestTerminalJobIsImmutable(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	job, _ := s.Create(ctx, "sunset", 1)

	if _, err := s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(model.JobStatusFailed), Error: strPtr("boom")}); err != nil {
		t.Fatalf("fail patch: %v", err)
	}

	_, err := s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(model.JobStatusGathering)})
	if !errors.Is(err, ErrInvalidPatch) {
		t.Errorf("expected ErrInvalidPatch on terminal status change, got %v", err)
	}
	_, err = s.Patch(ctx, job.ID, model.JobPatch{Headline: strPtr("late headline")})
	if !errors.Is(err, ErrInvalidPatch) {
		t.Errorf("expected ErrInvalidPatch on terminal field change, got %v", err)
	}
}

func TestErrorRequiresFailedStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	job, _ := s.Create(ctx, "sunset", 1)

	_, err := s.Patch(ctx, job.ID, model.JobPatch{Error: strPtr("boom")})
	if !errors.Is(err, ErrInvalidPatch) {
		t.Errorf("expected ErrInvalidPatch setting error on queued job, got %v", err)
	}
}

func TestFailedStatusRequiresError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	job, _ := s.Create(ctx, "sunset", 1)

	_, err := s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(model.JobStatusFailed)})
	if !errors.Is(err, ErrInvalidPatch) {
		t.Errorf("expected ErrInvalidPatch failing without an error, got %v", err)
	}

	got, _ := s.Get(ctx, job.ID)
	if got.Status != model.JobStatusQueued {
		t.Errorf("rejected patch mutated status to %s", got.Status)
	}
}

func TestFailingDropsResultURL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	job, _ := s.Create(ctx, "sunset", 1)

	for _, next := range []model.JobStatus{
		model.JobStatusGathering,
		model.JobStatusGeneratingScript,
		model.JobStatusGeneratingAssets,
		model.JobStatusRenderingVideo,
		model.JobStatusUploading,
	} {
		if _, err := s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(next)}); err != nil {
			t.Fatalf("patch to %s: %v", next, err)
		}
	}
	if _, err := s.Patch(ctx, job.ID, model.JobPatch{ResultURL: strPtr("https://cdn/video.mp4")}); err != nil {
		t.Fatalf("resultUrl patch: %v", err)
	}

	// Failing after publish (e.g. the notifying transition could not be
	// persisted) must not leave a result URL on the failed record.
	updated, err := s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(model.JobStatusFailed), Error: strPtr("boom")})
	if err != nil {
		t.Fatalf("fail patch: %v", err)
	}
	if updated.ResultURL != "" {
		t.Errorf("failed job carries resultUrl %q", updated.ResultURL)
	}
	if updated.Error == nil {
		t.Error("expected error on failed job")
	}
}

func TestResultURLRejectedOnFailedJob(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	job, _ := s.Create(ctx, "sunset", 1)

	if _, err := s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(model.JobStatusFailed), Error: strPtr("boom"), ResultURL: strPtr("https://cdn/video.mp4")}); !errors.Is(err, ErrInvalidPatch) {
		t.Errorf("expected ErrInvalidPatch setting resultUrl alongside failed, got %v", err)
	}
}

func TestHeadlineCannotBeCleared(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	job, _ := s.Create(ctx, "sunset", 1)

	s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(model.JobStatusGathering)})
	s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(model.JobStatusGeneratingScript)})
	if _, err := s.Patch(ctx, job.ID, model.JobPatch{Headline: strPtr("Sunsets, Explained")}); err != nil {
		t.Fatalf("headline patch: %v", err)
	}

	_, err := s.Patch(ctx, job.ID, model.JobPatch{Headline: strPtr("")})
	if !errors.Is(err, ErrInvalidPatch) {
		t.Errorf("expected ErrInvalidPatch clearing headline, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		job, err := s.Create(ctx, fmt.Sprintf("kw-%d", i), 1)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, job.ID)
		time.Sleep(time.Millisecond)
	}

	jobs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 5 {
		t.Fatalf("len = %d, want 5", len(jobs))
	}
	for i := range jobs {
		if jobs[i].ID != ids[len(ids)-1-i] {
			t.Fatalf("list out of order at %d", i)
		}
		if i > 0 && jobs[i].CreatedAt.After(jobs[i-1].CreatedAt) {
			t.Fatalf("createdAt not descending at %d", i)
		}
	}

	// Idempotent with no intervening activity.
	again, _ := s.List(ctx)
	for i := range jobs {
		if again[i].ID != jobs[i].ID {
			t.Fatal("repeated list returned different sequence")
		}
	}
}

func TestPatchReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	job, _ := s.Create(ctx, "sunset", 1)

	got, _ := s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(model.JobStatusGathering)})
	got.Keyword = "mutated"

	reread, _ := s.Get(ctx, job.ID)
	if reread.Keyword != "sunset" {
		t.Error("store handed out its internal record")
	}
}

func TestConcurrentPatchesSerialize(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	job, _ := s.Create(ctx, "sunset", 1)

	// Many goroutines race to apply the same single-step transition;
	// exactly one may win.
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Patch(ctx, job.ID, model.JobPatch{Status: statusPtr(model.JobStatusGathering)}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one winning transition, got %d", wins)
	}
}
