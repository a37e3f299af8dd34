package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/api/internal/model"
)

// MemoryStore keeps jobs in process memory. It backs tests and lets the
// server come up without Redis during development; it honors the same
// lifecycle rules as RedisStore.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*model.Job)}
}

func (s *MemoryStore) Create(ctx context.Context, keyword string, chatID int64) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &model.Job{
		ID:        uuid.New().String(),
		Keyword:   keyword,
		ChatID:    chatID,
		Status:    model.JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	s.jobs[job.ID] = job

	out := *job
	return &out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *job
	return &out, nil
}

func (s *MemoryStore) Patch(ctx context.Context, id string, patch model.JobPatch) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Patch a copy so a rejected patch leaves the record untouched.
	next := *job
	if err := applyPatch(&next, patch); err != nil {
		return nil, err
	}
	s.jobs[id] = &next

	out := next
	return &out, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]model.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}
