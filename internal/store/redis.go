package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clipforge/api/internal/model"
)

const (
	jobKeyPrefix = "job:"
	jobIndexKey  = "jobs:created"

	// patchAttempts bounds the optimistic-transaction retry loop. Only
	// the run owning a job patches it, so contention is rare; the retry
	// exists for operator tooling touching the same key.
	patchAttempts = 5
)

// RedisStore persists jobs as JSON blobs keyed by id, with a sorted set
// indexing ids by creation time for reverse-chronological listing.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redis: redisClient}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

// Create allocates an id, persists the queued record and indexes it.
func (s *RedisStore) Create(ctx context.Context, keyword string, chatID int64) (*model.Job, error) {
	job := &model.Job{
		ID:        uuid.New().String(),
		Keyword:   keyword,
		ChatID:    chatID,
		Status:    model.JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, jobKey(job.ID), data, 0)
		pipe.ZAdd(ctx, jobIndexKey, redis.Z{
			Score:  float64(job.CreatedAt.UnixNano()),
			Member: job.ID,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return job, nil
}

// Get returns the job for id.
func (s *RedisStore) Get(ctx context.Context, id string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

// Patch applies a partial update under a WATCH transaction so that
// concurrent patches to the same id serialize instead of clobbering
// each other.
func (s *RedisStore) Patch(ctx context.Context, id string, patch model.JobPatch) (*model.Job, error) {
	key := jobKey(id)
	var updated *model.Job

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}

		var job model.Job
		if err := json.Unmarshal(data, &job); err != nil {
			return fmt.Errorf("failed to unmarshal job %s: %w", id, err)
		}

		if err := applyPatch(&job, patch); err != nil {
			return err
		}

		out, err := json.Marshal(&job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = &job
		}
		return err
	}

	for i := 0; i < patchAttempts; i++ {
		err := s.redis.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidPatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil, fmt.Errorf("%w: patch contention on job %s", ErrUnavailable, id)
}

// List returns all jobs, newest first, walking the creation index.
func (s *RedisStore) List(ctx context.Context) ([]model.Job, error) {
	ids, err := s.redis.ZRevRange(ctx, jobIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return []model.Job{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = jobKey(id)
	}

	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	jobs := make([]model.Job, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a record should not happen; skip it
			// rather than failing the whole listing.
			continue
		}
		var job model.Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job %s: %w", ids[i], err)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}
