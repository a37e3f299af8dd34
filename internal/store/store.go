package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipforge/api/internal/model"
)

var (
	// ErrNotFound is returned when no job exists for an id.
	ErrNotFound = errors.New("job not found")
	// ErrUnavailable is returned when the backing medium cannot be
	// reached or written.
	ErrUnavailable = errors.New("job store unavailable")
	// ErrInvalidPatch is returned when a patch would violate the job
	// lifecycle (bad transition, mutation of a terminal record, or
	// clearing an immutable field).
	ErrInvalidPatch = errors.New("invalid job patch")
)

// JobStore is the single source of truth for job records. Create is
// append-only, Patch is atomic per id, and jobs are never deleted.
type JobStore interface {
	Create(ctx context.Context, keyword string, chatID int64) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	Patch(ctx context.Context, id string, patch model.JobPatch) (*model.Job, error)
	// List returns every job ordered by CreatedAt descending.
	List(ctx context.Context) ([]model.Job, error)
}

// applyPatch mutates job in place after checking lifecycle rules. Both
// store implementations run every patch through here, inside their own
// per-key transaction.
func applyPatch(job *model.Job, p model.JobPatch) error {
	if p.Status != nil {
		next := *p.Status
		if !next.Valid() {
			return fmt.Errorf("%w: unknown status %q", ErrInvalidPatch, next)
		}
		if !job.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidPatch, job.Status, next)
		}
		if next == model.JobStatusFailed {
			if p.Error == nil && job.Error == nil {
				return fmt.Errorf("%w: failed status requires an error", ErrInvalidPatch)
			}
			// A failed production has no result. The URL may already have
			// been persisted when a later step faulted; drop it so failed
			// records never carry one.
			job.ResultURL = ""
		}
		job.Status = next
	} else if job.Status.Terminal() {
		return fmt.Errorf("%w: job %s is %s", ErrInvalidPatch, job.ID, job.Status)
	}

	if p.Headline != nil {
		if *p.Headline == "" && job.Headline != "" {
			return fmt.Errorf("%w: headline cannot be cleared", ErrInvalidPatch)
		}
		job.Headline = *p.Headline
	}

	if p.ResultURL != nil {
		if *p.ResultURL == "" && job.ResultURL != "" {
			return fmt.Errorf("%w: resultUrl cannot be cleared", ErrInvalidPatch)
		}
		if *p.ResultURL != "" && job.Status == model.JobStatusFailed {
			return fmt.Errorf("%w: resultUrl not allowed on a failed job", ErrInvalidPatch)
		}
		job.ResultURL = *p.ResultURL
	}

	if p.Error != nil {
		if job.Error != nil {
			return fmt.Errorf("%w: error is immutable once set", ErrInvalidPatch)
		}
		if job.Status != model.JobStatusFailed {
			return fmt.Errorf("%w: error requires failed status", ErrInvalidPatch)
		}
		job.Error = p.Error
	}

	return nil
}
