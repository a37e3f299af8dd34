package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/store"
	ws "github.com/clipforge/api/internal/websocket"
)

// PipelineService advances one job through the production stages. Every
// status change is persisted through the store before the next stage
// runs, so the dashboard always sees current progress. Stage failures
// are terminal: the job is marked failed and no later stage executes.
type PipelineService struct {
	store    store.JobStore
	research ResearchCapability
	script   ScriptCapability
	assets   AssetCapability
	video    RenderCapability
	publish  PublishCapability
	notifier Notifier
	hub      *ws.Hub

	stageTimeout time.Duration
}

// Notifier is the terminal-message boundary; delivery is best-effort.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// NewPipelineService wires the orchestrator to its capabilities. hub
// and notifier may be nil (tests, notifications disabled).
func NewPipelineService(
	jobStore store.JobStore,
	research ResearchCapability,
	script ScriptCapability,
	assets AssetCapability,
	video RenderCapability,
	publish PublishCapability,
	notifier Notifier,
	hub *ws.Hub,
	stageTimeout time.Duration,
) *PipelineService {
	if stageTimeout <= 0 {
		stageTimeout = 10 * time.Minute
	}
	return &PipelineService{
		store:        jobStore,
		research:     research,
		script:       script,
		assets:       assets,
		video:        video,
		publish:      publish,
		notifier:     notifier,
		hub:          hub,
		stageTimeout: stageTimeout,
	}
}

// Run executes the full pipeline for a queued job. It terminates
// exactly once, with the job either completed or failed; the returned
// error reports the failure cause for the worker's log.
func (s *PipelineService) Run(ctx context.Context, jobID string) error {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job.Status.Terminal() {
		log.Printf("[job %s] already %s, nothing to run", jobID, job.Status)
		return nil
	}
	if job.Status != model.JobStatusQueued {
		// An in-progress status here means a previous run died mid-way.
		// Capability calls are not known to be idempotent, so re-entry
		// is unsafe; the startup sweep handles these.
		return fmt.Errorf("job %s is %s, expected queued", jobID, job.Status)
	}

	log.Printf("[job %s] starting pipeline for keyword %q", jobID, job.Keyword)

	// Gathering
	if job, err = s.transition(ctx, jobID, model.JobStatusGathering); err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Could not persist status: %v", err))
	}
	brief, err := s.runResearch(ctx, job.Keyword)
	if err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Research failed: %v", err))
	}

	// Scripting
	if job, err = s.transition(ctx, jobID, model.JobStatusGeneratingScript); err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Could not persist status: %v", err))
	}
	script, err := s.runScript(ctx, brief)
	if err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Script generation failed: %v", err))
	}
	if job, err = s.merge(ctx, jobID, model.JobPatch{Headline: &script.Headline}); err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Could not persist headline: %v", err))
	}

	// Asset generation
	if job, err = s.transition(ctx, jobID, model.JobStatusGeneratingAssets); err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Could not persist status: %v", err))
	}
	assets, err := s.runAssets(ctx, jobID, script)
	if err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Asset generation failed: %v", err))
	}

	// Rendering
	if job, err = s.transition(ctx, jobID, model.JobStatusRenderingVideo); err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Could not persist status: %v", err))
	}
	artifact, err := s.runRender(ctx, assets)
	if err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Render failed: %v", err))
	}

	// Uploading
	if job, err = s.transition(ctx, jobID, model.JobStatusUploading); err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Could not persist status: %v", err))
	}
	resultURL, err := s.runPublish(ctx, jobID, artifact)
	if err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Publish failed: %v", err))
	}
	if job, err = s.merge(ctx, jobID, model.JobPatch{ResultURL: &resultURL}); err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Could not persist result URL: %v", err))
	}

	// Notifying. Delivery failure must not fail a finished production:
	// the video exists whether or not the chat message lands.
	if job, err = s.transition(ctx, jobID, model.JobStatusNotifying); err != nil {
		return s.fail(ctx, job, jobID, fmt.Sprintf("Could not persist status: %v", err))
	}
	s.notifySuccess(job, resultURL)

	if _, err = s.transition(ctx, jobID, model.JobStatusCompleted); err != nil {
		return fmt.Errorf("job %s finished but completion was not persisted: %w", jobID, err)
	}

	log.Printf("[job %s] completed: %s", jobID, resultURL)
	return nil
}

// RecoverInterrupted sweeps the store at startup and fails every job a
// previous process left in flight. Queued jobs are skipped: their task
// is still in the queue and will be picked up normally.
func (s *PipelineService) RecoverInterrupted(ctx context.Context) error {
	jobs, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("recovery sweep: %w", err)
	}

	recovered := 0
	for _, job := range jobs {
		if job.Status.Terminal() || job.Status == model.JobStatusQueued {
			continue
		}
		errMsg := fmt.Sprintf("Interrupted during %s by a process restart", job.Status)
		failed := model.JobStatusFailed
		updated, err := s.store.Patch(ctx, job.ID, model.JobPatch{Status: &failed, Error: &errMsg})
		if err != nil {
			log.Printf("[job %s] recovery patch failed: %v", job.ID, err)
			continue
		}
		s.broadcast(updated)
		s.notifyFailure(updated, errMsg)
		recovered++
	}

	if recovered > 0 {
		log.Printf("Recovery sweep failed %d interrupted job(s)", recovered)
	}
	return nil
}

// transition patches only the status and broadcasts the new state.
func (s *PipelineService) transition(ctx context.Context, jobID string, next model.JobStatus) (*model.Job, error) {
	job, err := s.store.Patch(ctx, jobID, model.JobPatch{Status: &next})
	if err != nil {
		return nil, err
	}
	s.broadcast(job)
	return job, nil
}

// merge patches stage-produced fields without changing status.
func (s *PipelineService) merge(ctx context.Context, jobID string, patch model.JobPatch) (*model.Job, error) {
	job, err := s.store.Patch(ctx, jobID, patch)
	if err != nil {
		return nil, err
	}
	s.broadcast(job)
	return job, nil
}

// fail records the terminal failure and attempts a failure message. The
// passed job may be stale or nil when the failing operation was itself
// a store patch.
func (s *PipelineService) fail(ctx context.Context, job *model.Job, jobID, errMsg string) error {
	log.Printf("[job %s] failed: %s", jobID, errMsg)

	failed := model.JobStatusFailed
	updated, err := s.store.Patch(ctx, jobID, model.JobPatch{Status: &failed, Error: &errMsg})
	if err != nil {
		log.Printf("[job %s] could not persist failure: %v", jobID, err)
		updated = job
	}
	if updated != nil {
		s.broadcast(updated)
		s.notifyFailure(updated, errMsg)
	}

	return fmt.Errorf("job %s failed: %s", jobID, errMsg)
}

func (s *PipelineService) runResearch(ctx context.Context, kw string) (*model.Brief, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()
	return s.research.Research(ctx, kw)
}

func (s *PipelineService) runScript(ctx context.Context, brief *model.Brief) (*model.Script, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()
	return s.script.WriteScript(ctx, brief)
}

func (s *PipelineService) runAssets(ctx context.Context, jobID string, script *model.Script) (*model.AssetSet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()
	return s.assets.GenerateAssets(ctx, jobID, script)
}

func (s *PipelineService) runRender(ctx context.Context, assets *model.AssetSet) (*model.VideoArtifact, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()
	return s.video.RenderVideo(ctx, assets)
}

func (s *PipelineService) runPublish(ctx context.Context, jobID string, artifact *model.VideoArtifact) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()
	return s.publish.Publish(ctx, jobID, artifact)
}

func (s *PipelineService) notifySuccess(job *model.Job, resultURL string) {
	if s.notifier == nil {
		return
	}
	text := fmt.Sprintf("Your video for %q is live:\n%s", job.Keyword, resultURL)
	if job.Headline != "" {
		text = fmt.Sprintf("%s\n\n%s", job.Headline, text)
	}
	s.sendNotification(job, text)
}

func (s *PipelineService) notifyFailure(job *model.Job, errMsg string) {
	if s.notifier == nil {
		return
	}
	s.sendNotification(job, fmt.Sprintf("Production failed for %q: %s", job.Keyword, errMsg))
}

func (s *PipelineService) sendNotification(job *model.Job, text string) {
	if job.ChatID == 0 {
		// Operator-triggered jobs have no chat to notify.
		return
	}
	// Fresh context: the run's context may already be failed or
	// cancelled, and the notification should still get its chance.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.notifier.SendMessage(ctx, job.ChatID, text); err != nil {
		log.Printf("[job %s] notification delivery failed: %v", job.ID, err)
	}
}

func (s *PipelineService) broadcast(job *model.Job) {
	if s.hub != nil {
		s.hub.BroadcastTransition(job)
	}
}
