package model

// JobStatus is the persisted lifecycle state of a job.
type JobStatus string

const (
	JobStatusQueued           JobStatus = "queued"
	JobStatusGathering        JobStatus = "gathering"
	JobStatusGeneratingScript JobStatus = "generating-script"
	JobStatusGeneratingAssets JobStatus = "generating-assets"
	JobStatusRenderingVideo   JobStatus = "rendering-video"
	JobStatusUploading        JobStatus = "uploading"
	JobStatusNotifying        JobStatus = "notifying"
	JobStatusCompleted        JobStatus = "completed"
	JobStatusFailed           JobStatus = "failed"
)

// PipelineOrder is the forward path of a job. A run walks this list in
// order; failed is reachable from every non-terminal entry.
var PipelineOrder = []JobStatus{
	JobStatusQueued,
	JobStatusGathering,
	JobStatusGeneratingScript,
	JobStatusGeneratingAssets,
	JobStatusRenderingVideo,
	JobStatusUploading,
	JobStatusNotifying,
	JobStatusCompleted,
}

var statusRank = func() map[JobStatus]int {
	m := make(map[JobStatus]int, len(PipelineOrder))
	for i, s := range PipelineOrder {
		m[s] = i
	}
	return m
}()

// Valid reports whether s is a known status value.
func (s JobStatus) Valid() bool {
	if s == JobStatusFailed {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether s is absorbing. No patch may leave a
// terminal status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo reports whether the edge s -> next exists. The forward
// path admits only single steps; failed is reachable from any
// non-terminal status.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == JobStatusFailed {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to == from+1
}
