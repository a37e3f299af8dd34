package model

// WebSocket message types
const (
	WSMessageTypeTransition = "transition"
	WSMessageTypeError      = "error"
)

// WSTransitionMessage is pushed to dashboard subscribers on every
// persisted status change.
type WSTransitionMessage struct {
	Type      string    `json:"type"`
	JobID     string    `json:"jobId"`
	Status    JobStatus `json:"status"`
	Headline  string    `json:"headline,omitempty"`
	ResultURL string    `json:"resultUrl,omitempty"`
	Error     string    `json:"error,omitempty"`
}
