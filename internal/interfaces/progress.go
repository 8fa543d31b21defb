package interfaces

import "context"

// JobProgressState is the snapshot pushed to progress observers
type JobProgressState struct {
	JobID          string  `json:"job_id"`
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	ProcessedItems int     `json:"processed_items"`
	TotalItems     int     `json:"total_items"`
	FailedItems    int     `json:"failed_items"`
	Progress       float64 `json:"progress"`
}

// DismissalMode controls how a live progress presentation ends
type DismissalMode string

const (
	// DismissImmediate tears the presentation down right away so it can be
	// re-created on resume
	DismissImmediate DismissalMode = "immediate"
	// DismissLinger leaves the final state visible for the observer to
	// dismiss
	DismissLinger DismissalMode = "linger"
)

// ProgressBroadcaster reflects live job progress to external observers.
// Every method is best-effort: implementations log failures and never
// propagate them into the pipeline.
type ProgressBroadcaster interface {
	Begin(ctx context.Context, jobID string, state JobProgressState)
	Update(ctx context.Context, jobID string, state JobProgressState)
	End(ctx context.Context, jobID string, state JobProgressState, mode DismissalMode)
}
