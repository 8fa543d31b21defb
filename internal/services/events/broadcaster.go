package events

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/interfaces"
)

// Broadcaster reflects job progress onto the event bus, where the websocket
// hub and any other observers pick it up. Every call is best-effort.
type Broadcaster struct {
	events interfaces.EventService
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.ProgressBroadcaster = (*Broadcaster)(nil)

// NewBroadcaster creates a progress broadcaster backed by the event bus
func NewBroadcaster(events interfaces.EventService, logger arbor.ILogger) *Broadcaster {
	return &Broadcaster{
		events: events,
		logger: logger,
	}
}

func (b *Broadcaster) Begin(ctx context.Context, jobID string, state interfaces.JobProgressState) {
	b.publish(ctx, interfaces.EventJobStarted, jobID, state, "")
}

func (b *Broadcaster) Update(ctx context.Context, jobID string, state interfaces.JobProgressState) {
	b.publish(ctx, interfaces.EventJobProgress, jobID, state, "")
}

func (b *Broadcaster) End(ctx context.Context, jobID string, state interfaces.JobProgressState, mode interfaces.DismissalMode) {
	eventType := interfaces.EventJobCompleted
	switch state.Status {
	case "failed":
		eventType = interfaces.EventJobFailed
	case "cancelled":
		eventType = interfaces.EventJobCancelled
	case "paused":
		eventType = interfaces.EventJobPaused
	}
	b.publish(ctx, eventType, jobID, state, mode)
}

func (b *Broadcaster) publish(ctx context.Context, eventType interfaces.EventType, jobID string, state interfaces.JobProgressState, mode interfaces.DismissalMode) {
	payload := map[string]interface{}{
		"job_id":          jobID,
		"status":          state.Status,
		"message":         state.Message,
		"processed_items": state.ProcessedItems,
		"total_items":     state.TotalItems,
		"failed_items":    state.FailedItems,
		"progress":        state.Progress,
	}
	if mode != "" {
		payload["dismissal"] = string(mode)
	}

	if err := b.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		b.logger.Warn().Err(err).Str("job_id", jobID).Msg("Progress broadcast failed")
	}
}
