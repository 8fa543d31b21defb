package interfaces

import "context"

// EventType identifies an event on the in-process bus
type EventType string

const (
	EventJobStarted   EventType = "job_started"
	EventJobProgress  EventType = "job_progress"
	EventJobCompleted EventType = "job_completed"
	EventJobFailed    EventType = "job_failed"
	EventJobCancelled EventType = "job_cancelled"
	EventJobPaused    EventType = "job_paused"
)

// Event is a typed payload published to subscribers
type Event struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// EventHandler processes a published event
type EventHandler func(ctx context.Context, event Event) error

// EventService is a simple in-process pub/sub bus
type EventService interface {
	Subscribe(eventType EventType, handler EventHandler) error
	Publish(ctx context.Context, event Event) error
	PublishSync(ctx context.Context, event Event) error
	Close() error
}
