package interfaces

import "context"

// NotificationEvent classifies terminal and pause transitions surfaced to
// the user-facing notification channel
type NotificationEvent string

const (
	NotifyCompleted NotificationEvent = "completed"
	NotifyFailed    NotificationEvent = "failed"
	NotifyCancelled NotificationEvent = "cancelled"
	NotifyPaused    NotificationEvent = "paused"
)

// NotificationService delivers batch outcome notifications. Best-effort;
// implementations own their rate limiting.
type NotificationService interface {
	Notify(ctx context.Context, event NotificationEvent, jobID string, processed, total int)
}
