// -----------------------------------------------------------------------
// Notification Service - rate-limited batch outcome notifications
// Delivered onto the event bus for UI consumers; best-effort by contract.
// -----------------------------------------------------------------------

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/common"
	"github.com/ternarybob/precis/internal/interfaces"
	"golang.org/x/time/rate"
)

// Notifier publishes batch outcome notifications, dropping bursts that
// exceed the configured rate
type Notifier struct {
	events  interfaces.EventService
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.NotificationService = (*Notifier)(nil)

// NewNotifier creates a rate-limited notification service
func NewNotifier(config *common.NotifyConfig, events interfaces.EventService, logger arbor.ILogger) (*Notifier, error) {
	interval := 10 * time.Second
	if config.RateLimit != "" {
		parsed, err := time.ParseDuration(config.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid notify rate limit '%s': %w", config.RateLimit, err)
		}
		interval = parsed
	}

	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Notifier{
		events:  events,
		limiter: rate.NewLimiter(rate.Every(interval), burst),
		logger:  logger,
	}, nil
}

// Notify publishes one outcome notification. Events over the rate limit
// are dropped, not queued; a stale outcome notification has no value.
func (n *Notifier) Notify(ctx context.Context, event interfaces.NotificationEvent, jobID string, processed, total int) {
	if !n.limiter.Allow() {
		n.logger.Debug().
			Str("job_id", jobID).
			Str("event", string(event)).
			Msg("Notification dropped by rate limiter")
		return
	}

	payload := map[string]interface{}{
		"job_id":    jobID,
		"event":     string(event),
		"processed": processed,
		"total":     total,
		"message":   formatMessage(event, processed, total),
	}

	eventType := map[interfaces.NotificationEvent]interfaces.EventType{
		interfaces.NotifyCompleted: interfaces.EventJobCompleted,
		interfaces.NotifyFailed:    interfaces.EventJobFailed,
		interfaces.NotifyCancelled: interfaces.EventJobCancelled,
		interfaces.NotifyPaused:    interfaces.EventJobPaused,
	}[event]

	if err := n.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		n.logger.Warn().Err(err).Str("job_id", jobID).Msg("Notification publish failed")
	}
}

func formatMessage(event interfaces.NotificationEvent, processed, total int) string {
	switch event {
	case interfaces.NotifyCompleted:
		return fmt.Sprintf("Summarization complete: %d of %d items processed", processed, total)
	case interfaces.NotifyFailed:
		return fmt.Sprintf("Summarization failed: %d of %d items attempted", processed, total)
	case interfaces.NotifyCancelled:
		return fmt.Sprintf("Summarization cancelled after %d of %d items", processed, total)
	case interfaces.NotifyPaused:
		return fmt.Sprintf("Summarization paused at %d of %d items", processed, total)
	default:
		return ""
	}
}
