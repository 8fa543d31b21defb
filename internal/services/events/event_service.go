package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/interfaces"
)

// Service implements EventService interface with pub/sub pattern
type Service struct {
	subscribers map[interfaces.EventType][]interfaces.EventHandler
	mu          sync.RWMutex
	logger      arbor.ILogger
	closed      bool
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[interfaces.EventType][]interfaces.EventHandler),
		logger:      logger,
	}
}

// Subscribe registers a handler for an event type
func (s *Service) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("event service is closed")
	}

	s.subscribers[eventType] = append(s.subscribers[eventType], handler)

	s.logger.Debug().
		Str("event_type", string(eventType)).
		Int("subscriber_count", len(s.subscribers[eventType])).
		Msg("Event handler subscribed")

	return nil
}

// Publish sends an event to all subscribers asynchronously
func (s *Service) Publish(ctx context.Context, event interfaces.Event) error {
	s.mu.RLock()
	handlers := s.subscribers[event.Type]
	s.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	for _, handler := range handlers {
		go func(h interfaces.EventHandler) {
			if err := h(ctx, event); err != nil {
				s.logger.Error().
					Err(err).
					Str("event_type", string(event.Type)).
					Msg("Event handler failed")
			}
		}(handler)
	}

	return nil
}

// PublishSync sends an event to all subscribers synchronously, collecting
// handler errors
func (s *Service) PublishSync(ctx context.Context, event interfaces.Event) error {
	s.mu.RLock()
	handlers := s.subscribers[event.Type]
	s.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			s.logger.Error().
				Err(err).
				Str("event_type", string(event.Type)).
				Msg("Event handler failed")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close drops all subscriptions
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = make(map[interfaces.EventType][]interfaces.EventHandler)
	s.closed = true
	return nil
}
