package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/interfaces"
)

func TestPublishSyncDeliversToAllSubscribers(t *testing.T) {
	service := NewService(arbor.NewLogger())

	var mu sync.Mutex
	var received []string
	handler := func(name string) interfaces.EventHandler {
		return func(ctx context.Context, event interfaces.Event) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, name)
			return nil
		}
	}
	require.NoError(t, service.Subscribe(interfaces.EventJobCompleted, handler("first")))
	require.NoError(t, service.Subscribe(interfaces.EventJobCompleted, handler("second")))
	require.NoError(t, service.Subscribe(interfaces.EventJobFailed, handler("other")))

	err := service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobCompleted})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, received)
}

func TestPublishSyncCollectsHandlerErrors(t *testing.T) {
	service := NewService(arbor.NewLogger())

	require.NoError(t, service.Subscribe(interfaces.EventJobFailed, func(ctx context.Context, event interfaces.Event) error {
		return fmt.Errorf("handler broke")
	}))
	require.NoError(t, service.Subscribe(interfaces.EventJobFailed, func(ctx context.Context, event interfaces.Event) error {
		return nil
	}))

	err := service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobFailed})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler broke")
}

func TestPublishAsyncDelivers(t *testing.T) {
	service := NewService(arbor.NewLogger())

	done := make(chan interfaces.Event, 1)
	require.NoError(t, service.Subscribe(interfaces.EventJobProgress, func(ctx context.Context, event interfaces.Event) error {
		done <- event
		return nil
	}))

	payload := map[string]interface{}{"job_id": "job_1"}
	require.NoError(t, service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventJobProgress, Payload: payload}))

	select {
	case event := <-done:
		assert.Equal(t, "job_1", event.Payload["job_id"])
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestPublishWithNoSubscribersIsNoop(t *testing.T) {
	service := NewService(arbor.NewLogger())

	assert.NoError(t, service.Publish(context.Background(), interfaces.Event{Type: interfaces.EventJobStarted}))
	assert.NoError(t, service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobStarted}))
}

func TestSubscribeNilHandlerRejected(t *testing.T) {
	service := NewService(arbor.NewLogger())

	assert.Error(t, service.Subscribe(interfaces.EventJobStarted, nil))
}

func TestCloseDropsSubscriptions(t *testing.T) {
	service := NewService(arbor.NewLogger())

	called := false
	require.NoError(t, service.Subscribe(interfaces.EventJobCompleted, func(ctx context.Context, event interfaces.Event) error {
		called = true
		return nil
	}))
	require.NoError(t, service.Close())

	require.NoError(t, service.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobCompleted}))
	assert.False(t, called)

	assert.Error(t, service.Subscribe(interfaces.EventJobCompleted, func(ctx context.Context, event interfaces.Event) error {
		return nil
	}))
}
