package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestRegistryTryInsert(t *testing.T) {
	r := NewRegistry(arbor.NewLogger())
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.True(t, r.TryInsert("job_1", cancel))
	assert.False(t, r.TryInsert("job_1", cancel))
	assert.True(t, r.Contains("job_1"))
	assert.Equal(t, 1, r.ActiveCount())
}

func TestRegistryConcurrentInsertOneWins(t *testing.T) {
	r := NewRegistry(arbor.NewLogger())

	const attempts = 50
	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, cancel := context.WithCancel(context.Background())
			if r.TryInsert("job_1", cancel) {
				atomic.AddInt64(&wins, 1)
			} else {
				cancel()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
	assert.Equal(t, 1, r.ActiveCount())
}

func TestRegistryCancelSignalsContext(t *testing.T) {
	r := NewRegistry(arbor.NewLogger())
	ctx, cancel := context.WithCancel(context.Background())

	r.TryInsert("job_1", cancel)
	assert.True(t, r.Cancel("job_1"))

	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected context to be cancelled")
	}

	assert.False(t, r.Contains("job_1"))
	assert.False(t, r.Cancel("job_1"))
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	r := NewRegistry(arbor.NewLogger())
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.TryInsert("job_1", cancel)
	r.Remove("job_1")
	r.Remove("job_1")

	assert.Equal(t, 0, r.ActiveCount())
}

func TestRegistryCancelAll(t *testing.T) {
	r := NewRegistry(arbor.NewLogger())

	ctxs := make([]context.Context, 3)
	for i, id := range []string{"a", "b", "c"} {
		ctx, cancel := context.WithCancel(context.Background())
		ctxs[i] = ctx
		r.TryInsert(id, cancel)
	}

	assert.Equal(t, 3, r.CancelAll())
	assert.Equal(t, 0, r.ActiveCount())
	for _, ctx := range ctxs {
		select {
		case <-ctx.Done():
		default:
			t.Fatal("expected context to be cancelled")
		}
	}
}
