package jobs

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"
)

// taskHandle is the live execution handle for one running job
type taskHandle struct {
	cancel context.CancelFunc
}

// Registry tracks the single live task handle per job identifier. All
// lifecycle operations (start, pause, resume, cancel, retry) and the
// recovery sweep go through it, so every access is serialized: two
// concurrent resume attempts for one job cannot both install a handle.
type Registry struct {
	mu     sync.Mutex
	tasks  map[string]*taskHandle
	logger arbor.ILogger
}

// NewRegistry creates an empty task registry
func NewRegistry(logger arbor.ILogger) *Registry {
	return &Registry{
		tasks:  make(map[string]*taskHandle),
		logger: logger,
	}
}

// TryInsert installs a handle for the job if none exists. Returns false
// when the job already has a live task; the caller must treat that as
// "already running".
func (r *Registry) TryInsert(jobID string, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[jobID]; exists {
		return false
	}
	r.tasks[jobID] = &taskHandle{cancel: cancel}
	return true
}

// Contains reports whether the job has a live task handle
func (r *Registry) Contains(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.tasks[jobID]
	return exists
}

// Remove drops the job's handle without cancelling it. Idempotent.
func (r *Registry) Remove(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tasks, jobID)
}

// Cancel marks the job's task for cooperative cancellation and removes the
// handle. Returns false when no task was registered. The executing loop
// observes the cancellation at its next checkpoint; there is no preemption.
func (r *Registry) Cancel(jobID string) bool {
	r.mu.Lock()
	handle, exists := r.tasks[jobID]
	if exists {
		delete(r.tasks, jobID)
	}
	r.mu.Unlock()

	if !exists {
		return false
	}
	handle.cancel()
	r.logger.Debug().Str("job_id", jobID).Msg("Task handle cancelled")
	return true
}

// CancelAll cancels every live task and empties the registry. Returns the
// number of tasks cancelled.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	handles := make([]*taskHandle, 0, len(r.tasks))
	for id, handle := range r.tasks {
		handles = append(handles, handle)
		delete(r.tasks, id)
	}
	r.mu.Unlock()

	for _, handle := range handles {
		handle.cancel()
	}
	return len(handles)
}

// ActiveCount returns the number of live task handles
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.tasks)
}
