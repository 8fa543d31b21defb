// -----------------------------------------------------------------------
// Job Orchestrator - lifecycle state machine for batch summary jobs
// Owns every status transition; the pipeline worker only writes progress.
// -----------------------------------------------------------------------

package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/common"
	"github.com/ternarybob/precis/internal/interfaces"
	"github.com/ternarybob/precis/internal/models"
)

// Orchestrator coordinates job lifecycle operations. All transitions are
// serialized per job through the task registry; the persisted record is the
// source of truth for status.
type Orchestrator struct {
	jobStore     interfaces.JobStorage
	summaryStore interfaces.SummaryStorage
	worker       *Worker
	registry     *Registry
	broadcaster  interfaces.ProgressBroadcaster
	notifier     interfaces.NotificationService
	logger       arbor.ILogger
}

// NewOrchestrator creates a job orchestrator
func NewOrchestrator(
	jobStore interfaces.JobStorage,
	summaryStore interfaces.SummaryStorage,
	worker *Worker,
	registry *Registry,
	broadcaster interfaces.ProgressBroadcaster,
	notifier interfaces.NotificationService,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		jobStore:     jobStore,
		summaryStore: summaryStore,
		worker:       worker,
		registry:     registry,
		broadcaster:  broadcaster,
		notifier:     notifier,
		logger:       logger,
	}
}

// StartJob creates and launches a new batch run over the given item keys.
// Returns the persisted job record with execution already underway.
func (o *Orchestrator) StartJob(ctx context.Context, itemIDs []string, publish models.PublishMode, length models.SummaryLength) (*models.SummaryJob, error) {
	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("item list cannot be empty")
	}

	job := models.NewSummaryJob(common.NewJobID(), itemIDs, publish, length)
	if err := o.jobStore.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if err := o.launch(job, job.ItemIDs, 0); err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("job_id", job.ID).
		Int("items", job.TotalItems).
		Str("publish", string(job.Publish)).
		Msg("Summary job started")

	return job, nil
}

// PauseJob requests cooperative suspension of a processing job. Pausing a
// job that is not processing is a no-op and returns the record unchanged.
func (o *Orchestrator) PauseJob(ctx context.Context, jobID string) (*models.SummaryJob, error) {
	job, err := o.jobStore.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != models.JobStatusProcessing {
		return job, nil
	}

	o.registry.Cancel(jobID)

	job.Status = models.JobStatusPaused
	job.Message = fmt.Sprintf("Paused at %d of %d items", job.ProcessedItems, job.TotalItems)
	if err := o.jobStore.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist pause: %w", err)
	}

	// Immediate dismissal so the presentation can be re-created on resume
	o.broadcaster.End(ctx, jobID, progressState(job), interfaces.DismissImmediate)
	o.notifier.Notify(ctx, interfaces.NotifyPaused, jobID, job.ProcessedItems, job.TotalItems)

	o.logger.Info().Str("job_id", jobID).Int("cursor", job.CurrentIndex).Msg("Job paused")
	return job, nil
}

// ResumeJob re-launches a paused or orphaned job from its persisted cursor.
// Exactly one of two concurrent resume attempts succeeds; the other gets
// ErrJobAlreadyRunning.
func (o *Orchestrator) ResumeJob(ctx context.Context, jobID string) (*models.SummaryJob, error) {
	job, err := o.jobStore.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !job.IsResumable() {
		return nil, fmt.Errorf("%w: cannot resume job in status %s", interfaces.ErrInvalidTransition, job.Status)
	}
	if job.Status == models.JobStatusFailed && len(job.RemainingItems()) == 0 {
		// Every item was already attempted; re-running an empty remainder
		// would finalize instantly. Retry is the operation for these.
		return nil, fmt.Errorf("%w: failed job has no unattempted items, retry its failed items instead", interfaces.ErrInvalidTransition)
	}
	if o.registry.Contains(jobID) {
		return nil, interfaces.ErrJobAlreadyRunning
	}

	// Back out of a terminal failed state: processing must not carry a
	// completion timestamp or a run error
	job.Status = models.JobStatusProcessing
	job.CompletedAt = nil
	job.Error = ""
	job.Message = fmt.Sprintf("Resuming at item %d of %d…", job.CurrentIndex+1, job.TotalItems)
	if err := o.jobStore.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist resume: %w", err)
	}

	if err := o.launch(job, job.RemainingItems(), job.CurrentIndex); err != nil {
		return nil, err
	}

	o.logger.Info().Str("job_id", jobID).Int("cursor", job.CurrentIndex).Msg("Job resumed")
	return job, nil
}

// CancelJob terminates a job. The running loop, if any, stops at its next
// checkpoint; the record is marked cancelled immediately.
func (o *Orchestrator) CancelJob(ctx context.Context, jobID string) (*models.SummaryJob, error) {
	job, err := o.jobStore.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot cancel job in status %s", interfaces.ErrInvalidTransition, job.Status)
	}

	o.registry.Cancel(jobID)

	job.MarkCancelled()
	if err := o.jobStore.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist cancellation: %w", err)
	}

	o.broadcaster.End(ctx, jobID, progressState(job), interfaces.DismissLinger)
	o.notifier.Notify(ctx, interfaces.NotifyCancelled, jobID, job.ProcessedItems, job.TotalItems)

	o.logger.Info().Str("job_id", jobID).Msg("Job cancelled")
	return job, nil
}

// RetryFailedItems starts a new run over a finished job's failed items.
// Prior successes stay counted; only the failed keys are re-processed.
func (o *Orchestrator) RetryFailedItems(ctx context.Context, jobID string) (*models.SummaryJob, error) {
	job, err := o.jobStore.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != models.JobStatusCompleted && job.Status != models.JobStatusFailed {
		return nil, fmt.Errorf("%w: can only retry a completed or failed job (status %s)", interfaces.ErrInvalidTransition, job.Status)
	}
	if len(job.FailedItemIDs) == 0 {
		return nil, fmt.Errorf("%w: job has no failed items to retry", interfaces.ErrInvalidTransition)
	}
	if o.registry.Contains(jobID) {
		return nil, interfaces.ErrJobAlreadyRunning
	}

	retryIDs := job.PrepareRetry()
	if err := o.jobStore.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist retry: %w", err)
	}

	if err := o.launch(job, retryIDs, job.CurrentIndex); err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("job_id", jobID).
		Int("retry_items", len(retryIDs)).
		Msg("Retrying failed items")
	return job, nil
}

// RecoverJobs re-launches jobs left in processing or queued state by a
// previous process. Paused jobs stay paused; resuming them is a user
// decision. Called at startup and by the scheduler's orphan sweep.
func (o *Orchestrator) RecoverJobs(ctx context.Context) (int, error) {
	incomplete, err := o.jobStore.ListIncomplete(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list incomplete jobs: %w", err)
	}

	recovered := 0
	for _, job := range incomplete {
		if job.Status == models.JobStatusPaused {
			continue
		}
		if o.registry.Contains(job.ID) {
			continue
		}

		o.logger.Info().
			Str("job_id", job.ID).
			Str("status", string(job.Status)).
			Int("cursor", job.CurrentIndex).
			Msg("Recovering orphaned job")

		if _, err := o.ResumeJob(ctx, job.ID); err != nil {
			if errors.Is(err, interfaces.ErrJobAlreadyRunning) {
				continue
			}
			o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to recover job")
			continue
		}
		recovered++
	}

	return recovered, nil
}

// GetJob fetches one job record
func (o *Orchestrator) GetJob(ctx context.Context, jobID string) (*models.SummaryJob, error) {
	return o.jobStore.GetJob(ctx, jobID)
}

// ListJobs lists job records, newest first
func (o *Orchestrator) ListJobs(ctx context.Context, opts *interfaces.JobListOptions) ([]*models.SummaryJob, error) {
	return o.jobStore.ListJobs(ctx, opts)
}

// CountJobsByStatus counts stored jobs in the given status
func (o *Orchestrator) CountJobsByStatus(ctx context.Context, status models.JobStatus) (int, error) {
	return o.jobStore.CountJobsByStatus(ctx, status)
}

// GetJobSummaries returns the summaries produced by a job
func (o *Orchestrator) GetJobSummaries(ctx context.Context, jobID string) ([]*models.ItemSummary, error) {
	if _, err := o.jobStore.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return o.summaryStore.ListSummariesByJob(ctx, jobID)
}

// DeleteJob removes a non-running job record and its summaries
func (o *Orchestrator) DeleteJob(ctx context.Context, jobID string) error {
	if o.registry.Contains(jobID) {
		return interfaces.ErrJobAlreadyRunning
	}

	summaries, err := o.summaryStore.ListSummariesByJob(ctx, jobID)
	if err == nil {
		for _, summary := range summaries {
			if err := o.summaryStore.DeleteSummary(ctx, summary.ItemID); err != nil {
				o.logger.Warn().Err(err).Str("item_id", summary.ItemID).Msg("Failed to delete summary")
			}
		}
	}

	return o.jobStore.DeleteJob(ctx, jobID)
}

// Shutdown cancels all live tasks. Records stay in processing state and
// are picked up by recovery on the next start.
func (o *Orchestrator) Shutdown() {
	if count := o.registry.CancelAll(); count > 0 {
		o.logger.Info().Int("active", count).Msg("Cancelled active jobs for shutdown")
	}
}

// launch installs a task handle and runs the pipeline loop on its own
// goroutine. Fails with ErrJobAlreadyRunning when a handle already exists.
func (o *Orchestrator) launch(job *models.SummaryJob, items []string, startOffset int) error {
	runCtx, cancel := context.WithCancel(context.Background())
	if !o.registry.TryInsert(job.ID, cancel) {
		cancel()
		return interfaces.ErrJobAlreadyRunning
	}

	go o.run(runCtx, job, items, startOffset)
	return nil
}

// run executes the pipeline loop and settles the job record when the loop
// returns. Cooperative cancellation exits without settling: the pause or
// cancel transition that triggered it already rewrote the record.
func (o *Orchestrator) run(ctx context.Context, job *models.SummaryJob, items []string, startOffset int) {
	defer o.registry.Remove(job.ID)

	o.broadcaster.Begin(ctx, job.ID, progressState(job))

	err := o.worker.ProcessItems(ctx, job, items, startOffset)
	if errors.Is(err, context.Canceled) {
		o.logger.Debug().Str("job_id", job.ID).Msg("Pipeline loop exited on cancellation")
		return
	}

	// A pause or cancel can land while the final item is in flight, after
	// the loop's last checkpoint. The stored status wins over the loop's
	// outcome; that transition already settled the record.
	if stored, getErr := o.jobStore.GetJob(context.Background(), job.ID); getErr == nil && stored.Status != models.JobStatusProcessing {
		o.logger.Debug().
			Str("job_id", job.ID).
			Str("status", string(stored.Status)).
			Msg("Job settled by a lifecycle transition during the final item")
		return
	}

	if err != nil {
		// Infrastructure failure: the run cannot continue and the record
		// must not stay in processing
		job.Status = models.JobStatusFailed
		job.Error = err.Error()
		job.Message = "Job failed: " + err.Error()
		if saveErr := o.jobStore.SaveJob(context.Background(), job); saveErr != nil {
			o.logger.Error().Err(saveErr).Str("job_id", job.ID).Msg("Failed to persist job failure")
		}
		o.broadcaster.End(context.Background(), job.ID, progressState(job), interfaces.DismissLinger)
		o.notifier.Notify(context.Background(), interfaces.NotifyFailed, job.ID, job.ProcessedItems, job.TotalItems)
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("Job run failed")
		return
	}

	job.Finalize()
	if saveErr := o.jobStore.SaveJob(context.Background(), job); saveErr != nil {
		o.logger.Error().Err(saveErr).Str("job_id", job.ID).Msg("Failed to persist job completion")
	}

	event := interfaces.NotifyCompleted
	if job.Status == models.JobStatusFailed {
		event = interfaces.NotifyFailed
	}
	o.broadcaster.End(context.Background(), job.ID, progressState(job), interfaces.DismissLinger)
	o.notifier.Notify(context.Background(), event, job.ID, job.ProcessedItems, job.TotalItems)

	o.logger.Info().
		Str("job_id", job.ID).
		Str("status", string(job.Status)).
		Int("processed", job.ProcessedItems).
		Int("failed", len(job.FailedItemIDs)).
		Msg("Job finished")
}
