// -----------------------------------------------------------------------
// Summary Job - Persisted record for one batch summarization run
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"time"
)

// JobStatus represents the lifecycle state of a summary job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusPaused     JobStatus = "paused"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// PublishMode controls what the pipeline does with a generated summary
type PublishMode string

const (
	// PublishModeNote uploads the summary to the remote library as a child note
	PublishModeNote PublishMode = "note"
	// PublishModeLocal keeps the summary in local storage only
	PublishModeLocal PublishMode = "local"
)

// SummaryLength is the caller-supplied length preference passed to the summarizer
type SummaryLength string

const (
	SummaryLengthBrief    SummaryLength = "brief"
	SummaryLengthStandard SummaryLength = "standard"
	SummaryLengthDetailed SummaryLength = "detailed"
)

// SummaryJob is the persisted record describing one batch run over an
// ordered list of library item keys.
//
// Mutation points: the record is created by the orchestrator and updated
// only through the orchestrator's lifecycle transitions and the pipeline
// worker's per-item progress writes. Concurrent readers (API handlers)
// may observe intermediate states but never write.
type SummaryJob struct {
	ID          string     `json:"id" badgerhold:"key"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Status JobStatus `json:"status" badgerholdIndex:"Status"`

	// Ordered list of item keys for this batch. Retry runs replace the
	// tail of this list with the previously failed keys.
	ItemIDs []string `json:"item_ids"`

	TotalItems     int      `json:"total_items"`
	ProcessedItems int      `json:"processed_items"`
	FailedItemIDs  []string `json:"failed_item_ids,omitempty"`

	// CurrentIndex is the cursor into ItemIDs; monotonically non-decreasing
	// within a single execution. Resume restarts the loop here.
	CurrentIndex int `json:"current_index"`

	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	// Execution preferences captured at submission time
	Publish PublishMode   `json:"publish"`
	Length  SummaryLength `json:"length"`
}

// NewSummaryJob creates a job record in the processing state over the
// given ordered item keys.
func NewSummaryJob(id string, itemIDs []string, publish PublishMode, length SummaryLength) *SummaryJob {
	ids := make([]string, len(itemIDs))
	copy(ids, itemIDs)

	return &SummaryJob{
		ID:         id,
		CreatedAt:  time.Now(),
		Status:     JobStatusProcessing,
		ItemIDs:    ids,
		TotalItems: len(ids),
		Publish:    publish,
		Length:     length,
		Message:    "Starting…",
	}
}

// Progress returns the completed fraction in [0,1]. Failed items count as
// processed; the ratio measures attempted work, not successes.
func (j *SummaryJob) Progress() float64 {
	if j.TotalItems <= 0 {
		return 0
	}
	return float64(j.ProcessedItems) / float64(j.TotalItems)
}

// IsTerminal returns true if the job can accept no further transitions
// other than an explicit retry.
func (j *SummaryJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted ||
		j.Status == JobStatusFailed ||
		j.Status == JobStatusCancelled
}

// IsResumable reports whether Resume may re-register execution for this job.
// A processing job with no registered task is an orphan from a previous
// process and is treated as resumable by the recovery path.
func (j *SummaryJob) IsResumable() bool {
	switch j.Status {
	case JobStatusPaused, JobStatusQueued, JobStatusProcessing, JobStatusFailed:
		return true
	default:
		return false
	}
}

// RemainingItems returns the items not yet attempted in this execution.
func (j *SummaryJob) RemainingItems() []string {
	if j.CurrentIndex >= len(j.ItemIDs) {
		return nil
	}
	return j.ItemIDs[j.CurrentIndex:]
}

// RecordItemResult advances the cursor past the item at the given index and
// appends it to the failed list when it did not produce a summary. A failed
// item still increments ProcessedItems so the progress ratio keeps moving.
func (j *SummaryJob) RecordItemResult(index int, itemID string, failed bool) {
	j.ProcessedItems++
	j.CurrentIndex = index + 1
	if failed {
		j.FailedItemIDs = append(j.FailedItemIDs, itemID)
	}
}

// Finalize applies the three-way completion rule and stamps the completion
// time. Failure of some but not all items is a partial success, not a job
// failure; job-level failed is reserved for total failure.
func (j *SummaryJob) Finalize() {
	now := time.Now()
	j.CompletedAt = &now

	failed := len(j.FailedItemIDs)
	switch {
	case failed == 0:
		j.Status = JobStatusCompleted
		j.Message = fmt.Sprintf("Summarized %d items", j.ProcessedItems)
	case failed >= j.TotalItems && j.TotalItems > 0:
		j.Status = JobStatusFailed
		j.Message = "All items failed"
		j.Error = fmt.Sprintf("all %d items failed", failed)
	default:
		j.Status = JobStatusCompleted
		j.Message = fmt.Sprintf("Summarized %d of %d items (%d failed)",
			j.ProcessedItems-failed, j.TotalItems, failed)
	}
}

// MarkCancelled stamps the record as cancelled with a final message.
func (j *SummaryJob) MarkCancelled() {
	now := time.Now()
	j.CompletedAt = &now
	j.Status = JobStatusCancelled
	j.Message = fmt.Sprintf("Cancelled after %d of %d items", j.ProcessedItems, j.TotalItems)
}

// PrepareRetry rewrites the record for a retry run over the previously
// failed items. The prior successes stay counted: the new total is
// previous successes plus the retry count, and the cursor starts at the
// previous success count. ItemIDs is reordered to successes followed by
// the retried keys so that an interrupted retry resumes correctly from
// the persisted cursor.
func (j *SummaryJob) PrepareRetry() []string {
	retryIDs := make([]string, len(j.FailedItemIDs))
	copy(retryIDs, j.FailedItemIDs)

	failedSet := make(map[string]bool, len(retryIDs))
	for _, id := range retryIDs {
		failedSet[id] = true
	}
	succeededIDs := make([]string, 0, len(j.ItemIDs))
	for _, id := range j.ItemIDs {
		if !failedSet[id] {
			succeededIDs = append(succeededIDs, id)
		}
	}

	j.Status = JobStatusProcessing
	j.FailedItemIDs = nil
	j.ItemIDs = append(succeededIDs, retryIDs...)
	j.TotalItems = len(succeededIDs) + len(retryIDs)
	j.ProcessedItems = len(succeededIDs)
	j.CurrentIndex = len(succeededIDs)
	j.CompletedAt = nil
	j.Error = ""
	j.Message = fmt.Sprintf("Retrying %d failed items", len(retryIDs))

	return retryIDs
}
