package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSummaryJob(t *testing.T) {
	job := NewSummaryJob("job_1", []string{"A", "B", "C"}, PublishModeNote, SummaryLengthStandard)

	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.Equal(t, 3, job.TotalItems)
	assert.Equal(t, 0, job.ProcessedItems)
	assert.Equal(t, 0, job.CurrentIndex)
	assert.Empty(t, job.FailedItemIDs)
}

func TestRecordItemResult(t *testing.T) {
	job := NewSummaryJob("job_1", []string{"A", "B", "C"}, PublishModeLocal, SummaryLengthBrief)

	job.RecordItemResult(0, "A", false)
	assert.Equal(t, 1, job.ProcessedItems)
	assert.Equal(t, 1, job.CurrentIndex)
	assert.Empty(t, job.FailedItemIDs)

	// A failed item still counts as processed
	job.RecordItemResult(1, "B", true)
	assert.Equal(t, 2, job.ProcessedItems)
	assert.Equal(t, 2, job.CurrentIndex)
	assert.Equal(t, []string{"B"}, job.FailedItemIDs)
}

func TestProgress(t *testing.T) {
	job := NewSummaryJob("job_1", []string{"A", "B", "C", "D"}, PublishModeLocal, SummaryLengthBrief)
	assert.Equal(t, 0.0, job.Progress())

	job.RecordItemResult(0, "A", false)
	job.RecordItemResult(1, "B", true)
	assert.Equal(t, 0.5, job.Progress())
}

func TestFinalizeAllSucceeded(t *testing.T) {
	job := NewSummaryJob("job_1", []string{"A", "B"}, PublishModeLocal, SummaryLengthBrief)
	job.RecordItemResult(0, "A", false)
	job.RecordItemResult(1, "B", false)

	job.Finalize()

	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.Error)
}

func TestFinalizeAllFailed(t *testing.T) {
	job := NewSummaryJob("job_1", []string{"A", "B"}, PublishModeLocal, SummaryLengthBrief)
	job.RecordItemResult(0, "A", true)
	job.RecordItemResult(1, "B", true)

	job.Finalize()

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.NotEmpty(t, job.Error)
}

func TestFinalizePartialFailure(t *testing.T) {
	job := NewSummaryJob("job_1", []string{"A", "B", "C"}, PublishModeLocal, SummaryLengthBrief)
	job.RecordItemResult(0, "A", false)
	job.RecordItemResult(1, "B", true)
	job.RecordItemResult(2, "C", false)

	job.Finalize()

	// Partial failure is still a completed job
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Contains(t, job.Message, "failed")
	assert.Empty(t, job.Error)
}

func TestRemainingItems(t *testing.T) {
	job := NewSummaryJob("job_1", []string{"A", "B", "C"}, PublishModeLocal, SummaryLengthBrief)
	job.RecordItemResult(0, "A", false)

	assert.Equal(t, []string{"B", "C"}, job.RemainingItems())

	job.RecordItemResult(1, "B", false)
	job.RecordItemResult(2, "C", false)
	assert.Empty(t, job.RemainingItems())
}

func TestPrepareRetry(t *testing.T) {
	// Seven items, two failures
	ids := []string{"A1", "A2", "B", "A3", "C", "A4", "A5"}
	job := NewSummaryJob("job_1", ids, PublishModeNote, SummaryLengthStandard)
	for i, id := range ids {
		failed := id == "B" || id == "C"
		job.RecordItemResult(i, id, failed)
	}
	job.Finalize()
	require.Equal(t, JobStatusCompleted, job.Status)

	retryIDs := job.PrepareRetry()

	assert.Equal(t, []string{"B", "C"}, retryIDs)
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.Equal(t, 7, job.TotalItems)
	assert.Equal(t, 5, job.ProcessedItems)
	assert.Equal(t, 5, job.CurrentIndex)
	assert.Empty(t, job.FailedItemIDs)
	assert.Nil(t, job.CompletedAt)

	// ItemIDs reordered to successes first so the cursor stays meaningful
	// if the retry run is itself interrupted and resumed
	assert.Equal(t, []string{"A1", "A2", "A3", "A4", "A5", "B", "C"}, job.ItemIDs)
	assert.Equal(t, []string{"B", "C"}, job.RemainingItems())
}

func TestIsTerminal(t *testing.T) {
	job := NewSummaryJob("job_1", []string{"A"}, PublishModeLocal, SummaryLengthBrief)
	assert.False(t, job.IsTerminal())

	job.Status = JobStatusPaused
	assert.False(t, job.IsTerminal())

	for _, status := range []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCancelled} {
		job.Status = status
		assert.True(t, job.IsTerminal(), string(status))
	}
}

func TestMarkCancelled(t *testing.T) {
	job := NewSummaryJob("job_1", []string{"A", "B"}, PublishModeLocal, SummaryLengthBrief)
	job.RecordItemResult(0, "A", false)

	job.MarkCancelled()

	assert.Equal(t, JobStatusCancelled, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Contains(t, job.Message, "1 of 2")
}
