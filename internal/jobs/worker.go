// -----------------------------------------------------------------------
// Pipeline Worker - sequential per-item processing loop
// Acquire -> Extract -> Summarize -> Publish for each item, absorbing
// item-level failures into the job record and honoring cooperative
// cancellation between items.
// -----------------------------------------------------------------------

package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/interfaces"
	"github.com/ternarybob/precis/internal/models"
	"github.com/ternarybob/precis/internal/services/extraction"
)

// Worker executes the per-item pipeline for one job at a time. Items are
// strictly sequential within a job; the orchestrator provides one goroutine
// per running job.
type Worker struct {
	library       interfaces.LibraryService
	summarizer    interfaces.SummarizerService
	extractor     *extraction.Engine
	jobStore      interfaces.JobStorage
	summaryStore  interfaces.SummaryStorage
	broadcaster   interfaces.ProgressBroadcaster
	logger        arbor.ILogger
	maxInputChars int
	noteTag       string
}

// WorkerOptions carries the summarization preferences the worker needs
type WorkerOptions struct {
	MaxInputChars int
	NoteTag       string
}

// NewWorker creates a pipeline worker
func NewWorker(
	library interfaces.LibraryService,
	summarizer interfaces.SummarizerService,
	extractor *extraction.Engine,
	jobStore interfaces.JobStorage,
	summaryStore interfaces.SummaryStorage,
	broadcaster interfaces.ProgressBroadcaster,
	opts WorkerOptions,
	logger arbor.ILogger,
) *Worker {
	maxInput := opts.MaxInputChars
	if maxInput <= 0 {
		maxInput = 100000
	}
	return &Worker{
		library:       library,
		summarizer:    summarizer,
		extractor:     extractor,
		jobStore:      jobStore,
		summaryStore:  summaryStore,
		broadcaster:   broadcaster,
		logger:        logger,
		maxInputChars: maxInput,
		noteTag:       opts.NoteTag,
	}
}

// ProcessItems runs the pipeline over items, recording results into job at
// cursor positions startOffset, startOffset+1, ... A failed item is recorded
// and the loop continues; cancellation exits the loop with the context error
// and leaves the job record non-terminal for the orchestrator to settle.
func (w *Worker) ProcessItems(ctx context.Context, job *models.SummaryJob, items []string, startOffset int) error {
	for i, itemID := range items {
		// Cancellation checkpoint before each item
		if err := ctx.Err(); err != nil {
			w.logger.Debug().
				Str("job_id", job.ID).
				Int("cursor", startOffset+i).
				Msg("Pipeline loop observed cancellation")
			return err
		}

		itemErr := w.processItem(ctx, job, itemID, startOffset+i)
		if itemErr != nil {
			// A cancellation surfacing mid-item is a control-flow exit,
			// not an item failure
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Warn().
				Err(itemErr).
				Str("job_id", job.ID).
				Str("item_id", itemID).
				Msg("Item processing failed")
		}

		job.RecordItemResult(startOffset+i, itemID, itemErr != nil)
		if err := w.saveProgress(ctx, job); err != nil {
			return fmt.Errorf("failed to persist job progress: %w", err)
		}
		w.broadcaster.Update(ctx, job.ID, progressState(job))
	}

	return nil
}

// saveProgress copies the loop's progress fields onto the stored record and
// persists it. The stored status is authoritative: a pause or cancel
// transition may have rewritten the record while an item was in flight, and
// a full-record save here would resurrect the processing status. Once the
// stored record is no longer processing the loop's writes stop.
func (w *Worker) saveProgress(ctx context.Context, job *models.SummaryJob) error {
	stored, err := w.jobStore.GetJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if stored.Status != models.JobStatusProcessing {
		w.logger.Debug().
			Str("job_id", job.ID).
			Str("status", string(stored.Status)).
			Msg("Skipping progress write, job no longer processing")
		return nil
	}

	stored.ProcessedItems = job.ProcessedItems
	stored.CurrentIndex = job.CurrentIndex
	stored.FailedItemIDs = job.FailedItemIDs
	stored.Message = job.Message
	return w.jobStore.SaveJob(ctx, stored)
}

// processItem runs the four pipeline stages for a single item
func (w *Worker) processItem(ctx context.Context, job *models.SummaryJob, itemID string, cursor int) error {
	// Stage 1: Acquire
	w.setStage(ctx, job, fmt.Sprintf("Fetching document %d of %d…", cursor+1, job.TotalItems))

	ref, err := w.library.FetchAttachmentMetadata(ctx, itemID)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	data, err := w.library.DownloadAttachment(ctx, ref)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}

	// Stage 2: Extract
	w.setStage(ctx, job, "Extracting text…")

	source, err := w.openSource(ref, data)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	defer source.Close()

	text, err := w.extractor.Extract(ctx, source, func(unit, total int) {
		// Per-unit progress keeps long extractions observable; persisted
		// only at stage boundaries to bound write volume
		w.broadcaster.Update(ctx, job.ID, progressStateWithMessage(job,
			fmt.Sprintf("Extracting text (page %d of %d)…", unit, total)))
	})
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	// Stage 3: Summarize
	w.setStage(ctx, job, "Generating summary…")

	input := truncateRunes(text, w.maxInputChars)
	result, err := w.summarizer.Summarize(ctx, input, job.Length)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	summary := &models.ItemSummary{
		ItemID:     itemID,
		JobID:      job.ID,
		Title:      ref.Title,
		Content:    result.Text,
		Confidence: clampConfidence(result.Confidence),
		CreatedAt:  time.Now(),
	}

	// Stage 4: Publish
	if job.Publish == models.PublishModeNote {
		w.setStage(ctx, job, "Publishing summary…")

		noteID, err := w.library.PublishNote(ctx, itemID, renderNote(summary), w.noteTag)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		summary.NoteID = noteID
	} else {
		summary.LocalOnly = true
	}

	if err := w.summaryStore.SaveSummary(ctx, summary); err != nil {
		return fmt.Errorf("publish: failed to store summary: %w", err)
	}

	return nil
}

// openSource picks the document source for the attachment's content type
func (w *Worker) openSource(ref *interfaces.AttachmentRef, data []byte) (extraction.DocumentSource, error) {
	if isPDF(ref) {
		return extraction.NewPDFSource(w.logger, data)
	}
	return extraction.NewTextSource(string(data)), nil
}

// setStage persists a stage-transition message and broadcasts it.
// Best-effort: a persistence or broadcast failure never fails the item.
func (w *Worker) setStage(ctx context.Context, job *models.SummaryJob, message string) {
	job.Message = message
	if err := w.saveProgress(ctx, job); err != nil {
		w.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist stage message")
	}
	w.broadcaster.Update(ctx, job.ID, progressState(job))
}

func isPDF(ref *interfaces.AttachmentRef) bool {
	if strings.EqualFold(ref.ContentType, "application/pdf") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(ref.Filename), ".pdf")
}

// renderNote wraps the summary content for note upload
func renderNote(summary *models.ItemSummary) string {
	var b strings.Builder
	b.WriteString("<div>")
	if summary.Title != "" {
		b.WriteString("<p><b>Summary: ")
		b.WriteString(summary.Title)
		b.WriteString("</b></p>")
	}
	for _, para := range strings.Split(summary.Content, "\n\n") {
		b.WriteString("<p>")
		b.WriteString(para)
		b.WriteString("</p>")
	}
	b.WriteString("</div>")
	return b.String()
}

// truncateRunes returns the first max runes of text
func truncateRunes(text string, max int) string {
	if len(text) <= max {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// clampConfidence clamps reported scores into [0,1]; unreported scores
// (negative) pass through as -1
func clampConfidence(c float64) float64 {
	if c < 0 {
		return -1
	}
	if c > 1 {
		return 1
	}
	return c
}

func progressState(job *models.SummaryJob) interfaces.JobProgressState {
	return progressStateWithMessage(job, job.Message)
}

func progressStateWithMessage(job *models.SummaryJob, message string) interfaces.JobProgressState {
	return interfaces.JobProgressState{
		JobID:          job.ID,
		Status:         string(job.Status),
		Message:        message,
		ProcessedItems: job.ProcessedItems,
		TotalItems:     job.TotalItems,
		FailedItems:    len(job.FailedItemIDs),
		Progress:       job.Progress(),
	}
}
