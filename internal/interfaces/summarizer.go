package interfaces

import (
	"context"

	"github.com/ternarybob/precis/internal/models"
)

// SummaryResult is the summarizer's output for one document
type SummaryResult struct {
	Text string

	// Confidence in [0,1] when the provider reports one; negative when
	// the provider gave no usable score. Callers clamp, never reject.
	Confidence float64
}

// SummarizerService generates a summary for extracted document text.
// Implementations are expected to respect context cancellation; the input
// is already truncated to fit the provider's context window by the caller.
type SummarizerService interface {
	Summarize(ctx context.Context, text string, length models.SummaryLength) (*SummaryResult, error)
	Close() error
}
