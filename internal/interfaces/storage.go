package interfaces

import (
	"context"

	"github.com/ternarybob/precis/internal/models"
)

// JobListOptions controls job listing queries
type JobListOptions struct {
	Status models.JobStatus
	Limit  int
	Offset int
}

// JobStorage persists summary job records. Implementations must provide
// transactional per-record saves; the orchestrator and pipeline worker are
// the only writers.
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.SummaryJob) error
	GetJob(ctx context.Context, jobID string) (*models.SummaryJob, error)
	ListJobs(ctx context.Context, opts *JobListOptions) ([]*models.SummaryJob, error)

	// ListIncomplete returns all non-terminal jobs ordered newest first,
	// for crash recovery.
	ListIncomplete(ctx context.Context) ([]*models.SummaryJob, error)

	CountJobsByStatus(ctx context.Context, status models.JobStatus) (int, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// SummaryStorage persists generated summaries keyed by item ID
type SummaryStorage interface {
	SaveSummary(ctx context.Context, summary *models.ItemSummary) error
	GetSummary(ctx context.Context, itemID string) (*models.ItemSummary, error)
	ListSummariesByJob(ctx context.Context, jobID string) ([]*models.ItemSummary, error)
	DeleteSummary(ctx context.Context, itemID string) error
}

// StorageManager owns the database connection and its typed stores
type StorageManager interface {
	JobStorage() JobStorage
	SummaryStorage() SummaryStorage
	Close() error
}
