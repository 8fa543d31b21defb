package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/interfaces"
	"github.com/ternarybob/precis/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// JobStorage implements the JobStorage interface for Badger
type JobStorage struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(store *badgerhold.Store, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{
		store:  store,
		logger: logger,
	}
}

func (s *JobStorage) SaveJob(ctx context.Context, job *models.SummaryJob) error {
	if job == nil {
		return fmt.Errorf("job is required")
	}
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}

	if err := s.store.Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (s *JobStorage) GetJob(ctx context.Context, jobID string) (*models.SummaryJob, error) {
	var job models.SummaryJob
	if err := s.store.Get(jobID, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (s *JobStorage) ListJobs(ctx context.Context, opts *interfaces.JobListOptions) ([]*models.SummaryJob, error) {
	query := badgerhold.Where("ID").Ne("")

	if opts != nil {
		if opts.Status != "" {
			query = query.And("Status").Eq(opts.Status)
		}
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
	}

	// Newest first
	query = query.SortBy("CreatedAt").Reverse()

	var jobs []models.SummaryJob
	if err := s.store.Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	result := make([]*models.SummaryJob, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}

// ListIncomplete returns jobs left in a non-terminal state, newest first.
// Used by startup recovery and the orphan sweep.
func (s *JobStorage) ListIncomplete(ctx context.Context) ([]*models.SummaryJob, error) {
	query := badgerhold.Where("Status").In(
		models.JobStatusQueued,
		models.JobStatusProcessing,
		models.JobStatusPaused,
	).SortBy("CreatedAt").Reverse()

	var jobs []models.SummaryJob
	if err := s.store.Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list incomplete jobs: %w", err)
	}

	result := make([]*models.SummaryJob, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}

func (s *JobStorage) CountJobsByStatus(ctx context.Context, status models.JobStatus) (int, error) {
	count, err := s.store.Count(&models.SummaryJob{}, badgerhold.Where("Status").Eq(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return int(count), nil
}

func (s *JobStorage) DeleteJob(ctx context.Context, jobID string) error {
	if err := s.store.Delete(jobID, &models.SummaryJob{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrJobNotFound
		}
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}
