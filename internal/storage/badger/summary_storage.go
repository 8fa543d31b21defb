package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/interfaces"
	"github.com/ternarybob/precis/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SummaryStorage implements the SummaryStorage interface for Badger
type SummaryStorage struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewSummaryStorage creates a new SummaryStorage instance
func NewSummaryStorage(store *badgerhold.Store, logger arbor.ILogger) interfaces.SummaryStorage {
	return &SummaryStorage{
		store:  store,
		logger: logger,
	}
}

func (s *SummaryStorage) SaveSummary(ctx context.Context, summary *models.ItemSummary) error {
	if summary == nil {
		return fmt.Errorf("summary is required")
	}
	if summary.ItemID == "" {
		return fmt.Errorf("item ID is required")
	}

	if err := s.store.Upsert(summary.ItemID, summary); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

func (s *SummaryStorage) GetSummary(ctx context.Context, itemID string) (*models.ItemSummary, error) {
	var summary models.ItemSummary
	if err := s.store.Get(itemID, &summary); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrSummaryNotFound
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}

func (s *SummaryStorage) ListSummariesByJob(ctx context.Context, jobID string) ([]*models.ItemSummary, error) {
	var summaries []models.ItemSummary
	query := badgerhold.Where("JobID").Eq(jobID).SortBy("CreatedAt")
	if err := s.store.Find(&summaries, query); err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}

	result := make([]*models.ItemSummary, len(summaries))
	for i := range summaries {
		result[i] = &summaries[i]
	}
	return result, nil
}

func (s *SummaryStorage) DeleteSummary(ctx context.Context, itemID string) error {
	if err := s.store.Delete(itemID, &models.ItemSummary{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrSummaryNotFound
		}
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return nil
}
