package badger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/common"
	"github.com/ternarybob/precis/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// Manager owns the Badger connection and its typed stores
type Manager struct {
	store     *badgerhold.Store
	jobs      interfaces.JobStorage
	summaries interfaces.SummaryStorage
	logger    arbor.ILogger
}

// NewManager opens the database and wires up the stores
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	store, err := openStore(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		store:     store,
		jobs:      NewJobStorage(store, logger),
		summaries: NewSummaryStorage(store, logger),
		logger:    logger,
	}, nil
}

// openStore opens the badgerhold store at the configured path, wiping the
// directory first when reset_on_startup is set
func openStore(logger arbor.ILogger, config *common.BadgerConfig) (*badgerhold.Store, error) {
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Debug().Str("path", config.Path).Msg("Deleting existing database (reset_on_startup=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to delete database directory")
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // Disable default badger logger to use arbor

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Badger database opened")
	return store, nil
}

func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.jobs
}

func (m *Manager) SummaryStorage() interfaces.SummaryStorage {
	return m.summaries
}

// Close closes the underlying database connection
func (m *Manager) Close() error {
	m.logger.Debug().Msg("Closing storage manager")
	return m.store.Close()
}
