// -----------------------------------------------------------------------
// Application Container - wires configuration, storage, services and
// handlers together for the server and CLI entry points
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/common"
	"github.com/ternarybob/precis/internal/handlers"
	"github.com/ternarybob/precis/internal/interfaces"
	"github.com/ternarybob/precis/internal/jobs"
	"github.com/ternarybob/precis/internal/services/events"
	"github.com/ternarybob/precis/internal/services/extraction"
	"github.com/ternarybob/precis/internal/services/library"
	"github.com/ternarybob/precis/internal/services/llm"
	"github.com/ternarybob/precis/internal/services/notify"
	"github.com/ternarybob/precis/internal/services/scheduler"
	"github.com/ternarybob/precis/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Collaborator services
	EventService   interfaces.EventService
	LibraryService interfaces.LibraryService
	Summarizer     interfaces.SummarizerService
	Notifier       interfaces.NotificationService
	Broadcaster    interfaces.ProgressBroadcaster

	// Job execution
	Registry     *jobs.Registry
	Worker       *jobs.Worker
	Orchestrator *jobs.Orchestrator
	Scheduler    *scheduler.Scheduler

	// HTTP handlers
	JobHandler *handlers.JobHandler
	WSHandler  *handlers.WebSocketHandler
	APIHandler *handlers.APIHandler
}

// New creates and wires the application container
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	eventService := events.NewService(logger)
	broadcaster := events.NewBroadcaster(eventService, logger)

	notifier, err := notify.NewNotifier(&config.Notify, eventService, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}

	libraryService, err := library.NewClient(&config.Library, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize library client: %w", err)
	}

	summarizer, err := llm.NewSummarizer(config, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize summarizer: %w", err)
	}

	extractor := extraction.NewEngine(logger)

	registry := jobs.NewRegistry(logger)
	worker := jobs.NewWorker(
		libraryService,
		summarizer,
		extractor,
		storageManager.JobStorage(),
		storageManager.SummaryStorage(),
		broadcaster,
		jobs.WorkerOptions{
			MaxInputChars: config.Summarize.MaxInputChars,
			NoteTag:       config.Summarize.NoteTag,
		},
		logger,
	)
	orchestrator := jobs.NewOrchestrator(
		storageManager.JobStorage(),
		storageManager.SummaryStorage(),
		worker,
		registry,
		broadcaster,
		notifier,
		logger,
	)

	recoveryScheduler := scheduler.NewScheduler(orchestrator, logger)

	application := &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		EventService:   eventService,
		LibraryService: libraryService,
		Summarizer:     summarizer,
		Notifier:       notifier,
		Broadcaster:    broadcaster,
		Registry:       registry,
		Worker:         worker,
		Orchestrator:   orchestrator,
		Scheduler:      recoveryScheduler,
		JobHandler:     handlers.NewJobHandler(orchestrator, config, logger),
		WSHandler:      handlers.NewWebSocketHandler(eventService, logger),
		APIHandler:     handlers.NewAPIHandler(logger),
	}

	return application, nil
}

// Start runs startup recovery and the background scheduler
func (a *App) Start(ctx context.Context) error {
	recovered, err := a.Orchestrator.RecoverJobs(ctx)
	if err != nil {
		return fmt.Errorf("startup recovery failed: %w", err)
	}
	if recovered > 0 {
		a.Logger.Info().Int("recovered", recovered).Msg("Recovered interrupted jobs at startup")
	}

	if a.Config.Scheduler.Enabled {
		if err := a.Scheduler.Start(a.Config.Scheduler.RecoverySchedule); err != nil {
			return fmt.Errorf("failed to start recovery scheduler: %w", err)
		}
	}

	return nil
}

// Close shuts down services in dependency order
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Orchestrator != nil {
		a.Orchestrator.Shutdown()
	}
	if a.Summarizer != nil {
		if err := a.Summarizer.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Summarizer close failed")
		}
	}
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Event service close failed")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("storage close failed: %w", err)
		}
	}
	return nil
}
