package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"exercisehub/internal/config"
	"exercisehub/internal/identity"
	"exercisehub/internal/repository"
	"exercisehub/internal/service"
	"exercisehub/internal/settings"
)

// App bundles the stores and services shared by the server and the CLI
type App struct {
	Config        *config.Config
	Exercises     repository.ExerciseRepo
	Presentations repository.PresentationRepo
	Submissions   repository.SubmissionRepo

	Sync        *service.SyncService
	SubmitLog   *service.SubmissionService
	Hooks       *service.ExerciseService
	Validator   *settings.Validator
	Template    settings.Template
	closeClient func(context.Context) error
}

// Open connects the configured store and builds the services on top of it
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	validator := settings.NewValidator()
	template, err := config.LoadTemplate(cfg.SettingsTemplatePath, validator)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Validator: validator, Template: template}

	switch cfg.StoreDriver {
	case config.DriverMemory:
		store := repository.NewMemoryStore(validator)
		a.Exercises = store.Exercises()
		a.Presentations = store.Presentations()
		a.Submissions = store.Submissions()
		log.Println("Using in-memory store")

	default:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			client.Disconnect(ctx)
			return nil, fmt.Errorf("ping MongoDB: %w", err)
		}
		log.Println("Connected to MongoDB")

		db := client.Database(cfg.MongoDatabase)
		a.Exercises = repository.NewExerciseRepo(db, validator)
		a.Presentations = repository.NewPresentationRepo(db)
		a.Submissions = repository.NewSubmissionRepo(db)
		a.closeClient = client.Disconnect

		if err := a.Submissions.EnsureIndexes(ctx); err != nil {
			log.Printf("Warning: submission indexes not created: %v", err)
		}
	}

	a.Sync = service.NewSyncService(a.Exercises, a.Presentations, identity.NewAssigner(nil), template,
		service.SyncOptions{ExerciseTag: cfg.ExerciseTag, QuestionTags: cfg.QuestionTags})
	a.SubmitLog = service.NewSubmissionService(a.Submissions, a.Exercises)
	a.Hooks = service.NewExerciseService(a.Sync, a.SubmitLog)
	a.Hooks.SetControllerRole(cfg.ControllerRole)

	return a, nil
}

// Close waits for pending broadcasts and releases the store connection
func (a *App) Close(ctx context.Context) error {
	a.SubmitLog.Wait()
	if a.closeClient != nil {
		return a.closeClient(ctx)
	}
	return nil
}
