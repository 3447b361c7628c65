package server

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"
	"upload-ai/config"
	"upload-ai/constant"
	"upload-ai/pkg/llm"
	"upload-ai/pkg/storage"
	"upload-ai/repository"
	"upload-ai/service"
)

type app struct {
	db                   *sql.DB
	repo                 repository.VideoRepository
	files                storage.FileStorage
	transcriptionService service.TranscriptionService
	completionService    service.CompletionService
}

func (a *app) Close() error {
	return a.db.Close()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := config.OpenDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	logLevel := logger.Warn
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		logLevel = logger.Info
	}
	repo, err := repository.NewRepo(db, constant.DatabaseDriver(cfg.Database.Driver), logLevel)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	files, err := newFileStorage(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if cfg.OpenAI.APIKey == "" {
		zerolog.Ctx(ctx).Warn().Msg("OPENAI_KEY is not set, provider calls will fail")
	}
	client := llm.NewOpenAIClient(llm.Config{
		APIKey:             cfg.OpenAI.APIKey,
		BaseURL:            cfg.OpenAI.BaseURL,
		TranscriptionModel: cfg.Transcription.Model,
		CompletionModel:    cfg.Completion.Model,
	})

	return &app{
		db:                   db,
		repo:                 repo,
		files:                files,
		transcriptionService: service.NewTranscriptionService(repo, files, client, cfg.Transcription.Language),
		completionService:    service.NewCompletionService(repo, client),
	}, nil
}

func newFileStorage(ctx context.Context, cfg *config.Config) (storage.FileStorage, error) {
	switch constant.StorageDriver(cfg.Storage.Driver) {
	case constant.StorageDriverLocal:
		return storage.NewLocal(cfg.Storage.LocalPath)
	case constant.StorageDriverMinIO:
		client, err := config.NewMinIOClient(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.MinIO.Bucket); err != nil {
			return nil, fmt.Errorf("minio bucket: %w", err)
		}
		return storage.NewMinIO(client, cfg.MinIO.Bucket), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
