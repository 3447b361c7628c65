package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"time"
	"upload-ai/constant"
	"upload-ai/entities"
)

var ErrVideoNotFound = errors.New("video not found")

type VideoRepository interface {
	GetDB() *gorm.DB
	Migrate(ctx context.Context) error
	CreateVideo(ctx context.Context, name, path string) (*entities.Video, error)
	FindVideoById(ctx context.Context, id uuid.UUID) (*entities.Video, error)
	// SetTranscription stores text only when the video has none yet and
	// returns the record as persisted afterwards, so a losing concurrent
	// writer observes the winner's value.
	SetTranscription(ctx context.Context, id uuid.UUID, text string) (*entities.Video, error)
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB, driver constant.DatabaseDriver, logLevel logger.LogLevel) (VideoRepository, error) {
	var dialector gorm.Dialector
	switch driver {
	case constant.DatabaseDriverPostgres:
		dialector = postgres.New(postgres.Config{Conn: db})
	case constant.DatabaseDriverSQLite:
		dialector = &sqlite.Dialector{Conn: db}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}
	return &repo{
		db: gormDB,
	}, nil
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) Migrate(ctx context.Context) error {
	return r.GetDB().WithContext(ctx).AutoMigrate(&entities.Video{})
}

func (r *repo) CreateVideo(ctx context.Context, name, path string) (*entities.Video, error) {
	video := &entities.Video{
		ID:        uuid.New(),
		Name:      name,
		Path:      path,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.GetDB().WithContext(ctx).Create(video).Error; err != nil {
		return nil, err
	}
	return video, nil
}

func (r *repo) FindVideoById(ctx context.Context, id uuid.UUID) (*entities.Video, error) {
	video := &entities.Video{}
	err := r.GetDB().WithContext(ctx).First(video, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}

	return video, nil
}

func (r *repo) SetTranscription(ctx context.Context, id uuid.UUID, text string) (*entities.Video, error) {
	err := r.GetDB().WithContext(ctx).
		Model(&entities.Video{}).
		Where("id = ? AND (transcription IS NULL OR transcription = '')", id).
		Update("transcription", text).Error
	if err != nil {
		return nil, err
	}

	return r.FindVideoById(ctx, id)
}
