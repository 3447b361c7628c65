package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"path"
	"upload-ai/entities"
	"upload-ai/pkg/llm"
	"upload-ai/pkg/storage"
	"upload-ai/repository"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, req llm.TranscriptionRequest) (string, error)
}

type TranscriptionService interface {
	// Transcribe returns the cached transcription of a video, or produces
	// and stores it on the first successful call.
	Transcribe(ctx context.Context, videoId string, prompt string) (string, error)
}

type transcriptionService struct {
	repo     repository.VideoRepository
	storage  storage.FileStorage
	stt      SpeechToText
	language string
	inflight singleflight.Group
}

func NewTranscriptionService(repo repository.VideoRepository, files storage.FileStorage, stt SpeechToText, language string) TranscriptionService {
	return &transcriptionService{
		repo:     repo,
		storage:  files,
		stt:      stt,
		language: language,
	}
}

func (s *transcriptionService) Transcribe(ctx context.Context, videoId string, prompt string) (string, error) {
	id, err := uuid.Parse(videoId)
	if err != nil {
		return "", validationError("invalid video id %q", videoId)
	}

	video, err := findVideo(ctx, s.repo, id)
	if err != nil {
		return "", err
	}

	if video.HasTranscription() {
		zerolog.Ctx(ctx).Debug().Str("video_id", videoId).Msg("transcription served from cache")
		return *video.Transcription, nil
	}

	// Concurrent requests for the same video share one provider call. The
	// shared call outlives any single caller so one disconnect does not fail
	// the others.
	ch := s.inflight.DoChan(id.String(), func() (any, error) {
		return s.transcribe(context.WithoutCancel(ctx), video, prompt)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *transcriptionService) transcribe(ctx context.Context, video *entities.Video, prompt string) (string, error) {
	logger := zerolog.Ctx(ctx).With().Str("video_id", video.ID.String()).Logger()

	audio, err := s.storage.Open(ctx, video.Path)
	if err != nil {
		logger.Error().Err(err).Str("path", video.Path).Msg("failed to open stored file")
		return "", fmt.Errorf("open stored file %s: %w", video.Path, err)
	}
	defer audio.Close()

	logger.Info().Str("language", s.language).Msg("requesting transcription")
	text, err := s.stt.Transcribe(ctx, llm.TranscriptionRequest{
		Audio:    audio,
		FileName: path.Base(video.Path),
		Language: s.language,
		Prompt:   prompt,
	})
	if err != nil {
		logger.Error().Err(err).Msg("transcription provider failed")
		return "", &ProviderError{Op: "transcription", Err: err}
	}

	stored, err := s.repo.SetTranscription(ctx, video.ID, text)
	if err != nil {
		logger.Error().Err(err).Msg("failed to store transcription")
		return "", err
	}

	logger.Info().Int("chars", len(text)).Msg("transcription stored")
	if stored.HasTranscription() {
		return *stored.Transcription, nil
	}
	return text, nil
}

func findVideo(ctx context.Context, repo repository.VideoRepository, id uuid.UUID) (*entities.Video, error) {
	video, err := repo.FindVideoById(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		zerolog.Ctx(ctx).Error().Err(err).Str("video_id", id.String()).Msg("failed to find video by id")
		return nil, err
	}
	return video, nil
}
