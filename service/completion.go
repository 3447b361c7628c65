package service

import (
	"context"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"strings"
	"upload-ai/constant"
	"upload-ai/pkg/llm"
	"upload-ai/repository"
)

const DefaultTemperature = 0.5

type CompletionStreamer interface {
	StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error)
}

type GenerateInput struct {
	VideoId     string
	Prompt      string
	Temperature *float64
}

type CompletionService interface {
	// Generate streams a completion for a prompt template seeded with the
	// video's transcription. The channel closes when the provider stream ends.
	Generate(ctx context.Context, input GenerateInput) (<-chan llm.Chunk, error)
}

type completionService struct {
	repo     repository.VideoRepository
	streamer CompletionStreamer
}

func NewCompletionService(repo repository.VideoRepository, streamer CompletionStreamer) CompletionService {
	return &completionService{
		repo:     repo,
		streamer: streamer,
	}
}

func (s *completionService) Generate(ctx context.Context, input GenerateInput) (<-chan llm.Chunk, error) {
	temperature := DefaultTemperature
	if input.Temperature != nil {
		temperature = *input.Temperature
	}
	if temperature < 0 || temperature > 1 {
		return nil, validationError("temperature must be between 0 and 1, got %v", temperature)
	}

	id, err := uuid.Parse(input.VideoId)
	if err != nil {
		return nil, validationError("invalid video id %q", input.VideoId)
	}

	video, err := findVideo(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !video.HasTranscription() {
		return nil, ErrMissingPrerequisite
	}

	zerolog.Ctx(ctx).Info().
		Str("video_id", input.VideoId).
		Float64("temperature", temperature).
		Msg("opening completion stream")

	chunks, err := s.streamer.StreamCompletion(ctx, llm.CompletionRequest{
		Prompt:      BuildPrompt(input.Prompt, *video.Transcription),
		Temperature: temperature,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("completion provider failed")
		return nil, &ProviderError{Op: "completion", Err: err}
	}
	return chunks, nil
}

// BuildPrompt substitutes the first transcription placeholder in template.
func BuildPrompt(template, transcription string) string {
	return strings.Replace(template, constant.TranscriptionPlaceholder, transcription, 1)
}
