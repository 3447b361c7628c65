package handler

import (
	"context"
	"encoding/json"
	"errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"upload-ai/dto"
	"upload-ai/service"
)

type ServiceDependencies struct {
	TranscriptionService service.TranscriptionService
}

// TranscriptionJobHandler runs one queued transcription request. Returning an
// error dead-letters the message.
func TranscriptionJobHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var job dto.TranscriptionJobMessage
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal transcription message")
		return errors.Join(service.ErrValidation, err)
	}

	logger := zerolog.Ctx(ctx).With().Str("video_id", job.VideoId.String()).Logger()
	logger.Info().Msg("received transcription message")

	text, err := deps.TranscriptionService.Transcribe(logger.WithContext(ctx), job.VideoId.String(), job.Prompt)
	if err != nil {
		return err
	}

	logger.Info().Int("length", len(text)).Msg("transcription stored")
	return nil
}
