package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upload-ai/dto"
	"upload-ai/service"
)

type stubTranscription struct {
	videoId string
	prompt  string
	err     error
}

func (s *stubTranscription) Transcribe(_ context.Context, videoId string, prompt string) (string, error) {
	s.videoId = videoId
	s.prompt = prompt
	return "hello world", s.err
}

func TestTranscriptionJobHandler(t *testing.T) {
	stub := &stubTranscription{}
	id := uuid.New()
	body, err := json.Marshal(dto.TranscriptionJobMessage{VideoId: id, Prompt: "hint"})
	require.NoError(t, err)

	err = TranscriptionJobHandler(context.Background(), amqp.Delivery{Body: body}, ServiceDependencies{TranscriptionService: stub})
	require.NoError(t, err)
	assert.Equal(t, id.String(), stub.videoId)
	assert.Equal(t, "hint", stub.prompt)
}

func TestTranscriptionJobHandler_BadPayload(t *testing.T) {
	err := TranscriptionJobHandler(context.Background(), amqp.Delivery{Body: []byte("{")}, ServiceDependencies{TranscriptionService: &stubTranscription{}})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestTranscriptionJobHandler_PropagatesServiceError(t *testing.T) {
	stub := &stubTranscription{err: &service.ProviderError{Op: "transcription", Err: errors.New("503")}}
	body, _ := json.Marshal(dto.TranscriptionJobMessage{VideoId: uuid.New()})

	err := TranscriptionJobHandler(context.Background(), amqp.Delivery{Body: body}, ServiceDependencies{TranscriptionService: stub})
	var pe *service.ProviderError
	assert.ErrorAs(t, err, &pe)
}
