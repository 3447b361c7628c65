package dto

import (
	"github.com/google/uuid"
	"time"
)

type VideoResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	Transcription *string   `json:"transcription,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type UploadVideoResponse struct {
	Video VideoResponse `json:"video"`
}

// Prompt is a pointer so an empty string stays legal while a missing field
// fails binding.
type CreateTranscriptionRequest struct {
	Prompt *string `json:"prompt" binding:"required"`
}

type CreateTranscriptionResponse struct {
	Transcription string `json:"transcription"`
}

type TranscriptionAcceptedResponse struct {
	VideoId uuid.UUID `json:"videoId"`
	Status  string    `json:"status"`
}

// GenerateCompletionRequest leaves Temperature nil when the caller omits it so
// the service can apply its default.
type GenerateCompletionRequest struct {
	VideoId     string   `json:"videoId" binding:"required,uuid"`
	Prompt      *string  `json:"prompt" binding:"required"`
	Temperature *float64 `json:"temperature" binding:"omitempty,gte=0,lte=1"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type TranscriptionJobMessage struct {
	VideoId uuid.UUID `json:"videoId"`
	Prompt  string    `json:"prompt"`
}
