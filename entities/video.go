package entities

import (
	"github.com/google/uuid"
	"time"
)

type Video struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null"`
	Path          string    `json:"path" gorm:"type:varchar(500);not null"`
	Transcription *string   `json:"transcription" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`
}

func (Video) TableName() string {
	return "videos"
}

// HasTranscription reports whether a non-empty transcription is cached.
func (v *Video) HasTranscription() bool {
	return v.Transcription != nil && *v.Transcription != ""
}
