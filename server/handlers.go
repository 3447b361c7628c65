package server

import (
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"upload-ai/dto"
	"upload-ai/entities"
	"upload-ai/repository"
	"upload-ai/service"
)

const (
	audioExtension   = ".mp3"
	audioContentType = "audio/mpeg"
)

type handlers struct {
	deps Dependencies
}

func toVideoResponse(v *entities.Video) dto.VideoResponse {
	return dto.VideoResponse{
		ID:            v.ID,
		Name:          v.Name,
		Path:          v.Path,
		Transcription: v.Transcription,
		CreatedAt:     v.CreatedAt,
	}
}

func (h *handlers) uploadVideo(c *gin.Context) {
	ctx := c.Request.Context()
	if h.deps.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.deps.MaxUploadBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: fmt.Sprintf("file exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "missing file input"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext != audioExtension {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid input type, please upload a MP3"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer f.Close()

	base := strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename))
	key := fmt.Sprintf("videos/%s-%s%s", uuid.NewString(), base, audioExtension)
	if err := h.deps.Files.Save(ctx, key, f, fh.Size, audioContentType); err != nil {
		abortWithError(c, err)
		return
	}

	video, err := h.deps.Repo.CreateVideo(ctx, fh.Filename, key)
	if err != nil {
		if rmErr := h.deps.Files.Remove(ctx, key); rmErr != nil {
			zerolog.Ctx(ctx).Error().Err(rmErr).Str("path", key).Msg("failed to remove orphaned upload")
		}
		abortWithError(c, err)
		return
	}

	zerolog.Ctx(ctx).Info().Str("video_id", video.ID.String()).Int64("size", fh.Size).Msg("video uploaded")
	c.JSON(http.StatusOK, dto.UploadVideoResponse{Video: toVideoResponse(video)})
}

func (h *handlers) createTranscription(c *gin.Context) {
	ctx := c.Request.Context()
	videoId := c.Param("videoId")

	var req dto.CreateTranscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if c.Query("async") == "true" {
		h.dispatchTranscription(c, videoId, *req.Prompt)
		return
	}

	text, err := h.deps.TranscriptionService.Transcribe(ctx, videoId, *req.Prompt)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreateTranscriptionResponse{Transcription: text})
}

func (h *handlers) dispatchTranscription(c *gin.Context, videoId, prompt string) {
	ctx := c.Request.Context()
	if h.deps.Dispatcher == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: "async transcription is not enabled"})
		return
	}

	id, err := uuid.Parse(videoId)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: fmt.Sprintf("invalid video id %q", videoId)})
		return
	}

	video, err := h.deps.Repo.FindVideoById(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			err = fmt.Errorf("%w: %s", service.ErrNotFound, id)
		}
		abortWithError(c, err)
		return
	}
	if video.HasTranscription() {
		c.JSON(http.StatusOK, dto.CreateTranscriptionResponse{Transcription: *video.Transcription})
		return
	}

	if err := h.deps.Dispatcher.Publish(ctx, dto.TranscriptionJobMessage{VideoId: id, Prompt: prompt}); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.TranscriptionAcceptedResponse{VideoId: id, Status: "queued"})
}

func (h *handlers) generateCompletion(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	chunks, err := h.deps.CompletionService.Generate(ctx, service.GenerateInput{
		VideoId:     req.VideoId,
		Prompt:      *req.Prompt,
		Temperature: req.Temperature,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Status(http.StatusOK)

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			if chunk.Err != nil {
				zerolog.Ctx(ctx).Error().Err(chunk.Err).Str("video_id", req.VideoId).Msg("completion stream failed")
				return
			}
			if _, err := io.WriteString(c.Writer, chunk.Text); err != nil {
				return
			}
			c.Writer.Flush()
		case <-ctx.Done():
			return
		}
	}
}
