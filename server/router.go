package server

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"net/http"
	"upload-ai/dto"
	"upload-ai/pkg/storage"
	"upload-ai/repository"
	"upload-ai/service"
)

// TranscriptionDispatcher queues a transcription for the worker.
type TranscriptionDispatcher interface {
	Publish(ctx context.Context, message dto.TranscriptionJobMessage) error
}

type Dependencies struct {
	Repo                 repository.VideoRepository
	Files                storage.FileStorage
	TranscriptionService service.TranscriptionService
	CompletionService    service.CompletionService
	// Dispatcher is nil when no broker is configured.
	Dispatcher     TranscriptionDispatcher
	MaxUploadBytes int64
	CORSOrigins    []string
}

func NewRouter(ctx context.Context, deps Dependencies) http.Handler {
	r := gin.Default()
	r.Use(withLogger(ctx))
	addHealth(r)

	h := &handlers{deps: deps}
	r.POST("/videos", h.uploadVideo)
	r.POST("/videos/:videoId/transcription", h.createTranscription)
	r.POST("/ai/generate", h.generateCompletion)

	return cors.Handler(corsOptions(deps.CORSOrigins))(r)
}

func corsOptions(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}

	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}

// withLogger makes the root logger reachable through zerolog.Ctx in handlers.
func withLogger(ctx context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(ctx)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func statusFor(err error) int {
	var providerErr *service.ProviderError
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrMissingPrerequisite):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: msg})
}
