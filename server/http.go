package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"upload-ai/config"
	"upload-ai/constant"
	"upload-ai/dto"
	"upload-ai/pkg/rabbitmq"
)

func RunHttp(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to initialise dependencies")
		return err
	}
	defer a.Close()

	deps := Dependencies{
		Repo:                 a.repo,
		Files:                a.files,
		TranscriptionService: a.transcriptionService,
		CompletionService:    a.completionService,
		MaxUploadBytes:       cfg.Server.MaxUploadBytes,
		CORSOrigins:          cfg.Server.CORSOrigins,
	}

	if cfg.Queue.Enabled() {
		conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
		} else {
			deps.Dispatcher = rabbitmq.NewPublisher[dto.TranscriptionJobMessage](conn, cfg.Queue, rabbitmq.TranscriptionTopology)
		}
	}

	handler := http.Server{
		Handler:           NewRouter(ctx, deps),
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Str("addr", handler.Addr).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
			cancel()
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer stop()
	if err := handler.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
	return nil
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
