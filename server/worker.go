package server

import (
	"errors"
	"github.com/rs/zerolog"
	"os/signal"
	"syscall"
	"upload-ai/config"
	"upload-ai/handler"
	"upload-ai/pkg/rabbitmq"
)

// RunWorker consumes queued transcription requests until interrupted.
func RunWorker(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cfg.Queue.Enabled() {
		return errors.New("rabbitmq is not configured, set RABBITMQ_HOST")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to initialise dependencies")
		return err
	}
	defer a.Close()

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		return err
	}

	serviceDeps := handler.ServiceDependencies{
		TranscriptionService: a.transcriptionService,
	}

	transcriptionConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, rabbitmq.TranscriptionTopology, cfg.Server.Workers, handler.TranscriptionJobHandler)
	err = transcriptionConsumer.Consume(ctx, serviceDeps)
	if err != nil && !errors.Is(err, ctx.Err()) {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Transcription consumer error")
		return err
	}

	zerolog.Ctx(ctx).Info().Msg("worker shutdown")
	return nil
}
