package rabbitmq

import (
	"context"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"sync"
	"upload-ai/config"
)

type Consumer[T any] interface {
	Consume(ctx context.Context, dependencies T) error
}

type consumer[T any] struct {
	conn       *amqp.Connection
	cfg        *config.RabbitMQ
	topology   Topology
	handler    func(ctx context.Context, msg amqp.Delivery, dependencies T) error
	numWorkers int
}

func (c consumer[T]) Consume(ctx context.Context, dependencies T) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	queueName := c.topology.Queue
	if err := declare(ch, c.cfg, c.topology); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("queue", queueName).Msg("failed to declare topology")
		return err
	}

	err = ch.Qos(c.numWorkers, 0, false)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", queueName).Msg("failed to set QoS")
		return err
	}

	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", queueName).Msg("failed to consume queue")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("queue", queueName).
		Str("exchange", c.topology.Exchange).
		Str("routing_key", c.topology.RoutingKey).
		Int("workers", c.numWorkers).
		Msg("consumer started")

	jobs := make(chan amqp.Delivery, c.numWorkers)
	var wg sync.WaitGroup
	for i := 1; i <= c.numWorkers; i++ {
		wg.Add(1)
		go func(workerId int) {
			defer wg.Done()
			for msg := range jobs {
				handle(ctx, workerId, msg, dependencies, c.handler)
			}
		}(i)
	}

	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				close(jobs)
				wg.Wait()
				return nil
			}

			jobs <- delivery
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
}

// handle attempts a delivery once. Failures are rejected without requeue so
// the broker dead-letters them.
func handle[T any](ctx context.Context, workerId int, msg amqp.Delivery, dependencies T, handler func(context.Context, amqp.Delivery, T) error) {
	if err := handler(ctx, msg, dependencies); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("worker_id", workerId).Msg("failed to handle message")
		if nackErr := msg.Nack(false, false); nackErr != nil {
			zerolog.Ctx(ctx).Error().Err(nackErr).Msg("failed to nack message to send to DLQ")
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to acknowledge message")
	}
}

func NewConsumer[T any](
	conn *amqp.Connection,
	cfg *config.RabbitMQ,
	topology Topology,
	numWorkers int,
	handler func(ctx context.Context, msg amqp.Delivery, dependencies T) error,
) Consumer[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &consumer[T]{
		conn:       conn,
		cfg:        cfg,
		topology:   topology,
		handler:    handler,
		numWorkers: numWorkers,
	}
}
