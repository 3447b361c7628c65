package rabbitmq

import (
	"context"
	"encoding/json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"sync"
	"upload-ai/config"
)

type Publisher[M any] interface {
	Publish(ctx context.Context, message M) error
}

type publisher[M any] struct {
	conn     *amqp.Connection
	cfg      *config.RabbitMQ
	topology Topology

	mu       sync.Mutex
	declared bool
}

func (p *publisher[M]) Publish(ctx context.Context, message M) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	p.mu.Lock()
	if !p.declared {
		if err := declare(ch, p.cfg, p.topology); err != nil {
			p.mu.Unlock()
			zerolog.Ctx(ctx).Error().Err(err).Str("exchange", p.topology.Exchange).Msg("failed to declare topology")
			return err
		}
		p.declared = true
	}
	p.mu.Unlock()

	err = ch.PublishWithContext(
		ctx,
		p.topology.Exchange,
		p.topology.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("exchange", p.topology.Exchange).Str("routing_key", p.topology.RoutingKey).Msg("message published")
	return nil
}

func NewPublisher[M any](conn *amqp.Connection, cfg *config.RabbitMQ, topology Topology) Publisher[M] {
	return &publisher[M]{
		conn:     conn,
		cfg:      cfg,
		topology: topology,
	}
}
