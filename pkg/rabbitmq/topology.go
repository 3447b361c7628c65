package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"upload-ai/config"
	"upload-ai/constant"
)

// Topology names the exchange, queue and dead-letter pair of one work queue.
type Topology struct {
	Exchange      string
	Queue         string
	RoutingKey    string
	DLX           string
	DLQ           string
	DLQRoutingKey string
}

var TranscriptionTopology = Topology{
	Exchange:      constant.TranscriptionExchange,
	Queue:         constant.TranscriptionQueue,
	RoutingKey:    constant.TranscriptionRoutingKey,
	DLX:           constant.TranscriptionDLX,
	DLQ:           constant.TranscriptionDLQ,
	DLQRoutingKey: constant.TranscriptionDLQKey,
}

// declare is idempotent, so publisher and consumer both call it.
func declare(ch *amqp.Channel, cfg *config.RabbitMQ, t Topology) error {
	if err := ch.ExchangeDeclare(t.Exchange, cfg.Kind, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(t.DLX, cfg.Kind, true, false, false, false, nil); err != nil {
		return err
	}

	dlq, err := ch.QueueDeclare(t.DLQ, true, false, false, false, nil)
	if err != nil {
		return err
	}
	if err := ch.QueueBind(dlq.Name, t.DLQRoutingKey, t.DLX, false, nil); err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    t.DLX,
		"x-dead-letter-routing-key": t.DLQRoutingKey,
	}
	q, err := ch.QueueDeclare(t.Queue, true, false, false, false, args)
	if err != nil {
		return err
	}
	return ch.QueueBind(q.Name, t.RoutingKey, t.Exchange, false, nil)
}
