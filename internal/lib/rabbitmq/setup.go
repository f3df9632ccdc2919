package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// ExchangeGenerations — direct exchange для событий о завершении генераций.
const ExchangeGenerations = "generations"

// QueueConfig описывает очередь и ключ маршрутизации, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetGenerationQueues возвращает очереди для терминальных статусов генерации.
func GetGenerationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "generations.completed", RoutingKey: "completed"},
		{QueueName: "generations.failed", RoutingKey: "failed"},
	}
}

// SetupChannel открывает канал, объявляет durable direct exchange и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, exchange string, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, exchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
