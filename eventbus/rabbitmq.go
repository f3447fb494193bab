package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// Publisher is a publish-only RabbitMQ client. Order events are
// fire-and-forget from the shop's point of view; downstream fulfillment
// consumes them.
type Publisher struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	exchange   string
}

// NewPublisher dials the broker and declares the topic exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	log.Info().Str("exchange", exchange).Msg("Connecting to RabbitMQ")
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	log.Info().Msg("RabbitMQ connected and exchange declared")
	return &Publisher{connection: conn, channel: ch, exchange: exchange}, nil
}

// Publish marshals the payload to JSON and publishes it on the exchange with
// the given routing key.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(pubCtx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message with key %s: %w", routingKey, err)
	}
	return nil
}

// Close gracefully shuts down the channel and connection.
func (p *Publisher) Close() {
	log.Info().Msg("Closing RabbitMQ connection")
	if p.channel != nil {
		p.channel.Close()
	}
	if p.connection != nil {
		p.connection.Close()
	}
}
