// Package queue wraps RabbitMQ publishing and consuming of JSON messages.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends JSON messages to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queueName string, message interface{}) error
	Close()
}

// Handler processes one delivery body. A nil error acknowledges it.
type Handler func(ctx context.Context, body []byte) error

// Consumer delivers messages of a queue to a handler until ctx ends.
type Consumer interface {
	Consume(ctx context.Context, queueName string, handler Handler) error
	Close()
}

type rabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func dial(url string, queues ...string) (*rabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	for _, name := range queues {
		_, err = ch.QueueDeclare(
			name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}
	return &rabbitClient{conn: conn, channel: ch}, nil
}

func (c *rabbitClient) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

type rabbitPublisher struct {
	*rabbitClient
}

// NewRabbitPublisher connects and declares the given durable queues.
func NewRabbitPublisher(url string, queues ...string) (Publisher, error) {
	client, err := dial(url, queues...)
	if err != nil {
		return nil, err
	}
	return &rabbitPublisher{rabbitClient: client}, nil
}

func (p *rabbitPublisher) Publish(ctx context.Context, queueName string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

type rabbitConsumer struct {
	*rabbitClient
	logger *zap.Logger
}

// NewRabbitConsumer connects and declares the given durable queues.
func NewRabbitConsumer(url string, logger *zap.Logger, queues ...string) (Consumer, error) {
	client, err := dial(url, queues...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &rabbitConsumer{rabbitClient: client, logger: logger}, nil
}

// Consume acks on success and drops failed deliveries without requeueing so a
// malformed message cannot loop forever.
func (c *rabbitConsumer) Consume(ctx context.Context, queueName string, handler Handler) error {
	msgs, err := c.channel.Consume(
		queueName,
		"",    // consumer
		false, // manual acks
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				if err := handler(ctx, d.Body); err != nil {
					c.logger.Warn("queue message failed", zap.String("queue", queueName), zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()
	return nil
}
