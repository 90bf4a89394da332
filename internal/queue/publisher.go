package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"account_service/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Publisher sends JSON messages to a single durable queue over one channel.
type Publisher struct {
	mu        sync.Mutex
	ch        *amqp.Channel
	queueName string
	metrics   *observability.Metrics
}

// NewPublisher opens a channel on conn and declares queueName on it.
func NewPublisher(conn *amqp.Connection, queueName string, metrics *observability.Metrics) (*Publisher, error) {
	ch, err := CreateChannel(conn)
	if err != nil {
		return nil, err
	}

	if _, err := DeclareQueue(ch, queueName); err != nil {
		ch.Close()
		return nil, err
	}

	return &Publisher{ch: ch, queueName: queueName, metrics: metrics}, nil
}

func (p *Publisher) Publish(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	err = p.ch.PublishWithContext(
		ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	p.mu.Unlock()

	p.metrics.ObservePublish(p.queueName, err)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.queueName, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
