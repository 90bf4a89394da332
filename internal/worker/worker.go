package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account_service/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	retryHeader = "x-retry-count"
	maxRetries  = 3
)

type Worker struct {
	id        int
	queueName string
	handler   EventHandler
	metrics   *observability.Metrics

	republish func(msg *amqp.Delivery, retryCount int32) error
}

func NewWorker(id int, queueName string, handler EventHandler, metrics *observability.Metrics) *Worker {
	return &Worker{
		id:        id,
		queueName: queueName,
		handler:   handler,
		metrics:   metrics,
	}
}

func republishWithRetry(ch *amqp.Channel, msg *amqp.Delivery, retryCount int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Create new headers with incremented retry count
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryHeader] = retryCount

	return ch.PublishWithContext(
		ctx,
		"",             // exchange
		msg.RoutingKey, // routing key (queue name)
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         msg.Body,
			Headers:      headers,
		},
	)
}

// retryCount reads the retry header, tolerating the integer widths a
// broker round trip may produce.
func retryCount(headers amqp.Table) int32 {
	switch v := headers[retryHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	case int16:
		return int32(v)
	case int8:
		return int32(v)
	}
	return 0
}

// Start consumes the queue until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("worker %d failed to open channel: %w", w.id, err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("worker %d failed to set QoS: %w", w.id, err)
	}

	msgs, err := ch.Consume(
		w.queueName,
		fmt.Sprintf("activity-worker-%d", w.id),
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("worker %d failed to start consuming messages: %w", w.id, err)
	}

	w.republish = func(msg *amqp.Delivery, retryCount int32) error {
		return republishWithRetry(ch, msg, retryCount)
	}

	logrus.Infof("Worker %d started", w.id)

	for {
		select {
		case <-ctx.Done():
			logrus.Infof("Worker %d stopping", w.id)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("worker %d: delivery channel closed", w.id)
			}
			w.handleDelivery(ctx, &msg)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, msg *amqp.Delivery) {
	w.metrics.ObserveConsume(w.queueName)

	retries := retryCount(msg.Headers)

	event, err := w.handler.Process(ctx, msg.Body)
	if err == nil {
		logrus.Infof("Worker %d recorded %s for user=%d", w.id, event.Type, event.UserID)
		w.ack(msg)
		return
	}

	eventType := "unknown"
	if event != nil && event.Type != "" {
		eventType = string(event.Type)
	}

	if errors.Is(err, ErrInvalidEvent) {
		logrus.WithError(err).Errorf("Worker %d dropping invalid payload", w.id)
		w.metrics.ObserveActivityFailure(eventType, "invalid_payload")
		w.nack(msg)
		return
	}

	logrus.WithError(err).Errorf("Worker %d failed to record %s", w.id, eventType)

	if retries >= maxRetries {
		w.metrics.ObserveActivityFailure(eventType, "max_retries")
		w.nack(msg)
		return
	}

	logrus.Infof("Worker %d: requeuing event (retry %d/%d)", w.id, retries+1, maxRetries)

	if err := w.republish(msg, retries+1); err != nil {
		logrus.WithError(err).Error("Failed to republish message")
		w.metrics.ObserveActivityFailure(eventType, "republish_error")
		w.nack(msg)
		return
	}

	w.metrics.ObservePublish(w.queueName, nil)
	w.ack(msg)
}

func (w *Worker) ack(msg *amqp.Delivery) {
	if err := msg.Ack(false); err != nil {
		logrus.WithError(err).Warnf("Worker %d failed to ack message", w.id)
	}
}

// nack drops the message without requeueing it.
func (w *Worker) nack(msg *amqp.Delivery) {
	if err := msg.Nack(false, false); err != nil {
		logrus.WithError(err).Warnf("Worker %d failed to nack message", w.id)
	}
}
