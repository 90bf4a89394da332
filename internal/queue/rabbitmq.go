package queue

import (
	"context"
	"fmt"

	"account_service/internal/config"
	"account_service/internal/utils"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Connect dials RabbitMQ with retries.
func Connect(ctx context.Context, rabbitMQCfg *config.RabbitMQConfig) (*amqp.Connection, error) {
	var conn *amqp.Connection

	err := utils.Retry(ctx, utils.DefaultRetry("rabbitmq"), func(ctx context.Context) error {
		c, err := amqp.Dial(rabbitMQCfg.URL)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.Info("RabbitMQ connection established successfully")
	return conn, nil
}

// SetupRabbitMQ is Connect for the binaries: failure to connect is fatal.
func SetupRabbitMQ(rabbitMQCfg *config.RabbitMQConfig) *amqp.Connection {
	conn, err := Connect(context.Background(), rabbitMQCfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	return conn
}

func CreateChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	return ch, nil
}

// DeclareQueue declares a durable, non-exclusive queue named queueName.
func DeclareQueue(ch *amqp.Channel, queueName string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	return q, nil
}
