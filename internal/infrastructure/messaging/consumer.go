package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
)

const consumerTag = "catalyst-sync"

// SyncHandler reconciles one ERP push.
type SyncHandler interface {
	Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error)
}

// Consumer reads ERP pushes from a durable queue. Messages are acked once
// reconciled or soft-failed; malformed or rejected messages are dropped.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	handler SyncHandler
}

// Dial connects to the broker and declares the queue.
func Dial(url, queue string, prefetch int, handler SyncHandler) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set prefetch: %w", err)
		}
	}
	return &Consumer{conn: conn, channel: ch, queue: queue, handler: handler}, nil
}

// Run consumes until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.channel.Consume(c.queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.queue, err)
	}

	log.WithField("queue", c.queue).Info("📨 Sync consumer started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

// Close cancels the consumer and closes the connection.
func (c *Consumer) Close() error {
	if err := c.channel.Cancel(consumerTag, false); err != nil {
		log.WithError(err).Warn("Failed to cancel consumer")
	}
	return c.conn.Close()
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	logger := log.WithField("delivery_tag", d.DeliveryTag)

	var req models.SyncRequest
	if err := json.Unmarshal(d.Body, &req); err != nil {
		logger.WithError(err).Warn("Dropping malformed sync message")
		if err := d.Nack(false, false); err != nil {
			logger.WithError(err).Error("Failed to nack message")
		}
		return
	}

	result, err := c.handler.Sync(ctx, req)
	if err != nil {
		logger.WithError(err).WithField("type", req.Type).Warn("Dropping rejected sync message")
		if err := d.Nack(false, false); err != nil {
			logger.WithError(err).Error("Failed to nack message")
		}
		return
	}

	if !result.Success {
		logger.WithFields(log.Fields{"id": result.ID, "code": result.Code}).Info("Sync soft-failed, queued for retry")
	}
	if err := d.Ack(false); err != nil {
		logger.WithError(err).Error("Failed to ack message")
	}
}
