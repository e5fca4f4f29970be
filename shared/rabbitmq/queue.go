package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultPublishRetries = 3
	defaultPublishDelay   = 100 * time.Millisecond
	defaultBackoffMult    = 2.0
)

// Consume subscribes to the run queue with manual acknowledgements
func (c *Client) Consume(consumerTag string) (<-chan amqp.Delivery, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	deliveries, err := c.channel.Consume(
		c.config.QueueName,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume from %s: %w", c.config.QueueName, err)
	}

	c.logger.Info("Consuming run requests",
		slog.String("queue", c.config.QueueName),
		slog.String("consumer_tag", consumerTag),
	)

	return deliveries, nil
}

// Qos limits the number of unacknowledged deliveries per consumer
func (c *Client) Qos(prefetchCount int) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	if err := c.channel.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	return nil
}

// Ack acknowledges a single delivery
func (c *Client) Ack(deliveryTag uint64) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	if err := c.channel.Ack(deliveryTag, false); err != nil {
		return fmt.Errorf("failed to ack delivery %d: %w", deliveryTag, err)
	}
	return nil
}

// Nack rejects a single delivery, optionally putting it back on the queue
func (c *Client) Nack(deliveryTag uint64, requeue bool) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}
	if err := c.channel.Nack(deliveryTag, false, requeue); err != nil {
		return fmt.Errorf("failed to nack delivery %d: %w", deliveryTag, err)
	}
	return nil
}

// PublishWithRetry publishes a persistent message, backing off exponentially between attempts
func (c *Client) PublishWithRetry(ctx context.Context, body []byte, contentType string) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	retries, delay, mult := c.publishPolicy()
	msg := amqp.Publishing{
		ContentType:  contentType,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		lastErr = c.channel.PublishWithContext(ctx, c.config.ExchangeName, c.config.RoutingKey, false, false, msg)
		if lastErr == nil {
			c.logger.Debug("Run request published",
				slog.Int("attempt", attempt+1),
				slog.Int("body_size", len(body)),
			)
			return nil
		}

		if attempt == retries {
			break
		}

		wait := backoffDelay(delay, mult, attempt)
		c.logger.Warn("Publish failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("retry_after", wait),
			slog.Any("error", lastErr),
		)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("failed to publish message: %w", ctx.Err())
		}
	}

	return fmt.Errorf("failed to publish message after %d attempts: %w", retries+1, lastErr)
}

func (c *Client) publishPolicy() (retries int, delay time.Duration, mult float64) {
	retries, delay, mult = c.config.PublishRetries, c.config.PublishRetryDelay, c.config.PublishBackoffMult
	if retries <= 0 {
		retries = defaultPublishRetries
	}
	if delay <= 0 {
		delay = defaultPublishDelay
	}
	if mult <= 0 {
		mult = defaultBackoffMult
	}
	return retries, delay, mult
}

// backoffDelay returns base * mult^attempt
func backoffDelay(base time.Duration, mult float64, attempt int) time.Duration {
	return time.Duration(float64(base) * math.Pow(mult, float64(attempt)))
}
