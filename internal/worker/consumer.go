package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sirfoga/gamer/internal/worker/domain"
)

// setupConsumer sets up RabbitMQ consumer with QoS and returns delivery channel
func (w *Worker) setupConsumer(ctx context.Context) (<-chan amqp.Delivery, error) {
	// prefetch_count bounds the unacknowledged messages held by this consumer
	if err := w.broker.Qos(w.prefetchCount); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	w.logger.InfoContext(ctx, "RabbitMQ QoS configured",
		slog.Int("prefetch_count", w.prefetchCount),
	)

	deliveries, err := w.broker.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.InfoContext(ctx, "RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
		slog.String("queue", w.queueName),
	)

	return deliveries, nil
}

// errDeliveriesClosed is returned when the broker closes the delivery channel
var errDeliveriesClosed = errors.New("rabbitmq delivery channel closed")

// startMessageDispatcher listens to RabbitMQ deliveries and dispatches runs to
// the worker pool. It returns nil on shutdown.
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)
	defer close(w.runsChan)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return nil

		case <-w.stopChan:
			w.logger.Info("Message dispatcher stopped - stopChan closed")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return errDeliveriesClosed
			}

			msg, err := domain.ParseRunMessage(delivery.Body, delivery.DeliveryTag)
			if err != nil {
				w.logger.Error("Dropping malformed run request",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				// Malformed messages never become valid, so they go to the DLQ
				if nackErr := w.broker.Nack(delivery.DeliveryTag, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			select {
			case w.runsChan <- msg:
				w.logger.Debug("Run dispatched to worker pool",
					slog.String("run_id", msg.RunID),
					slog.Uint64("delivery_tag", msg.DeliveryTag),
				)
			case <-ctx.Done():
				w.requeueOnShutdown(delivery.DeliveryTag)
				return nil
			case <-w.stopChan:
				w.requeueOnShutdown(delivery.DeliveryTag)
				return nil
			}
		}
	}
}

// requeueOnShutdown puts an undispatched message back so another worker can take it
func (w *Worker) requeueOnShutdown(deliveryTag uint64) {
	w.logger.Info("Message dispatcher stopped while dispatching run")
	if err := w.broker.Nack(deliveryTag, true); err != nil {
		w.logger.Error("Failed to NACK message on shutdown",
			slog.String("error", err.Error()),
		)
	}
}
