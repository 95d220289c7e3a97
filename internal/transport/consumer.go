package transport

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"doppel/internal/jobs"
	"doppel/internal/logging"
	"doppel/internal/pipeline"
	"doppel/internal/services"
)

// Handler processes one decoded job message to a terminal outcome.
type Handler interface {
	Run(ctx context.Context, msg pipeline.Message) (jobs.Status, error)
}

// Consumer pulls messages off a queue one at a time and hands each to the
// handler. Handled outcomes are acknowledged; decode failures and handler
// faults are negatively acknowledged so the transport redelivers.
type Consumer struct {
	queue         Queue
	handler       Handler
	logger        *slog.Logger
	retryInterval time.Duration
}

// NewConsumer builds a consumer. retryInterval paces the loop after a
// transport receive error.
func NewConsumer(queue Queue, handler Handler, logger *slog.Logger, retryInterval time.Duration) (*Consumer, error) {
	if queue == nil {
		return nil, errors.New("consumer: queue required")
	}
	if handler == nil {
		return nil, errors.New("consumer: handler required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if retryInterval <= 0 {
		retryInterval = 5 * time.Second
	}
	return &Consumer{
		queue:         queue,
		handler:       handler,
		logger:        logger.With(logging.String(logging.FieldComponent, "consumer")),
		retryInterval: retryInterval,
	}, nil
}

// Run consumes until the context is canceled. Messages are processed
// strictly one at a time.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		if ctx.Err() != nil {
			c.logger.Info("consumer stopped")
			return nil
		}

		delivery, err := c.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopped")
				return nil
			}
			c.logger.Error("receive failed, retrying", logging.Error(err))
			select {
			case <-ctx.Done():
				c.logger.Info("consumer stopped")
				return nil
			case <-time.After(c.retryInterval):
			}
			continue
		}
		if delivery == nil {
			continue
		}

		c.handle(ctx, delivery)
	}
}

func (c *Consumer) handle(ctx context.Context, delivery *Delivery) {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, c.logger)

	msg, err := pipeline.ParseMessage(delivery.Body)
	if err != nil {
		logger.Error("undecodable message, returning to queue", logging.Error(err))
		c.nack(logger, delivery)
		return
	}

	status, err := c.handler.Run(ctx, msg)
	if err != nil {
		logger.Error("pipeline fault, message will be redelivered",
			logging.String(logging.FieldJobID, msg.JobID),
			logging.Error(err))
		c.nack(logger, delivery)
		return
	}

	logger.Info("message handled",
		logging.String(logging.FieldJobID, msg.JobID),
		logging.String("status", string(status)))
	if err := delivery.Ack(); err != nil {
		logger.Warn("ack failed", logging.Error(err))
	}
}

func (c *Consumer) nack(logger *slog.Logger, delivery *Delivery) {
	if err := delivery.Nack(); err != nil {
		logger.Warn("nack failed", logging.Error(err))
	}
}
