package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/homez-ai/searchd/internal/domain"
	"github.com/homez-ai/searchd/internal/metrics"
	"github.com/homez-ai/searchd/internal/repository/queue"
)

// ConsumerConfig tunes the queue consumer loop.
type ConsumerConfig struct {
	Consumer     string
	Block        time.Duration
	MaxBatchSize int
}

// Consumer drains the durable ingestion queue and applies tasks through the
// synchronous ingestion path. Tasks are acknowledged only after the write
// lands; a crash mid-task leaves it pending for redelivery.
type Consumer struct {
	svc    *Service
	queue  TaskQueue
	cfg    ConsumerConfig
	logger *zap.Logger
}

// NewConsumer creates a queue consumer.
func NewConsumer(svc *Service, q TaskQueue, cfg ConsumerConfig, logger *zap.Logger) *Consumer {
	return &Consumer{svc: svc, queue: q, cfg: cfg, logger: logger}
}

// Run blocks consuming tasks until ctx is canceled. The task being processed
// at cancellation time is finished and acknowledged before Run returns.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.queue.EnsureGroups(ctx); err != nil {
		return fmt.Errorf("ensure consumer groups: %w", err)
	}

	c.logger.Info("Queue consumer started",
		zap.String("consumer", c.cfg.Consumer),
		zap.Int("max_batch", c.cfg.MaxBatchSize),
	)

	for {
		if ctx.Err() != nil {
			c.logger.Info("Queue consumer stopped")
			return nil
		}

		tasks, err := c.queue.Read(ctx, c.cfg.Consumer, c.cfg.MaxBatchSize, c.cfg.Block)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Queue consumer stopped")
				return nil
			}
			c.logger.Error("Queue read failed", zap.Error(err))
			// transient store failure: back off instead of spinning
			select {
			case <-ctx.Done():
				c.logger.Info("Queue consumer stopped")
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		for _, task := range tasks {
			// Shutdown must not abandon a half-applied task, so the in-flight
			// item runs on a context detached from cancellation.
			c.process(context.WithoutCancel(ctx), task)
			if ctx.Err() != nil {
				c.logger.Info("Queue consumer stopped")
				return nil
			}
		}
	}
}

// process applies one task and acknowledges it. Malformed tasks are counted
// and acknowledged so they do not wedge the group; transient failures leave
// the task pending for redelivery.
func (c *Consumer) process(ctx context.Context, task queue.Task) {
	err := c.apply(ctx, task)

	switch {
	case err == nil:
		metrics.QueueMessagesTotal.WithLabelValues(task.Stream, "ok").Inc()

	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrParse):
		metrics.QueueMessagesTotal.WithLabelValues(task.Stream, "parse_error").Inc()
		c.logger.Warn("Dropping malformed queue task",
			zap.String("stream", task.Stream),
			zap.String("msg_id", task.MsgID),
			zap.Error(err),
		)

	case errors.Is(err, domain.ErrNotFound):
		// delete for an entity that is already gone: the desired state holds
		metrics.QueueMessagesTotal.WithLabelValues(task.Stream, "ok").Inc()

	default:
		metrics.QueueMessagesTotal.WithLabelValues(task.Stream, "error").Inc()
		c.logger.Error("Queue task failed, leaving pending",
			zap.String("stream", task.Stream),
			zap.String("msg_id", task.MsgID),
			zap.Error(err),
		)
		return // no ack: redelivered to another consumer or after restart
	}

	if err := c.queue.Ack(ctx, task); err != nil {
		c.logger.Error("Queue ack failed",
			zap.String("stream", task.Stream),
			zap.String("msg_id", task.MsgID),
			zap.Error(err),
		)
	}
}

func (c *Consumer) apply(ctx context.Context, task queue.Task) error {
	switch task.Op {
	case queue.OpDelete:
		return c.svc.writer.Delete(ctx, task.Type, task.EntityID)

	case queue.OpUpsert:
		switch task.Type {
		case domain.TypeProduct:
			var p domain.Product
			if err := json.Unmarshal(task.Payload, &p); err != nil {
				return fmt.Errorf("decode product payload: %w: %w", domain.ErrParse, err)
			}
			return c.svc.IngestProduct(ctx, &p)
		case domain.TypeService:
			var sv domain.Service
			if err := json.Unmarshal(task.Payload, &sv); err != nil {
				return fmt.Errorf("decode service payload: %w: %w", domain.ErrParse, err)
			}
			return c.svc.IngestService(ctx, &sv)
		default:
			return fmt.Errorf("unknown entity type %q: %w", task.Type, domain.ErrParse)
		}

	default:
		return fmt.Errorf("unknown queue op %q: %w", task.Op, domain.ErrParse)
	}
}
