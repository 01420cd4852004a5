package history

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/easycart/domain"
	"github.com/segmentio/kafka-go"
)

const consumerGroup = "easycart-order-history"

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Projector interface {
	UpsertOrder(ctx context.Context, order *domain.Order) error
}

// Consumer projects OrderPlaced events into the history store. A failed write is retried on the
// same message until it succeeds or the context ends; nothing past it is fetched, and its offset
// is committed only after the write.
type Consumer struct {
	store      Projector
	reader     MessageReader
	log        *slog.Logger
	retryDelay time.Duration
}

func NewKafkaReader(topic string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  consumerGroup,
		MaxBytes: 10e6, // 10MB
	})
}

func NewConsumer(store Projector, reader MessageReader, log *slog.Logger) *Consumer {
	return &Consumer{store: store, reader: reader, log: log, retryDelay: time.Second}
}

func (c *Consumer) Run(ctx context.Context) {
	c.log.InfoContext(ctx, "order history consumer started")
	for ctx.Err() == nil {
		c.processMessage(ctx)
	}
	c.log.Info("order history consumer stopped")
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("error closing kafka reader", "error", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.log.ErrorContext(ctx, "error reading message", "error", err)
		c.wait(ctx)
		return
	}

	if eventType(m) == domain.EventTypeOrderPlaced {
		for !c.project(ctx, m) {
			c.wait(ctx)
			if ctx.Err() != nil {
				// uncommitted; the group hands it out again after a restart
				return
			}
		}
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.log.ErrorContext(ctx, "error committing message", "offset", m.Offset, "error", err)
	}
}

// project reports whether the message is done with, including payloads that can never be parsed.
func (c *Consumer) project(ctx context.Context, m kafka.Message) bool {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil || event.ID == "" {
		c.log.ErrorContext(ctx, "skipping malformed order event",
			"key", string(m.Key), "offset", m.Offset, "error", err)
		return true
	}

	if err := c.store.UpsertOrder(ctx, &event.Order); err != nil {
		c.log.ErrorContext(ctx, "failed to project order", "order_id", event.ID, "error", err)
		return false
	}
	c.log.InfoContext(ctx, "order projected", "order_id", event.ID, "user_id", event.UserID)
	return true
}

func (c *Consumer) wait(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.retryDelay):
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
