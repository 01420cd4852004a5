package publisher

import (
	"context"
	"log/slog"
	"time"

	r "github.com/fjod/easycart/internal/repository"
	"github.com/segmentio/kafka-go"
)

const (
	OrderEventsTopic = "order-events"

	eventBatchSize   = 100
	sessionBatchSize = 20
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type SessionRecoverer interface {
	RecoverCheckout(ctx context.Context, session *r.CheckoutSession) error
}

type Config struct {
	EventInterval    time.Duration
	RecoveryInterval time.Duration
	// StuckAfter is how long a paid session may sit uncommitted before the poller finishes it.
	StuckAfter time.Duration
	Timeout    time.Duration
}

// OutboxPoller relays committed OrderPlaced events to Kafka and finishes checkouts that were
// paid but never committed. A nil writer disables relaying; events stay in the outbox.
type OutboxPoller struct {
	cfg       Config
	repo      r.OutboxRepository
	writer    MessageWriter
	recoverer SessionRecoverer
	log       *slog.Logger
	now       func() time.Time
}

func NewKafkaWriter(brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  OrderEventsTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewOutboxPoller(cfg Config, repo r.OutboxRepository, writer MessageWriter, recoverer SessionRecoverer, log *slog.Logger) *OutboxPoller {
	if cfg.EventInterval <= 0 {
		cfg.EventInterval = time.Second
	}
	if cfg.RecoveryInterval <= 0 {
		cfg.RecoveryInterval = 30 * time.Second
	}
	if cfg.StuckAfter <= 0 {
		cfg.StuckAfter = time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &OutboxPoller{
		cfg:       cfg,
		repo:      repo,
		writer:    writer,
		recoverer: recoverer,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.cfg.EventInterval)
	recoveryTicker := time.NewTicker(p.cfg.RecoveryInterval)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	p.log.InfoContext(ctx, "outbox poller started",
		"event_interval", p.cfg.EventInterval,
		"recovery_interval", p.cfg.RecoveryInterval,
		"relay_enabled", p.writer != nil)
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStuckSessions(ctx)
		case <-ctx.Done():
			p.log.Info("outbox poller stopped")
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	if p.writer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	events, err := p.repo.GetUnprocessedEvents(ctx, eventBatchSize)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to fetch outbox events", "error", err)
		return
	}

	for _, event := range events {
		// stop at the first failure so later events for the same order are not published ahead of it
		if err := p.publishToKafka(ctx, event); err != nil {
			p.log.ErrorContext(ctx, "failed to publish event", "event_id", event.ID, "error", err)
			return
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.log.ErrorContext(ctx, "failed to mark event as processed", "event_id", event.ID, "error", err)
			return
		}
		p.log.DebugContext(ctx, "event published",
			"event_id", event.ID, "event_type", event.EventType, "aggregate_id", event.AggregateID)
	}
}

func (p *OutboxPoller) recoverStuckSessions(ctx context.Context) {
	if p.recoverer == nil {
		return
	}
	// stuck session: PAYMENT_COMPLETED for longer than StuckAfter, the commit never finished
	sessions, err := p.repo.GetStuckSessions(ctx, p.now().Add(-p.cfg.StuckAfter), sessionBatchSize)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to get stuck sessions", "error", err)
		return
	}
	for _, session := range sessions {
		if err := p.recoverer.RecoverCheckout(ctx, session); err != nil {
			p.log.ErrorContext(ctx, "failed to recover checkout", "checkout_id", session.ID, "error", err)
			continue
		}
		p.log.InfoContext(ctx, "session recovered", "checkout_id", session.ID)
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *r.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id keeps one order's events on one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
