package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxHandlerRetries bounds handler attempts before a message is treated as poison.
const maxHandlerRetries = 3

// Handler processes one event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int

	// RetryBackoff is the base delay between handler attempts; attempt n
	// waits n*RetryBackoff.
	RetryBackoff time.Duration
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads events from one topic in a consumer group.
type Consumer struct {
	reader     messageReader
	cfg        ConsumerConfig
	handler    Handler
	deadLetter DeadLetter
	logger     *slog.Logger
	closeOnce  sync.Once
}

// NewConsumer creates a consumer for cfg.Topic. dl may be nil, in which case
// poison messages are committed and dropped.
func NewConsumer(cfg ConsumerConfig, handler Handler, dl DeadLetter, logger *slog.Logger) *Consumer {
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	return newConsumer(r, cfg, handler, dl, logger)
}

func newConsumer(r messageReader, cfg ConsumerConfig, handler Handler, dl DeadLetter, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader:     r,
		cfg:        cfg,
		handler:    handler,
		deadLetter: dl,
		logger:     logger.With(slog.String("topic", cfg.Topic), slog.String("group", cfg.GroupID)),
	}
}

// Start consumes until ctx is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping")
				return c.Close()
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			continue
		}

		if !c.process(ctx, msg) {
			return c.Close()
		}
	}
}

// process handles and commits one message. It reports false when ctx was
// canceled mid-retry and the message must be left uncommitted.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	start := time.Now()
	defer func() {
		consumerProcessingDuration.WithLabelValues(c.cfg.Topic, c.cfg.GroupID).Observe(time.Since(start).Seconds())
	}()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.Error("dropping undecodable message",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		c.poison(ctx, msg, err)
		return true
	}

	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		lastErr = c.handler(ctx, event)
		if lastErr == nil {
			break
		}
		c.logger.Warn("handler failed",
			slog.String("event_id", event.EventID),
			slog.String("event_type", event.EventType),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
		if attempt < maxHandlerRetries {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(time.Duration(attempt) * c.cfg.RetryBackoff):
			}
		}
	}

	if lastErr != nil {
		c.logger.Error("handler failed after all retries",
			slog.String("event_id", event.EventID),
			slog.Int64("offset", msg.Offset),
			slog.String("error", lastErr.Error()),
		)
		c.poison(ctx, msg, lastErr)
		return true
	}

	consumerMessagesProcessed.WithLabelValues(c.cfg.Topic, c.cfg.GroupID).Inc()
	c.commit(ctx, msg)
	return true
}

func (c *Consumer) poison(ctx context.Context, msg kafka.Message, cause error) {
	consumerMessagesFailed.WithLabelValues(c.cfg.Topic, c.cfg.GroupID).Inc()
	if c.deadLetter != nil {
		if err := c.deadLetter.Publish(ctx, msg, cause, c.cfg.GroupID); err != nil {
			c.logger.Error("dead-letter publish failed", slog.String("error", err.Error()))
		}
	}
	c.commit(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit message",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the reader. Safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}
