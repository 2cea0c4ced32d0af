package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/TranscriptSearch/internal/service"
	pkgkafka "github.com/utafrali/TranscriptSearch/pkg/kafka"
)

// Kafka topics carrying transcription changes from the ASR pipeline.
var (
	TopicTranscriptionCreated = pkgkafka.Topic("transcription", "created")
	TopicTranscriptionDeleted = pkgkafka.Topic("transcription", "deleted")
)

// TranscriptionEventData is the payload of a transcription.created event.
type TranscriptionEventData struct {
	ID            string   `json:"id"`
	GeneratedText string   `json:"generated_text"`
	Duration      *float64 `json:"duration,omitempty"`
	Age           *string  `json:"age,omitempty"`
	Gender        *string  `json:"gender,omitempty"`
	Accent        *string  `json:"accent,omitempty"`
}

// TranscriptionDeletedData is the payload of a transcription.deleted event.
type TranscriptionDeletedData struct {
	ID string `json:"id"`
}

// Consumer keeps the index current from transcription events.
type Consumer struct {
	searchService *service.SearchService
	logger        *slog.Logger
}

// NewConsumer creates a new transcription event consumer.
func NewConsumer(searchService *service.SearchService, logger *slog.Logger) *Consumer {
	return &Consumer{
		searchService: searchService,
		logger:        logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicTranscriptionCreated:
		return c.handleCreated(ctx, event)
	case TopicTranscriptionDeleted:
		return c.handleDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (c *Consumer) handleCreated(ctx context.Context, event *pkgkafka.Event) error {
	var data TranscriptionEventData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal transcription.created data: %w", err)
	}

	t, err := c.searchService.Index(ctx, &service.TranscriptionInput{
		ID:            data.ID,
		GeneratedText: data.GeneratedText,
		Duration:      data.Duration,
		Age:           data.Age,
		Gender:        data.Gender,
		Accent:        data.Accent,
	})
	if err != nil {
		return fmt.Errorf("index transcription from created event: %w", err)
	}

	c.logger.InfoContext(ctx, "indexed transcription from created event",
		slog.String("transcription_id", t.ID),
		slog.String("event_id", event.EventID),
	)
	return nil
}

func (c *Consumer) handleDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data TranscriptionDeletedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal transcription.deleted data: %w", err)
	}

	if err := c.searchService.Delete(ctx, data.ID); err != nil {
		return fmt.Errorf("delete transcription from deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "deleted transcription from deleted event",
		slog.String("transcription_id", data.ID),
		slog.String("event_id", event.EventID),
	)
	return nil
}
