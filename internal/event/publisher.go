package event

import (
	"context"
	"fmt"

	"github.com/utafrali/TranscriptSearch/internal/domain"
	pkgkafka "github.com/utafrali/TranscriptSearch/pkg/kafka"
)

// Source identifies events produced by cvsearch itself.
const Source = "cvsearch"

// EventPublisher is the subset of *pkgkafka.Producer the publisher needs.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Publisher emits transcription events instead of writing to the index
// directly, so a running consumer applies them.
type Publisher struct {
	producer EventPublisher
}

// NewPublisher creates a transcription event publisher.
func NewPublisher(producer EventPublisher) *Publisher {
	return &Publisher{producer: producer}
}

// PublishCreated emits a transcription.created event for t.
func (p *Publisher) PublishCreated(ctx context.Context, t domain.Transcription) error {
	ev, err := pkgkafka.NewEvent(TopicTranscriptionCreated, t.ID, Source, TranscriptionEventData{
		ID:            t.ID,
		GeneratedText: t.GeneratedText,
		Duration:      t.Duration,
		Age:           t.Age,
		Gender:        t.Gender,
		Accent:        t.Accent,
	})
	if err != nil {
		return fmt.Errorf("build transcription.created event: %w", err)
	}
	return p.producer.Publish(ctx, TopicTranscriptionCreated, ev)
}

// PublishDeleted emits a transcription.deleted event for id.
func (p *Publisher) PublishDeleted(ctx context.Context, id string) error {
	ev, err := pkgkafka.NewEvent(TopicTranscriptionDeleted, id, Source, TranscriptionDeletedData{ID: id})
	if err != nil {
		return fmt.Errorf("build transcription.deleted event: %w", err)
	}
	return p.producer.Publish(ctx, TopicTranscriptionDeleted, ev)
}
