package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"owatch_service/internal/reward/domain"
	"owatch_service/pkg/database"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes claim events
type EventPublisher interface {
	PublishClaim(ctx context.Context, event domain.ClaimEvent) error
	Close() error
}

type kafkaPublisher struct {
	writer database.MessageWriter
}

// NewKafkaPublisher create an EventPublisher over a kafka writer
func NewKafkaPublisher(w database.MessageWriter) EventPublisher {
	return &kafkaPublisher{writer: w}
}

// PublishClaim 以錢包地址為 key 發送, so one address stays on one partition
func (p *kafkaPublisher) PublishClaim(ctx context.Context, event domain.ClaimEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal claim event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Address),
		Value: data,
	}); err != nil {
		return fmt.Errorf("publish claim event: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type nopPublisher struct{}

// NewNopPublisher publisher used when events are disabled
func NewNopPublisher() EventPublisher { return nopPublisher{} }

func (nopPublisher) PublishClaim(context.Context, domain.ClaimEvent) error { return nil }

func (nopPublisher) Close() error { return nil }
