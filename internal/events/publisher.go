// Package events announces finished play sessions through watermill.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"minigame-service/internal/domain"
)

const (
	DefaultTopic = "game.completed"

	EventGameCompleted = "game.completed"
	eventVersion       = "1"
	eventSource        = "minigame-service"
)

// GameCompletedEvent is the payload published once per finished session.
type GameCompletedEvent struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Version    string            `json:"version"`
	Timestamp  time.Time         `json:"timestamp"`
	Completion domain.Completion `json:"completion"`
}

// Config holds configuration for the publisher.
type Config struct {
	KafkaBrokers []string
	Topic        string
	Logger       *slog.Logger
}

// Publisher sends completion events to Kafka, or to an in-process channel when
// no brokers are configured.
type Publisher struct {
	publisher message.Publisher
	local     *gochannel.GoChannel
	logger    *slog.Logger
	topic     string
}

func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	wmLogger := watermill.NewSlogLogger(cfg.Logger)

	p := &Publisher{logger: cfg.Logger, topic: cfg.Topic}
	if len(cfg.KafkaBrokers) == 0 {
		p.local = gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		p.publisher = p.local
		return p, nil
	}

	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}
	p.publisher = pub
	return p, nil
}

// PublishCompleted implements app.CompletionPublisher.
func (p *Publisher) PublishCompleted(ctx context.Context, completion domain.Completion) error {
	event := GameCompletedEvent{
		ID:         uuid.NewString(),
		Type:       EventGameCompleted,
		Version:    eventVersion,
		Timestamp:  completion.FinishedAt,
		Completion: completion,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal completion event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", eventSource)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("game_id", completion.GameID)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish completion event: %w", err)
	}
	p.logger.DebugContext(ctx, "published completion event",
		"event_id", event.ID, "session_id", completion.SessionID, "topic", p.topic)
	return nil
}

// Subscribe exposes the in-process channel. It fails when events go to Kafka.
func (p *Publisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	if p.local == nil {
		return nil, fmt.Errorf("completion events are published to kafka; subscribe there")
	}
	return p.local.Subscribe(ctx, p.topic)
}

// Close closes the publisher and releases resources.
func (p *Publisher) Close() error {
	return p.publisher.Close()
}

// Decode parses a completion event payload.
func Decode(msg *message.Message) (GameCompletedEvent, error) {
	var event GameCompletedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("decode completion event %s: %w", msg.UUID, err)
	}
	return event, nil
}

// LogCompletions drains messages into the log until the channel closes.
func LogCompletions(logger *slog.Logger, messages <-chan *message.Message) {
	for msg := range messages {
		event, err := Decode(msg)
		if err != nil {
			logger.Error("dropping malformed completion event", "error", err)
			msg.Ack()
			continue
		}
		c := event.Completion
		logger.Info("game completed",
			"session_id", c.SessionID,
			"game_id", c.GameID,
			"score", c.Score,
			"max_score", c.MaxScore,
			"coins", c.Reward.Coins,
			"xp", c.Reward.XP,
			"next_path", c.NextPath)
		msg.Ack()
	}
}
