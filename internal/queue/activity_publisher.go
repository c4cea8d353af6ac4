package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ActivityPublisher publishes sample activity (control actions, callback outcomes) to Kafka.
type ActivityPublisher struct {
	writer MessageWriter
}

// NewActivityPublisher constructs a publisher for the given topic.
func NewActivityPublisher(k *Kafka, topic string) *ActivityPublisher {
	return &ActivityPublisher{writer: k.NewWriter(topic)}
}

// NewActivityPublisherWithWriter wraps an existing writer.
func NewActivityPublisherWithWriter(w MessageWriter) *ActivityPublisher {
	return &ActivityPublisher{writer: w}
}

// PublishControl emits a call-control record keyed by run id.
func (p *ActivityPublisher) PublishControl(ctx context.Context, msg ControlMessage) error {
	msg.Kind = ActivityControl
	return p.publish(ctx, msg.RunID[:], msg)
}

// PublishCallback emits a callback outcome record keyed by run id.
func (p *ActivityPublisher) PublishCallback(ctx context.Context, msg CallbackMessage) error {
	msg.Kind = ActivityCallback
	return p.publish(ctx, msg.RunID[:], msg)
}

func (p *ActivityPublisher) publish(ctx context.Context, key []byte, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("activity publisher: marshal message: %w", err)
	}
	record := kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, record); err != nil {
		return fmt.Errorf("activity publisher: write message: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *ActivityPublisher) Close() error {
	return p.writer.Close()
}
