package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/acme/contact-center-samples/internal/config"
)

// Kafka aggregates helpers for interacting with Kafka.
type Kafka struct {
	cfg config.KafkaConfig
}

// NewKafka initializes the Kafka helper.
func NewKafka(cfg config.KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	return &Kafka{cfg: cfg}, nil
}

// NewWriter creates a kafka writer for a specific topic.
func (k *Kafka) NewWriter(topic string) *kafka.Writer {
	transport := &kafka.Transport{ClientID: k.cfg.ClientID}
	return &kafka.Writer{
		Addr:                   kafka.TCP(k.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Transport:              transport,
	}
}

// Close is a no-op kept for interface symmetry.
func (k *Kafka) Close() error {
	return nil
}

// EnsureTopics creates topics if they do not exist.
func (k *Kafka) EnsureTopics(ctx context.Context, topics []string, partitions int, replicationFactor int) error {
	dialer := &kafka.Dialer{Timeout: 10 * time.Second, ClientID: k.cfg.ClientID}
	conn, err := dialer.DialContext(ctx, "tcp", k.cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka: dial: %w", err)
	}
	defer conn.Close()

	existing, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("kafka: read partitions: %w", err)
	}
	exists := make(map[string]bool, len(existing))
	for _, p := range existing {
		exists[p.Topic] = true
	}

	var missing []kafka.TopicConfig
	for _, topic := range topics {
		if topic == "" || exists[topic] {
			continue
		}
		missing = append(missing, kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: replicationFactor,
		})
	}
	if len(missing) == 0 {
		return nil
	}
	if err := conn.CreateTopics(missing...); err != nil {
		return fmt.Errorf("kafka: create topics: %w", err)
	}
	return nil
}
