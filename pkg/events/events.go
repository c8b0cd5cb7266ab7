// Package events publishes product-change events so downstream consumers
// (search, agents, checkout-link generation) can react without polling the
// store. Publishing is optional: the engine treats a nil publisher as off.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Change describes one applied write.
type Change struct {
	OrgID             string    `json:"org_id"`
	RecordID          string    `json:"record_id"`
	MerchantProductID string    `json:"merchant_product_id,omitempty"`
	SKU               string    `json:"sku,omitempty"`
	Action            string    `json:"action"` // "inserted" or "updated"
	Source            string    `json:"source"`
	Hash              string    `json:"hash,omitempty"`
	At                time.Time `json:"at"`
}

// Publisher emits product-change events.
type Publisher interface {
	Publish(ctx context.Context, c Change) error
	Close() error
}

// MessageWriter abstracts kafka.Writer for testability.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes changes to a Kafka topic. Pure-Go client
// (segmentio/kafka-go).
type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}}
}

// NewKafkaPublisherWith wraps an existing writer. Used by tests.
func NewKafkaPublisherWith(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish emits one change event, keyed by org and record so per-record
// ordering survives partitioning.
func (p *KafkaPublisher) Publish(ctx context.Context, c Change) error {
	value, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(c.OrgID + "/" + c.RecordID),
		Value: value,
	})
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
