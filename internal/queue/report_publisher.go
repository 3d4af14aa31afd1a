package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReportPublisher publishes end-of-call reports for the report worker.
type ReportPublisher struct {
	writer *kafka.Writer
}

// NewReportPublisher constructs a report publisher for the given topic.
func NewReportPublisher(k *Kafka, topic string) *ReportPublisher {
	return &ReportPublisher{writer: k.NewWriter(topic)}
}

// PublishReport emits a report message to Kafka, keyed by call id so all
// reports for one call land on the same partition.
func (p *ReportPublisher) PublishReport(ctx context.Context, msg ReportMessage) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("report publisher: marshal message: %w", err)
	}
	record := kafka.Message{
		Key:   []byte(msg.CallID),
		Value: value,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, record); err != nil {
		return fmt.Errorf("report publisher: write message: %w", err)
	}
	return nil
}

// Close closes the publisher.
func (p *ReportPublisher) Close() error {
	return p.writer.Close()
}
