// internal/pkg/notification/analytics.go
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// KafkaEmitter publishes analytics events to a Kafka topic. Satisfies
// order.AnalyticsEmitter.
type KafkaEmitter struct {
	writer *kafka.Writer
}

// NewKafkaEmitter creates a new Kafka-backed emitter
func NewKafkaEmitter(brokers []string, topic string) *KafkaEmitter {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return &KafkaEmitter{writer: writer}
}

type analyticsEvent struct {
	Event     string                 `json:"event"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// Emit publishes one event keyed by event name
func (e *KafkaEmitter) Emit(ctx context.Context, event string, payload map[string]interface{}) error {
	value, err := json.Marshal(analyticsEvent{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal analytics event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event),
		Value: value,
		Time:  time.Now(),
	}
	if err := e.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write analytics event: %w", err)
	}
	return nil
}

// Close closes the underlying writer
func (e *KafkaEmitter) Close() error {
	return e.writer.Close()
}

// LogEmitter writes analytics events to the application log. Used when no
// Kafka brokers are configured.
type LogEmitter struct {
	log *logrus.Logger
}

// NewLogEmitter creates a log-backed emitter
func NewLogEmitter(log *logrus.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

// Emit logs the event
func (e *LogEmitter) Emit(_ context.Context, event string, payload map[string]interface{}) error {
	e.log.WithFields(logrus.Fields{
		"event":   event,
		"payload": payload,
	}).Info("analytics event")
	return nil
}
