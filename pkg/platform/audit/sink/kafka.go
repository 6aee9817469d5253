// Package sink forwards audit events to external systems.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	audit "faircircle/pkg/platform/audit"
)

// Publisher is the transport a KafkaSink publishes through.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// KafkaSink serializes audit events to JSON and publishes them keyed by
// circle ID, so all events for one circle land on the same partition in
// order.
type KafkaSink struct {
	producer Publisher
}

// NewKafkaSink constructs a sink over the given producer.
func NewKafkaSink(producer Publisher) *KafkaSink {
	return &KafkaSink{producer: producer}
}

type kafkaPayload struct {
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	CircleID  string `json:"circle_id,omitempty"`
	Actor     string `json:"actor"`
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Round     uint8  `json:"round,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	Device    string `json:"device,omitempty"`
}

// Append publishes a single audit event.
func (s *KafkaSink) Append(ctx context.Context, event audit.Event) error {
	payload := kafkaPayload{
		Category:  string(event.Category),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Actor:     event.Actor.String(),
		Subject:   event.Subject,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		Amount:    event.Amount,
		Round:     event.Round,
		RequestID: event.RequestID,
		ClientIP:  event.ClientIP,
		Device:    event.Device,
	}
	if !event.CircleID.IsNil() {
		payload.CircleID = event.CircleID.String()
	}

	bytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	return s.producer.Publish(ctx, payload.CircleID, bytes)
}
