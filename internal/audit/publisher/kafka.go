// Package publisher fans persisted audit events out to Kafka so downstream
// consumers (SIEM, analytics) see the trail without reading the database.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"opsgov/internal/audit"
)

// Kafka publishes audit events to a single topic, keyed by workspace so one
// workspace's trail stays ordered within a partition. Delivery is
// best-effort: produce errors are logged, never returned to the recorder.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka connects to the brokers and prepares the producer.
func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

// EnsureTopic creates the audit topic if it does not exist yet.
func (k *Kafka) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(k.client)
	resp, err := adm.CreateTopics(ctx, 3, 1, nil, k.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", k.topic, err)
	}
	for _, result := range resp {
		if result.Err != nil && result.Err != kerr.TopicAlreadyExists {
			return fmt.Errorf("create topic %s: %w", result.Topic, result.Err)
		}
	}
	return nil
}

// payload is the wire shape of an audit event.
type payload struct {
	ID             string         `json:"id"`
	WorkspaceID    string         `json:"workspace_id"`
	EntityType     string         `json:"entity_type"`
	EntityID       string         `json:"entity_id,omitempty"`
	Action         string         `json:"action"`
	DecisionType   string         `json:"decision_type"`
	DecisionReason string         `json:"decision_reason,omitempty"`
	PolicyApplied  string         `json:"policy_applied,omitempty"`
	RiskScore      *int           `json:"risk_score,omitempty"`
	OldValue       map[string]any `json:"old_value,omitempty"`
	NewValue       map[string]any `json:"new_value,omitempty"`
	PerformedBy    string         `json:"performed_by,omitempty"`
	IP             string         `json:"ip,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	RequestID      string         `json:"request_id,omitempty"`
	Timestamp      string         `json:"timestamp"`
}

// Publish produces the event asynchronously. Failures are logged; the trail
// in the database remains the system of record.
func (k *Kafka) Publish(ctx context.Context, event audit.Event) {
	body := payload{
		ID:             event.ID.String(),
		WorkspaceID:    event.WorkspaceID.String(),
		EntityType:     event.EntityType,
		EntityID:       event.EntityID,
		Action:         event.Action,
		DecisionType:   string(event.DecisionType),
		DecisionReason: event.DecisionReason,
		PolicyApplied:  event.PolicyApplied,
		RiskScore:      event.RiskScore,
		OldValue:       event.OldValue,
		NewValue:       event.NewValue,
		IP:             event.IP,
		UserAgent:      event.UserAgent,
		RequestID:      event.RequestID,
		Timestamp:      event.Timestamp.Format(time.RFC3339Nano),
	}
	if !event.PerformedBy.IsNil() {
		body.PerformedBy = event.PerformedBy.String()
	}

	value, err := json.Marshal(body)
	if err != nil {
		k.logger.Error("marshal audit payload failed",
			"action", event.Action,
			"error", err,
		)
		return
	}

	record := &kgo.Record{
		Key:   []byte(event.WorkspaceID.String()),
		Value: value,
	}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			k.logger.Warn("audit publish failed",
				"topic", k.topic,
				"action", event.Action,
				"error", err,
			)
		}
	})
}

// Close flushes pending records and releases the client.
func (k *Kafka) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.client.Flush(ctx); err != nil {
		k.logger.Warn("kafka flush on close failed", "error", err)
	}
	k.client.Close()
}
