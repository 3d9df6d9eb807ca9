// Package workflow pushes governance events to an external automation
// webhook (n8n-style). Delivery is best-effort: the webhook is a convenience
// integration and must never affect the primary request.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"opsgov/internal/platform/config"
	"opsgov/pkg/platform/circuit"
)

// Event types pushed to the automation webhook.
const (
	EventOperationCreated       = "operation.created"
	EventOperationStatusChanged = "operation.status_changed"
	EventOperationValidated     = "operation.validated"
	EventTestFire               = "workflow.test_fire"
)

// OperationEvent is the JSON body delivered to the webhook.
type OperationEvent struct {
	EventType      string         `json:"event_type"`
	OperationID    string         `json:"operation_id,omitempty"`
	WorkspaceID    string         `json:"workspace_id,omitempty"`
	ActorID        string         `json:"actor_id,omitempty"`
	PreviousStatus string         `json:"previous_status,omitempty"`
	NewStatus      string         `json:"new_status,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Client delivers events to the configured webhook. A disabled client is a
// no-op, so callers never branch on configuration.
type Client struct {
	url     string
	enabled bool
	http    *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func New(cfg config.Workflow, logger *slog.Logger) *Client {
	return &Client{
		url:     cfg.WebhookURL,
		enabled: cfg.Enabled && cfg.WebhookURL != "",
		http:    &http.Client{Timeout: 5 * time.Second},
		breaker: circuit.New("workflow-webhook"),
		logger:  logger,
	}
}

// Enabled reports whether events will actually be delivered.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Notify delivers the event asynchronously. The caller's context is not
// used for the delivery: the request finishes long before a slow webhook
// does.
func (c *Client) Notify(_ context.Context, event OperationEvent) {
	if !c.enabled {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if c.breaker.IsOpen() {
		c.logger.Warn("workflow webhook circuit open, dropping event",
			"event_type", event.EventType,
			"operation_id", event.OperationID,
		)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.send(ctx, event); err != nil {
			c.logger.Warn("workflow webhook delivery failed",
				"event_type", event.EventType,
				"operation_id", event.OperationID,
				"error", err,
			)
		}
	}()
}

// TestFire delivers a synthetic event synchronously and reports the result,
// for the admin connectivity check.
func (c *Client) TestFire(ctx context.Context) error {
	if !c.enabled {
		return fmt.Errorf("workflow webhook is not configured")
	}
	err := c.send(ctx, OperationEvent{
		EventType: EventTestFire,
		Timestamp: time.Now(),
	})
	// A successful test fire also recovers an open circuit.
	if err == nil {
		c.breaker.Reset()
	}
	return err
}

func (c *Client) send(ctx context.Context, event OperationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		err = fmt.Errorf("deliver event: %w", err)
		c.recordOutcome(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := fmt.Errorf("webhook returned status %d", resp.StatusCode)
		c.recordOutcome(err)
		return err
	}
	c.recordOutcome(nil)
	return nil
}

func (c *Client) recordOutcome(err error) {
	if err == nil {
		_, change := c.breaker.RecordSuccess()
		if change.Closed {
			c.logger.Info("workflow webhook circuit closed")
		}
		return
	}
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.Warn("workflow webhook circuit opened", "error", err)
	}
}
