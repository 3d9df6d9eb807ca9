// Package postgres persists the audit trail in the audit_events table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"opsgov/internal/audit"
	id "opsgov/pkg/domain"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	oldValue, err := marshalSnapshot(event.OldValue)
	if err != nil {
		return fmt.Errorf("marshal old value: %w", err)
	}
	newValue, err := marshalSnapshot(event.NewValue)
	if err != nil {
		return fmt.Errorf("marshal new value: %w", err)
	}

	var performedBy *uuid.UUID
	if !event.PerformedBy.IsNil() {
		uid := uuid.UUID(event.PerformedBy)
		performedBy = &uid
	}

	query := `
		INSERT INTO audit_events (
			id, workspace_id, entity_type, entity_id, action,
			decision_type, decision_reason, policy_applied, risk_score,
			old_value, new_value, performed_by, ip, user_agent,
			request_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(event.ID),
		uuid.UUID(event.WorkspaceID),
		event.EntityType,
		event.EntityID,
		event.Action,
		string(event.DecisionType),
		event.DecisionReason,
		event.PolicyApplied,
		event.RiskScore,
		oldValue,
		newValue,
		performedBy,
		event.IP,
		event.UserAgent,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, query audit.Query) ([]audit.Event, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if !query.WorkspaceID.IsNil() {
		conditions = append(conditions, "workspace_id = "+arg(uuid.UUID(query.WorkspaceID)))
	}
	if query.EntityType != "" {
		conditions = append(conditions, "entity_type = "+arg(query.EntityType))
	}
	if query.EntityID != "" {
		conditions = append(conditions, "entity_id = "+arg(query.EntityID))
	}
	if query.Action != "" {
		conditions = append(conditions, "action = "+arg(query.Action))
	}
	if query.DecisionType != "" {
		conditions = append(conditions, "decision_type = "+arg(string(query.DecisionType)))
	}
	if !query.PerformedBy.IsNil() {
		conditions = append(conditions, "performed_by = "+arg(uuid.UUID(query.PerformedBy)))
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT id, workspace_id, entity_type, entity_id, action,
			   decision_type, decision_reason, policy_applied, risk_score,
			   old_value, new_value, performed_by, ip, user_agent,
			   request_id, created_at
		FROM audit_events
	`)
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC")
	sb.WriteString(" LIMIT " + arg(query.Limit))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *Store) CountSystemBlocks(ctx context.Context, userID id.UserID, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM audit_events
		WHERE performed_by = $1
		  AND decision_type = $2
		  AND policy_applied <> ''
		  AND created_at >= $3
	`
	var count int
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(userID), string(audit.DecisionSystem), since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count system blocks: %w", err)
	}
	return count, nil
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			event       audit.Event
			eventID     uuid.UUID
			workspaceID uuid.UUID
			performedBy *uuid.UUID
			oldValue    []byte
			newValue    []byte
		)

		err := rows.Scan(
			&eventID,
			&workspaceID,
			&event.EntityType,
			&event.EntityID,
			&event.Action,
			&event.DecisionType,
			&event.DecisionReason,
			&event.PolicyApplied,
			&event.RiskScore,
			&oldValue,
			&newValue,
			&performedBy,
			&event.IP,
			&event.UserAgent,
			&event.RequestID,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.ID = id.AuditEventID(eventID)
		event.WorkspaceID = id.WorkspaceID(workspaceID)
		if performedBy != nil {
			event.PerformedBy = id.UserID(*performedBy)
		}
		if event.OldValue, err = unmarshalSnapshot(oldValue); err != nil {
			return nil, fmt.Errorf("decode old value: %w", err)
		}
		if event.NewValue, err = unmarshalSnapshot(newValue); err != nil {
			return nil, fmt.Errorf("decode new value: %w", err)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func marshalSnapshot(snapshot map[string]any) ([]byte, error) {
	if snapshot == nil {
		return nil, nil
	}
	return json.Marshal(snapshot)
}

func unmarshalSnapshot(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var snapshot map[string]any
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
