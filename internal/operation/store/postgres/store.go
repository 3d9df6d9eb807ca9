// Package postgres persists operations in the operations and
// operation_history tables.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"opsgov/internal/operation"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const operationColumns = `id, workspace_id, title, description, type, priority, status,
	risk_score, risk_level, confidence_level, blocked_reason, blocked_by_policy,
	created_by, assignee, validator, created_at, updated_at`

func (s *Store) Create(ctx context.Context, op *operation.Operation) error {
	query := `
		INSERT INTO operations (` + operationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(op.ID),
		uuid.UUID(op.WorkspaceID),
		op.Title,
		op.Description,
		string(op.Type),
		string(op.Priority),
		string(op.Status),
		op.RiskScore,
		string(op.RiskLevel),
		op.ConfidenceLevel,
		op.BlockedReason,
		op.BlockedByPolicy,
		uuid.UUID(op.CreatedBy),
		optionalUUID(op.Assignee),
		optionalUUID(op.Validator),
		op.CreatedAt,
		op.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, operationID id.OperationID) (*operation.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE id = $1`
	return scanOperation(s.db.QueryRowContext(ctx, query, uuid.UUID(operationID)))
}

func (s *Store) List(ctx context.Context, filter operation.ListFilter) ([]*operation.Operation, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.WorkspaceID.IsNil() {
		conditions = append(conditions, "workspace_id = "+arg(uuid.UUID(filter.WorkspaceID)))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(string(filter.Status)))
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = "+arg(string(filter.Type)))
	}
	if filter.Priority != "" {
		conditions = append(conditions, "priority = "+arg(string(filter.Priority)))
	}

	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + operationColumns + ` FROM operations`)
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var operations []*operation.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		operations = append(operations, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return operations, nil
}

func (s *Store) Update(ctx context.Context, op *operation.Operation) error {
	query := `
		UPDATE operations
		SET title = $2, description = $3, status = $4, risk_score = $5,
			risk_level = $6, confidence_level = $7, blocked_reason = $8,
			blocked_by_policy = $9, assignee = $10, validator = $11, updated_at = $12
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(op.ID),
		op.Title,
		op.Description,
		string(op.Status),
		op.RiskScore,
		string(op.RiskLevel),
		op.ConfidenceLevel,
		op.BlockedReason,
		op.BlockedByPolicy,
		optionalUUID(op.Assignee),
		optionalUUID(op.Validator),
		op.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update operation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update operation: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) AppendHistory(ctx context.Context, entry operation.HistoryEntry) error {
	query := `
		INSERT INTO operation_history (id, operation_id, from_status, to_status, changed_by, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.OperationID),
		string(entry.FromStatus),
		string(entry.ToStatus),
		uuid.UUID(entry.ChangedBy),
		entry.Reason,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert operation history: %w", err)
	}
	return nil
}

func (s *Store) HistoryFor(ctx context.Context, operationID id.OperationID) ([]operation.HistoryEntry, error) {
	query := `
		SELECT id, operation_id, from_status, to_status, changed_by, reason, created_at
		FROM operation_history
		WHERE operation_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(operationID))
	if err != nil {
		return nil, fmt.Errorf("query operation history: %w", err)
	}
	defer rows.Close()

	var entries []operation.HistoryEntry
	for rows.Next() {
		var (
			entry   operation.HistoryEntry
			entryID uuid.UUID
			opID    uuid.UUID
			changed uuid.UUID
		)
		err := rows.Scan(&entryID, &opID, &entry.FromStatus, &entry.ToStatus, &changed, &entry.Reason, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan operation history: %w", err)
		}
		entry.ID = id.AuditEventID(entryID)
		entry.OperationID = id.OperationID(opID)
		entry.ChangedBy = id.UserID(changed)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation history: %w", err)
	}
	return entries, nil
}

func (s *Store) DashboardMetrics(ctx context.Context, workspaceID id.WorkspaceID) (operation.DashboardMetrics, error) {
	metrics := operation.DashboardMetrics{ByStatus: make(map[id.OperationStatus]int)}

	query := `
		SELECT status, COUNT(*), COALESCE(AVG(risk_score), 0), COALESCE(AVG(confidence_level), 0)
		FROM operations
		WHERE workspace_id = $1
		GROUP BY status
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(workspaceID))
	if err != nil {
		return metrics, fmt.Errorf("query dashboard metrics: %w", err)
	}
	defer rows.Close()

	var riskSum, confidenceSum float64
	for rows.Next() {
		var (
			status        string
			count         int
			avgRisk       float64
			avgConfidence float64
		)
		if err := rows.Scan(&status, &count, &avgRisk, &avgConfidence); err != nil {
			return metrics, fmt.Errorf("scan dashboard metrics: %w", err)
		}
		metrics.ByStatus[id.OperationStatus(status)] = count
		metrics.Total += count
		riskSum += avgRisk * float64(count)
		confidenceSum += avgConfidence * float64(count)
	}
	if err := rows.Err(); err != nil {
		return metrics, fmt.Errorf("iterate dashboard metrics: %w", err)
	}

	if metrics.Total > 0 {
		metrics.AverageRiskScore = riskSum / float64(metrics.Total)
		metrics.AverageConfidence = confidenceSum / float64(metrics.Total)
	}
	return metrics, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (*operation.Operation, error) {
	var (
		op          operation.Operation
		operationID uuid.UUID
		workspaceID uuid.UUID
		createdBy   uuid.UUID
		assignee    *uuid.UUID
		validator   *uuid.UUID
	)
	err := row.Scan(
		&operationID,
		&workspaceID,
		&op.Title,
		&op.Description,
		&op.Type,
		&op.Priority,
		&op.Status,
		&op.RiskScore,
		&op.RiskLevel,
		&op.ConfidenceLevel,
		&op.BlockedReason,
		&op.BlockedByPolicy,
		&createdBy,
		&assignee,
		&validator,
		&op.CreatedAt,
		&op.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan operation: %w", err)
	}
	op.ID = id.OperationID(operationID)
	op.WorkspaceID = id.WorkspaceID(workspaceID)
	op.CreatedBy = id.UserID(createdBy)
	if assignee != nil {
		userID := id.UserID(*assignee)
		op.Assignee = &userID
	}
	if validator != nil {
		userID := id.UserID(*validator)
		op.Validator = &userID
	}
	return &op, nil
}

func optionalUUID(userID *id.UserID) *uuid.UUID {
	if userID == nil {
		return nil
	}
	raw := uuid.UUID(*userID)
	return &raw
}
