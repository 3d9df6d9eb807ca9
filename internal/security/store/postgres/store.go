// Package postgres persists security events in the security_events table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"opsgov/internal/security"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const eventColumns = `id, workspace_id, type, category, severity, description, requires_review, status, resolved_by, resolved_at, created_at`

func (s *Store) Create(ctx context.Context, e *security.Event) error {
	query := `
		INSERT INTO security_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(e.ID),
		uuid.UUID(e.WorkspaceID),
		e.Type,
		e.Category,
		string(e.Severity),
		e.Description,
		e.RequiresReview,
		string(e.Status),
		optionalUserID(e.ResolvedBy),
		e.ResolvedAt,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, eventID id.SecurityEventID) (*security.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM security_events WHERE id = $1`
	return scanEvent(s.db.QueryRowContext(ctx, query, uuid.UUID(eventID)))
}

func (s *Store) ListByWorkspace(ctx context.Context, workspaceID id.WorkspaceID, limit int) ([]*security.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM security_events
		WHERE workspace_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(workspaceID), limit)
	if err != nil {
		return nil, fmt.Errorf("query security events: %w", err)
	}
	defer rows.Close()

	var events []*security.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security events: %w", err)
	}
	return events, nil
}

func (s *Store) Update(ctx context.Context, e *security.Event) error {
	query := `
		UPDATE security_events
		SET requires_review = $2, status = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(e.ID),
		e.RequiresReview,
		string(e.Status),
		optionalUserID(e.ResolvedBy),
		e.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("update security event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func optionalUserID(userID *id.UserID) *uuid.UUID {
	if userID == nil {
		return nil
	}
	raw := uuid.UUID(*userID)
	return &raw
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*security.Event, error) {
	var (
		e           security.Event
		eventID     uuid.UUID
		workspaceID uuid.UUID
		resolvedBy  *uuid.UUID
		resolvedAt  sql.NullTime
	)
	err := row.Scan(
		&eventID,
		&workspaceID,
		&e.Type,
		&e.Category,
		&e.Severity,
		&e.Description,
		&e.RequiresReview,
		&e.Status,
		&resolvedBy,
		&resolvedAt,
		&e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan security event: %w", err)
	}
	e.ID = id.SecurityEventID(eventID)
	e.WorkspaceID = id.WorkspaceID(workspaceID)
	if resolvedBy != nil {
		userID := id.UserID(*resolvedBy)
		e.ResolvedBy = &userID
	}
	if resolvedAt.Valid {
		e.ResolvedAt = &resolvedAt.Time
	}
	return &e, nil
}
