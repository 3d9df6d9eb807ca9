// Package postgres persists leads in the leads table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"opsgov/internal/lead"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const leadColumns = `id, workspace_id, name, email, phone, status, estimated_value, assignee, created_at, updated_at`

func (s *Store) Create(ctx context.Context, l *lead.Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(l.ID),
		uuid.UUID(l.WorkspaceID),
		l.Name,
		l.Email,
		l.Phone,
		string(l.Status),
		l.EstimatedValue,
		optionalUserID(l.Assignee),
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, leadID id.LeadID) (*lead.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return scanLead(s.db.QueryRowContext(ctx, query, uuid.UUID(leadID)))
}

func (s *Store) ListByWorkspace(ctx context.Context, workspaceID id.WorkspaceID, limit int) ([]*lead.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE workspace_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(workspaceID), limit)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var leads []*lead.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

func (s *Store) Update(ctx context.Context, l *lead.Lead) error {
	query := `
		UPDATE leads
		SET name = $2, email = $3, phone = $4, status = $5, estimated_value = $6, assignee = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(l.ID),
		l.Name,
		l.Email,
		l.Phone,
		string(l.Status),
		l.EstimatedValue,
		optionalUserID(l.Assignee),
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return ensureAffected(result)
}

func (s *Store) Delete(ctx context.Context, leadID id.LeadID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, uuid.UUID(leadID))
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return ensureAffected(result)
}

func ensureAffected(result sql.Result) error {
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

func scanLead(row rowScanner) (*lead.Lead, error) {
	var (
		l           lead.Lead
		leadID      uuid.UUID
		workspaceID uuid.UUID
		assignee    *uuid.UUID
	)
	err := row.Scan(
		&leadID,
		&workspaceID,
		&l.Name,
		&l.Email,
		&l.Phone,
		&l.Status,
		&l.EstimatedValue,
		&assignee,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead: %w", err)
	}
	l.ID = id.LeadID(leadID)
	l.WorkspaceID = id.WorkspaceID(workspaceID)
	if assignee != nil {
		userID := id.UserID(*assignee)
		l.Assignee = &userID
	}
	return &l, nil
}
