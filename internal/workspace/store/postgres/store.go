// Package postgres persists workspaces in the workspaces table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"opsgov/internal/workspace"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const workspaceColumns = `id, name, status, risk_level, governance_mode, created_at, updated_at`

func (s *Store) Create(ctx context.Context, ws *workspace.Workspace) error {
	query := `
		INSERT INTO workspaces (` + workspaceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(ws.ID),
		ws.Name,
		string(ws.Status),
		string(ws.RiskLevel),
		string(ws.GovernanceMode),
		ws.CreatedAt,
		ws.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert workspace: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, workspaceID id.WorkspaceID) (*workspace.Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = $1`
	return scanWorkspace(s.db.QueryRowContext(ctx, query, uuid.UUID(workspaceID)))
}

func (s *Store) List(ctx context.Context) ([]*workspace.Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*workspace.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspaces: %w", err)
	}
	return workspaces, nil
}

func (s *Store) Update(ctx context.Context, ws *workspace.Workspace) error {
	query := `
		UPDATE workspaces
		SET name = $2, status = $3, risk_level = $4, governance_mode = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(ws.ID),
		ws.Name,
		string(ws.Status),
		string(ws.RiskLevel),
		string(ws.GovernanceMode),
		ws.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update workspace: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update workspace: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(row rowScanner) (*workspace.Workspace, error) {
	var (
		ws          workspace.Workspace
		workspaceID uuid.UUID
	)
	err := row.Scan(
		&workspaceID,
		&ws.Name,
		&ws.Status,
		&ws.RiskLevel,
		&ws.GovernanceMode,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan workspace: %w", err)
	}
	ws.ID = id.WorkspaceID(workspaceID)
	return &ws, nil
}
