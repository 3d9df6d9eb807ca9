// Package postgres persists machines in the machines table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"opsgov/internal/machine"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const machineColumns = `id, workspace_id, name, client, os, status, ip, created_at, updated_at`

func (s *Store) Create(ctx context.Context, m *machine.Machine) error {
	query := `
		INSERT INTO machines (` + machineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(m.ID),
		uuid.UUID(m.WorkspaceID),
		m.Name,
		m.Client,
		m.OS,
		string(m.Status),
		m.IP,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert machine: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, machineID id.MachineID) (*machine.Machine, error) {
	query := `SELECT ` + machineColumns + ` FROM machines WHERE id = $1`
	return scanMachine(s.db.QueryRowContext(ctx, query, uuid.UUID(machineID)))
}

func (s *Store) ListByWorkspace(ctx context.Context, workspaceID id.WorkspaceID, limit int) ([]*machine.Machine, error) {
	query := `
		SELECT ` + machineColumns + `
		FROM machines
		WHERE workspace_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(workspaceID), limit)
	if err != nil {
		return nil, fmt.Errorf("query machines: %w", err)
	}
	defer rows.Close()

	var machines []*machine.Machine
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, err
		}
		machines = append(machines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate machines: %w", err)
	}
	return machines, nil
}

func (s *Store) Update(ctx context.Context, m *machine.Machine) error {
	query := `
		UPDATE machines
		SET name = $2, client = $3, os = $4, status = $5, ip = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(m.ID),
		m.Name,
		m.Client,
		m.OS,
		string(m.Status),
		m.IP,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update machine: %w", err)
	}
	return ensureAffected(result)
}

func (s *Store) Delete(ctx context.Context, machineID id.MachineID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM machines WHERE id = $1`, uuid.UUID(machineID))
	if err != nil {
		return fmt.Errorf("delete machine: %w", err)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMachine(row rowScanner) (*machine.Machine, error) {
	var (
		m           machine.Machine
		machineID   uuid.UUID
		workspaceID uuid.UUID
	)
	err := row.Scan(
		&machineID,
		&workspaceID,
		&m.Name,
		&m.Client,
		&m.OS,
		&m.Status,
		&m.IP,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan machine: %w", err)
	}
	m.ID = id.MachineID(machineID)
	m.WorkspaceID = id.WorkspaceID(workspaceID)
	return &m, nil
}
