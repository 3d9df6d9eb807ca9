// Package postgres persists user accounts in the users table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"opsgov/internal/identity"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const userColumns = `id, workspace_id, email, name, password_hash, role, status, created_at, updated_at`

func (s *Store) Create(ctx context.Context, user *identity.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID),
		uuid.UUID(user.WorkspaceID),
		user.Email,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		string(user.Status),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, userID id.UserID) (*identity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.scanUser(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *Store) ListByWorkspace(ctx context.Context, workspaceID id.WorkspaceID) ([]*identity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE workspace_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(workspaceID))
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*identity.User
	for rows.Next() {
		user, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *Store) Update(ctx context.Context, user *identity.User) error {
	query := `
		UPDATE users
		SET name = $2, password_hash = $3, status = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID),
		user.Name,
		user.PasswordHash,
		string(user.Status),
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID id.UserID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanUser(row rowScanner) (*identity.User, error) {
	var (
		user        identity.User
		userID      uuid.UUID
		workspaceID uuid.UUID
	)
	err := row.Scan(
		&userID,
		&workspaceID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.UserID(userID)
	user.WorkspaceID = id.WorkspaceID(workspaceID)
	return &user, nil
}
